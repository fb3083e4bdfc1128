package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScriptIsEchoed(t *testing.T) {
	script := writeFile(t, "calc.mc", "x^2\nintegrate x\n")
	stdout, stderr, err := execute(t, "", script)
	require.NoError(t, err, stderr)
	assert.Equal(t, "1-> x^2\n#1: x^2\n1-> integrate x\n#2: x^3/3\n2-> \n", stdout)
}

func TestPipedInputIsQuiet(t *testing.T) {
	stdout, _, err := execute(t, "x\ncopy\n")
	require.NoError(t, err)
	assert.Equal(t, "#1: x\n#2: x\n", stdout)

	stdout, _, err = execute(t, "y\n", "-")
	require.NoError(t, err)
	assert.Equal(t, "#1: y\n", stdout)
}

func TestFailedLinesFailTheRun(t *testing.T) {
	stdout, stderr, err := execute(t, "x*x\nintegrate x\nlist\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 line(s) failed")
	assert.Contains(t, stderr, "Error: Integration failed")
	assert.Equal(t, "#1: x*x\n#1: x*x\n", stdout)
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfgPath := writeFile(t, "mathcore.yaml", "max_spaces: 5\n")
	_, stderr, err := execute(t, "x\ny\n", "--config", cfgPath, "--spaces", "1")
	require.Error(t, err)
	assert.Contains(t, stderr, "Out of free equation spaces.")
}

func TestConfigErrors(t *testing.T) {
	_, _, err := execute(t, "", "--tokens", "50")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "/tokens")

	bad := writeFile(t, "bad.yaml", "partitions: 3\n")
	_, _, err = execute(t, "", "--config", bad)
	assert.True(t, errors.IsErrorType(err, errors.ErrConfig))

	_, _, err = execute(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.True(t, errors.IsErrorType(err, errors.ErrConfig))
}

func TestScriptErrors(t *testing.T) {
	_, _, err := execute(t, "", filepath.Join(t.TempDir(), "missing.mc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error opening script")

	_, _, err = execute(t, "", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch needs a script file")

	_, _, err = execute(t, "", "a", "b")
	assert.Error(t, err)
}

func TestUseColor(t *testing.T) {
	assert.True(t, useColor("always", false))
	assert.False(t, useColor("always", true))
	assert.False(t, useColor("never", false))
}
