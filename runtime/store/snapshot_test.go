package store

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/snapshot"
	"github.com/opal-lang/mathcore/core/token"
)

func TestCaptureRestoreRoundTrip(t *testing.T) {
	syms := token.NewSymbols()
	vx, err := syms.Intern("x")
	require.NoError(t, err)
	vy, err := syms.Intern("y")
	require.NoError(t, err)
	sign, err := token.SignVar(2)
	require.NoError(t, err)

	src := newStore(t, Config{MaxSpaces: 6})
	sum := []token.Token{token.VarTok(vx, 1), token.OpTok(token.Plus, 1), token.VarTok(sign, 1)}
	fill(t, src, 0, tv(vy), sum)
	fill(t, src, 3, tv(vx), nil)
	src.SetCurrent(3)

	var buf bytes.Buffer
	_, err = snapshot.Write(&buf, src.Capture(syms))
	require.NoError(t, err)
	snap, _, err := snapshot.Read(&buf)
	require.NoError(t, err)
	require.Len(t, snap.Spaces, 2, "empty spaces are not saved")

	dstSyms := token.NewSymbols()
	_, err = dstSyms.Intern("stale")
	require.NoError(t, err)
	dst := newStore(t, Config{MaxSpaces: 6})
	fill(t, dst, 1, tv(x), tv(y))

	require.NoError(t, dst.Restore(dstSyms, snap))
	assert.Equal(t, []string{"x", "y"}, dstSyms.Names())
	assert.Equal(t, 3, dst.Current())
	assert.True(t, dst.Raw(1).Empty(), "old contents are cleared")

	opts := cmp.AllowUnexported(token.Token{})
	if diff := cmp.Diff(sum, dst.Raw(0).RHS.Tokens(), opts); diff != "" {
		t.Errorf("space 1 rhs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tv(vx), dst.Raw(3).LHS.Tokens(), opts); diff != "" {
		t.Errorf("space 4 lhs mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, dst.Raw(3).IsEquation())

	next, ok := dst.NextSignVar()
	assert.True(t, ok)
	assert.NotEqual(t, sign, next, "restored sign variables stay reserved")
}

func TestRestoreRejectsWithoutSideEffects(t *testing.T) {
	good := func() *snapshot.Snapshot {
		return &snapshot.Snapshot{
			Version: snapshot.CurrentVersion,
			Names:   []string{"x"},
			Spaces: []snapshot.Space{
				{ID: 0, LHS: snapshot.FromTokens(tv(x))},
			},
		}
	}
	tests := []struct {
		name   string
		mutate func(s *snapshot.Snapshot)
		want   string
	}{
		{"space out of range", func(s *snapshot.Snapshot) { s.Spaces[0].ID = 4 }, "Invalid equation number."},
		{"current out of range", func(s *snapshot.Snapshot) { s.Current = -1 }, "Invalid equation number."},
		{"duplicate space", func(s *snapshot.Snapshot) { s.Spaces = append(s.Spaces, s.Spaces[0]) }, "duplicate equation space"},
		{"empty lhs", func(s *snapshot.Snapshot) { s.Spaces[0].LHS = nil }, "empty left side"},
		{"bad name", func(s *snapshot.Snapshot) { s.Names = []string{"1x"} }, "bad variable name"},
		{"duplicate name", func(s *snapshot.Snapshot) { s.Names = []string{"x", "x"} }, "duplicate variable name"},
		{"unnamed variable", func(s *snapshot.Snapshot) { s.Names = nil }, "has no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syms := token.NewSymbols()
			_, err := syms.Intern("keep")
			require.NoError(t, err)
			s := newStore(t, Config{MaxSpaces: 4})
			fill(t, s, 1, tv(x), tv(y))
			s.SetCurrent(1)

			snap := good()
			tt.mutate(snap)
			err = s.Restore(syms, snap)
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrSnapshot))
			assert.Contains(t, err.Error(), tt.want)

			assert.Equal(t, []string{"keep"}, syms.Names())
			assert.Equal(t, 1, s.Current())
			assert.True(t, s.Raw(1).IsEquation())
		})
	}
}

func TestRestoreRejectsOversizedSide(t *testing.T) {
	long := make([]token.Token, 0, MinTokens+1)
	long = append(long, token.Num(1, 1))
	for len(long) < MinTokens+1 {
		long = append(long, token.OpTok(token.Plus, 1), token.Num(1, 1))
	}
	snap := &snapshot.Snapshot{
		Version: snapshot.CurrentVersion,
		Spaces:  []snapshot.Space{{ID: 0, LHS: snapshot.FromTokens(long)}},
	}
	s := newStore(t, Config{Tokens: MinTokens})
	err := s.Restore(token.NewSymbols(), snap)
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))
}
