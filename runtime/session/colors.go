package session

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/opal-lang/mathcore/core/errors"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in an ANSI color when useColor is set.
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// ShouldUseColor reports whether stdout should be colored. noColorFlag and
// the NO_COLOR environment variable both turn color off.
func ShouldUseColor(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// FormatError writes err for the user, followed by any hint it carries. An
// unknown command gets a "did you mean" hint when a close match exists.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())

	var me *errors.MathError
	if !stderrors.As(err, &me) {
		return
	}
	if suggestion, ok := me.GetContext("suggestion"); ok {
		_, _ = fmt.Fprintf(w, "%sdid you mean '%v'?\n", Colorize("Hint: ", ColorYellow, useColor), suggestion)
	}
	if hint, ok := me.GetContext("hint"); ok {
		_, _ = fmt.Fprintf(w, "%s%v\n", Colorize("Hint: ", ColorYellow, useColor), hint)
	}
}

// FormatWarning writes a non-fatal message.
func FormatWarning(w io.Writer, msg string, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Warning: ", ColorYellow, useColor), msg)
}
