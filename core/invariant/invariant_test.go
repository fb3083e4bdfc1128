package invariant_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/invariant"
)

// panicMessage runs fn and returns the recovered panic text, or "" if fn returned normally.
func panicMessage(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%v", r)
		}
	}()
	fn()
	return ""
}

func TestPassingChecksDoNotPanic(t *testing.T) {
	level := 2
	assert.NotPanics(t, func() {
		invariant.Precondition(level >= 1, "level must be >= 1")
		invariant.Postcondition(true, "unused")
		invariant.Invariant(level%2 == 0, "even")
		invariant.NotNil(&level, "level")
		invariant.InRange(62, 0, 62, "subscript")
		invariant.InRange(0, 0, 62, "subscript")
	})
}

func TestViolationMessages(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		kind string
		text string
	}{
		{
			name: "precondition",
			fn:   func() { invariant.Precondition(false, "level %d must be >= 1", 0) },
			kind: "PRECONDITION VIOLATION",
			text: "level 0 must be >= 1",
		},
		{
			name: "postcondition",
			fn:   func() { invariant.Postcondition(false, "denominator must be integral") },
			kind: "POSTCONDITION VIOLATION",
			text: "denominator must be integral",
		},
		{
			name: "invariant",
			fn:   func() { invariant.Invariant(false, "space %d has LHS without RHS", 3) },
			kind: "INVARIANT VIOLATION",
			text: "space 3 has LHS without RHS",
		},
		{
			name: "typed nil",
			fn: func() {
				var p *int
				invariant.NotNil(p, "expr")
			},
			kind: "PRECONDITION VIOLATION",
			text: "expr must not be nil",
		},
		{
			name: "untyped nil",
			fn:   func() { invariant.NotNil(nil, "store") },
			kind: "PRECONDITION VIOLATION",
			text: "store must not be nil",
		},
		{
			name: "above range",
			fn:   func() { invariant.InRange(63, 0, 62, "subscript") },
			kind: "PRECONDITION VIOLATION",
			text: "subscript must be in range [0, 62], got 63",
		},
		{
			name: "below range",
			fn:   func() { invariant.InRange(-1, 0, 62, "subscript") },
			kind: "PRECONDITION VIOLATION",
			text: "got -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := panicMessage(tt.fn)
			require.NotEmpty(t, msg, "expected a panic")
			assert.Contains(t, msg, tt.kind)
			assert.Contains(t, msg, tt.text)
			assert.Contains(t, msg, "\n  at ", "violation should carry the call site")
		})
	}
}
