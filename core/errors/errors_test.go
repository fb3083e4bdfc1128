package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMathErrorMessage(t *testing.T) {
	err := New(ErrStructural, "Integration failed, not a polynomial.")
	assert.Equal(t, "Integration failed, not a polynomial.", err.Error())
	assert.Equal(t, ErrStructural, err.GetType())

	wrapped := Wrap(ErrSnapshot, "cannot read snapshot", fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "cannot read snapshot (caused by: unexpected EOF)", wrapped.Error())
	assert.Equal(t, "unexpected EOF", stderrors.Unwrap(wrapped).Error())
}

func TestCapacityErrorContext(t *testing.T) {
	err := NewCapacityError(120, 100)

	need, ok := err.GetContext("need")
	assert.True(t, ok)
	assert.Equal(t, 120, need)

	capacity, ok := err.GetContext("capacity")
	assert.True(t, ok)
	assert.Equal(t, 100, capacity)

	_, ok = err.GetContext("missing")
	assert.False(t, ok)
}

func TestIsErrorTypeSeesThroughWrapping(t *testing.T) {
	base := NewCapacityError(10, 5)
	wrapped := fmt.Errorf("integrate: %w", base)

	assert.True(t, IsErrorType(base, ErrCapacityExceeded))
	assert.True(t, IsErrorType(wrapped, ErrCapacityExceeded))
	assert.False(t, IsErrorType(wrapped, ErrDomain))
	assert.False(t, IsErrorType(fmt.Errorf("plain"), ErrDomain))
	assert.False(t, IsErrorType(nil, ErrDomain))

	assert.Equal(t, ErrCapacityExceeded, TypeOf(wrapped))
	assert.Equal(t, "", TypeOf(fmt.Errorf("plain")))
}

func TestCommandNotFoundSuggestion(t *testing.T) {
	err := NewCommandNotFoundError("integrat", "integrate")
	s, ok := err.GetContext("suggestion")
	assert.True(t, ok)
	assert.Equal(t, "integrate", s)

	err = NewCommandNotFoundError("zzz", "")
	_, ok = err.GetContext("suggestion")
	assert.False(t, ok)
}
