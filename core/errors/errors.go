// Package errors defines the failure taxonomy shared by every mathcore
// component. All of these are recoverable from the caller's point of view:
// the command that produced one is aborted and the previously current
// equation space is left untouched.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error types reported by the engine.
const (
	// Expression growth
	ErrCapacityExceeded = "CAPACITY_EXCEEDED"

	// Constant folding
	ErrDomain = "DOMAIN_ERROR"
	ErrRange  = "RANGE_ERROR"

	// Transform preconditions
	ErrStructural = "STRUCTURAL_REJECTION"

	// Numeric integration
	ErrDivergence  = "DIVERGENCE_DETECTED"
	ErrSingularity = "SINGULARITY_DETECTED"

	// Command arguments
	ErrConflictingOptions = "CONFLICTING_OPTIONS"
	ErrMalformedArgument  = "MALFORMED_ARGUMENT"

	// Equation-space store
	ErrOutOfSpaces     = "OUT_OF_EQUATION_SPACES"
	ErrNoCurrent       = "NO_CURRENT_EQUATION"
	ErrInvalidSpace    = "INVALID_EQUATION_NUMBER"
	ErrEmptySpace      = "EMPTY_EQUATION_SPACE"
	ErrOutOfSignVars   = "OUT_OF_SIGN_VARIABLES"
	ErrOutOfVariables  = "OUT_OF_VARIABLE_NAMES"
	ErrInvalidVariable = "INVALID_VARIABLE"

	// Session and tooling
	ErrParse           = "PARSE_ERROR"
	ErrCommandNotFound = "COMMAND_NOT_FOUND"
	ErrConfig          = "CONFIG_ERROR"
	ErrSnapshot        = "SNAPSHOT_ERROR"
)

// MathError is a structured error with a type and optional context.
type MathError struct {
	Type    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *MathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *MathError) Unwrap() error {
	return e.Cause
}

// New creates a new MathError
func New(errorType, message string) *MathError {
	return &MathError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Newf creates a new MathError with a formatted message
func Newf(errorType, format string, args ...interface{}) *MathError {
	return New(errorType, fmt.Sprintf(format, args...))
}

// Wrap creates a new MathError wrapping an existing error
func Wrap(errorType, message string, cause error) *MathError {
	return &MathError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *MathError) WithContext(key string, value interface{}) *MathError {
	e.Context[key] = value
	return e
}

// GetType returns the error type
func (e *MathError) GetType() string {
	return e.Type
}

// GetContext returns context value by key
func (e *MathError) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewCapacityError reports that an expression would need more tokens than
// the shared capacity allows.
func NewCapacityError(need, capacity int) *MathError {
	return New(ErrCapacityExceeded, "Expression too large.").
		WithContext("need", need).
		WithContext("capacity", capacity)
}

// NewStructuralError reports a term that does not satisfy a transform's precondition.
func NewStructuralError(message string) *MathError {
	return New(ErrStructural, message)
}

// NewDomainError reports a constant-folding result outside the function's domain.
func NewDomainError(op string, a, b float64) *MathError {
	return New(ErrDomain, "Domain error in constant.").
		WithContext("op", op).
		WithContext("operands", [2]float64{a, b})
}

// NewRangeError reports a constant-folding overflow.
func NewRangeError(op string, a, b float64) *MathError {
	return New(ErrRange, "Overflow error in constant.").
		WithContext("op", op).
		WithContext("operands", [2]float64{a, b})
}

// NewMalformedArgument reports an unparsable or out-of-range command argument.
func NewMalformedArgument(message string) *MathError {
	return New(ErrMalformedArgument, message)
}

// NewCommandNotFoundError creates a command not found error
func NewCommandNotFoundError(commandName string, suggestion string) *MathError {
	e := New(ErrCommandNotFound, fmt.Sprintf("Unknown command '%s'.", commandName)).
		WithContext("command", commandName)
	if suggestion != "" {
		e.WithContext("suggestion", suggestion)
	}
	return e
}

// NewParseError creates a parsing error
func NewParseError(message string, cause error) *MathError {
	return Wrap(ErrParse, message, cause)
}

// IsErrorType reports whether err, or any error it wraps, is a MathError of errorType.
func IsErrorType(err error, errorType string) bool {
	var mathErr *MathError
	if stderrors.As(err, &mathErr) {
		return mathErr.Type == errorType
	}
	return false
}

// TypeOf returns the MathError type of err, or "" if err is not one.
func TypeOf(err error) string {
	var mathErr *MathError
	if stderrors.As(err, &mathErr) {
		return mathErr.Type
	}
	return ""
}
