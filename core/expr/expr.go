// Package expr holds one equation side: a fixed-capacity, level-encoded
// token sequence, plus the structural primitives that inspect and rewrite it.
//
// Capacity is fixed when the Expr is created and never grows. Every mutating
// operation checks it first and returns a CAPACITY_EXCEEDED error instead of
// truncating or reallocating.
package expr

import (
	"fmt"
	"strings"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/invariant"
	"github.com/opal-lang/mathcore/core/token"
)

// Expr is an equation side.
type Expr struct {
	toks []token.Token
}

// New returns an empty Expr holding at most capacity tokens.
func New(capacity int) *Expr {
	invariant.Precondition(capacity > 0, "capacity must be positive, got %d", capacity)
	return &Expr{toks: make([]token.Token, 0, capacity)}
}

// FromTokens returns an Expr of the given capacity holding a copy of toks.
func FromTokens(capacity int, toks ...token.Token) (*Expr, error) {
	e := New(capacity)
	if err := e.Set(toks); err != nil {
		return nil, err
	}
	return e, nil
}

// Len returns the logical length.
func (e *Expr) Len() int { return len(e.toks) }

// Cap returns the fixed capacity.
func (e *Expr) Cap() int { return cap(e.toks) }

// Empty reports whether the side holds no tokens.
func (e *Expr) Empty() bool { return len(e.toks) == 0 }

// Tokens returns the live token slice. Callers may modify levels in place
// but must not append to it.
func (e *Expr) Tokens() []token.Token { return e.toks }

// Snapshot returns an independent copy of the tokens.
func (e *Expr) Snapshot() []token.Token {
	out := make([]token.Token, len(e.toks))
	copy(out, e.toks)
	return out
}

// At returns the token at index i.
func (e *Expr) At(i int) token.Token {
	invariant.Precondition(i >= 0 && i < len(e.toks), "index %d out of range [0, %d)", i, len(e.toks))
	return e.toks[i]
}

// SetAt overwrites the token at index i.
func (e *Expr) SetAt(i int, t token.Token) {
	invariant.Precondition(i >= 0 && i < len(e.toks), "index %d out of range [0, %d)", i, len(e.toks))
	e.toks[i] = t
}

// Reset empties the side without releasing its storage.
func (e *Expr) Reset() { e.toks = e.toks[:0] }

// Set replaces the contents with a copy of toks.
func (e *Expr) Set(toks []token.Token) error {
	if len(toks) > cap(e.toks) {
		return errors.NewCapacityError(len(toks), cap(e.toks))
	}
	e.toks = e.toks[:len(toks)]
	copy(e.toks, toks)
	return nil
}

// CopyFrom replaces the contents with src's tokens. Copying an Expr onto
// itself is a no-op.
func (e *Expr) CopyFrom(src *Expr) error {
	if src == e {
		return nil
	}
	return e.Set(src.toks)
}

// Clone returns an independent Expr with the same capacity and contents.
func (e *Expr) Clone() *Expr {
	c := New(cap(e.toks))
	c.toks = c.toks[:len(e.toks)]
	copy(c.toks, e.toks)
	return c
}

// Ensure checks that n more tokens fit.
func (e *Expr) Ensure(n int) error {
	if len(e.toks)+n > cap(e.toks) {
		return errors.NewCapacityError(len(e.toks)+n, cap(e.toks))
	}
	return nil
}

// OpenGap shifts tokens at and after index at right by n positions, leaving
// n stale slots at [at, at+n) for the caller to fill.
func (e *Expr) OpenGap(at, n int) error {
	invariant.Precondition(at >= 0 && at <= len(e.toks), "gap index %d out of range [0, %d]", at, len(e.toks))
	invariant.Precondition(n >= 0, "gap size must be non-negative, got %d", n)
	if err := e.Ensure(n); err != nil {
		return err
	}
	old := len(e.toks)
	e.toks = e.toks[:old+n]
	copy(e.toks[at+n:], e.toks[at:old])
	return nil
}

// Insert places toks at index at, shifting the tail right.
func (e *Expr) Insert(at int, toks ...token.Token) error {
	if err := e.OpenGap(at, len(toks)); err != nil {
		return err
	}
	copy(e.toks[at:], toks)
	return nil
}

// Append adds toks at the end.
func (e *Expr) Append(toks ...token.Token) error {
	return e.Insert(len(e.toks), toks...)
}

// Delete removes n tokens starting at index at.
func (e *Expr) Delete(at, n int) {
	invariant.Precondition(at >= 0 && n >= 0 && at+n <= len(e.toks), "delete [%d, %d) out of range [0, %d)", at, at+n, len(e.toks))
	copy(e.toks[at:], e.toks[at+n:])
	e.toks = e.toks[:len(e.toks)-n]
}

// Shift adds delta to the level of every token in [from, to).
func (e *Expr) Shift(from, to, delta int) {
	for i := from; i < to; i++ {
		e.toks[i].Level += delta
	}
}

// Wrap deepens every token by one level and appends op rhs at level 1:
// the side becomes (side) op (rhs...). rhs levels are deepened by one too.
func (e *Expr) Wrap(op token.Op, rhs ...token.Token) error {
	return e.Join(op, 1, rhs...)
}

// Join deepens every token by one level, appends op at level 1 and then rhs
// with each level raised by lift.
func (e *Expr) Join(op token.Op, lift int, rhs ...token.Token) error {
	if err := e.Ensure(1 + len(rhs)); err != nil {
		return err
	}
	e.Shift(0, len(e.toks), 1)
	e.toks = append(e.toks, token.OpTok(op, 1))
	start := len(e.toks)
	e.toks = append(e.toks, rhs...)
	e.Shift(start, len(e.toks), lift)
	return nil
}

// Validate checks the level invariant: operands at even indices, operators
// at odd indices, every level at least 1, and an odd (or zero) length.
func (e *Expr) Validate() error {
	return ValidateTokens(e.toks)
}

// ValidateTokens checks the level invariant on a raw token slice.
func ValidateTokens(toks []token.Token) error {
	if len(toks) > 0 && len(toks)%2 == 0 {
		return fmt.Errorf("expression length %d is even", len(toks))
	}
	for i, t := range toks {
		if t.Level < 1 {
			return fmt.Errorf("token %d (%s) has level %d < 1", i, t, t.Level)
		}
		if (i%2 == 1) != t.IsOperator() {
			return fmt.Errorf("token %d (%s) is in an %s position", i, t, position(i))
		}
	}
	return nil
}

func position(i int) string {
	if i%2 == 1 {
		return "operator"
	}
	return "operand"
}

// String renders the raw token stream for debugging.
func (e *Expr) String() string {
	parts := make([]string, len(e.toks))
	for i, t := range e.toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
