// Package store holds equation spaces: pairs of fixed-capacity expression
// sides addressed by a small integer id, plus the registry that keeps sign
// variables unique across them.
package store

import (
	"io"
	"log/slog"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/invariant"
	"github.com/opal-lang/mathcore/core/token"
)

const (
	// DefaultTokens is the default capacity of every equation side.
	DefaultTokens = 60000
	// MinTokens is the smallest capacity accepted by New.
	MinTokens = 100
	// DefaultMaxSpaces is the default number of equation spaces.
	DefaultMaxSpaces = 200
)

// Warning text returned through TakeWarnings.
const (
	WarnMemoryExhausted = "Memory is exhausted."
)

// Config sizes a Store. Sizes are fixed for the life of the Store.
type Config struct {
	// Tokens is the capacity of each equation side.
	Tokens int
	// MaxSpaces is the number of addressable equation spaces.
	MaxSpaces int
	// AllocLimit caps how many spaces may hold storage at once. Zero means
	// no limit. Reaching it behaves like a failed allocation.
	AllocLimit int
	// Logger receives warnings and debug traces. Nil discards them.
	Logger *slog.Logger
}

// Space is one equation space. An empty LHS means the space is unused.
type Space struct {
	LHS *expr.Expr
	RHS *expr.Expr
}

// Empty reports whether the space holds nothing.
func (s *Space) Empty() bool { return s.LHS.Empty() }

// IsEquation reports whether the space has a right-hand side.
func (s *Space) IsEquation() bool { return !s.RHS.Empty() }

func (s *Space) reset() {
	s.LHS.Reset()
	s.RHS.Reset()
}

// Store holds the equation spaces of a session and the sign-variable
// registry.
//
// # Layout
//
// Spaces are addressed by id in [0, MaxSpaces). Ids below Count() are
// active; each active space owns two sides of exactly Tokens capacity,
// allocated on first use and reused after it is emptied. Storage is never
// resized.
//
// # Rules
//
//  1. Do not share a Store across goroutines
//  2. Do not keep a side's Tokens() slice across a call that may splice it
//  3. Warnings raised by allocation are queued until TakeWarnings
type Store struct {
	tokens     int
	maxSpaces  int
	allocLimit int
	log        *slog.Logger

	spaces    []*Space // len == maxSpaces; nil means no storage yet
	count     int      // active space count
	allocated int      // spaces holding storage
	current   int

	signs    [token.SubscriptMask + 1]bool
	warnings []string
}

// New returns a Store with space 0 allocated and current.
func New(cfg Config) (*Store, error) {
	if cfg.Tokens == 0 {
		cfg.Tokens = DefaultTokens
	}
	if cfg.MaxSpaces == 0 {
		cfg.MaxSpaces = DefaultMaxSpaces
	}
	if cfg.Tokens < MinTokens {
		return nil, errors.Newf(errors.ErrConfig, "token capacity %d is below the minimum of %d", cfg.Tokens, MinTokens)
	}
	if cfg.MaxSpaces < 1 {
		return nil, errors.Newf(errors.ErrConfig, "equation space count must be positive, got %d", cfg.MaxSpaces)
	}
	if cfg.AllocLimit < 0 {
		return nil, errors.Newf(errors.ErrConfig, "allocation limit must not be negative, got %d", cfg.AllocLimit)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		tokens:     cfg.Tokens,
		maxSpaces:  cfg.MaxSpaces,
		allocLimit: cfg.AllocLimit,
		log:        logger,
		spaces:     make([]*Space, cfg.MaxSpaces),
	}
	if err := s.AllocUpTo(0); err != nil {
		return nil, err
	}
	s.TakeWarnings()
	return s, nil
}

// Capacity returns the token capacity of every side.
func (s *Store) Capacity() int { return s.tokens }

// MaxSpaces returns the number of addressable spaces.
func (s *Store) MaxSpaces() int { return s.maxSpaces }

// Count returns the number of active spaces.
func (s *Store) Count() int { return s.count }

// Current returns the current space id.
func (s *Store) Current() int { return s.current }

// SetCurrent makes id the current space. The id must be active.
func (s *Store) SetCurrent(id int) {
	invariant.Precondition(id >= 0 && id < s.count, "current space %d is not active (count %d)", id, s.count)
	s.current = id
}

// AllocSpace makes id usable and empties it, allocating storage when the
// space has none yet.
func (s *Store) AllocSpace(id int) error {
	if id < 0 || id >= s.maxSpaces {
		return errors.New(errors.ErrInvalidSpace, "Invalid equation number.").WithContext("space", id+1)
	}
	if sp := s.spaces[id]; sp != nil {
		invariant.Invariant(sp.LHS != nil && sp.RHS != nil, "space %d is allocated with a missing side", id)
		sp.reset()
		return nil
	}
	if s.allocLimit > 0 && s.allocated >= s.allocLimit {
		return errors.New(errors.ErrOutOfSpaces, WarnMemoryExhausted).
			WithContext("allocated", s.allocated).
			WithContext("limit", s.allocLimit)
	}
	s.spaces[id] = &Space{LHS: expr.New(s.tokens), RHS: expr.New(s.tokens)}
	s.allocated++
	s.log.Debug("allocated equation space", "space", id+1, "tokens", s.tokens)
	return nil
}

// AllocUpTo activates every space up to and including id.
func (s *Store) AllocUpTo(id int) error {
	if id < 0 || id >= s.maxSpaces {
		return errors.New(errors.ErrInvalidSpace, "Invalid equation number.").WithContext("space", id+1)
	}
	for s.count <= id {
		if err := s.AllocSpace(s.count); err != nil {
			s.warn(WarnMemoryExhausted)
			return err
		}
		s.count++
	}
	return nil
}

// NextFree returns an empty space ready for use. The search starts at the
// current space and grows the pool before wrapping around to reuse empty
// spaces below it. When growth fails, any empty active space is accepted.
func (s *Store) NextFree() (int, error) {
	n := s.current
	for i := 0; i < s.maxSpaces; i, n = i+1, (n+1)%s.maxSpaces {
		if n >= s.count {
			n = s.count
			if err := s.AllocSpace(n); err != nil {
				s.warn(WarnMemoryExhausted)
				for k := 0; k < s.count; k++ {
					if s.spaces[k].Empty() {
						s.spaces[k].RHS.Reset()
						return k, nil
					}
				}
				return -1, s.outOfSpaces()
			}
			s.count++
			return n, nil
		}
		if s.spaces[n].Empty() {
			s.spaces[n].RHS.Reset()
			return n, nil
		}
	}
	return -1, s.outOfSpaces()
}

func (s *Store) outOfSpaces() error {
	return errors.New(errors.ErrOutOfSpaces, "Out of free equation spaces.").
		WithContext("hint", "Use the clear command on unnecessary equations and try again.")
}

// Copy overwrites dst with src. Copying a space onto itself does nothing.
func (s *Store) Copy(src, dst int) error {
	if src == dst {
		return nil
	}
	from, to := s.active(src), s.active(dst)
	if err := to.LHS.CopyFrom(from.LHS); err != nil {
		return err
	}
	return to.RHS.CopyFrom(from.RHS)
}

// IsSolved reports whether id is an equation solved for an ordinary
// variable: a lone ordinary variable on the LHS that does not occur on the
// RHS.
func (s *Store) IsSolved(id int) bool {
	if id < 0 || id >= s.count {
		return false
	}
	sp := s.spaces[id]
	if sp.RHS.Empty() || sp.LHS.Len() != 1 {
		return false
	}
	lhs := sp.LHS.At(0)
	if !lhs.IsVariable() || !lhs.Var().IsOrdinary() {
		return false
	}
	return expr.FoundVar(sp.RHS.Tokens(), lhs.Var()) == 0
}

// VarInSpace reports whether v occurs anywhere in space id.
func (s *Store) VarInSpace(id int, v token.Var) bool {
	if id < 0 || id >= s.count {
		return false
	}
	sp := s.spaces[id]
	return expr.VarInSides(sp.LHS.Tokens(), sp.RHS.Tokens(), v)
}

// Space returns an active, non-empty space.
func (s *Store) Space(id int) (*Space, error) {
	if id < 0 || id >= s.count {
		return nil, errors.New(errors.ErrInvalidSpace, "Invalid equation number.").WithContext("space", id+1)
	}
	sp := s.spaces[id]
	if sp.Empty() {
		return nil, errors.New(errors.ErrEmptySpace, "Equation space is empty.").WithContext("space", id+1)
	}
	return sp, nil
}

// Raw returns an active space whether or not it is empty.
func (s *Store) Raw(id int) *Space {
	return s.active(id)
}

// CurrentSpace returns the current space when it holds something.
func (s *Store) CurrentSpace() (int, *Space, error) {
	sp := s.spaces[s.current]
	if sp == nil || sp.Empty() {
		return s.current, nil, errors.New(errors.ErrNoCurrent, "No current equation or expression.")
	}
	return s.current, sp, nil
}

// Clear empties space id. Storage is kept for reuse.
func (s *Store) Clear(id int) error {
	if id < 0 || id >= s.count {
		return errors.New(errors.ErrInvalidSpace, "Invalid equation number.").WithContext("space", id+1)
	}
	s.spaces[id].reset()
	return nil
}

// Free empties space id without validating it. Used to abandon a space
// after a failed command.
func (s *Store) Free(id int) {
	if id >= 0 && id < s.count {
		s.spaces[id].reset()
	}
}

// ClearAll empties every space, selects space 0 and forgets all sign
// variables.
func (s *Store) ClearAll() {
	for i := 0; i < s.count; i++ {
		s.spaces[i].reset()
	}
	s.current = 0
	s.signs = [token.SubscriptMask + 1]bool{}
}

// Each calls fn for every non-empty active space in id order.
func (s *Store) Each(fn func(id int, sp *Space)) {
	for i := 0; i < s.count; i++ {
		if !s.spaces[i].Empty() {
			fn(i, s.spaces[i])
		}
	}
}

// TakeWarnings returns and clears the queued warnings.
func (s *Store) TakeWarnings() []string {
	w := s.warnings
	s.warnings = nil
	return w
}

func (s *Store) warn(msg string) {
	s.log.Warn(msg)
	s.warnings = append(s.warnings, msg)
}

func (s *Store) active(id int) *Space {
	invariant.Precondition(id >= 0 && id < s.count, "space %d is not active (count %d)", id, s.count)
	sp := s.spaces[id]
	invariant.Invariant(sp != nil && sp.LHS != nil && sp.RHS != nil, "active space %d has no storage", id)
	return sp
}
