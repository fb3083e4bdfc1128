package store

import (
	"github.com/opal-lang/mathcore/core/token"
)

// SetSignRegistry rebuilds the sign registry from every sign variable
// found in the non-empty spaces, so NextSignVar only hands out unused
// subscripts.
func (s *Store) SetSignRegistry() {
	s.signs = [token.SubscriptMask + 1]bool{}
	s.Each(func(_ int, sp *Space) {
		s.markSigns(sp.LHS.Tokens())
		s.markSigns(sp.RHS.Tokens())
	})
}

func (s *Store) markSigns(toks []token.Token) {
	for i := 0; i < len(toks); i += 2 {
		if toks[i].IsVariableKind(token.Sign) {
			s.signs[toks[i].Var().Subscript&token.SubscriptMask] = true
		}
	}
}

// NextSignVar returns the lowest unused sign variable and marks it used.
// When every subscript is taken it returns the bare sign variable and
// false; callers may still use it, but it is no longer unique.
func (s *Store) NextSignVar() (token.Var, bool) {
	for i, used := range s.signs {
		if !used {
			s.signs[i] = true
			return token.Var{Name: token.SignName, Subscript: uint8(i)}, true
		}
	}
	return token.Sign, false
}
