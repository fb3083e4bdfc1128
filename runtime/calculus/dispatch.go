package calculus

import (
	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

// TermFunc rewrites the term e[loc:eloc] in place. It may grow the term but
// must leave every operator inside it deeper than the level the term was
// split at. A term that does not fit the transform is a
// STRUCTURAL_REJECTION.
type TermFunc func(e *expr.Expr, loc, eloc int, v token.Var) error

// MakePowers gives every occurrence of v an explicit exponent, rewriting a
// bare v as v^1. Occurrences inside an exponent are left alone.
func MakePowers(e *expr.Expr, v token.Var) error {
	for i := 0; i < e.Len(); {
		toks := e.Tokens()
		level := toks[i].Level
		if toks[i].IsOp(token.Power) {
			for i += 2; i < e.Len() && toks[i].Level >= level; i += 2 {
			}
			continue
		}
		if toks[i].IsVar(v) && (i+1 >= e.Len() || !toks[i+1].IsOp(token.Power)) {
			if err := e.OpenGap(i+1, 2); err != nil {
				return err
			}
			toks = e.Tokens()
			level++
			toks[i].Level = level
			toks[i+1] = token.OpTok(token.Power, level)
			toks[i+2] = token.Num(1, level)
			i += 2
		}
		i++
	}
	return nil
}

// IntDispatch normalizes e with MakePowers and applies fn to each additive
// term, left to right. Terms are split at + and - operators on the lowest
// operator level of the normalized side. The first failing term aborts the
// dispatch.
func IntDispatch(e *expr.Expr, v token.Var, fn TermFunc) error {
	if err := MakePowers(e, v); err != nil {
		return err
	}
	split := expr.MinLevel(e.Tokens())
	j := 0
	for i := 1; ; i += 2 {
		if i >= e.Len() {
			return fn(e, j, e.Len(), v)
		}
		t := e.At(i)
		if t.Level != split || !t.Op().Additive() {
			continue
		}
		if err := fn(e, j, i, v); err != nil {
			return err
		}
		// The term changed length; find the operator that ended it.
		for i = j + 1; ; i += 2 {
			if i >= e.Len() {
				return nil
			}
			if e.At(i).Level == split {
				j = i + 1
				break
			}
		}
	}
}

// PolyInV reports whether every additive term of toks is a polynomial term
// in v: v occurs at most once, only under * and / at the term's level, and
// any exponent on it is numeric. When allowDivides is false, v must not be
// in a divisor or carry a negative constant exponent.
func PolyInV(toks []token.Token, v token.Var, allowDivides bool) bool {
	split := expr.MinLevel(toks)
	start := 0
	for i := 1; i <= len(toks); i += 2 {
		if i < len(toks) && (toks[i].Level != split || !toks[i].Op().Additive()) {
			continue
		}
		if !polyTerm(toks[start:min(i, len(toks))], v, allowDivides) {
			return false
		}
		start = i + 1
	}
	return true
}

func polyTerm(term []token.Token, v token.Var, allowDivides bool) bool {
	at := -1
	for i := 0; i < len(term); i += 2 {
		if term[i].IsVar(v) {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	if at < 0 {
		return true
	}

	level := expr.MinLevel(term)
	vlevel := term[at].Level
	power := at+1 < len(term) && term[at+1].IsOp(token.Power) && term[at+1].Level == vlevel
	switch {
	case vlevel == level:
	case vlevel == level+1 && power:
	default:
		return false
	}
	for k := 1; k < len(term); k += 2 {
		if term[k].Level != level {
			continue
		}
		switch term[k].Op() {
		case token.Times, token.Divide:
		case token.Power:
			if k != at+1 {
				return false
			}
		default:
			return false
		}
	}

	negative := false
	if power {
		end := at + 3
		for end < len(term) && term[end].Level > vlevel {
			end += 2
		}
		exponent := term[at+2 : end]
		if !expr.IsNumeric(exponent) {
			return false
		}
		negative = len(exponent) == 1 && exponent[0].IsConstant() && exponent[0].Value() < 0
	}
	divisor := at > 0 && term[at-1].IsOp(token.Divide) && term[at-1].Level == level
	if (divisor || negative) && !allowDivides {
		return false
	}
	return true
}

func notPolynomial(v token.Var) error {
	return errors.NewStructuralError("term is not a polynomial in the variable").
		WithContext("var", v.String())
}
