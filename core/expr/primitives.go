package expr

import (
	"math"

	"github.com/opal-lang/mathcore/core/token"
)

// MinLevel returns the lowest operator level of toks. A lone operand reports
// its own level and an empty slice reports 1.
func MinLevel(toks []token.Token) int {
	switch len(toks) {
	case 0:
		return 1
	case 1:
		return toks[0].Level
	}
	lowest := toks[1].Level
	for i := 3; i < len(toks); i += 2 {
		if toks[i].Level < lowest {
			lowest = toks[i].Level
		}
	}
	return lowest
}

// FoundVar counts the occurrences of v. The null variable is never found.
func FoundVar(toks []token.Token, v token.Var) int {
	if v.IsZero() {
		return 0
	}
	count := 0
	for _, t := range toks {
		if t.IsVar(v) {
			count++
		}
	}
	return count
}

// VarCount counts variable operands of any kind, reserved ones included.
func VarCount(toks []token.Token) int {
	count := 0
	for i := 0; i < len(toks); i += 2 {
		if toks[i].IsVariable() {
			count++
		}
	}
	return count
}

// NoVars reports whether toks contains no ordinary variables. When exactly
// one distinct ordinary variable occurs, it is returned as sole; with two or
// more, sole is the null variable.
//
// A non-null preset skips the search: sole is preset and none reports
// whether toks has no variables at all, reserved ones included.
func NoVars(toks []token.Token, preset token.Var) (none bool, sole token.Var) {
	if !preset.IsZero() {
		return VarCount(toks) == 0, preset
	}
	found := false
	for i := 0; i < len(toks); i += 2 {
		t := toks[i]
		if !t.IsVariable() || !t.Var().IsOrdinary() {
			continue
		}
		if !found {
			found = true
			sole = t.Var()
			continue
		}
		if sole != t.Var() {
			return false, token.Null
		}
	}
	return !found, sole
}

// SubstVarWithExp replaces every occurrence of v in e with repl. Each
// inserted copy has the matched token's level added to its own levels.
// Matches are processed right to left so earlier indexes stay valid.
func SubstVarWithExp(e *Expr, v token.Var, repl []token.Token) error {
	if v.IsZero() || len(repl) == 0 {
		return nil
	}
	for j := e.Len() - 1; j >= 0; j-- {
		t := e.toks[j]
		if !t.IsVar(v) {
			continue
		}
		if err := e.OpenGap(j+1, len(repl)-1); err != nil {
			return err
		}
		for k, r := range repl {
			e.toks[j+k] = r.WithLevel(r.Level + t.Level)
		}
	}
	return nil
}

// ContainsInfinity reports whether any constant is infinite or NaN.
func ContainsInfinity(toks []token.Token) bool {
	for _, t := range toks {
		if t.IsConstant() && !t.IsFiniteConstant() {
			return true
		}
	}
	return false
}

// ContainsNaN reports whether any constant is NaN.
func ContainsNaN(toks []token.Token) bool {
	for _, t := range toks {
		if t.IsConstant() && math.IsNaN(t.Value()) {
			return true
		}
	}
	return false
}

// IsNumeric reports whether toks has no symbolic content. The reserved
// constants e, pi, i and sign count as numeric.
func IsNumeric(toks []token.Token) bool {
	for _, t := range toks {
		if t.IsVariable() && t.Var().IsOrdinary() {
			return false
		}
	}
	return true
}

// LevelPlusCount counts + and - operators at exactly level.
func LevelPlusCount(toks []token.Token, level int) int {
	count := 0
	for i := 1; i < len(toks); i += 2 {
		if toks[i].Level == level && toks[i].Op().Additive() {
			count++
		}
	}
	return count
}

// Level1PlusCount counts additive operators at the minimum level, that is,
// the number of top-level term boundaries.
func Level1PlusCount(toks []token.Token) int {
	return LevelPlusCount(toks, MinLevel(toks))
}

// VarInSides reports whether v occurs on either side. An empty LHS means an
// unallocated space, so nothing is found.
func VarInSides(lhs, rhs []token.Token, v token.Var) bool {
	if len(lhs) == 0 {
		return false
	}
	return FoundVar(lhs, v) > 0 || FoundVar(rhs, v) > 0
}
