package calculus

import (
	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

// exponentEnd returns the end of the exponent region that starts at i:
// the first index at or after i whose level is below level.
func exponentEnd(toks []token.Token, i, eloc, level int) int {
	for i < eloc && toks[i].Level >= level {
		i++
	}
	return i
}

// IntegrateTerm applies the power rule to one term, which MakePowers has
// already normalized: v^n becomes v^(n+1)/(n+1), a/v^n is first turned into
// a*v^(-1*n), and a term without v is multiplied by v. The logarithmic case
// n = -1 has no representation and is rejected, whether it is written as a
// division or as an explicit -1 exponent.
func IntegrateTerm(e *expr.Expr, loc, eloc int, v token.Var) error {
	toks := e.Tokens()
	level := expr.MinLevel(toks[loc:eloc])
	count := 0
	for i := loc; i < eloc; i += 2 {
		if !toks[i].IsVar(v) {
			continue
		}
		count++
		if count > 1 {
			return notPolynomial(v)
		}
		vlevel := toks[i].Level
		if vlevel != level && vlevel != level+1 {
			return notPolynomial(v)
		}
		for k := loc + 1; k < eloc; k += 2 {
			if toks[k].Level != level {
				continue
			}
			switch toks[k].Op() {
			case token.Times, token.Divide:
			case token.Power:
				if k != i+1 {
					return notPolynomial(v)
				}
			default:
				return notPolynomial(v)
			}
		}
		if vlevel == level+1 && !(i+1 < eloc && toks[i+1].Level == vlevel && toks[i+1].IsOp(token.Power)) {
			return notPolynomial(v)
		}
	}

	mlevel := level + 1
	e.Shift(loc, eloc, 2)
	for i := loc; i < eloc; i += 2 {
		if !toks[i].IsVar(v) {
			continue
		}
		divide := i > loc && toks[i-1].IsOp(token.Divide)
		i++
		if i >= eloc || !toks[i].IsOp(token.Power) {
			return notPolynomial(v)
		}
		level = toks[i].Level
		i++
		if divide {
			if toks[i].Level == level && toks[i].IsConst(1) {
				return logarithmic(v)
			}
			if err := e.Ensure(2); err != nil {
				return err
			}
			end := exponentEnd(toks, i, eloc, level)
			e.Shift(i, end, 1)
			toks[i-3] = toks[i-3].WithOp(token.Times)
			if err := e.OpenGap(i, 2); err != nil {
				return err
			}
			toks = e.Tokens()
			toks[i] = token.Num(-1, level+1)
			toks[i+1] = token.OpTok(token.Times, level+1)
			eloc += 2
		} else if toks[i].Level == level && toks[i].IsConst(-1) {
			return logarithmic(v)
		}

		end := exponentEnd(toks, i, eloc, level)
		e.Shift(i, end, 1)
		n := end - i
		if err := e.Ensure(n + 5); err != nil {
			return err
		}
		level++
		if err := e.Insert(end, token.OpTok(token.Plus, level), token.Num(1, level)); err != nil {
			return err
		}
		toks = e.Tokens()
		eloc += 2
		n += 2
		if err := e.OpenGap(eloc, n+1); err != nil {
			return err
		}
		toks = e.Tokens()
		toks[eloc] = token.OpTok(token.Divide, mlevel)
		copy(toks[eloc+1:], toks[i:i+n])
		return nil
	}

	return e.Insert(eloc, token.OpTok(token.Times, mlevel), token.VarTok(v, mlevel))
}

// LaplaceTerm transforms one term: t^n becomes t^((n+1)*-1) * n!, the
// transform pair t^n -> n!/s^(n+1) written in the same variable. A term
// without v is divided by v.
func LaplaceTerm(e *expr.Expr, loc, eloc int, v token.Var) error {
	toks := e.Tokens()
	mlevel := expr.MinLevel(toks[loc:eloc]) + 1
	e.Shift(loc, eloc, 2)
	for i := loc; i < eloc; i += 2 {
		if !toks[i].IsVar(v) {
			continue
		}
		i++
		if i >= eloc || !toks[i].IsOp(token.Power) {
			return notPolynomial(v)
		}
		level := toks[i].Level
		i++
		end := exponentEnd(toks, i, eloc, level)
		e.Shift(i, end, 1)
		n := end - i
		if err := e.Ensure(n + 7); err != nil {
			return err
		}
		level++
		if err := e.OpenGap(end, 4); err != nil {
			return err
		}
		toks = e.Tokens()
		eloc += 4
		toks[end] = token.OpTok(token.Plus, level)
		toks[end+1] = token.Num(1, level)
		e.Shift(i, end+2, 1)
		toks[end+2] = token.OpTok(token.Times, level)
		toks[end+3] = token.Num(-1, level)

		if err := e.OpenGap(eloc, n+3); err != nil {
			return err
		}
		toks = e.Tokens()
		k := eloc
		toks[k] = token.OpTok(token.Times, mlevel)
		k++
		copy(toks[k:], toks[i:i+n])
		k += n
		toks[k] = token.OpTok(token.Factorial, mlevel+1)
		toks[k+1] = token.Num(1, mlevel+1)
		return nil
	}

	return e.Insert(eloc, token.OpTok(token.Divide, mlevel), token.VarTok(v, mlevel))
}

// InverseLaplaceTerm transforms one term of the form a/s^m into
// a*s^(m-1)/(m-1)!, the pair 1/s^(n+1) -> t^n/n!. The variable must appear
// as a divisor.
func InverseLaplaceTerm(e *expr.Expr, loc, eloc int, v token.Var) error {
	toks := e.Tokens()
	mlevel := expr.MinLevel(toks[loc:eloc]) + 1
	e.Shift(loc, eloc, 2)
	for i := loc; i < eloc; i += 2 {
		if !toks[i].IsVar(v) {
			continue
		}
		i++
		if i >= eloc || !toks[i].IsOp(token.Power) {
			return notPolynomial(v)
		}
		if i-2 <= loc || !toks[i-2].IsOp(token.Divide) {
			return notDivisor(v)
		}
		level := toks[i].Level
		i++
		end := exponentEnd(toks, i, eloc, level)
		e.Shift(i, end, 1)
		n := end - i
		if err := e.Ensure(n + 7); err != nil {
			return err
		}
		toks[i-3] = toks[i-3].WithOp(token.Times)
		level++
		if err := e.Insert(end, token.OpTok(token.Minus, level), token.Num(1, level)); err != nil {
			return err
		}
		toks = e.Tokens()
		eloc += 2
		n += 2

		if err := e.OpenGap(eloc, n+3); err != nil {
			return err
		}
		toks = e.Tokens()
		k := eloc
		toks[k] = token.OpTok(token.Divide, mlevel)
		k++
		copy(toks[k:], toks[i:i+n])
		k += n
		toks[k] = token.OpTok(token.Factorial, mlevel+1)
		toks[k+1] = token.Num(1, mlevel+1)
		return nil
	}
	return notDivisor(v)
}

func logarithmic(v token.Var) error {
	return errors.NewStructuralError("integral of v^-1 is logarithmic").
		WithContext("var", v.String())
}

func notDivisor(v token.Var) error {
	return errors.NewStructuralError("variable is not in a divisor").
		WithContext("var", v.String())
}
