// Package fraction converts floating point constants into exact rationals.
//
// All arithmetic is IEEE double precision. Exactness is decided by
// tolerance: a value is treated as n/d when n/d reproduces it to within
// SmallEpsilon relative error.
package fraction

import (
	"math"

	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/invariant"
	"github.com/opal-lang/mathcore/core/token"
)

const (
	// Epsilon is the relative tolerance used by GCD.
	Epsilon = 0.00000000000005
	// SmallEpsilon is the relative tolerance used when verifying fractions.
	SmallEpsilon = 0.000000000000005
	// MaxKInteger is the largest magnitude treated as an exact integer.
	MaxKInteger = 1.0e15
	// MaxDigits bounds numerators and denominators produced by ToFraction.
	MaxDigits = 1.0e12

	maxIterations = 50
)

// GCD returns the greatest common divisor of d1 and d2 using the Euclidean
// algorithm with a relative tolerance. It is exact for integers below
// MaxKInteger and usually works for non-integers. A zero operand yields the
// other operand. The result is 0 when either operand is not finite, when
// the operands are out of range, or when the loop does not converge.
func GCD(d1, d2 float64) float64 {
	if !isFinite(d1) || !isFinite(d2) {
		return 0
	}
	d1, d2 = math.Abs(d1), math.Abs(d2)
	if d1 == 0 {
		return d2
	}
	if d2 == 0 {
		return d1
	}

	larger, divisor := d2, d1
	if d1 > d2 {
		larger, divisor = d1, d2
	}
	lowerLimit := larger * Epsilon
	if divisor <= lowerLimit || larger >= MaxKInteger {
		return 0
	}
	for count := 1; count < maxIterations; count++ {
		remainder := math.Abs(math.Mod(larger, divisor))
		if remainder <= lowerLimit || math.Abs(divisor-remainder) <= lowerLimit {
			if remainder != 0 && divisor <= 100*lowerLimit {
				return 0
			}
			return divisor
		}
		larger, divisor = divisor, remainder
	}
	return 0
}

// GCDVerified is GCD with an exactness check: d1 and d2 divided by the
// result must both be integers and coprime. Returns 0 otherwise.
func GCDVerified(d1, d2 float64) float64 {
	divisor := GCD(d1, d2)
	if divisor == 0 {
		return 0
	}
	d3, d4 := d1/divisor, d2/divisor
	if math.Mod(d3, 1) != 0 || math.Mod(d4, 1) != 0 {
		return 0
	}
	if GCD(d3, d4) != 1 {
		return 0
	}
	return divisor
}

// Round rounds to the nearest integer, halves away from zero.
func Round(d float64) float64 {
	if d >= 0 {
		return math.Trunc(d + 0.5)
	}
	return math.Trunc(d - 0.5)
}

// ToFraction converts d into a fully reduced fraction num/den. ok is false
// when d is not finite or is probably irrational; num is then d and den 1.
func ToFraction(d float64) (num, den float64, ok bool) {
	if !isFinite(d) {
		return d, 1, false
	}
	if math.Mod(d, 1) == 0 {
		return d, 1, true
	}
	if k := Round(d); k != 0 && math.Abs(k-d) <= math.Abs(d)*SmallEpsilon {
		return k, 1, true
	}

	divisor := GCD(1, d)
	if divisor <= Epsilon {
		return d, 1, false
	}
	num = Round(d / divisor)
	den = Round(1 / divisor)
	if math.Abs(num) >= MaxDigits || den >= MaxDigits || den < 2 {
		return d, 1, false
	}
	if g := GCD(num, den); g > 1 {
		num /= g
		den /= g
	}
	if q := num / den; math.Abs(q-d) > SmallEpsilon*math.Abs(q) {
		return d, 1, false
	}
	invariant.Postcondition(den >= 1 && math.Mod(den, 1) == 0 && math.Mod(num, 1) == 0,
		"fraction %v/%v of %v must have integral terms", num, den, d)
	return num, den, true
}

// MakeFractions rewrites every non-integer constant of e that equals a
// simple fraction as num/den. A constant that is already a divisor is left
// alone. When the constant starts a product, the denominator joins that
// product as a trailing division instead of adding a new group. Reports
// whether any fraction was created.
func MakeFractions(e *expr.Expr) (bool, error) {
	modified := false
	for i := 0; i < e.Len(); i += 2 {
		toks := e.Tokens()
		t := toks[i]
		if !t.IsConstant() {
			continue
		}
		level := t.Level
		if i > 0 && toks[i-1].Level == level && toks[i-1].IsOp(token.Divide) {
			continue
		}
		num, den, ok := ToFraction(t.Value())
		if !ok {
			continue
		}
		if den == 1 {
			toks[i] = token.Num(num, level)
			continue
		}
		if err := e.Ensure(2); err != nil {
			return modified, err
		}
		modified = true
		incLevel := e.Len() > 1

		if i+1 < e.Len() && toks[i+1].Level == level {
			switch toks[i+1].Op() {
			case token.Times:
				j := i + 3
				for ; j < e.Len() && toks[j].Level >= level; j += 2 {
					if toks[j].Level == level && toks[j].IsOp(token.Divide) {
						break
					}
				}
				if num == 1 {
					copy(toks[i:], toks[i+2:j])
					j -= 2
				} else {
					toks[i] = token.Num(num, level)
					if err := e.OpenGap(j, 2); err != nil {
						return modified, err
					}
					toks = e.Tokens()
				}
				toks[j] = token.OpTok(token.Divide, level)
				toks[j+1] = token.Num(den, level)
				if num == 1 {
					i -= 2
				}
				continue
			case token.Divide:
				incLevel = false
			}
		}

		if err := e.OpenGap(i+1, 2); err != nil {
			return modified, err
		}
		toks = e.Tokens()
		toks[i] = token.Num(num, level)
		toks[i+1] = token.OpTok(token.Divide, level)
		toks[i+2] = token.Num(den, level)
		if incLevel {
			e.Shift(i, i+3, 1)
		}
	}
	return modified, nil
}

func isFinite(d float64) bool {
	return !math.IsInf(d, 0) && !math.IsNaN(d)
}
