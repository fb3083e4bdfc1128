package simplify

import (
	"math"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/fraction"
	"github.com/opal-lang/mathcore/core/token"
)

// WarnDivideByZero is queued whenever folding divides by zero.
const WarnDivideByZero = "Division by zero."

// applyOp folds a op b. IEEE semantics are kept for division so that a
// zero divisor produces an infinity or NaN that callers can detect; a
// divide-by-zero is reported through the returned flag rather than as an
// error.
func applyOp(o token.Op, a, b float64) (r float64, divByZero bool, err error) {
	switch o {
	case token.Plus:
		return a + b, false, nil
	case token.Minus:
		return a - b, false, nil
	case token.Times:
		return a * b, false, nil
	case token.Divide:
		return a / b, b == 0, nil
	case token.IDivide:
		return math.Trunc(a / b), b == 0, nil
	case token.Modulus:
		r = math.Mod(a, b)
		if math.IsNaN(r) && !math.IsNaN(a) && !math.IsNaN(b) {
			return 0, false, errors.NewDomainError(o.String(), a, b)
		}
		return r, false, nil
	case token.Power:
		return power(a, b)
	case token.Factorial:
		r, err = factorial(a)
		return r, false, err
	default:
		return 0, false, errors.Newf(errors.ErrStructural, "cannot fold operator %s", o)
	}
}

func power(a, b float64) (float64, bool, error) {
	r := math.Pow(a, b)
	switch {
	case math.IsNaN(r) && !math.IsNaN(a) && !math.IsNaN(b):
		return 0, false, errors.NewDomainError("^", a, b)
	case math.IsInf(r, 0) && a == 0:
		return r, true, nil
	case math.IsInf(r, 0) && isFinite(a) && isFinite(b):
		return 0, false, errors.NewRangeError("^", a, b)
	}
	return r, false, nil
}

func factorial(a float64) (float64, error) {
	if !isFinite(a) {
		return math.NaN(), nil
	}
	if a < 0 && a == math.Trunc(a) {
		return 0, errors.NewDomainError("!", a, 1)
	}
	r := math.Gamma(a + 1)
	if math.IsInf(r, 0) {
		return 0, errors.NewRangeError("!", a, 1)
	}
	if a == math.Trunc(a) {
		r = math.Round(r)
	}
	return r, nil
}

// exact reports whether r is a value the partial mode may produce: finite
// and representable as a simple fraction.
func exact(r float64) bool {
	_, _, ok := fraction.ToFraction(r)
	return ok
}

// snap rounds r to an integer when it is within tolerance of one.
func snap(r float64) float64 {
	if !isFinite(r) || r == 0 {
		return r
	}
	if k := fraction.Round(r); math.Abs(k-r) <= math.Abs(r)*fraction.SmallEpsilon {
		return k
	}
	return r
}

func isFinite(d float64) bool {
	return !math.IsInf(d, 0) && !math.IsNaN(d)
}
