package calculus

import (
	"fmt"
	"strings"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/store"
)

// Failure messages.
const (
	MsgIntegrationFailed  = "Integration failed, not a polynomial."
	MsgLaplaceFailed      = "Laplace failed, not a polynomial."
	MsgInverseFailed      = "Inverse Laplace failed."
	MsgConflictingOptions = "Conflicting options given."
	MsgBadOrder           = "The order must be a positive integer."
)

type integrateOptions struct {
	v        token.Var
	order    int
	definite bool
	constant bool
}

// Integrate integrates the current space symbolically.
//
// Arguments: ["definite" | "constant"] [variable] [order]. With "constant"
// an integration constant C_N is added after each integration; with
// "definite" the bounds are prompted for and the result is F(upper) -
// F(lower). The two are mutually exclusive.
func (en *Engine) Integrate(arg string) (Result, error) {
	cur, src, err := en.store.CurrentSpace()
	if err != nil {
		return Result{}, err
	}
	opts, err := en.integrateOptions(arg)
	if err != nil {
		return Result{}, err
	}
	solved := en.store.IsSolved(cur)

	return en.transact("integrating", func(dst int, out *store.Space) error {
		res, err := resultSide(src, out)
		if err != nil {
			return err
		}
		if err := en.prepare(res, sourceSide(src), opts.v); err != nil {
			return err
		}
		for k := 0; k < opts.order; k++ {
			if err := IntDispatch(res, opts.v, en.traced(IntegrateTerm)); err != nil {
				return rejected(err, MsgIntegrationFailed)
			}
			if opts.constant {
				if err := en.addConstant(res); err != nil {
					return err
				}
			}
			if err := en.simp.Simplify(res, expr.DefaultMode()); err != nil {
				return err
			}
		}
		if opts.definite {
			if err := en.evalDefinite(res, opts.v); err != nil {
				return err
			}
		}
		if err := en.simp.Simplify(res, expr.DefaultMode()); err != nil {
			return err
		}
		if solved {
			return en.stripPrimes(out.LHS, opts.order)
		}
		return nil
	})
}

func (en *Engine) integrateOptions(arg string) (integrateOptions, error) {
	opts := integrateOptions{}
	a := newArgs(arg)
	for {
		if a.keyword("definite") {
			opts.definite = true
			continue
		}
		if a.keyword("constant") {
			opts.constant = true
			continue
		}
		break
	}
	if opts.definite && opts.constant {
		return opts, errors.New(errors.ErrConflictingOptions, MsgConflictingOptions)
	}
	v, err := a.variable(en.syms)
	if err != nil {
		return opts, err
	}
	if opts.order, err = a.count(1, MsgBadOrder); err != nil {
		return opts, err
	}
	if err := a.finish(); err != nil {
		return opts, err
	}
	opts.v, err = en.promptVar(v)
	return opts, err
}

// Laplace applies the Laplace transform, or with "inverse" its inverse, to
// the current space. Arguments: ["inverse"] [variable].
func (en *Engine) Laplace(arg string) (Result, error) {
	_, src, err := en.store.CurrentSpace()
	if err != nil {
		return Result{}, err
	}
	a := newArgs(arg)
	inverse := a.keyword("inverse")
	v, err := a.variable(en.syms)
	if err != nil {
		return Result{}, err
	}
	if err := a.finish(); err != nil {
		return Result{}, err
	}
	if v, err = en.promptVar(v); err != nil {
		return Result{}, err
	}

	return en.transact("laplace", func(dst int, out *store.Space) error {
		res, err := resultSide(src, out)
		if err != nil {
			return err
		}
		if err := en.prepare(res, sourceSide(src), v); err != nil {
			return err
		}
		if inverse {
			if !PolyInV(res.Tokens(), v, true) {
				return errors.NewStructuralError(MsgInverseFailed)
			}
			if err := IntDispatch(res, v, en.traced(InverseLaplaceTerm)); err != nil {
				return rejected(err, MsgInverseFailed)
			}
		} else {
			if !PolyInV(res.Tokens(), v, false) {
				return errors.NewStructuralError(MsgLaplaceFailed)
			}
			if err := IntDispatch(res, v, en.traced(LaplaceTerm)); err != nil {
				return rejected(err, MsgLaplaceFailed)
			}
		}
		return en.simp.Simplify(res, expr.DefaultMode())
	})
}

// prepare copies the source side into res and puts it in the form the term
// transforms expect: fully simplified and grouped by v.
func (en *Engine) prepare(res, source *expr.Expr, v token.Var) error {
	if err := res.CopyFrom(source); err != nil {
		return err
	}
	if err := en.simp.Simplify(res, expr.DefaultMode().Full()); err != nil {
		return err
	}
	return en.simp.FactorVar(res, v)
}

// traced logs each term before handing it to fn.
func (en *Engine) traced(fn TermFunc) TermFunc {
	return func(e *expr.Expr, loc, eloc int, v token.Var) error {
		en.log.Debug("dispatching term", "start", loc, "end", eloc)
		return fn(e, loc, eloc, v)
	}
}

// rejected gives a structural rejection the command's message. Other
// errors pass through.
func rejected(err error, msg string) error {
	if errors.IsErrorType(err, errors.ErrStructural) {
		return errors.Wrap(errors.ErrStructural, msg, err)
	}
	return err
}

// addConstant appends + C_N to res. The counter wraps back to 1.
func (en *Engine) addConstant(res *expr.Expr) error {
	c, err := en.syms.Intern(fmt.Sprintf("C_%d", en.constant))
	if err != nil {
		return err
	}
	if err := res.Join(token.Plus, 0, token.VarTok(c, 1)); err != nil {
		return err
	}
	en.constant++
	if en.constant <= 0 {
		en.constant = 1
	}
	return nil
}

// evalDefinite replaces res by res(upper) - res(lower).
func (en *Engine) evalDefinite(res *expr.Expr, v token.Var) error {
	lower, err := en.promptExpr(PromptLowerBound)
	if err != nil {
		return err
	}
	upper, err := en.promptExpr(PromptUpperBound)
	if err != nil {
		return err
	}
	scratch := res.Clone()
	if err := expr.SubstVarWithExp(scratch, v, lower); err != nil {
		return err
	}
	if err := expr.SubstVarWithExp(res, v, upper); err != nil {
		return err
	}
	return res.Wrap(token.Minus, scratch.Tokens()...)
}

// stripPrimes removes up to n trailing primes from the variable on a solved
// LHS, so integrating y' = ... gives y = ...
func (en *Engine) stripPrimes(lhs *expr.Expr, n int) error {
	t := lhs.At(0)
	name := en.syms.Name(t.Var())
	for k := 0; k < n && len(name) > 1 && strings.HasSuffix(name, "'"); k++ {
		name = name[:len(name)-1]
	}
	v, err := en.syms.Intern(name)
	if err != nil {
		return err
	}
	lhs.SetAt(0, token.VarTok(v, t.Level))
	return nil
}
