package calculus

import (
	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/store"
)

// Messages used by NIntegrate.
const (
	MsgBadPartitions     = "Number of partitions must be a positive, even integer."
	MsgInfiniteBound     = "Bound contains infinity."
	MsgSingularity       = "Integration failed because result contains infinity or NaN (a singularity)."
	MsgDivergence        = "Integration failed."
	WarnSingularPossible = "Singularity detected, result of numerical integration might be wrong."
)

// Rule selects the numeric integration rule.
type Rule int

const (
	Simpson Rule = iota
	Trapezoid
)

// weight returns the interior weight of partition j.
func (r Rule) weight(j int) float64 {
	if r == Simpson && j%2 == 1 {
		return 4
	}
	return 2
}

// divisor returns the constant the weighted sum is divided by.
func (r Rule) divisor() float64 {
	if r == Simpson {
		return 3
	}
	return 2
}

func (r Rule) String() string {
	if r == Trapezoid {
		return "trapezoid"
	}
	return "simpson"
}

// NIntegrate integrates the current space numerically between two prompted
// bounds. Arguments: ["trap"] [variable] [partitions]. Simpson's rule is the
// default; the partition count must be even.
func (en *Engine) NIntegrate(arg string) (Result, error) {
	cur, src, err := en.store.CurrentSpace()
	if err != nil {
		return Result{}, err
	}
	a := newArgs(arg)
	rule := Simpson
	if a.keywordPrefix("trap") {
		rule = Trapezoid
	}
	v, err := a.variable(en.syms)
	if err != nil {
		return Result{}, err
	}
	n, err := a.count(en.partitions, MsgBadPartitions)
	if err != nil {
		return Result{}, err
	}
	if n%2 != 0 {
		return Result{}, errors.NewMalformedArgument(MsgBadPartitions).WithContext("partitions", n)
	}
	if err := a.finish(); err != nil {
		return Result{}, err
	}
	if v, err = en.promptVar(v); err != nil {
		return Result{}, err
	}
	solved := en.store.IsSolved(cur)

	return en.transact("nintegrate", func(dst int, out *store.Space) error {
		res, err := resultSide(src, out)
		if err != nil {
			return err
		}
		ni := &numeric{en: en, v: v, rule: rule, n: n}
		if err := ni.run(res, sourceSide(src)); err != nil {
			return err
		}
		if solved {
			return en.stripPrimes(out.LHS, 1)
		}
		return nil
	})
}

// numeric holds the state of one numeric integration.
type numeric struct {
	en   *Engine
	v    token.Var
	rule Rule
	n    int

	integrand *expr.Expr
	lower     []token.Token
	step      *expr.Expr
}

func (ni *numeric) run(res, source *expr.Expr) error {
	en := ni.en
	ni.integrand = source.Clone()
	en.simp.SubstConstants(ni.integrand)
	if err := en.simp.Simplify(ni.integrand, expr.DefaultMode()); err != nil {
		return err
	}
	if divisorHasVar(ni.integrand.Tokens(), ni.v) {
		en.warn(WarnSingularPossible)
	}

	lower, err := ni.bound(PromptLowerBound, res.Cap())
	if err != nil {
		return err
	}
	upper, err := ni.bound(PromptUpperBound, res.Cap())
	if err != nil {
		return err
	}
	ni.lower = lower.Snapshot()
	if ni.step, err = ni.stepSize(upper, lower); err != nil {
		return err
	}

	en.log.Debug("numeric integration", "rule", ni.rule.String(), "partitions", ni.n)
	if err := res.Set([]token.Token{token.Num(0, 1)}); err != nil {
		return err
	}
	term := expr.New(res.Cap())
	var first int
	for j := 0; j <= ni.n; j++ {
		if err := ni.addPartition(res, term, j); err != nil {
			return err
		}
		if expr.ContainsInfinity(res.Tokens()) {
			return errors.New(errors.ErrSingularity, MsgSingularity).WithContext("partition", j)
		}
		switch {
		case j == 1:
			first = max(res.Len(), 4)
		case j >= 2 && res.Len()/8 >= first:
			return errors.New(errors.ErrDivergence, MsgDivergence).
				WithContext("partition", j).
				WithContext("tokens", res.Len())
		}
	}

	if err := res.Join(token.Divide, 0, token.Num(ni.rule.divisor(), 1), token.OpTok(token.Times, 1)); err != nil {
		return err
	}
	if err := appendLifted(res, 1, ni.step.Tokens()); err != nil {
		return err
	}
	return en.simp.Approximate(res)
}

// bound prompts for one integration bound and reduces it to its simplest
// form. Infinite bounds are rejected.
func (ni *numeric) bound(prompt string, capacity int) (*expr.Expr, error) {
	toks, err := ni.en.promptExpr(prompt)
	if err != nil {
		return nil, err
	}
	b, err := expr.FromTokens(capacity, toks...)
	if err != nil {
		return nil, err
	}
	ni.en.simp.SubstConstants(b)
	if err := ni.en.simp.Simplify(b, expr.DefaultMode()); err != nil {
		return nil, err
	}
	if expr.ContainsInfinity(b.Tokens()) {
		return nil, errors.NewMalformedArgument(MsgInfiniteBound).WithContext("prompt", prompt)
	}
	return b, nil
}

// stepSize returns (upper - lower) / n, simplified.
func (ni *numeric) stepSize(upper, lower *expr.Expr) (*expr.Expr, error) {
	h := upper.Clone()
	if err := h.Wrap(token.Minus, lower.Tokens()...); err != nil {
		return nil, err
	}
	if err := h.Join(token.Divide, 0, token.Num(float64(ni.n), 1)); err != nil {
		return nil, err
	}
	if err := ni.en.simp.Simplify(h, expr.DefaultMode()); err != nil {
		return nil, err
	}
	return h, nil
}

// addPartition adds the weighted value of the integrand at lower + j*h to
// the running sum in res and simplifies it.
func (ni *numeric) addPartition(res, term *expr.Expr, j int) error {
	if err := term.CopyFrom(ni.integrand); err != nil {
		return err
	}
	at := make([]token.Token, 0, len(ni.lower)+3+ni.step.Len())
	for _, t := range ni.lower {
		at = append(at, t.WithLevel(t.Level+1))
	}
	at = append(at, token.OpTok(token.Plus, 1), token.Num(float64(j), 2), token.OpTok(token.Times, 2))
	for _, t := range ni.step.Tokens() {
		at = append(at, t.WithLevel(t.Level+2))
	}
	if err := expr.SubstVarWithExp(term, ni.v, at); err != nil {
		return err
	}

	if err := res.Join(token.Plus, 2, term.Tokens()...); err != nil {
		return err
	}
	if j > 0 && j < ni.n {
		if err := res.Append(token.OpTok(token.Times, 2), token.Num(ni.rule.weight(j), 2)); err != nil {
			return err
		}
	}
	if j%100 == 0 {
		ni.en.log.Debug("partition", "j", j, "tokens", res.Len())
	}
	return ni.en.simp.Simplify(res, expr.DefaultMode().Approximating())
}

// divisorHasVar reports whether v appears in the divisor of any division.
func divisorHasVar(toks []token.Token, v token.Var) bool {
	for j := 1; j < len(toks); j += 2 {
		if !toks[j].IsOp(token.Divide) {
			continue
		}
		level := toks[j].Level
		for k := j + 1; k < len(toks); k++ {
			if toks[k].IsOperator() && toks[k].Level <= level {
				break
			}
			if toks[k].IsVar(v) {
				return true
			}
		}
	}
	return false
}
