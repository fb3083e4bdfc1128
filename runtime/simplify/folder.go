// Package simplify is a small reference simplifier for equation sides.
//
// It folds constant subexpressions, drops neutral elements, merges the
// constant factors of products and the constant addends of sums, and
// rewrites negative constant powers as divisions. It is not a general
// computer algebra system: like terms are not combined and nothing is
// factored.
package simplify

import (
	"io"
	"log/slog"
	"math"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/fraction"
	"github.com/opal-lang/mathcore/core/token"
)

// Folder simplifies equation sides in place.
type Folder struct {
	log      *slog.Logger
	warnings []string
}

// New returns a Folder. A nil logger discards output.
func New(logger *slog.Logger) *Folder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Folder{log: logger}
}

// TakeWarnings returns and clears the warnings queued by earlier passes.
func (f *Folder) TakeWarnings() []string {
	w := f.warnings
	f.warnings = nil
	return w
}

func (f *Folder) warn(msg string) {
	f.log.Warn(msg)
	f.warnings = append(f.warnings, msg)
}

// Simplify rewrites e in place under mode. On error e is left unchanged.
func (f *Folder) Simplify(e *expr.Expr, mode expr.Mode) error {
	if e.Empty() {
		return nil
	}
	root, err := expr.Build(e.Tokens())
	if err != nil {
		return errors.Wrap(errors.ErrStructural, "malformed expression", err)
	}
	p := &pass{f: f, mode: mode, allowance: mode.DomainCheck}
	root, err = p.node(root)
	if err != nil {
		return err
	}
	return e.Set(expr.Flatten(root))
}

// FactorVar groups e with respect to v. The reference implementation only
// simplifies in partial mode; the result is always a valid input for
// term-by-term rewriting in v.
func (f *Folder) FactorVar(e *expr.Expr, v token.Var) error {
	f.log.Debug("factoring", "var", v.String(), "tokens", e.Len())
	return f.Simplify(e, expr.DefaultMode())
}

// SubstConstants replaces the symbolic constants e and pi by their values.
func (f *Folder) SubstConstants(e *expr.Expr) {
	toks := e.Tokens()
	for i := 0; i < len(toks); i += 2 {
		switch {
		case toks[i].IsVar(token.E):
			toks[i] = token.Num(math.E, toks[i].Level)
		case toks[i].IsVar(token.Pi):
			toks[i] = token.Num(math.Pi, toks[i].Level)
		}
	}
}

// Approximate substitutes constant values and folds everything it can,
// roots included.
func (f *Folder) Approximate(e *expr.Expr) error {
	f.SubstConstants(e)
	return f.Simplify(e, expr.Mode{ApproximateRoots: true})
}

// pass is the state of one Simplify call.
type pass struct {
	f    *Folder
	mode expr.Mode
	// allowance is the one domain error this pass may absorb.
	allowance bool
}

func (p *pass) node(n *expr.Node) (*expr.Node, error) {
	if n.IsLeaf() {
		return n, nil
	}
	switch n.Op() {
	case token.Plus, token.Minus:
		return p.sum(n)
	case token.Times, token.Divide:
		return p.product(n)
	}

	l, err := p.node(n.Left)
	if err != nil {
		return nil, err
	}
	r, err := p.node(n.Right)
	if err != nil {
		return nil, err
	}
	n = &expr.Node{Tok: n.Tok, Left: l, Right: r}
	if isConst(l) && isConst(r) {
		return p.fold(n)
	}

	if n.Op() == token.Power {
		if isConst(r) {
			switch c := r.Tok.Value(); {
			case c == 1:
				return l, nil
			case c == 0:
				return numLeaf(1), nil
			case c < 0 && isFinite(c):
				inv := l
				if c != -1 {
					inv = expr.Binary(token.Power, l, numLeaf(-c))
				}
				return expr.Binary(token.Divide, numLeaf(1), inv), nil
			}
		}
		if isConstValue(l, 1) {
			return l, nil
		}
	}
	return n, nil
}

// fold evaluates an operator whose operands are both constants.
func (p *pass) fold(n *expr.Node) (*expr.Node, error) {
	a, b := n.Left.Tok.Value(), n.Right.Tok.Value()
	r, divByZero, err := applyOp(n.Op(), a, b)
	if err != nil {
		if p.allowance && errors.IsErrorType(err, errors.ErrDomain) {
			p.allowance = false
			p.f.log.Debug("domain error absorbed", "op", n.Op().String(), "a", a, "b", b)
			return n, nil
		}
		return nil, err
	}
	if divByZero {
		p.f.warn(WarnDivideByZero)
	}
	if p.keepSymbolic(n.Op(), a, b, r) {
		return n, nil
	}
	return numLeaf(p.finish(r)), nil
}

// keepSymbolic reports whether partial mode leaves a folded result alone
// because it would introduce an inexact value such as an irrational root.
func (p *pass) keepSymbolic(o token.Op, a, b, r float64) bool {
	if !p.mode.Partial || p.mode.ApproximateRoots {
		return false
	}
	switch o {
	case token.Power:
		return b != math.Trunc(b) && !exact(r)
	case token.Factorial:
		return a != math.Trunc(a)
	}
	return false
}

func (p *pass) finish(r float64) float64 {
	if p.mode.HighPrecision {
		return r
	}
	return snap(r)
}

type term struct {
	neg  bool
	node *expr.Node
}

func (p *pass) collectSum(n *expr.Node, neg bool, out []term) ([]term, error) {
	if !n.IsLeaf() && n.Op().Additive() {
		out, err := p.collectSum(n.Left, neg, out)
		if err != nil {
			return nil, err
		}
		return p.collectSum(n.Right, neg != (n.Op() == token.Minus), out)
	}
	s, err := p.node(n)
	if err != nil {
		return nil, err
	}
	return splitSum(s, neg, out), nil
}

func splitSum(n *expr.Node, neg bool, out []term) []term {
	if n.IsLeaf() || !n.Op().Additive() {
		return append(out, term{neg: neg, node: n})
	}
	out = splitSum(n.Left, neg, out)
	return splitSum(n.Right, neg != (n.Op() == token.Minus), out)
}

// sum merges the constant addends of a chain of + and - into one trailing
// constant.
func (p *pass) sum(n *expr.Node) (*expr.Node, error) {
	terms, err := p.collectSum(n, false, nil)
	if err != nil {
		return nil, err
	}
	c, hasConst := 0.0, false
	var rest []term
	for _, t := range terms {
		if isConst(t.node) {
			v := t.node.Tok.Value()
			if t.neg {
				v = -v
			}
			c += v
			hasConst = true
			continue
		}
		rest = append(rest, t)
	}
	if len(rest) == 0 {
		return numLeaf(p.finish(c)), nil
	}

	res := rest[0].node
	if rest[0].neg {
		res, err = p.product(expr.Binary(token.Times, numLeaf(-1), res))
		if err != nil {
			return nil, err
		}
	}
	for _, t := range rest[1:] {
		o := token.Plus
		if t.neg {
			o = token.Minus
		}
		res = expr.Binary(o, res, t.node)
	}
	if hasConst && c != 0 {
		c = p.finish(c)
		if c < 0 {
			return expr.Binary(token.Minus, res, numLeaf(-c)), nil
		}
		return expr.Binary(token.Plus, res, numLeaf(c)), nil
	}
	return res, nil
}

type factor struct {
	inv  bool
	node *expr.Node
}

func (p *pass) collectProduct(n *expr.Node, inv bool, out []factor) ([]factor, error) {
	if !n.IsLeaf() && (n.Op() == token.Times || n.Op() == token.Divide) {
		out, err := p.collectProduct(n.Left, inv, out)
		if err != nil {
			return nil, err
		}
		return p.collectProduct(n.Right, inv != (n.Op() == token.Divide), out)
	}
	s, err := p.node(n)
	if err != nil {
		return nil, err
	}
	return splitProduct(s, inv, out), nil
}

func splitProduct(n *expr.Node, inv bool, out []factor) []factor {
	if n.IsLeaf() || (n.Op() != token.Times && n.Op() != token.Divide) {
		return append(out, factor{inv: inv, node: n})
	}
	out = splitProduct(n.Left, inv, out)
	return splitProduct(n.Right, inv != (n.Op() == token.Divide), out)
}

// product merges the constant factors of a chain of * and / into a reduced
// coefficient num/den and rebuilds it as num * factors / den / divisors.
func (p *pass) product(n *expr.Node) (*expr.Node, error) {
	factors, err := p.collectProduct(n, false, nil)
	if err != nil {
		return nil, err
	}
	if p.mode.SignCompare {
		factors = cancelSigns(factors)
	}

	num, den := 1.0, 1.0
	var mult, divs []*expr.Node
	for _, f := range factors {
		switch {
		case isConst(f.node) && f.inv:
			den *= f.node.Tok.Value()
		case isConst(f.node):
			num *= f.node.Tok.Value()
		case f.inv:
			divs = append(divs, f.node)
		default:
			mult = append(mult, f.node)
		}
	}
	if den == 0 {
		p.f.warn(WarnDivideByZero)
	}
	if len(mult) == 0 && len(divs) == 0 {
		return numLeaf(p.finish(num / den)), nil
	}
	if num == 0 && den != 0 {
		return numLeaf(0), nil
	}

	coefNum, coefDen := num/den, 1.0
	if fn, fd, ok := fraction.ToFraction(coefNum); ok {
		coefNum, coefDen = fn, fd
	}

	var res *expr.Node
	if coefNum != 1 || len(mult) == 0 {
		res = numLeaf(coefNum)
	}
	for _, m := range mult {
		if res == nil {
			res = m
			continue
		}
		res = expr.Binary(token.Times, res, m)
	}
	if coefDen != 1 {
		res = expr.Binary(token.Divide, res, numLeaf(coefDen))
	}
	for _, d := range divs {
		res = expr.Binary(token.Divide, res, d)
	}
	return res, nil
}

// cancelSigns drops pairs of identical sign variables: each is +1 or -1,
// so a pair multiplies to 1 whichever side of a division it is on.
func cancelSigns(factors []factor) []factor {
	out := factors[:0:0]
	for _, f := range factors {
		if f.node.IsLeaf() && f.node.Tok.IsVariableKind(token.Sign) {
			if k := findSign(out, f.node.Tok.Var()); k >= 0 {
				out = append(out[:k], out[k+1:]...)
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func findSign(fs []factor, v token.Var) int {
	for i, f := range fs {
		if f.node.IsLeaf() && f.node.Tok.IsVar(v) {
			return i
		}
	}
	return -1
}

func isConst(n *expr.Node) bool { return n.IsLeaf() && n.Tok.IsConstant() }

func isConstValue(n *expr.Node, v float64) bool { return n.IsLeaf() && n.Tok.IsConst(v) }

func numLeaf(v float64) *expr.Node { return expr.Leaf(token.Num(v, 1)) }
