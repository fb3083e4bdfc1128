package simplify

import (
	"math"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

// Evaluate computes the numeric value of toks. Variables are looked up in
// env; e and pi default to their values when env does not bind them.
// Division by zero follows IEEE rules and is not an error.
func Evaluate(toks []token.Token, env map[token.Var]float64) (float64, error) {
	root, err := expr.Build(toks)
	if err != nil {
		return 0, errors.Wrap(errors.ErrStructural, "malformed expression", err)
	}
	if root == nil {
		return 0, errors.New(errors.ErrEmptySpace, "nothing to evaluate")
	}
	return eval(root, env)
}

func eval(n *expr.Node, env map[token.Var]float64) (float64, error) {
	if n.IsLeaf() {
		if n.Tok.IsConstant() {
			return n.Tok.Value(), nil
		}
		v := n.Tok.Var()
		if val, ok := env[v]; ok {
			return val, nil
		}
		switch v {
		case token.E:
			return math.E, nil
		case token.Pi:
			return math.Pi, nil
		}
		return 0, errors.New(errors.ErrMalformedArgument, "variable has no value").
			WithContext("var", v.String())
	}

	a, err := eval(n.Left, env)
	if err != nil {
		return 0, err
	}
	b, err := eval(n.Right, env)
	if err != nil {
		return 0, err
	}
	r, _, err := applyOp(n.Op(), a, b)
	return r, err
}
