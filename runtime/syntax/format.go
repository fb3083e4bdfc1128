package syntax

import (
	"math"
	"strconv"
	"strings"

	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

// Format renders toks as infix text with the fewest parentheses that parse
// back to the same grouping. Constants print with 14 significant digits.
func Format(toks []token.Token, syms *token.Symbols) string {
	root, err := expr.Build(toks)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	if root == nil {
		return ""
	}
	var sb strings.Builder
	pr := printer{sb: &sb, syms: syms}
	pr.node(root)
	return sb.String()
}

// FormatSpace renders an equation space: "lhs = rhs", or just lhs when the
// space holds an expression.
func FormatSpace(lhs, rhs []token.Token, syms *token.Symbols) string {
	if len(rhs) == 0 {
		return Format(lhs, syms)
	}
	return Format(lhs, syms) + " = " + Format(rhs, syms)
}

// FormatNumber renders a constant the way Format does.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 14, 64)
}

type printer struct {
	sb   *strings.Builder
	syms *token.Symbols
}

func precedence(n *expr.Node) int {
	if n.IsLeaf() {
		return 6
	}
	switch n.Op().Class() {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 3
	default:
		return 4
	}
}

func (pr printer) node(n *expr.Node) {
	if n.IsLeaf() {
		pr.leaf(n.Tok)
		return
	}
	p := precedence(n)
	o := n.Op()

	leftParens := precedence(n.Left) < p || (o == token.Power && precedence(n.Left) == p)
	if o == token.Power || o == token.Factorial {
		leftParens = leftParens || negativeConst(n.Left)
	}
	pr.group(n.Left, leftParens)

	switch o {
	case token.Factorial:
		pr.sb.WriteString("!")
		return
	case token.Plus, token.Minus:
		pr.sb.WriteString(" " + o.String() + " ")
	default:
		pr.sb.WriteString(o.String())
	}

	rp := precedence(n.Right)
	rightParens := rp < p || (rp == p && o != token.Power) || negativeConst(n.Right)
	pr.group(n.Right, rightParens)
}

func (pr printer) group(n *expr.Node, parens bool) {
	if parens {
		pr.sb.WriteString("(")
	}
	pr.node(n)
	if parens {
		pr.sb.WriteString(")")
	}
}

func (pr printer) leaf(t token.Token) {
	if t.IsConstant() {
		pr.sb.WriteString(FormatNumber(t.Value()))
		return
	}
	if pr.syms == nil {
		pr.sb.WriteString(t.Var().String())
		return
	}
	pr.sb.WriteString(pr.syms.Name(t.Var()))
}

func negativeConst(n *expr.Node) bool {
	return n.IsLeaf() && n.Tok.IsConstant() && n.Tok.Value() < 0
}
