// Package syntax is the text front end of the engine: a parser from infix
// text to level-encoded token sequences and a printer back to text.
//
// Grammar, lowest precedence first:
//
//	equation := expr [ "=" expr ]
//	expr     := term { ("+" | "-" | "+/-") term }
//	term     := unary { ("*" | "/" | "//" | "%") unary | primary }
//	unary    := ("-" | "+" | "+/-") unary | power
//	power    := postfix [ "^" unary ]
//	postfix  := primary { "!" }
//	primary  := NUMBER | IDENT | "(" expr ")"
//
// A primary directly following a term multiplies it, so 2x and (x+1)(x-1)
// are products. Exponentiation is right associative. "a +/- b" reads as
// a + sign*b, with the sign variable taken from a SignSource.
package syntax

import (
	"fmt"
	"math"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

// constants spelled as identifiers
var namedConstants = map[string]float64{
	"inf": math.Inf(1),
	"nan": math.NaN(),
}

// reserved short spellings
var namedVars = map[string]token.Var{
	"e":  token.E,
	"pi": token.Pi,
	"i":  token.Imaginary,
}

// SignSource returns the sign variable the next "+/-" stands for.
type SignSource func() (token.Var, error)

func bareSign() (token.Var, error) { return token.Sign, nil }

type parser struct {
	lex   *Lexer
	cur   Lexeme
	syms  *token.Symbols
	signs SignSource
}

// Parse parses one expression. Unknown identifiers are interned in syms.
// Every "+/-" uses the bare sign variable.
func Parse(text string, syms *token.Symbols) ([]token.Token, error) {
	return ParseWithSigns(text, syms, nil)
}

// ParseWithSigns is Parse with each "+/-" taking its own sign variable
// from signs. A nil signs behaves like Parse.
func ParseWithSigns(text string, syms *token.Symbols, signs SignSource) ([]token.Token, error) {
	p := newParser(text, syms, signs)
	if p.cur.Type == EOF {
		return nil, errors.NewParseError("empty expression", nil)
	}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != EOF {
		return nil, p.unexpected()
	}
	return expr.Flatten(root), nil
}

// ParseEquation parses "lhs = rhs" or a bare expression. rhs is nil for a
// bare expression.
func ParseEquation(text string, syms *token.Symbols) (lhs, rhs []token.Token, err error) {
	return ParseEquationWithSigns(text, syms, nil)
}

// ParseEquationWithSigns is ParseEquation with a SignSource for "+/-".
func ParseEquationWithSigns(text string, syms *token.Symbols, signs SignSource) (lhs, rhs []token.Token, err error) {
	p := newParser(text, syms, signs)
	if p.cur.Type == EOF {
		return nil, nil, errors.NewParseError("empty expression", nil)
	}
	left, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	lhs = expr.Flatten(left)
	if p.cur.Type == EOF {
		return lhs, nil, nil
	}
	if p.cur.Type != EQUALS {
		return nil, nil, p.unexpected()
	}
	p.next()
	if p.cur.Type == EOF {
		return nil, nil, errors.NewParseError("missing right-hand side after '='", nil).
			WithContext("pos", p.cur.Pos)
	}
	right, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	if p.cur.Type != EOF {
		return nil, nil, p.unexpected()
	}
	return lhs, expr.Flatten(right), nil
}

func newParser(text string, syms *token.Symbols, signs SignSource) *parser {
	if signs == nil {
		signs = bareSign
	}
	p := &parser{lex: NewLexer(text), syms: syms, signs: signs}
	p.next()
	return p
}

func (p *parser) next() { p.cur = p.lex.NextToken() }

func (p *parser) unexpected() error {
	msg := fmt.Sprintf("unexpected %s", p.cur.Type)
	if p.cur.Text != "" && p.cur.Type != EOF {
		msg = fmt.Sprintf("unexpected %s %q", p.cur.Type, p.cur.Text)
	}
	return errors.NewParseError(msg, nil).WithContext("pos", p.cur.Pos)
}

func (p *parser) expr() (*expr.Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == PLUS || p.cur.Type == MINUS || p.cur.Type == PLUSMINUS {
		typ := p.cur.Type
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		switch typ {
		case MINUS:
			left = expr.Binary(token.Minus, left, right)
		case PLUSMINUS:
			if right, err = p.signed(right); err != nil {
				return nil, err
			}
			left = expr.Binary(token.Plus, left, right)
		default:
			left = expr.Binary(token.Plus, left, right)
		}
	}
	return left, nil
}

// signed multiplies n by a fresh sign variable.
func (p *parser) signed(n *expr.Node) (*expr.Node, error) {
	v, err := p.signs()
	if err != nil {
		return nil, err
	}
	return expr.Binary(token.Times, expr.Leaf(token.VarTok(v, 1)), n), nil
}

func (p *parser) term() (*expr.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var op token.Op
		switch p.cur.Type {
		case MULTIPLY:
			op = token.Times
		case DIVIDE:
			op = token.Divide
		case IDIVIDE:
			op = token.IDivide
		case MODULO:
			op = token.Modulus
		case NUMBER, IDENT, LPAREN:
			right, err := p.power()
			if err != nil {
				return nil, err
			}
			left = expr.Binary(token.Times, left, right)
			continue
		default:
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = expr.Binary(op, left, right)
	}
}

func (p *parser) unary() (*expr.Node, error) {
	switch p.cur.Type {
	case PLUS:
		p.next()
		return p.unary()
	case MINUS:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negate(operand), nil
	case PLUSMINUS:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return p.signed(operand)
	}
	return p.power()
}

// negate folds the sign into a constant, otherwise multiplies by -1.
func negate(n *expr.Node) *expr.Node {
	if n.IsLeaf() && n.Tok.IsConstant() {
		return expr.Leaf(token.Num(-n.Tok.Value(), 1))
	}
	return expr.Binary(token.Times, expr.Leaf(token.Num(-1, 1)), n)
}

func (p *parser) power() (*expr.Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != POWER {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return expr.Binary(token.Power, base, exp), nil
}

func (p *parser) postfix() (*expr.Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == BANG {
		p.next()
		n = expr.Binary(token.Factorial, n, expr.Leaf(token.Num(1, 1)))
	}
	return n, nil
}

func (p *parser) primary() (*expr.Node, error) {
	switch lx := p.cur; lx.Type {
	case NUMBER:
		p.next()
		return expr.Leaf(token.Num(lx.Value, 1)), nil
	case IDENT:
		p.next()
		return p.ident(lx)
	case LPAREN:
		p.next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != RPAREN {
			return nil, errors.NewParseError("missing ')'", nil).WithContext("pos", p.cur.Pos)
		}
		p.next()
		return inner, nil
	}
	return nil, p.unexpected()
}

func (p *parser) ident(lx Lexeme) (*expr.Node, error) {
	if c, ok := namedConstants[lx.Text]; ok {
		return expr.Leaf(token.Num(c, 1)), nil
	}
	if v, ok := namedVars[lx.Text]; ok {
		return expr.Leaf(token.VarTok(v, 1)), nil
	}
	v, err := p.syms.Intern(lx.Text)
	if err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("bad variable name %q", lx.Text), err).
			WithContext("pos", lx.Pos)
	}
	return expr.Leaf(token.VarTok(v, 1)), nil
}

// ParseVar parses a single variable name.
func ParseVar(text string, syms *token.Symbols) (token.Var, error) {
	l := NewLexer(text)
	lx := l.NextToken()
	if lx.Type != IDENT || l.NextToken().Type != EOF {
		return token.Var{}, errors.NewParseError(fmt.Sprintf("%q is not a variable name", text), nil)
	}
	if v, ok := namedVars[lx.Text]; ok {
		return v, nil
	}
	if _, ok := namedConstants[lx.Text]; ok {
		return token.Var{}, errors.NewParseError(fmt.Sprintf("%q is a constant, not a variable", text), nil)
	}
	v, err := syms.Intern(lx.Text)
	if err != nil {
		return token.Var{}, errors.NewParseError(fmt.Sprintf("bad variable name %q", lx.Text), err)
	}
	return v, nil
}
