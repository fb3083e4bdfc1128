// Package token defines the flat, level-encoded token vocabulary every
// mathcore expression is made of.
//
// An expression is a sequence of tokens alternating operand and operator
// positions (operators only at odd indices). Each token carries a Level, the
// parenthesization depth of its position (origin 1). Operators at the same
// level apply left to right; a deeper level binds tighter. No separate tree
// is stored: grouping is recovered from the levels alone.
package token

import (
	"fmt"
	"math"

	"github.com/opal-lang/mathcore/core/invariant"
)

// Kind identifies which payload a Token carries.
type Kind uint8

const (
	Constant Kind = iota
	Variable
	Operator
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Operator:
		return "operator"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Op identifies an operator. Values follow precedence order; 0 is no operator.
type Op uint8

const (
	OpNone Op = iota
	Plus      // a + b
	Minus     // a - b
	Times     // a * b
	Divide    // a / b
	Modulus   // a % b
	IDivide   // a // b
	Power     // a ^ b
	Factorial // a ! 1 (the right operand is a placeholder)
	Negate    // parser-internal, never stored in a finished expression
)

var opSymbols = [...]string{
	OpNone:    "?",
	Plus:      "+",
	Minus:     "-",
	Times:     "*",
	Divide:    "/",
	Modulus:   "%",
	IDivide:   "//",
	Power:     "^",
	Factorial: "!",
	Negate:    "neg",
}

// String returns the operator's infix symbol.
func (o Op) String() string {
	if int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Additive reports whether o is + or -.
func (o Op) Additive() bool { return o == Plus || o == Minus }

// Multiplicative reports whether o is one of * / % //.
func (o Op) Multiplicative() bool {
	return o == Times || o == Divide || o == Modulus || o == IDivide
}

// Class groups operators that share a precedence tier. Operators of the same
// class may share a level when chained left to right.
func (o Op) Class() int {
	switch {
	case o.Additive():
		return 1
	case o.Multiplicative():
		return 2
	case o == Power:
		return 3
	case o == Factorial:
		return 4
	default:
		return 5
	}
}

// Token is one position of an expression. The payload is private so it can
// only be read through accessors that agree with Kind.
type Token struct {
	Level int

	kind Kind
	num  float64
	v    Var
	op   Op
}

// Num returns a constant token.
func Num(value float64, level int) Token {
	return Token{Level: level, kind: Constant, num: value}
}

// VarTok returns a variable token.
func VarTok(v Var, level int) Token {
	return Token{Level: level, kind: Variable, v: v}
}

// OpTok returns an operator token.
func OpTok(op Op, level int) Token {
	return Token{Level: level, kind: Operator, op: op}
}

// Kind returns the token kind.
func (t Token) Kind() Kind { return t.kind }

// Value returns the constant payload. The token must be a constant.
func (t Token) Value() float64 {
	invariant.Precondition(t.kind == Constant, "Value() on %s token", t.kind)
	return t.num
}

// Var returns the variable payload. The token must be a variable.
func (t Token) Var() Var {
	invariant.Precondition(t.kind == Variable, "Var() on %s token", t.kind)
	return t.v
}

// Op returns the operator payload, or OpNone for operands.
func (t Token) Op() Op {
	if t.kind != Operator {
		return OpNone
	}
	return t.op
}

// IsConstant reports whether t is a constant.
func (t Token) IsConstant() bool { return t.kind == Constant }

// IsFiniteConstant reports whether t is a constant that is neither infinite nor NaN.
func (t Token) IsFiniteConstant() bool {
	return t.kind == Constant && !math.IsInf(t.num, 0) && !math.IsNaN(t.num)
}

// IsConst reports whether t is the constant c.
func (t Token) IsConst(c float64) bool { return t.kind == Constant && t.num == c }

// IsVariable reports whether t is any variable.
func (t Token) IsVariable() bool { return t.kind == Variable }

// IsVar reports whether t is exactly the variable v (name and subscript).
func (t Token) IsVar(v Var) bool { return t.kind == Variable && t.v == v }

// IsVariableKind reports whether t is a variable whose name matches the
// reserved kind, ignoring the subscript. Used to find every sign variable.
func (t Token) IsVariableKind(kind Var) bool {
	return t.kind == Variable && t.v.Name == kind.Name
}

// IsOperator reports whether t is an operator.
func (t Token) IsOperator() bool { return t.kind == Operator }

// IsOp reports whether t is the operator op.
func (t Token) IsOp(op Op) bool { return t.kind == Operator && t.op == op }

// WithLevel returns a copy of t at the given level.
func (t Token) WithLevel(level int) Token {
	t.Level = level
	return t
}

// WithOp returns a copy of operator token t carrying op instead.
func (t Token) WithOp(op Op) Token {
	invariant.Precondition(t.kind == Operator, "WithOp() on %s token", t.kind)
	t.op = op
	return t
}

// String renders the token for debugging: payload@level.
func (t Token) String() string {
	switch t.kind {
	case Constant:
		return fmt.Sprintf("%g@%d", t.num, t.Level)
	case Variable:
		return fmt.Sprintf("v%d@%d", t.v.Encode(), t.Level)
	default:
		return fmt.Sprintf("%s@%d", t.op, t.Level)
	}
}
