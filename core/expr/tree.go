package expr

import (
	"github.com/opal-lang/mathcore/core/token"
)

// Node is a binary-tree view of a token sequence. Leaves hold an operand;
// inner nodes hold an operator with both children set.
type Node struct {
	Tok   token.Token
	Left  *Node
	Right *Node
}

// Leaf returns an operand node. The level of t is ignored by Flatten.
func Leaf(t token.Token) *Node { return &Node{Tok: t} }

// Binary returns an operator node.
func Binary(op token.Op, left, right *Node) *Node {
	return &Node{Tok: token.OpTok(op, 1), Left: left, Right: right}
}

// IsLeaf reports whether n is an operand.
func (n *Node) IsLeaf() bool { return n.Left == nil }

// Op returns the operator of an inner node, or OpNone for a leaf.
func (n *Node) Op() token.Op { return n.Tok.Op() }

// Build converts a level-encoded sequence into a tree. Operators at the same
// level apply left to right, so the last operator at the lowest level is the
// root of each range.
func Build(toks []token.Token) (*Node, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	if err := ValidateTokens(toks); err != nil {
		return nil, err
	}
	return build(toks), nil
}

func build(toks []token.Token) *Node {
	if len(toks) == 1 {
		return Leaf(toks[0])
	}
	root := 1
	for i := 3; i < len(toks); i += 2 {
		if toks[i].Level <= toks[root].Level {
			root = i
		}
	}
	return &Node{
		Tok:   toks[root],
		Left:  build(toks[:root]),
		Right: build(toks[root+1:]),
	}
}

// Flatten converts a tree back into a level-encoded sequence rooted at
// level 1.
func Flatten(n *Node) []token.Token {
	if n == nil {
		return nil
	}
	return flatten(nil, n, 1)
}

func flatten(out []token.Token, n *Node, level int) []token.Token {
	if n.IsLeaf() {
		return append(out, n.Tok.WithLevel(level))
	}
	leftLevel := level + 1
	if sharesLevel(n.Op(), n.Left) {
		leftLevel = level
	}
	out = flatten(out, n.Left, leftLevel)
	out = append(out, n.Tok.WithLevel(level))
	rightLevel := level + 1
	if n.Right.IsLeaf() {
		rightLevel = level
	}
	return flatten(out, n.Right, rightLevel)
}

// sharesLevel reports whether a left operand chain can stay at its parent's
// level: sums and products associate to the left.
func sharesLevel(parent token.Op, left *Node) bool {
	if left.IsLeaf() {
		return true
	}
	c := parent.Class()
	return (c == 1 || c == 2) && left.Op().Class() == c
}

// Clone deep-copies n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{Tok: n.Tok, Left: n.Left.Clone(), Right: n.Right.Clone()}
}

// Vars appends every variable leaf of n, left to right.
func (n *Node) Vars(out []token.Var) []token.Var {
	if n == nil {
		return out
	}
	if n.IsLeaf() {
		if n.Tok.IsVariable() {
			out = append(out, n.Tok.Var())
		}
		return out
	}
	return n.Right.Vars(n.Left.Vars(out))
}
