// Package snapshot defines the binary save format for equation spaces.
//
// Format: MAGIC(4) | FLAGS(2) | BODY_LEN(4) | BODY | DIGEST(32)
//
// The body is canonical CBOR, so the same spaces always encode to the same
// bytes. DIGEST is the BLAKE2b-256 hash of the body and is checked on read.
// The body carries a semantic version; a reader accepts any body with the
// same major version as its own.
package snapshot

import (
	"encoding/hex"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

const (
	// Magic is the file magic number "MCSP" (4 bytes)
	Magic = "MCSP"

	// CurrentVersion is the body format version written by this package.
	CurrentVersion = "v1.0.0"

	// MaxBodyLen bounds the body a reader will accept.
	MaxBodyLen = 64 * 1024 * 1024
)

// Flags is a bitmask for optional features. No flags are defined yet; a
// reader rejects any set bit.
type Flags uint16

// Snapshot is the saved state of a store.
type Snapshot struct {
	Version string   `cbor:"version"`
	Current int      `cbor:"current"`
	Names   []string `cbor:"names"`
	Spaces  []Space  `cbor:"spaces"`
}

// Space is one non-empty equation space. RHS is empty for an expression.
type Space struct {
	ID  int     `cbor:"id"`
	LHS []Token `cbor:"lhs"`
	RHS []Token `cbor:"rhs,omitempty"`
}

// Token is the saved form of token.Token. Variables use the packed encoding.
type Token struct {
	Kind  uint8   `cbor:"k"`
	Level int     `cbor:"l"`
	Value float64 `cbor:"n,omitempty"`
	Var   int64   `cbor:"v,omitempty"`
	Op    uint8   `cbor:"o,omitempty"`
}

// FromTokens converts live tokens to their saved form.
func FromTokens(toks []token.Token) []Token {
	if len(toks) == 0 {
		return nil
	}
	out := make([]Token, len(toks))
	for i, t := range toks {
		st := Token{Kind: uint8(t.Kind()), Level: t.Level}
		switch t.Kind() {
		case token.Constant:
			st.Value = t.Value()
		case token.Variable:
			st.Var = t.Var().Encode()
		case token.Operator:
			st.Op = uint8(t.Op())
		}
		out[i] = st
	}
	return out
}

// ToTokens converts saved tokens back and checks the level invariant.
// names is the number of ordinary variable names the snapshot defines.
func ToTokens(saved []Token, names int) ([]token.Token, error) {
	out := make([]token.Token, len(saved))
	for i, st := range saved {
		switch token.Kind(st.Kind) {
		case token.Constant:
			out[i] = token.Num(st.Value, st.Level)
		case token.Variable:
			v, err := token.DecodeVar(st.Var)
			if err != nil {
				return nil, errors.Wrap(errors.ErrSnapshot, "bad variable", err).WithContext("index", i)
			}
			if v.IsOrdinary() && (v.Name < token.VarOffset || int(v.Name)-token.VarOffset >= names) {
				return nil, errors.Newf(errors.ErrSnapshot, "variable %d has no name", v.Name).WithContext("index", i)
			}
			out[i] = token.VarTok(v, st.Level)
		case token.Operator:
			op := token.Op(st.Op)
			if op == token.OpNone || op > token.Factorial {
				return nil, errors.Newf(errors.ErrSnapshot, "unknown operator %d", st.Op).WithContext("index", i)
			}
			out[i] = token.OpTok(op, st.Level)
		default:
			return nil, errors.Newf(errors.ErrSnapshot, "unknown token kind %d", st.Kind).WithContext("index", i)
		}
	}
	if err := expr.ValidateTokens(out); err != nil {
		return nil, errors.Wrap(errors.ErrSnapshot, "malformed side", err)
	}
	return out, nil
}

// Digest renders a body hash as "blake2b:<hex>".
func Digest(sum [32]byte) string {
	return "blake2b:" + hex.EncodeToString(sum[:])
}
