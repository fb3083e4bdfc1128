package token

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
)

func TestTokenPredicates(t *testing.T) {
	x := Var{Name: VarOffset}
	c := Num(2.5, 1)
	v := VarTok(x, 2)
	op := OpTok(Power, 2)

	assert.True(t, c.IsConstant())
	assert.True(t, c.IsFiniteConstant())
	assert.True(t, c.IsConst(2.5))
	assert.False(t, c.IsVariable())
	assert.Equal(t, OpNone, c.Op())

	assert.True(t, v.IsVar(x))
	assert.False(t, v.IsVar(Var{Name: VarOffset + 1}))
	assert.False(t, v.IsConstant())
	assert.Equal(t, x, v.Var())

	assert.True(t, op.IsOp(Power))
	assert.False(t, op.IsOp(Times))
	assert.Equal(t, Power, op.Op())
	assert.Equal(t, 2, op.Level)

	assert.False(t, Num(math.Inf(1), 1).IsFiniteConstant())
	assert.False(t, Num(math.NaN(), 1).IsFiniteConstant())
	assert.False(t, v.IsFiniteConstant())
}

func TestAccessorOnWrongKindPanics(t *testing.T) {
	assert.Panics(t, func() { _ = OpTok(Plus, 1).Value() })
	assert.Panics(t, func() { _ = Num(1, 1).Var() })
	assert.Panics(t, func() { _ = Num(1, 1).WithOp(Plus) })
}

func TestIsVariableKindIgnoresSubscript(t *testing.T) {
	s3, err := SignVar(3)
	require.NoError(t, err)

	tok := VarTok(s3, 1)
	assert.True(t, tok.IsVariableKind(Sign))
	assert.False(t, tok.IsVar(Sign))
	assert.False(t, tok.IsVariableKind(Pi))
}

func TestOpClass(t *testing.T) {
	assert.Equal(t, Plus.Class(), Minus.Class())
	assert.Equal(t, Times.Class(), Divide.Class())
	assert.Equal(t, Times.Class(), IDivide.Class())
	assert.Less(t, Plus.Class(), Times.Class())
	assert.Less(t, Times.Class(), Power.Class())
	assert.Equal(t, "//", IDivide.String())
	assert.Equal(t, "!", Factorial.String())
}

func TestVarEncodingRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Var
		want int64
	}{
		{"pi", Pi, 2},
		{"plain sign", Sign, 4},
		{"sign subscript 1", Var{Name: SignName, Subscript: 1}, 4 | 1<<14},
		{"sign subscript 63", Var{Name: SignName, Subscript: 63}, 4 | 63<<14},
		{"ordinary", Var{Name: VarOffset + 7}, VarOffset + 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Encode())
			back, err := DecodeVar(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.v, back)
		})
	}
}

func TestVarValidation(t *testing.T) {
	_, err := NewVar(VarMask+1, 0)
	assert.True(t, errors.IsErrorType(err, errors.ErrInvalidVariable))

	_, err = NewVar(VarOffset, 2)
	assert.True(t, errors.IsErrorType(err, errors.ErrInvalidVariable), "only sign variables take subscripts")

	_, err = SignVar(64)
	assert.Error(t, err)

	_, err = DecodeVar(-1)
	assert.Error(t, err)

	_, err = DecodeVar(1 << 21)
	assert.Error(t, err)

	_, err = DecodeVar(int64(VarOffset) | 1<<14)
	assert.Error(t, err)
}

func TestVarOrdering(t *testing.T) {
	s1 := Var{Name: SignName, Subscript: 1}
	x := Var{Name: VarOffset}

	assert.Equal(t, -1, Compare(Pi, Sign))
	assert.Equal(t, 1, Compare(s1, x), "subscripted sign sorts by packed value")
	assert.Equal(t, 0, Compare(x, x))

	assert.True(t, x.IsOrdinary())
	assert.True(t, MatchAny.IsOrdinary())
	assert.False(t, s1.IsOrdinary())
	assert.False(t, E.IsOrdinary())
	assert.True(t, s1.IsSign())
	assert.True(t, Null.IsZero())
}
