package expr

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/token"
)

var (
	x = token.Var{Name: token.VarOffset}
	y = token.Var{Name: token.VarOffset + 1}
)

func n(v float64, level int) token.Token { return token.Num(v, level) }
func vr(v token.Var, level int) token.Token { return token.VarTok(v, level) }
func op(o token.Op, level int) token.Token { return token.OpTok(o, level) }

var tokenCmp = cmp.AllowUnexported(token.Token{})

// x^2 + 3*x
func poly() []token.Token {
	return []token.Token{
		vr(x, 2), op(token.Power, 2), n(2, 2),
		op(token.Plus, 1),
		n(3, 2), op(token.Times, 2), vr(x, 2),
	}
}

func TestInsertDeleteKeepOrder(t *testing.T) {
	e, err := FromTokens(16, poly()...)
	require.NoError(t, err)

	require.NoError(t, e.Insert(3, op(token.Plus, 1), n(7, 1)))
	assert.Equal(t, 9, e.Len())
	assert.True(t, e.At(4).IsConst(7))
	assert.True(t, e.At(5).IsOp(token.Plus))
	require.NoError(t, e.Validate())

	e.Delete(3, 2)
	if diff := cmp.Diff(poly(), e.Tokens(), tokenCmp); diff != "" {
		t.Errorf("tokens mismatch after insert/delete (-want +got):\n%s", diff)
	}
}

func TestGrowthPastCapacityFails(t *testing.T) {
	e, err := FromTokens(7, poly()...)
	require.NoError(t, err)

	err = e.Append(op(token.Plus, 1), n(1, 1))
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))
	assert.Equal(t, 7, e.Len(), "failed append must not change the side")

	err = e.Wrap(token.Times, n(2, 1))
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))

	_, err = FromTokens(3, poly()...)
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))
}

func TestCloneIsIndependent(t *testing.T) {
	e, err := FromTokens(10, poly()...)
	require.NoError(t, err)
	c := e.Clone()
	c.SetAt(0, vr(y, 2))
	c.Shift(0, c.Len(), 1)

	assert.True(t, e.At(0).IsVar(x))
	assert.Equal(t, 2, e.At(0).Level)
	assert.Equal(t, e.Cap(), c.Cap())
}

func TestWrapDeepensBothSides(t *testing.T) {
	e, err := FromTokens(10, vr(x, 1), op(token.Plus, 1), n(1, 1))
	require.NoError(t, err)
	require.NoError(t, e.Wrap(token.Divide, n(2, 1)))

	want := []token.Token{
		vr(x, 2), op(token.Plus, 2), n(1, 2),
		op(token.Divide, 1), n(2, 2),
	}
	if diff := cmp.Diff(want, e.Tokens(), tokenCmp); diff != "" {
		t.Errorf("wrap mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinLiftsRightOperand(t *testing.T) {
	e, err := FromTokens(10, vr(x, 1))
	require.NoError(t, err)

	// x + y*2, with the product kept below the new top level.
	require.NoError(t, e.Join(token.Plus, 1, vr(y, 1), op(token.Times, 1), n(2, 1)))
	want := []token.Token{
		vr(x, 2), op(token.Plus, 1),
		vr(y, 2), op(token.Times, 2), n(2, 2),
	}
	if diff := cmp.Diff(want, e.Tokens(), tokenCmp); diff != "" {
		t.Errorf("join mismatch (-want +got):\n%s", diff)
	}

	// A zero lift attaches a level-1 operand directly.
	require.NoError(t, e.Join(token.Minus, 0, n(1, 1)))
	assert.Equal(t, 1, e.At(e.Len()-1).Level)
	assert.Equal(t, 3, e.At(0).Level)
	require.NoError(t, e.Validate())

	err = e.Join(token.Plus, 1, n(1, 1), op(token.Plus, 1), n(1, 1))
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))
	assert.Equal(t, 7, e.Len())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		toks []token.Token
		ok   bool
	}{
		{"empty", nil, true},
		{"single operand", []token.Token{n(1, 1)}, true},
		{"polynomial", poly(), true},
		{"even length", []token.Token{n(1, 1), op(token.Plus, 1)}, false},
		{"operator at even index", []token.Token{op(token.Plus, 1), n(1, 1), n(2, 1)}, false},
		{"level zero", []token.Token{n(1, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTokens(tt.toks)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMinLevel(t *testing.T) {
	assert.Equal(t, 1, MinLevel(nil))
	assert.Equal(t, 3, MinLevel([]token.Token{n(1, 3)}))
	assert.Equal(t, 1, MinLevel(poly()))
	assert.Equal(t, 2, MinLevel([]token.Token{vr(x, 2), op(token.Power, 2), n(2, 2)}))
}

func TestVariableScans(t *testing.T) {
	toks := poly()
	assert.Equal(t, 2, FoundVar(toks, x))
	assert.Equal(t, 0, FoundVar(toks, y))
	assert.Equal(t, 0, FoundVar(toks, token.Null))
	assert.Equal(t, 2, VarCount(toks))

	none, sole := NoVars(toks, token.Null)
	assert.False(t, none)
	assert.Equal(t, x, sole)

	mixed := append(poly(), op(token.Plus, 1), vr(y, 1))
	none, sole = NoVars(mixed, token.Null)
	assert.False(t, none)
	assert.True(t, sole.IsZero(), "two distinct variables have no sole variable")

	constants := []token.Token{vr(token.Pi, 1), op(token.Times, 1), vr(token.Sign, 1)}
	none, sole = NoVars(constants, token.Null)
	assert.True(t, none)
	assert.True(t, sole.IsZero())
	assert.True(t, IsNumeric(constants))
	assert.False(t, IsNumeric(toks))
	assert.Equal(t, 2, VarCount(constants))

	none, sole = NoVars(constants, y)
	assert.False(t, none, "a preset counts reserved variables too")
	assert.Equal(t, y, sole)
	none, sole = NoVars([]token.Token{n(3, 1)}, y)
	assert.True(t, none)
	assert.Equal(t, y, sole)

	assert.True(t, VarInSides([]token.Token{vr(y, 1)}, toks, x))
	assert.False(t, VarInSides(nil, toks, x), "an empty LHS is an unallocated space")
}

func TestNonFiniteScans(t *testing.T) {
	assert.False(t, ContainsInfinity(poly()))
	assert.True(t, ContainsInfinity([]token.Token{n(math.Inf(-1), 1)}))
	assert.True(t, ContainsInfinity([]token.Token{n(math.NaN(), 1)}))
	assert.False(t, ContainsNaN([]token.Token{n(math.Inf(1), 1)}))
	assert.True(t, ContainsNaN([]token.Token{n(1, 1), op(token.Plus, 1), n(math.NaN(), 1)}))
}

func TestPlusCounts(t *testing.T) {
	// (x + 1) * y - 2 + 3
	toks := []token.Token{
		vr(x, 3), op(token.Plus, 3), n(1, 3),
		op(token.Times, 2), vr(y, 2),
		op(token.Minus, 1), n(2, 1),
		op(token.Plus, 1), n(3, 1),
	}
	assert.Equal(t, 2, Level1PlusCount(toks))
	assert.Equal(t, 1, LevelPlusCount(toks, 3))
	assert.Equal(t, 0, LevelPlusCount(toks, 2))
}

func TestSubstVarWithExp(t *testing.T) {
	// x^2 + 3*x with x := (y + 1)
	e, err := FromTokens(32, poly()...)
	require.NoError(t, err)
	repl := []token.Token{vr(y, 1), op(token.Plus, 1), n(1, 1)}

	require.NoError(t, SubstVarWithExp(e, x, repl))

	want := []token.Token{
		vr(y, 3), op(token.Plus, 3), n(1, 3), op(token.Power, 2), n(2, 2),
		op(token.Plus, 1),
		n(3, 2), op(token.Times, 2), vr(y, 3), op(token.Plus, 3), n(1, 3),
	}
	if diff := cmp.Diff(want, e.Tokens(), tokenCmp); diff != "" {
		t.Errorf("substitution mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, e.Validate())
}

func TestSubstitutionChangesLengthByOccurrences(t *testing.T) {
	repls := [][]token.Token{
		{n(5, 1)},
		{vr(y, 1), op(token.Times, 1), n(2, 1)},
		{vr(y, 2), op(token.Plus, 2), n(1, 2), op(token.Divide, 1), vr(y, 1)},
	}
	for _, repl := range repls {
		e, err := FromTokens(64, poly()...)
		require.NoError(t, err)
		k := FoundVar(e.Tokens(), x)
		before := e.Len()

		require.NoError(t, SubstVarWithExp(e, x, repl))

		assert.Equal(t, before+k*(len(repl)-1), e.Len())
		assert.Zero(t, FoundVar(e.Tokens(), x))
		assert.NoError(t, e.Validate())
	}
}

func TestSubstitutionCapacityGuard(t *testing.T) {
	e, err := FromTokens(15, poly()...)
	require.NoError(t, err)
	repl := []token.Token{vr(x, 1), op(token.Times, 1), vr(x, 1)}

	var subErr error
	for i := 0; i < 10 && subErr == nil; i++ {
		subErr = SubstVarWithExp(e, x, repl)
	}
	require.Error(t, subErr)
	assert.True(t, errors.IsErrorType(subErr, errors.ErrCapacityExceeded))
	assert.LessOrEqual(t, e.Len(), e.Cap())
}

func TestModeIsAValue(t *testing.T) {
	base := DefaultMode()
	full := base.Full().Approximating().WithDomainCheck()

	assert.True(t, base.Partial)
	assert.False(t, base.ApproximateRoots)
	assert.False(t, base.DomainCheck)
	assert.False(t, full.Partial)
	assert.True(t, full.ApproximateRoots)
	assert.True(t, full.DomainCheck)
}
