package syntax

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
)

var tokenCmp = cmp.AllowUnexported(token.Token{})

func TestParseLevels(t *testing.T) {
	syms := token.NewSymbols()
	got, err := Parse("x^2 + 3x", syms)
	require.NoError(t, err)

	x, ok := syms.Lookup("x")
	require.True(t, ok)
	want := []token.Token{
		token.VarTok(x, 2), token.OpTok(token.Power, 2), token.Num(2, 2),
		token.OpTok(token.Plus, 1),
		token.Num(3, 2), token.OpTok(token.Times, 2), token.VarTok(x, 2),
	}
	if diff := cmp.Diff(want, got, tokenCmp); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x^2+3x", "x^2 + 3*x"},
		{"(x+1)(x-1)", "(x + 1)*(x - 1)"},
		{"a-(b-c)", "a - (b - c)"},
		{"a-b-c", "a - b - c"},
		{"a/(b*c)", "a/(b*c)"},
		{"a/b*c", "a/b*c"},
		{"2^3^2", "2^3^2"},
		{"(2^3)^2", "(2^3)^2"},
		{"-x", "-1*x"},
		{"-3", "-3"},
		{"x - -2", "x - (-2)"},
		{"(-2)^x", "(-2)^x"},
		{"x!", "x!"},
		{"(x+1)!", "(x + 1)!"},
		{"e*pi*i", "e#*pi#*i#"},
		{"e#^2", "e#^2"},
		{"sign3*y", "sign3*y"},
		{"1e3 + .5", "1000 + 0.5"},
		{"7 // 2 % 3", "7//2%3"},
		{"y'' + y'", "y'' + y'"},
		{"x ** 2", "x^2"},
		{"inf - nan", "inf - nan"},
		{"x +/- 1", "x + sign*1"},
		{"+/-x^2", "sign*x^2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			syms := token.NewSymbols()
			toks, err := Parse(tt.in, syms)
			require.NoError(t, err)
			require.NoError(t, expr.ValidateTokens(toks))

			got := Format(toks, syms)
			assert.Equal(t, tt.want, got)

			again, err := Parse(got, syms)
			require.NoError(t, err)
			assert.Equal(t, got, Format(again, syms), "printing is stable")
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0.33333333333333", FormatNumber(1.0/3))
	assert.Equal(t, "-inf", FormatNumber(math.Inf(-1)))
	assert.Equal(t, "1e+21", FormatNumber(1e21))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		text string
	}{
		{"", "empty expression"},
		{"x +", "unexpected end of input"},
		{"(x + 1", "missing ')'"},
		{"x $ y", "unexpected illegal character"},
		{"x)", "unexpected ')'"},
		{"x = y", "unexpected '='"},
		{"x# + 1", "bad variable name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in, token.NewSymbols())
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrParse))
			assert.Contains(t, err.Error(), tt.text)
		})
	}
}

func TestParseEquation(t *testing.T) {
	syms := token.NewSymbols()

	lhs, rhs, err := ParseEquation("y = x^2 + 1", syms)
	require.NoError(t, err)
	assert.Equal(t, "y = x^2 + 1", FormatSpace(lhs, rhs, syms))

	lhs, rhs, err = ParseEquation("x^2", syms)
	require.NoError(t, err)
	assert.Nil(t, rhs)
	assert.Equal(t, "x^2", FormatSpace(lhs, rhs, syms))

	for _, bad := range []string{"y =", "= x", "a = b = c", ""} {
		_, _, err := ParseEquation(bad, syms)
		assert.True(t, errors.IsErrorType(err, errors.ErrParse), "input %q", bad)
	}
}

func TestParseWithSignsNumbersEachPlusMinus(t *testing.T) {
	syms := token.NewSymbols()
	next := 0
	signs := func() (token.Var, error) {
		next++
		return token.SignVar(next)
	}

	lhs, rhs, err := ParseEquationWithSigns("y = a +/- b +/- c", syms, signs)
	require.NoError(t, err)
	assert.Equal(t, "y = a + sign1*b + sign2*c", FormatSpace(lhs, rhs, syms))
	require.NoError(t, expr.ValidateTokens(rhs))

	toks, err := ParseWithSigns("+/-x", syms, signs)
	require.NoError(t, err)
	assert.Equal(t, "sign3*x", Format(toks, syms))
	assert.Equal(t, 3, next)
}

func TestParseWithSignsReportsExhaustion(t *testing.T) {
	exhausted := func() (token.Var, error) {
		return token.Sign, errors.New(errors.ErrOutOfSignVars, "Out of unique sign variables.")
	}
	_, err := ParseWithSigns("x +/- 1", token.NewSymbols(), exhausted)
	assert.True(t, errors.IsErrorType(err, errors.ErrOutOfSignVars))

	toks, err := ParseWithSigns("x + 1", token.NewSymbols(), exhausted)
	require.NoError(t, err, "the source is only asked for '+/-'")
	assert.Len(t, toks, 3)
}

func TestParseVar(t *testing.T) {
	syms := token.NewSymbols()
	v, err := ParseVar("t", syms)
	require.NoError(t, err)
	assert.True(t, v.IsOrdinary())

	v, err = ParseVar("pi", syms)
	require.NoError(t, err)
	assert.Equal(t, token.Pi, v)

	for _, bad := range []string{"", "2", "x y", "inf", "x+1"} {
		_, err := ParseVar(bad, syms)
		assert.Error(t, err, "input %q", bad)
	}
}
