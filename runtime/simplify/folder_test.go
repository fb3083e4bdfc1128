package simplify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/syntax"
)

func parse(t *testing.T, syms *token.Symbols, text string, capacity int) *expr.Expr {
	t.Helper()
	toks, err := syntax.Parse(text, syms)
	require.NoError(t, err)
	e, err := expr.FromTokens(capacity, toks...)
	require.NoError(t, err)
	return e
}

func simplify(t *testing.T, text string, mode expr.Mode) (string, error) {
	t.Helper()
	syms := token.NewSymbols()
	e := parse(t, syms, text, 200)
	err := New(nil).Simplify(e, mode)
	require.NoError(t, e.Validate())
	return syntax.Format(e.Tokens(), syms), err
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x^(2+1)/(2+1)", "x^3/3"},
		{"t^((1+1)*(-1))*1!", "1/t^2"},
		{"1*t^(2-1)/(2-1)!", "t"},
		{"x + 0", "x"},
		{"0 + x", "x"},
		{"x - 0", "x"},
		{"x*1", "x"},
		{"x/1", "x"},
		{"x^1", "x"},
		{"x^0", "1"},
		{"1^x", "1"},
		{"2*x*3", "6*x"},
		{"x*0.5", "x/2"},
		{"3*x/3", "x"},
		{"2*x/4", "x/2"},
		{"0*x", "0"},
		{"x + 1 + 2", "x + 3"},
		{"1 + x - 3", "x - 2"},
		{"0 - x", "-1*x"},
		{"x^-2", "1/x^2"},
		{"3*x^-1", "3/x"},
		{"4^0.5", "2"},
		{"2^0.5", "2^0.5"},
		{"3!", "6"},
		{"0.5!", "0.5!"},
		{"7 // 2", "3"},
		{"7 % 3", "1"},
		{"sign*sign*x", "sign*sign*x"},
		{"(x + 2 + 3)*(y*2*2)", "4*(x + 5)*y"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := simplify(t, tt.in, expr.DefaultMode())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimplifyFullMode(t *testing.T) {
	got, err := simplify(t, "2^0.5", expr.DefaultMode().Full())
	require.NoError(t, err)
	assert.Equal(t, "1.4142135623731", got)

	got, err = simplify(t, "0.5!", expr.DefaultMode().Full())
	require.NoError(t, err)
	assert.Equal(t, "0.88622692545276", got)
}

func TestSimplifySignCompare(t *testing.T) {
	mode := expr.DefaultMode()
	mode.SignCompare = true
	got, err := simplify(t, "sign*x*sign", mode)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	got, err = simplify(t, "sign1*x*sign2", mode)
	require.NoError(t, err)
	assert.Equal(t, "sign1*x*sign2", got, "different sign variables are independent")
}

func TestSimplifyHighPrecision(t *testing.T) {
	syms := token.NewSymbols()
	f := New(nil)

	e := parse(t, syms, "(0.1 + 0.2)*10", 50)
	require.NoError(t, f.Simplify(e, expr.DefaultMode()))
	require.Equal(t, 1, e.Len())
	assert.Equal(t, 3.0, e.At(0).Value())

	e = parse(t, syms, "(0.1 + 0.2)*10", 50)
	mode := expr.DefaultMode()
	mode.HighPrecision = true
	require.NoError(t, f.Simplify(e, mode))
	assert.NotEqual(t, 3.0, e.At(0).Value())
}

func TestDivisionByZeroIsAWarning(t *testing.T) {
	syms := token.NewSymbols()
	f := New(nil)

	e := parse(t, syms, "1/0", 10)
	require.NoError(t, f.Simplify(e, expr.DefaultMode()))
	assert.True(t, math.IsInf(e.At(0).Value(), 1))
	assert.Equal(t, []string{WarnDivideByZero}, f.TakeWarnings())

	e = parse(t, syms, "0/0", 10)
	require.NoError(t, f.Simplify(e, expr.DefaultMode()))
	assert.True(t, expr.ContainsNaN(e.Tokens()))
	assert.Len(t, f.TakeWarnings(), 1)
	assert.Empty(t, f.TakeWarnings())
}

func TestFoldingErrors(t *testing.T) {
	tests := []struct {
		in   string
		kind string
	}{
		{"(-8)^(1/3)", errors.ErrDomain},
		{"7 % 0", errors.ErrDomain},
		{"(-3)!", errors.ErrDomain},
		{"10^400", errors.ErrRange},
		{"200!", errors.ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			syms := token.NewSymbols()
			e := parse(t, syms, tt.in, 50)
			before := e.Snapshot()

			err := New(nil).Simplify(e, expr.DefaultMode())
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, tt.kind), "got %v", err)
			assert.Equal(t, len(before), e.Len(), "failed pass leaves the side alone")
		})
	}
}

func TestDomainCheckAbsorbsOneErrorPerCall(t *testing.T) {
	f := New(nil)
	mode := expr.DefaultMode().WithDomainCheck()

	got, err := simplify(t, "(-8)^(1/3)", mode)
	require.NoError(t, err)
	assert.Equal(t, "(-8)^0.33333333333333", got)

	_, err = simplify(t, "(-8)^(1/3) + (-27)^(1/3)", mode)
	assert.True(t, errors.IsErrorType(err, errors.ErrDomain), "second error in one pass is reported")

	syms := token.NewSymbols()
	for i := 0; i < 2; i++ {
		e := parse(t, syms, "(-8)^(1/3)", 50)
		assert.NoError(t, f.Simplify(e, mode), "allowance is fresh for every call")
	}
	e := parse(t, syms, "(-8)^(1/3)", 50)
	assert.Error(t, f.Simplify(e, expr.DefaultMode()), "no allowance without DomainCheck")
}

func TestSimplifyRespectsCapacity(t *testing.T) {
	syms := token.NewSymbols()
	e := parse(t, syms, "x^-2", 3)

	err := New(nil).Simplify(e, expr.DefaultMode())
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrCapacityExceeded))
	assert.Equal(t, "x^(-2)", syntax.Format(e.Tokens(), syms))
}

func TestApproximate(t *testing.T) {
	syms := token.NewSymbols()
	f := New(nil)
	e := parse(t, syms, "2*pi + e^0", 50)

	require.NoError(t, f.Approximate(e))
	assert.Equal(t, "7.2831853071796", syntax.Format(e.Tokens(), syms))
}

func TestFactorVar(t *testing.T) {
	syms := token.NewSymbols()
	e := parse(t, syms, "x*1 + 0", 50)
	x, _ := syms.Lookup("x")

	require.NoError(t, New(nil).FactorVar(e, x))
	assert.Equal(t, "x", syntax.Format(e.Tokens(), syms))
}

func TestEvaluate(t *testing.T) {
	syms := token.NewSymbols()
	toks, err := syntax.Parse("x^2 + 3x + e^0", syms)
	require.NoError(t, err)
	x, _ := syms.Lookup("x")

	v, err := Evaluate(toks, map[token.Var]float64{x: 2})
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)

	_, err = Evaluate(toks, nil)
	assert.True(t, errors.IsErrorType(err, errors.ErrMalformedArgument))

	toks, err = syntax.Parse("1/0", syms)
	require.NoError(t, err)
	v, err = Evaluate(toks, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))
}
