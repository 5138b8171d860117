package expr

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dice/cmd/diceserv/rng"
)

// maxRand always rolls the highest face.
type maxRand struct{ calls int }

func (r *maxRand) Range(_, max int) int {
	r.calls++
	return max
}

// seqRand returns its values in turn, cycling.
type seqRand struct {
	values []int
	i      int
}

func (r *seqRand) Range(min, max int) int {
	v := r.values[r.i%len(r.values)]
	r.i++
	if v < min || v > max {
		return min
	}
	return v
}

func evaluate(t *testing.T, raw string, r Rand, opts ...Option) (*Outcome, error) {
	t.Helper()
	p, err := Compile(raw)
	require.NoError(t, err, "Compile(%q)", raw)
	return Evaluate(p, r, opts...)
}

func evalValue(t *testing.T, raw string) float64 {
	t.Helper()
	out, err := evaluate(t, raw, &maxRand{})
	require.NoError(t, err, "Evaluate(%q)", raw)
	require.Len(t, out.Results, 1)
	return out.Results[0]
}

func TestEvaluateArithmetic(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"7/2", 3.5},
		{"7%3", 1},
		{"2^10", 1024},
		{"2^3^2", 512},
		{"-2^2", 4},
		{"4--3", 7},
		{"-(3)", -3},
		{"2(3)", 6},
		{"(2)(3)", 6},
		{"abs(-4)", 4},
		{"max(3,7,2)", 7},
		{"min(3,7,2)", 2},
		{"fac(5)", 120},
		{"fac(0)", 1},
		{"fac(12)", 479001600},
		{"floor(2.7)", 2},
		{"ceil(2.1)", 3},
		{"round(2.5)", 3},
		{"round(-2.5)", -3},
		{"trunc(-2.7)", -2},
		{"sqrt(16)", 4},
		{"cbrt(27)", 3},
		{"log10(1000)", 3},
		{"deg(pi)", 180},
		{"rad(180)", math.Pi},
		{"atan2(1,1)", math.Pi / 4},
		{"exp(0)", 1},
		{"-exp(0)", -1},
		{"2*-exp(0)", -1},
		{"1+-exp(0)", 0},
		{"fac(12.5)", 479001600},
		{"fac(-0.5)", 1},
		{"fac(3.9)", 6},
		{"3d6+5", 23},
		{"%", 100},
		{"2d%", 200},
		{"d20", 20},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			assert.InDelta(t, c.want, evalValue(t, c.raw), 1e-9)
		})
	}
}

func TestEvaluateErrorKinds(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"1/0", ErrDivisionByZero},
		{"1%0", ErrDivisionByZero},
		{"0^0", ErrDivisionByZero},
		{"0^-1", ErrOverflow},
		{"(-8)^0.5", ErrUndefined},
		{"sqrt(-1)", ErrUndefined},
		{"fac(13)", ErrOverflow},
		{"fac(-1)", ErrUndefined},
		{"log(0)", ErrDivisionByZero},
		{"log(-1)", ErrUndefined},
		{"log10(0)", ErrDivisionByZero},
		{"atanh(1)", ErrDivisionByZero},
		{"atanh(-1)", ErrDivisionByZero},
		{"atanh(2)", ErrUndefined},
		{"10^400", ErrOverflow},
		{"exp(1000)", ErrOverflow},
		{"0d6", ErrUnacceptableDice},
		{"3d0", ErrUnacceptableSides},
		{"max(3)", ErrStack},
		{"sqrt(1,2)", ErrStack},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			_, err := evaluate(t, c.raw, &maxRand{})
			require.Error(t, err)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestEvaluateDomainBoundaries(t *testing.T) {
	cases := []struct {
		inside, outside string
	}{
		{"acos(1)", "acos(1.0000001)"},
		{"acos(-1)", "acos(-1.0000001)"},
		{"asin(1)", "asin(1.0000001)"},
		{"asin(-1)", "asin(-1.0000001)"},
		{"acosh(1)", "acosh(0.9999999)"},
		{"atanh(0.9999999)", "atanh(1)"},
		{"log(0.0000001)", "log(0)"},
		{"sqrt(0)", "sqrt(-0.0000001)"},
		{"fac(0)", "fac(-1)"},
		{"fac(12)", "fac(13)"},
	}
	for _, c := range cases {
		t.Run(c.inside, func(t *testing.T) {
			_, err := evaluate(t, c.inside, &maxRand{})
			assert.NoError(t, err, c.inside)
			_, err = evaluate(t, c.outside, &maxRand{})
			assert.Error(t, err, c.outside)
		})
	}
}

func TestEvaluateDiceTrace(t *testing.T) {
	r := rng.New(1234)
	for _, c := range []struct{ n, sides int }{{1, 1}, {3, 6}, {10, 20}, {99, 99999}} {
		raw := strconv.Itoa(c.n) + "d" + strconv.Itoa(c.sides)
		out, err := evaluate(t, raw, r)
		require.NoError(t, err)
		require.Len(t, out.Groups, 1)
		dice := out.Groups[0].Dice()
		require.Len(t, dice, 1)
		throw := dice[0]
		assert.Equal(t, c.n, throw.Count)
		assert.Equal(t, c.sides, throw.Sides)
		require.Len(t, throw.Faces, c.n)
		for _, f := range throw.Faces {
			assert.GreaterOrEqual(t, f, 1)
			assert.LessOrEqual(t, f, c.sides)
		}
		assert.Equal(t, float64(throw.Sum()), out.Results[0])
	}
}

func TestEvaluateUnacceptableNumbers(t *testing.T) {
	cases := []struct {
		raw    string
		kind   Kind
		number int64
	}{
		{"0d6", KindUnacceptableDice, 0},
		{"100000d6", KindUnacceptableDice, 100000},
		{"-2d6", KindUnacceptableDice, -2},
		{"3d100000", KindUnacceptableSides, 100000},
		{"3d-1", KindUnacceptableSides, -1},
		{"3d0.5", KindUnacceptableSides, 0},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			_, err := evaluate(t, c.raw, &maxRand{})
			e, ok := AsError(err)
			require.True(t, ok, "expected *Error, got %v", err)
			assert.Equal(t, c.kind, e.Kind)
			assert.Equal(t, c.number, e.Number)
		})
	}
}

func TestEvaluateFunctionTrace(t *testing.T) {
	out, err := evaluate(t, "max(3,7,2)", &maxRand{})
	require.NoError(t, err)
	require.Len(t, out.Groups[0].Records, 1)
	call, ok := AsFunctionCall(out.Groups[0].Records[0])
	require.True(t, ok)
	assert.Equal(t, "max", call.Name)
	assert.Equal(t, []float64{3, 7, 2}, call.Args)
	assert.Equal(t, 7.0, call.Result)
}

func TestEvaluateFactorialRecordsIntegerPart(t *testing.T) {
	out, err := evaluate(t, "fac(4.7)", &maxRand{})
	require.NoError(t, err)
	call, ok := AsFunctionCall(out.Groups[0].Records[0])
	require.True(t, ok)
	assert.Equal(t, []float64{4}, call.Args)
	assert.Equal(t, 24.0, call.Result)
}

func TestEvaluateTwoArgumentOrder(t *testing.T) {
	out, err := evaluate(t, "atan2(1,-1)", &maxRand{})
	require.NoError(t, err)
	call, ok := AsFunctionCall(out.Groups[0].Records[0])
	require.True(t, ok)
	assert.Equal(t, []float64{1, -1}, call.Args)
	assert.InDelta(t, 3*math.Pi/4, call.Result, 1e-12)
}

func TestEvaluateRand(t *testing.T) {
	r := &seqRand{values: []int{4}}
	out, err := evaluate(t, "rand(6.7,1)", r)
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Results[0])
	call, _ := AsFunctionCall(out.Groups[0].Records[0])
	assert.Equal(t, []float64{6, 1}, call.Args)
}

func TestEvaluateTraceOrder(t *testing.T) {
	r := &seqRand{values: []int{2, 5, 1}}
	out, err := evaluate(t, "max(1d6,2d6)", r)
	require.NoError(t, err)
	recs := out.Groups[0].Records
	require.Len(t, recs, 3)
	first, ok := AsDiceThrow(recs[0])
	require.True(t, ok)
	assert.Equal(t, []int{2}, first.Faces)
	second, ok := AsDiceThrow(recs[1])
	require.True(t, ok)
	assert.Equal(t, []int{5, 1}, second.Faces)
	call, ok := AsFunctionCall(recs[2])
	require.True(t, ok)
	assert.Equal(t, []float64{2, 6}, call.Args)
	assert.Equal(t, 6.0, out.Results[0])
}

func TestEvaluateRounding(t *testing.T) {
	out, err := evaluate(t, "7/2", &maxRand{}, WithRounding())
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Results[0])

	out, err = evaluate(t, "-7/2", &maxRand{}, WithRounding())
	require.NoError(t, err)
	assert.Equal(t, -4.0, out.Results[0])

	out, err = evaluate(t, "7/2", &maxRand{})
	require.NoError(t, err)
	assert.Equal(t, 3.5, out.Results[0])
}

func TestEvaluateInt32Bound(t *testing.T) {
	_, err := evaluate(t, "2^31", &maxRand{}, WithRounding())
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = evaluate(t, "2^31-1", &maxRand{}, WithRounding())
	assert.NoError(t, err)

	out, err := evaluate(t, "-2147483648.4", &maxRand{}, WithRounding())
	require.NoError(t, err, "rounds onto the bound")
	assert.Equal(t, float64(math.MinInt32), out.Results[0])

	_, err = evaluate(t, "-2147483648.6", &maxRand{}, WithRounding())
	assert.ErrorIs(t, err, ErrOverflow)

	out, err = evaluate(t, "2^31", &maxRand{})
	require.NoError(t, err)
	assert.Equal(t, 2147483648.0, out.Results[0])
}

func TestEvaluateDrawLimit(t *testing.T) {
	r := &maxRand{}
	_, err := evaluate(t, "6d6+6d6", r, WithDrawLimit(10))
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnacceptableDice, e.Kind)
	assert.Equal(t, int64(10), e.Number, "the limit, not the throw size")
	assert.NotEmpty(t, e.Message)
	assert.Equal(t, 6, r.calls, "second throw must not draw")
}

func TestEvaluateStackErrors(t *testing.T) {
	bad := &Program{Source: "+", Instructions: []Instruction{{Kind: InstrOperator, Op: '+'}}}
	_, err := Evaluate(bad, &maxRand{})
	assert.True(t, errors.Is(err, ErrStack))

	bad = &Program{Source: "1 2", Instructions: []Instruction{
		{Kind: InstrLiteral, Value: 1},
		{Kind: InstrLiteral, Value: 2},
	}}
	_, err = Evaluate(bad, &maxRand{})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Too many numbers were found as input.", e.Message)

	_, err = Evaluate(&Program{}, &maxRand{})
	assert.ErrorIs(t, err, ErrStack)

	bad = &Program{Source: "sqrt", Instructions: []Instruction{{Kind: InstrFunction, Name: "sqrt", Arity: 1}}}
	_, err = Evaluate(bad, &maxRand{})
	e, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Not enough numbers for function.", e.Message)
}

func TestEvaluateDiscardsFailedGroup(t *testing.T) {
	out, err := evaluate(t, "1d6+1/0", &maxRand{})
	require.Error(t, err)
	assert.Empty(t, out.Groups)
	assert.Empty(t, out.Results)
}
