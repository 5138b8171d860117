package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in                  string
		source, times, dice string
	}{
		{"3d6", "3d6", "", "3d6"},
		{"3~1d6", "3~1d6", "3", "1d6"},
		{"3[1d6]", "3~1d6", "3", "1d6"},
		{"1d6+[2]", "1d6+~2", "1d6+", "2"},
		{"2+1~d20", "2+1~d20", "2+1", "d20"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			source, times, dice, err := Split(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.source, source)
			assert.Equal(t, c.times, times)
			assert.Equal(t, c.dice, dice)
		})
	}
}

func TestSplitEmptyRepeat(t *testing.T) {
	_, _, _, err := Split("~1d6")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindParse, e.Kind)
	assert.Equal(t, 0, e.Pos)
	assert.Equal(t, "An empty repeat count expression was found.", e.Message)
}

func TestRollRepeats(t *testing.T) {
	out, err := RollExpression("3~1d1", &maxRand{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, out.Results)
	assert.Len(t, out.Groups, 3)
	require.NotNil(t, out.Repeat)
	assert.Empty(t, out.Repeat.Records)
}

func TestRollWithoutRepeat(t *testing.T) {
	out, err := Roll("", "2d4", &maxRand{})
	require.NoError(t, err)
	assert.Equal(t, []float64{8}, out.Results)
	assert.Nil(t, out.Repeat)
}

func TestRollRepeatCountIsTraced(t *testing.T) {
	out, err := RollExpression("1d3[2]", &maxRand{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, out.Results)
	require.NotNil(t, out.Repeat)
	dice := out.Repeat.Dice()
	require.Len(t, dice, 1)
	assert.Equal(t, []int{3}, dice[0].Faces)
}

func TestRollTruncatesRepeatCount(t *testing.T) {
	out, err := Roll("2.9", "1", &maxRand{})
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)
}

func TestRollUnacceptableTimes(t *testing.T) {
	for _, c := range []struct {
		times  string
		number int64
	}{
		{"0", 0},
		{"26", 26},
		{"-1", -1},
		{"0.5", 0},
	} {
		t.Run(c.times, func(t *testing.T) {
			out, err := Roll(c.times, "1d6", &maxRand{})
			assert.ErrorIs(t, err, ErrUnacceptableTimes)
			e, _ := AsError(err)
			require.NotNil(t, e)
			assert.Equal(t, c.number, e.Number)
			assert.NotNil(t, out.Repeat)
			assert.Empty(t, out.Results)
		})
	}

	out, err := Roll("25", "1", &maxRand{})
	require.NoError(t, err)
	assert.Len(t, out.Results, MaxTimes)
}

func TestRollShiftsPositions(t *testing.T) {
	_, err := RollExpression("2~1/0", &maxRand{})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindDivisionByZero, e.Kind)
	assert.Equal(t, 3, e.Pos, "position must index the full expression")

	_, err = RollExpression("12~3+*2", &maxRand{})
	e, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindParse, e.Kind)
	assert.Equal(t, 4, e.Pos)

	_, err = RollExpression("3+*2~1d6", &maxRand{})
	e, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Pos)
}

func TestRollKeepsCompletedRuns(t *testing.T) {
	r := &seqRand{values: []int{2, 1}}
	out, err := Roll("3", "1/(1d2-1)", r)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, []float64{1}, out.Results)
	assert.Len(t, out.Groups, 1)
	assert.NotNil(t, out.Repeat)
}

func TestRollDrawLimitSpansRepeats(t *testing.T) {
	r := &maxRand{}
	out, err := Roll("5", "3d6", r, WithDrawLimit(10))
	assert.ErrorIs(t, err, ErrUnacceptableDice)
	assert.Len(t, out.Results, 3)
	assert.Equal(t, 9, r.calls)
}
