package games

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-dice/cmd/diceserv/expr"
	"go-dice/cmd/diceserv/render"
)

const (
	MinStep = 1
	MaxStep = 100
)

var (
	ErrStepNotNumber  = errors.New("step is not a number")
	ErrKarmaNotNumber = errors.New("karma is not a number")
	ErrStepRange      = errors.New("step out of range")
	ErrKarmaRange     = errors.New("karma out of range")
)

// earthdawnSteps maps each step to its dice, for Earthdawn 1st, Classic and
// 2nd Edition. Index 0 is unused.
var earthdawnSteps = [MaxStep + 1]string{
	"",
	"1d4-2", "1d4-1", "1d4", "1d6", "1d8",
	"1d10", "1d12", "2d6", "1d8+1d6", "1d10+1d6",
	"1d10+1d8", "2d10", "1d12+1d10", "1d20+1d4", "1d20+1d6",
	"1d20+1d8", "1d20+1d10", "1d20+1d12", "1d20+2d6", "1d20+1d8+1d6",
	"1d20+1d10+1d6", "1d20+1d10+1d8", "1d20+2d10", "1d20+1d12+1d10", "1d20+1d10+1d8+1d4",
	"1d20+1d10+1d8+1d6", "1d20+1d10+2d8", "1d20+2d10+1d8", "1d20+1d12+1d10+1d8", "1d20+1d10+1d8+2d6",
	"1d20+1d10+2d8+1d6", "1d20+2d10+1d8+1d6", "1d20+2d10+2d8", "1d20+3d10+1d8", "1d20+1d12+2d10+1d8",
	"2d20+1d10+1d8+1d4", "2d20+1d10+1d8+1d6", "2d20+1d10+2d8", "2d20+2d10+1d8", "2d20+1d12+1d10+1d8",
	"2d20+1d10+1d8+2d6", "2d20+1d10+2d8+1d6", "2d20+2d10+1d8+1d6", "2d20+2d10+2d8", "2d20+3d10+1d8",
	"2d20+1d12+2d10+1d8", "2d20+2d10+2d8+1d4", "2d20+2d10+2d8+1d6", "2d20+2d10+3d8", "2d20+3d10+2d8",
	"2d20+1d12+2d10+2d8", "2d20+2d10+2d8+2d6", "2d20+2d10+3d8+1d6", "2d20+3d10+2d8+1d6", "2d20+3d10+3d8",
	"2d20+4d10+2d8", "2d20+1d12+3d10+2d8", "3d20+2d10+2d8+1d4", "3d20+2d10+2d8+1d6", "3d20+2d10+3d8",
	"3d20+3d10+2d8", "3d20+1d12+2d10+2d8", "3d20+2d10+2d8+2d6", "3d20+2d10+3d8+1d6", "3d20+3d10+2d8+1d6",
	"3d20+3d10+3d8", "3d20+4d10+2d8", "3d20+1d12+3d10+2d8", "3d20+3d10+3d8+1d4", "3d20+3d10+3d8+1d6",
	"3d20+3d10+4d8", "3d20+4d10+3d8", "3d20+1d12+3d10+3d8", "3d20+3d10+3d8+2d6", "3d20+3d10+4d8+1d6",
	"3d20+4d10+3d8+1d6", "3d20+4d10+4d8", "3d20+5d10+3d8", "3d20+1d12+4d10+3d8", "4d20+3d10+3d8+1d4",
	"4d20+3d10+3d8+1d6", "4d20+3d10+4d8", "4d20+4d10+3d8", "4d20+1d12+3d10+3d8", "4d20+3d10+3d8+2d6",
	"4d20+3d10+4d8+1d6", "4d20+4d10+3d8+1d6", "4d20+4d10+4d8", "4d20+5d10+3d8", "4d20+1d12+4d10+3d8",
	"4d20+4d10+4d8+1d4", "4d20+4d10+4d8+1d6", "4d20+4d10+5d8", "4d20+5d10+4d8", "4d20+1d12+4d10+4d8",
	"4d20+4d10+4d8+2d6", "4d20+4d10+5d8+1d6", "4d20+5d10+4d8+1d6", "4d20+5d10+5d8", "4d20+6d10+4d8",
}

// StepDice returns the dice expression for an Earthdawn step.
func StepDice(step int) (string, bool) {
	if step < MinStep || step > MaxStep {
		return "", false
	}
	return earthdawnSteps[step], true
}

// parseStep reads "step[+karma]" into the expression to roll.
func parseStep(arg string) (step int, dice string, err error) {
	stepStr, karmaStr, hasKarma := strings.Cut(arg, "+")
	if hasKarma {
		karma, err := strconv.Atoi(karmaStr)
		if err != nil || strconv.Itoa(karma) != karmaStr {
			return 0, "", ErrKarmaNotNumber
		}
		if karma < 0 {
			return 0, "", fmt.Errorf("%w: %d", ErrKarmaRange, karma)
		}
	}
	step, err = strconv.Atoi(stepStr)
	if err != nil || strconv.Itoa(step) != stepStr {
		return 0, "", ErrStepNotNumber
	}
	entry, ok := StepDice(step)
	if !ok {
		return step, "", fmt.Errorf("%w: %d", ErrStepRange, step)
	}
	if hasKarma {
		return step, "(" + entry + ")+" + karmaStr, nil
	}
	return step, entry, nil
}

func stepErrorText(arg string, err error) []string {
	switch {
	case errors.Is(err, ErrStepNotNumber):
		return []string{"step for an Earthdawn roll must be a number."}
	case errors.Is(err, ErrKarmaNotNumber):
		return []string{"karma for an Earthdawn roll must be a number."}
	case errors.Is(err, ErrKarmaRange):
		_, karma, _ := strings.Cut(arg, "+")
		return []string{fmt.Sprintf("The karma you entered (%s) was out of range, it must be at least 0 or higher.", karma)}
	default:
		step, _, _ := strings.Cut(arg, "+")
		return []string{fmt.Sprintf("The step you entered (%s) was out of range, it must be between %d and %d.", step, MinStep, MaxStep)}
	}
}

// Earthdawn rolls a step with optional karma. Every die that lands on its
// highest face explodes: it is rolled again, and again while the maximum
// keeps coming, with each bonus added to the result.
func (s *Service) Earthdawn(in Input) Reply {
	_, times, arg, err := expr.Split(in.Expression)
	if err == nil && times != "" {
		err = ErrStepNotNumber
	}
	if err == nil {
		var step int
		var dice string
		if step, dice, err = parseStep(arg); err == nil {
			return s.rollStep(step, dice, in)
		}
	}
	if _, ok := expr.AsError(err); ok {
		err = ErrStepNotNumber
	}
	return Reply{Err: err, ErrorText: stepErrorText(arg, err)}
}

func (s *Service) rollStep(step int, dice string, in Input) Reply {
	req := target(render.Request{
		Prefix:     "Earthdawn roll",
		DicePrefix: fmt.Sprintf("Step %d (", step),
		Expression: dice,
		DiceSuffix: ")",
		Extended:   true,
	}, in)
	if err := s.Budget.Check(req); err != nil {
		return fail(req, Reply{}, err)
	}

	out, err := expr.Roll("", dice, s.Rand, s.options(true)...)
	reply := Reply{Outcome: out}
	if err != nil {
		return fail(req, reply, err)
	}

	bonuses := map[render.FaceLoc][]int{}
	for i, rec := range out.Groups[0].Records {
		d, ok := expr.AsDiceThrow(rec)
		if !ok {
			continue
		}
		for j, face := range d.Faces {
			if face != d.Sides {
				continue
			}
			chain := s.explode(d.Sides)
			for _, b := range chain {
				out.Results[0] += float64(b)
			}
			bonuses[render.FaceLoc{Group: 0, Record: i, Index: j}] = chain
		}
	}
	req.Face = func(loc render.FaceLoc, text string) string {
		chain, ok := bonuses[loc]
		if !ok {
			return text
		}
		parts := make([]string, len(chain))
		for i, b := range chain {
			parts[i] = strconv.Itoa(b)
		}
		return text + " Bonus[" + strings.Join(parts, " ") + "]"
	}

	reply.Results = out.Results
	reply.Output, err = render.Fit(req, out, s.Budget, render.TierLong)
	if err != nil {
		return fail(req, reply, err)
	}
	return reply
}

// explode rolls one die of the given sides until it stops landing on the
// maximum, returning every roll.
func (s *Service) explode(sides int) []int {
	var chain []int
	for {
		v := s.Rand.Range(1, sides)
		chain = append(chain, v)
		if v != sides || sides == 1 {
			return chain
		}
	}
}
