package games

import (
	"errors"
	"slices"

	"go-dice/cmd/diceserv/expr"
	"go-dice/cmd/diceserv/render"
)

// Reverse toggles reverse video in IRC text. The dropped die of each
// ability score is wrapped in it.
const Reverse = "\x16"

// MaxRerolls bounds how many unusable characters DnD3e throws away before
// giving up.
const MaxRerolls = 1000

var ErrTooManyRerolls = errors.New("no usable character after the maximum number of re-rolls")

const (
	lowModifiersNotice = "D&D 3e Character roll resulted in a character that had their total modifiers be 0 or below, re-rolling stats again."
	lowScoresNotice    = "D&D 3e Character roll resulted in a character that had a max score of 13 or less for all their abilities, re-rolling stats again."
)

// Modifier is the D&D 3e ability modifier for a score.
func Modifier(score float64) int {
	return int((score - 10) / 2)
}

// DnD3e rolls six ability scores of 4d6, dropping the lowest die of each,
// and re-rolls the whole set while it is unplayable.
func (s *Service) DnD3e(in Input) Reply {
	req := target(render.Request{
		Prefix:     "D&D 3e Character roll",
		Expression: "6~4d6",
		Extended:   true,
	}, in)
	if err := s.Budget.Check(req); err != nil {
		return fail(req, Reply{}, err)
	}

	var reply Reply
	for i := 0; i < MaxRerolls; i++ {
		out, err := expr.Roll("6", "4d6", s.Rand, s.options(true)...)
		reply.Outcome = out
		if err != nil {
			return fail(req, reply, err)
		}

		dropped := make([]int, len(out.Groups))
		mods, best := 0, 0.0
		for i, g := range out.Groups {
			faces := g.Dice()[0].Faces
			low := slices.Min(faces)
			dropped[i] = slices.Index(faces, low)
			out.Results[i] -= float64(low)
			mods += Modifier(out.Results[i])
			best = max(best, out.Results[i])
		}

		switch {
		case mods <= 0:
			reply.Notices = append(reply.Notices, lowModifiersNotice)
			continue
		case best <= 13:
			reply.Notices = append(reply.Notices, lowScoresNotice)
			continue
		}

		req.Face = func(loc render.FaceLoc, text string) string {
			if loc.Group >= 0 && loc.Record == 0 && dropped[loc.Group] == loc.Index {
				return Reverse + text + Reverse
			}
			return text
		}
		reply.Results = out.Results
		reply.Output, err = render.Fit(req, out, s.Budget, render.TierLong)
		if err != nil {
			return fail(req, reply, err)
		}
		return reply
	}
	return fail(req, reply, ErrTooManyRerolls)
}
