// Package games runs roll commands end to end: argument handling, the
// length budget, evaluation and reply rendering. It also holds the
// game-specific commands built on top of plain rolls.
package games

import (
	"strings"

	"go-dice/cmd/diceserv/expr"
	"go-dice/cmd/diceserv/render"
)

// Input is one command invocation: the expression plus where the reply goes.
type Input struct {
	Expression string `json:"expression"`
	Channel    string `json:"channel,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Nick       string `json:"nick,omitempty"`
}

// ParseArgs reads "EXPR [#channel] [comment...]".
func ParseArgs(args []string) Input {
	if len(args) == 0 {
		return Input{}
	}
	in := ParseTarget(args[1:])
	in.Expression = args[0]
	return in
}

// ParseTarget reads "[#channel] [comment...]". A first word that is not a
// channel name is the start of the comment.
func ParseTarget(args []string) Input {
	var in Input
	if len(args) > 0 && strings.HasPrefix(args[0], "#") {
		in.Channel, args = args[0], args[1:]
	}
	in.Comment = strings.Join(args, " ")
	return in
}

// Reply is the result of one command.
type Reply struct {
	Output  string        `json:"output,omitempty"`
	Notices []string      `json:"notices,omitempty"`
	Results []float64     `json:"results,omitempty"`
	Outcome *expr.Outcome `json:"-"`
	Err     error         `json:"-"`
	// ErrorText is the user-facing rendering of Err.
	ErrorText []string `json:"error,omitempty"`
}

// Lines returns every line to show, in order.
func (r Reply) Lines() []string {
	lines := append([]string(nil), r.Notices...)
	if r.Err != nil {
		return append(lines, r.ErrorText...)
	}
	return append(lines, r.Output)
}

// Service runs commands against one random source.
type Service struct {
	Rand   expr.Rand
	Budget render.Budget
	// DrawLimit caps dice faces per request; zero keeps the evaluator's
	// default.
	DrawLimit int
	// MaxTier is the most verbose tier generic rolls may use.
	MaxTier render.Tier
}

func New(r expr.Rand, budget render.Budget) *Service {
	return &Service{Rand: r, Budget: budget}
}

func (s *Service) options(round bool) []expr.Option {
	var opts []expr.Option
	if round {
		opts = append(opts, expr.WithRounding())
	}
	if s.DrawLimit != 0 {
		opts = append(opts, expr.WithDrawLimit(s.DrawLimit))
	}
	return opts
}

func target(req render.Request, in Input) render.Request {
	req.Channel, req.Nick, req.Comment = in.Channel, in.Nick, in.Comment
	return req
}

func fail(req render.Request, reply Reply, err error) Reply {
	reply.Err = err
	reply.ErrorText = render.ErrorText(req, err)
	return reply
}

// Roll runs one of the generic roll commands.
func (s *Service) Roll(mode render.Mode, in Input) Reply {
	source, times, dice, err := expr.Split(in.Expression)
	req := target(mode.Request(source), in)
	if err != nil {
		return fail(req, Reply{}, err)
	}
	if err := s.Budget.Check(req); err != nil {
		return fail(req, Reply{}, err)
	}

	out, err := expr.Roll(times, dice, s.Rand, s.options(mode.Rounds())...)
	reply := Reply{Outcome: out}
	if err != nil {
		return fail(req, reply, err)
	}
	reply.Results = out.Results
	reply.Output, err = render.Fit(req, out, s.Budget, render.Cap(mode.Tiers(), s.MaxTier)...)
	if err != nil {
		return fail(req, reply, err)
	}
	return reply
}
