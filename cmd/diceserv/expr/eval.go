package expr

import (
	"fmt"
	"math"
)

const (
	MaxTimes = 25
	MaxDice  = 99999
	MaxSides = 99999

	// DefaultDrawLimit bounds the dice faces drawn for one request.
	DefaultDrawLimit = MaxTimes * MaxDice
)

// Rand draws integers uniformly from [min, max]. *rng.Generator implements
// it.
type Rand interface {
	Range(min, max int) int
}

type options struct {
	round     bool
	drawLimit int
}

type Option func(*options)

// WithRounding bounds each result to the int32 range and rounds it half
// away from zero, as the roll commands do.
func WithRounding() Option {
	return func(o *options) { o.round = true }
}

// WithDrawLimit caps the number of dice faces one request may draw.
// n <= 0 removes the cap.
func WithDrawLimit(n int) Option {
	return func(o *options) { o.drawLimit = n }
}

func buildOptions(opts []Option) options {
	o := options{drawLimit: DefaultDrawLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// machine is the evaluation context shared by every pass of one request.
type machine struct {
	rand   Rand
	opts   options
	drawn  int
	stack  []float64
	record TraceGroup
}

func newMachine(r Rand, opts []Option) *machine {
	return &machine{rand: r, opts: buildOptions(opts)}
}

// Evaluate runs p once.
func Evaluate(p *Program, r Rand, opts ...Option) (*Outcome, error) {
	m := newMachine(r, opts)
	v, group, err := m.run(p)
	if err != nil {
		return &Outcome{}, err
	}
	return &Outcome{Results: []float64{v}, Groups: []TraceGroup{group}}, nil
}

func (m *machine) push(v float64) { m.stack = append(m.stack, v) }

// popN removes the top n values and returns them in push order.
func (m *machine) popN(n int) []float64 {
	args := make([]float64, n)
	copy(args, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return args
}

// run evaluates p on a fresh stack and trace group.
func (m *machine) run(p *Program) (float64, TraceGroup, error) {
	m.stack = m.stack[:0]
	m.record = TraceGroup{}

	for _, in := range p.Instructions {
		var (
			v   float64
			err *Error
		)
		switch in.Kind {
		case InstrLiteral:
			v = in.Value
		case InstrOperator:
			if len(m.stack) < 2 {
				return 0, TraceGroup{}, stackError(in.Pos, "Not enough numbers for operator.")
			}
			a := m.popN(2)
			v, err = m.operate(in, a[0], a[1])
		case InstrFunction:
			v, err = m.call(in)
		default:
			return 0, TraceGroup{}, stackError(in.Pos, "An empty token was found.")
		}
		if err != nil {
			return 0, TraceGroup{}, err
		}
		if math.IsInf(v, 0) {
			return 0, TraceGroup{}, &Error{Kind: KindOverflow, Pos: in.Pos, HasPos: true}
		}
		if math.IsNaN(v) {
			return 0, TraceGroup{}, &Error{Kind: KindUndefined, Pos: in.Pos, HasPos: true}
		}
		m.push(v)
	}

	switch {
	case len(m.stack) == 0:
		return 0, TraceGroup{}, stackError(len(p.Source), "No numbers were left at the end of the expression.")
	case len(m.stack) > 1:
		return 0, TraceGroup{}, stackError(len(p.Source), "Too many numbers were found as input.")
	}
	v := m.stack[0]
	if m.opts.round {
		v = math.Round(v)
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, TraceGroup{}, &Error{Kind: KindOverflow}
		}
	}
	return v, m.record, nil
}

func (m *machine) operate(in Instruction, a, b float64) (float64, *Error) {
	fail := func(k Kind) (float64, *Error) {
		return 0, &Error{Kind: k, Pos: in.Pos, HasPos: true}
	}
	switch in.Op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return fail(KindDivisionByZero)
		}
		return a / b, nil
	case '%':
		if b == 0 {
			return fail(KindDivisionByZero)
		}
		return math.Mod(a, b), nil
	case '^':
		switch {
		case a < 0 && b != math.Trunc(b):
			return fail(KindUndefined)
		case a == 0 && b == 0:
			return fail(KindDivisionByZero)
		case a == 0 && b < 0:
			return fail(KindOverflow)
		}
		return math.Pow(a, b), nil
	case 'd':
		return m.dice(in, a, b)
	}
	return 0, stackError(in.Pos, fmt.Sprintf("Unknown operator %q.", in.Op))
}

func (m *machine) dice(in Instruction, count, sides float64) (float64, *Error) {
	if count < 1 || count > MaxDice {
		return 0, &Error{Kind: KindUnacceptableDice, Pos: in.Pos, HasPos: true, Number: truncate(count)}
	}
	if sides < 1 || sides > MaxSides {
		return 0, &Error{Kind: KindUnacceptableSides, Pos: in.Pos, HasPos: true, Number: truncate(sides)}
	}
	throw := &DiceThrow{Count: int(count), Sides: int(sides)}
	if limit := m.opts.drawLimit; limit > 0 && m.drawn+throw.Count > limit {
		return 0, &Error{Kind: KindUnacceptableDice, Pos: in.Pos, HasPos: true, Number: int64(limit),
			Message: fmt.Sprintf("more than %d dice in one request", limit)}
	}
	m.drawn += throw.Count

	throw.Faces = make([]int, throw.Count)
	for i := range throw.Faces {
		throw.Faces[i] = m.rand.Range(1, throw.Sides)
	}
	m.record.Records = append(m.record.Records, throw)
	return throw.Value(), nil
}

func (m *machine) call(in Instruction) (float64, *Error) {
	f, ok := lookupFunction(in.Name)
	if !ok {
		return 0, stackError(in.Pos, fmt.Sprintf("Unknown function %q.", in.Name))
	}
	n := in.Arity
	if f.variadic() && n < f.minArgs() {
		return 0, stackError(in.Pos, fmt.Sprintf("Function requires at least %d arguments, but only %d were passed.", f.minArgs(), n))
	}
	if len(m.stack) < n {
		return 0, stackError(in.Pos, "Not enough numbers for function.")
	}
	args := m.popN(n)
	v, kind := f.call(args, m.rand)
	if kind != 0 {
		return 0, &Error{Kind: kind, Pos: in.Pos, HasPos: true}
	}
	if !math.IsInf(v, 0) && !math.IsNaN(v) {
		m.record.Records = append(m.record.Records, &FunctionCall{Name: f.name, Args: args, Result: v})
	}
	return v, nil
}

// truncate converts v toward zero, saturating at the int64 range.
func truncate(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}
