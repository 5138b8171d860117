// Package expr compiles dice expressions to postfix programs and evaluates
// them, recording every dice throw and function call along the way.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type InstrKind uint8

const (
	InstrLiteral InstrKind = iota
	InstrOperator
	InstrFunction
)

// Instruction is one step of a compiled postfix program.
type Instruction struct {
	Kind  InstrKind
	Value float64 // InstrLiteral
	Op    byte    // InstrOperator
	Name  string  // InstrFunction, lowercase
	// Arity is the number of operands a function pops. For variadic
	// functions it is the count seen at the call site.
	Arity int
	Pos   int
}

func (in Instruction) String() string {
	switch in.Kind {
	case InstrLiteral:
		return strconv.FormatFloat(in.Value, 'g', -1, 64)
	case InstrOperator:
		return string(in.Op)
	default:
		if f, ok := lookupFunction(in.Name); ok && f.variadic() {
			return fmt.Sprintf("%s_%d", in.Name, in.Arity)
		}
		return in.Name
	}
}

// Program is a compiled expression, ready to be evaluated any number of
// times.
type Program struct {
	Source       string
	Instructions []Instruction
}

func (p *Program) String() string {
	parts := make([]string, len(p.Instructions))
	for i, in := range p.Instructions {
		parts[i] = in.String()
	}
	return strings.Join(parts, " ")
}

// Compile normalizes, validates and compiles raw into postfix form.
func Compile(raw string) (*Program, error) {
	if raw == "" {
		return nil, parseError(0, "An empty dice expression was found.")
	}
	m := normalize(raw)
	if err := validate(m); err != nil {
		return nil, err
	}

	c := &compiler{}
	for _, tok := range tokens(separate(m)) {
		if err := c.push(tok); err != nil {
			return nil, err
		}
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &Program{Source: raw, Instructions: c.out}, nil
}

// compiler is the shunting-yard state for one Compile call.
type compiler struct {
	out   []Instruction
	ops   []token
	arity []int

	prevNumber bool
	prevClose  bool
}

func (c *compiler) top() string {
	if len(c.ops) == 0 {
		return ""
	}
	return c.ops[len(c.ops)-1].text
}

func (c *compiler) pop() token {
	t := c.ops[len(c.ops)-1]
	c.ops = c.ops[:len(c.ops)-1]
	return t
}

// emit moves an operator or function token to the output.
func (c *compiler) emit(t token) {
	f, ok := lookupFunction(t.text)
	if !ok {
		c.out = append(c.out, Instruction{Kind: InstrOperator, Op: t.text[0], Pos: t.pos})
		return
	}
	n := f.arity
	if last := len(c.arity) - 1; last >= 0 {
		if f.variadic() {
			n = c.arity[last]
		}
		c.arity = c.arity[:last]
	}
	c.out = append(c.out, Instruction{Kind: InstrFunction, Name: f.name, Arity: n, Pos: t.pos})
}

// unwind pops operators until an open parenthesis is on top. It reports
// whether one was found.
func (c *compiler) unwind(adding string) bool {
	for wouldPop(adding, c.top()) {
		c.emit(c.pop())
	}
	return c.top() == "("
}

func (c *compiler) push(t token) error {
	switch s := t.text; {
	case s[0] == '_' || isNumber(s[0]) || constantAt(s, 0) == len(s):
		v, err := literal(t)
		if err != nil {
			return err
		}
		c.out = append(c.out, Instruction{Kind: InstrLiteral, Value: v, Pos: t.pos})
		c.prevNumber, c.prevClose = true, false

	case functionAt(s, 0) == len(s):
		c.ops = append(c.ops, t)
		c.arity = append(c.arity, 1)
		c.prevNumber, c.prevClose = false, false

	case s == "(":
		c.ops = append(c.ops, t)
		c.prevNumber, c.prevClose = false, false

	case s == ")":
		if !c.unwind(s) {
			return parseError(t.pos, "A close parenthesis was found but not enough open parentheses were found before it.")
		}
		c.pop()
		c.prevNumber, c.prevClose = false, true

	case s == ",":
		if !c.unwind(s) {
			return parseError(t.pos, "A comma was encountered outside of a function.")
		}
		open := c.pop()
		if _, ok := lookupFunction(c.top()); !ok {
			return parseError(t.pos, "A comma was encountered outside of a function.")
		}
		c.arity[len(c.arity)-1]++
		c.ops = append(c.ops, open)
		c.prevNumber, c.prevClose = false, false

	case len(s) == 1 && isOpNoParen(s[0]):
		if !c.prevNumber && !c.prevClose {
			return parseError(t.pos, "No numbers were found before the operator was encountered.")
		}
		for wouldPop(s, c.top()) {
			c.emit(c.pop())
		}
		c.ops = append(c.ops, t)
		c.prevNumber, c.prevClose = false, false

	default:
		return parseError(t.pos, "An invalid character was encountered.")
	}
	return nil
}

func (c *compiler) finish() error {
	for len(c.ops) > 0 {
		if c.top() == "(" {
			return parseError(c.pop().pos, "There are more open parentheses than close parentheses.")
		}
		c.emit(c.pop())
	}
	return nil
}

// literal evaluates a number, constant, or '_'-negated number or constant.
func literal(t token) (float64, error) {
	s, sign := t.text, 1.0
	if s[0] == '_' {
		s, sign = s[1:], -1
	}
	if v, ok := constantValue(s); ok {
		return sign * v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) || math.IsInf(v, 0):
		return 0, &Error{Kind: KindOverflow, Pos: t.pos, HasPos: true}
	case err != nil || math.IsNaN(v):
		return 0, parseError(t.pos, "An invalid number was encountered.")
	}
	return sign * v, nil
}

// wouldPop reports whether pushing adding must first pop top. It encodes
// the precedence d > ^ > * / % > + -, with ^ right-associative. adding is
// ")", "," or "" when unwinding to a parenthesis or the end of input.
func wouldPop(adding, top string) bool {
	if top == "" || top == "(" {
		return false
	}
	if _, ok := lookupFunction(adding); ok {
		return false
	}
	if _, ok := lookupFunction(top); ok {
		return true
	}
	switch adding {
	case ")", ",", "":
		return true
	}
	if adding == top && adding != "^" {
		return true
	}
	switch adding[0] {
	case 'd':
		return false
	case '^':
		return top == "d"
	case '*', '/', '%':
		return top == "^" || top == "d" || isMulDiv(top[0])
	case '+', '-':
		return isOpNoParen(top[0])
	}
	panic(fmt.Sprintf("expr: no precedence rule for %q over %q", adding, top))
}
