package expr

import "strings"

// mapped is a rewritten expression that remembers, for every byte, where it
// came from in the raw input. pos has one extra trailing entry holding the
// raw length.
type mapped struct {
	text string
	pos  []int
}

// at returns the raw position for index i of the rewritten text.
func (m mapped) at(i int) int {
	if i >= len(m.pos) {
		return m.pos[len(m.pos)-1]
	}
	return m.pos[i]
}

type mappedBuilder struct {
	b   strings.Builder
	pos []int
}

// emit appends s, mapping every byte of it to p.
func (mb *mappedBuilder) emit(s string, p int) {
	mb.b.WriteString(s)
	for i := 0; i < len(s); i++ {
		mb.pos = append(mb.pos, p)
	}
}

// copyFrom appends s, mapping byte i of it to start+i.
func (mb *mappedBuilder) copyFrom(s string, start int) {
	mb.b.WriteString(s)
	for i := 0; i < len(s); i++ {
		mb.pos = append(mb.pos, start+i)
	}
}

func (mb *mappedBuilder) last() byte {
	s := mb.b.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (mb *mappedBuilder) len() int { return mb.b.Len() }

func (mb *mappedBuilder) done(end int) mapped {
	return mapped{text: mb.b.String(), pos: append(mb.pos, end)}
}

// isNumber reports whether c can be part of a numeric literal.
func isNumber(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.'
}

func isMulDiv(c byte) bool {
	return c == '*' || c == '/' || c == '%'
}

func isPlusMinus(c byte) bool {
	return c == '+' || c == '-'
}

// isOpNoParen reports whether c is a binary operator.
func isOpNoParen(c byte) bool {
	return isPlusMinus(c) || isMulDiv(c) || c == '^' || c == 'd'
}

func isParen(c byte) bool {
	return c == '(' || c == ')'
}

func isOperator(c byte) bool {
	return isOpNoParen(c) || isParen(c)
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// functionAt returns the length of the function name starting at s[i], or 0.
// Names are matched longest first so that "sinh" wins over "sin".
func functionAt(s string, i int) int {
	for n := maxNameLen; n >= minNameLen; n-- {
		if i+n > len(s) {
			continue
		}
		if _, ok := functions[strings.ToLower(s[i:i+n])]; ok {
			return n
		}
	}
	return 0
}

// constantAt returns the length of the constant name starting at s[i], or 0.
func constantAt(s string, i int) int {
	for _, c := range constants {
		n := len(c.name)
		if i+n <= len(s) && strings.EqualFold(s[i:i+n], c.name) {
			return n
		}
	}
	return 0
}

// startsOperand reports whether an operand may begin at s[i].
func startsOperand(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	c := s[i]
	return isNumber(c) || c == '(' || c == '_' || constantAt(s, i) > 0 || functionAt(s, i) > 0
}
