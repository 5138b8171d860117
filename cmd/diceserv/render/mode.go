package render

import (
	"fmt"
	"strings"
)

// Mode is one of the four generic roll commands.
type Mode int

const (
	ModeRoll Mode = iota
	ModeExroll
	ModeCalc
	ModeExcalc
)

var modeNames = map[Mode]string{
	ModeRoll:   "roll",
	ModeExroll: "exroll",
	ModeCalc:   "calc",
	ModeExcalc: "excalc",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Rounds reports whether results are rounded to integers.
func (m Mode) Rounds() bool { return m == ModeRoll || m == ModeExroll }

// Expands reports whether the mode shows the trace.
func (m Mode) Expands() bool { return m == ModeExroll || m == ModeExcalc }

func (m Mode) plainPrefix() string {
	if m.Rounds() {
		return "Roll"
	}
	return "Calc"
}

// Prefix is the reply prefix for an expression, given whether it is
// extended.
func (m Mode) Prefix(extended bool) string {
	switch {
	case m == ModeExroll && extended:
		return "Exroll"
	case m == ModeExcalc && extended:
		return "Excalc"
	}
	return m.plainPrefix()
}

// Request builds the reply header for expression in this mode.
func (m Mode) Request(expression string) Request {
	req := Request{Expression: expression}
	if m.Expands() {
		req.Extended = IsExtended(expression)
		req.PlainPrefix = m.plainPrefix()
	}
	req.Prefix = m.Prefix(req.Extended)
	return req
}

// Tiers lists the tiers to try, longest first.
func (m Mode) Tiers() []Tier {
	if m.Expands() {
		return []Tier{TierLong, TierShort, TierNone}
	}
	return []Tier{TierNone}
}
