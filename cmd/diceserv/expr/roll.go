package expr

import "strings"

// Split separates an optional repeat count from the dice expression.
//
// Both "N~expr" and the bracket form "N[expr]" are accepted; source is the
// expression rewritten to the tilde form, which is what error positions
// refer to. times is empty when there is no repeat count.
func Split(expression string) (source, times, dice string, err error) {
	source = expression
	if i := strings.IndexByte(source, '['); i >= 0 && i < len(source)-1 && strings.HasSuffix(source, "]") {
		source = source[:i] + "~" + source[i+1:len(source)-1]
	}
	i := strings.IndexByte(source, '~')
	if i < 0 {
		return source, "", source, nil
	}
	if i == 0 {
		return source, "", "", parseError(0, "An empty repeat count expression was found.")
	}
	return source, source[:i], source[i+1:], nil
}

// Roll evaluates dice once, or as many times as the times expression says
// when it is not empty.
//
// On failure the returned Outcome still holds the repeat-count group and
// every run that completed before the failing one.
func Roll(times, dice string, r Rand, opts ...Option) (*Outcome, error) {
	m := newMachine(r, opts)
	out := &Outcome{}
	n, offset := 1, 0

	if times != "" {
		p, err := Compile(times)
		if err != nil {
			return out, err
		}
		v, group, err := m.run(p)
		if err != nil {
			return out, err
		}
		out.Repeat = &group
		t := truncate(v)
		if t < 1 || t > MaxTimes {
			return out, &Error{Kind: KindUnacceptableTimes, Number: t}
		}
		n = int(t)
		offset = len(times) + 1
	}

	p, err := Compile(dice)
	if err != nil {
		return out, shift(err, offset)
	}
	for i := 0; i < n; i++ {
		v, group, err := m.run(p)
		if err != nil {
			return out, shift(err, offset)
		}
		out.Results = append(out.Results, v)
		out.Groups = append(out.Groups, group)
	}
	return out, nil
}

// RollExpression splits expression and rolls it.
func RollExpression(expression string, r Rand, opts ...Option) (*Outcome, error) {
	_, times, dice, err := Split(expression)
	if err != nil {
		return &Outcome{}, err
	}
	return Roll(times, dice, r, opts...)
}
