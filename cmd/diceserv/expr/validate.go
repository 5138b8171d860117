package expr

// validate checks the canonical infix for structural mistakes and reports
// the first one with its position in the raw input.
func validate(m mapped) error {
	s := m.text
	prevConst, prevFunc := false, false

	// operandBefore reports whether a complete operand ends just before i.
	operandBefore := func(i int) bool {
		return i > 0 && (isNumber(s[i-1]) || s[i-1] == ')' || prevConst)
	}

	for x := 0; x < len(s); x++ {
		if n := functionAt(s, x); n > 0 {
			if x+n >= len(s) || s[x+n] != '(' {
				return parseError(m.at(x), "No open parenthesis found after function.")
			}
			x += n - 1
			prevConst, prevFunc = false, true
			continue
		}
		if n := constantAt(s, x); n > 0 {
			x += n - 1
			prevConst, prevFunc = true, false
			continue
		}

		c := s[x]
		switch {
		case isNumber(c):
		case c == ',':
			if !operandBefore(x) {
				return parseError(m.at(x), "No number or close parenthesis before comma.")
			}
			if !startsOperand(s, x+1) {
				return parseError(m.at(x), "No number or open parenthesis after comma.")
			}
		case isOpNoParen(c):
			if !operandBefore(x) {
				return parseError(m.at(x), "No number or close parenthesis before operator.")
			}
			if !startsOperand(s, x+1) {
				return parseError(m.at(x), "No number or open parenthesis after operator.")
			}
		case c == '(':
			if x > 0 && !isOpNoParen(s[x-1]) && s[x-1] != '(' && s[x-1] != ',' && !prevFunc {
				return parseError(m.at(x), "No operator or open parenthesis found before current open parenthesis.")
			}
			if !startsOperand(s, x+1) {
				return parseError(m.at(x), "No number after current open parenthesis.")
			}
		case c == ')':
			if !operandBefore(x) {
				return parseError(m.at(x), "No number found before current close parenthesis.")
			}
			if x+1 < len(s) && !isOpNoParen(s[x+1]) && s[x+1] != ')' && s[x+1] != ',' {
				return parseError(m.at(x), "No operator or close parenthesis found after current close parenthesis.")
			}
		case c == '_':
			if x > 0 && !isOpNoParen(s[x-1]) && s[x-1] != '(' && s[x-1] != ',' {
				return parseError(m.at(x), "No operator found before unary minus.")
			}
			if x+1 >= len(s) || !(isNumber(s[x+1]) || constantAt(s, x+1) > 0 && functionAt(s, x+1) == 0) {
				return parseError(m.at(x), "No number found after unary minus.")
			}
		default:
			return parseError(m.at(x), "An invalid character was encountered.")
		}
		prevConst, prevFunc = false, false
	}
	return nil
}
