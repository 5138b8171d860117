package expr

// separate puts a single space between lexical units of the canonical
// infix. An inserted space maps to the position of the unit after it.
func separate(m mapped) mapped {
	s := m.text
	var mb mappedBuilder

	unit := func(start, end int) {
		if mb.len() > 0 {
			mb.emit(" ", m.pos[start])
		}
		for i := start; i < end; i++ {
			mb.emit(s[i:i+1], m.pos[i])
		}
	}
	number := func(i int) int {
		for i < len(s) && isNumber(s[i]) {
			i++
		}
		return i
	}

	for x := 0; x < len(s); {
		start := x
		switch {
		case functionAt(s, x) > 0:
			x += functionAt(s, x)
		case constantAt(s, x) > 0:
			x += constantAt(s, x)
		case s[x] == '_':
			x++
			if n := constantAt(s, x); n > 0 {
				x += n
			} else {
				x = number(x)
			}
		case isNumber(s[x]):
			x = number(x)
		default:
			x++
		}
		unit(start, x)
	}
	return mb.done(m.pos[len(s)])
}

type token struct {
	text string
	pos  int
}

// tokens splits separated infix on its spaces.
func tokens(m mapped) []token {
	var out []token
	start := 0
	for i := 0; i <= len(m.text); i++ {
		if i < len(m.text) && m.text[i] != ' ' {
			continue
		}
		if i > start {
			out = append(out, token{text: m.text[start:i], pos: m.pos[start]})
		}
		start = i + 1
	}
	return out
}
