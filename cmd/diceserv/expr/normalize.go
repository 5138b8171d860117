package expr

// normalize rewrites raw into canonical infix: implicit 1 before a bare d,
// d% as d100, implicit multiplication, and unary minus as '_'. Function and
// constant names keep their case; every other byte is lowercased.
func normalize(raw string) mapped {
	if raw == "%" {
		return mapped{text: "1d100", pos: []int{0, 0, 0, 0, 0, 1}}
	}

	var mb mappedBuilder
	prevConst, prevFunc := false, false

	for x := 0; x < len(raw); x++ {
		if n := functionAt(raw, x); n > 0 {
			if isNumber(mb.last()) && !prevFunc {
				mb.emit("*", x)
			}
			mb.copyFrom(raw[x:x+n], x)
			x += n - 1
			prevConst, prevFunc = false, true
			continue
		}
		if n := constantAt(raw, x); n > 0 {
			if isNumber(mb.last()) && !prevFunc {
				mb.emit("*", x)
			}
			mb.copyFrom(raw[x:x+n], x)
			x += n - 1
			if next := x + 1; next < len(raw) &&
				(isNumber(raw[next]) || constantAt(raw, next) > 0 || functionAt(raw, next) > 0) {
				mb.emit("*", next)
			}
			prevConst, prevFunc = true, false
			continue
		}

		c := lower(raw[x])
		switch c {
		case 'd':
			if last := mb.last(); mb.len() == 0 || (!isNumber(last) && last != ')' && !prevConst) {
				mb.emit("1", x)
			}
			mb.emit("d", x)
			if x+1 < len(raw) && raw[x+1] == '%' {
				x++
				mb.emit("100", x)
			}
		case '(':
			if (isNumber(mb.last()) || prevConst) && !prevFunc {
				mb.emit("*", x)
			}
			mb.emit("(", x)
		case ')':
			mb.emit(")", x)
			if next := x + 1; next < len(raw) &&
				(isNumber(raw[next]) || raw[next] == '(' || constantAt(raw, next) > 0) {
				mb.emit("*", next)
			}
		case '-':
			last := mb.last()
			unaryContext := mb.len() == 0 || isOpNoParen(last) || last == '(' || last == ','
			next := x + 1
			switch {
			case !unaryContext || next >= len(raw):
				mb.emit("-", x)
			case raw[next] == '(' || functionAt(raw, next) > 0:
				mb.emit("0-", x)
			case isNumber(raw[next]) || constantAt(raw, next) > 0:
				mb.emit("_", x)
			default:
				mb.emit("-", x)
			}
		default:
			mb.emit(string(c), x)
		}
		prevConst, prevFunc = false, false
	}

	return mb.done(len(raw))
}
