package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"go-dice/cmd/diceserv/expr"
)

const overflowText = "Dice result buffer has an overflow. This could be due to large values that are close to the limits or the size of your comment. Please enter some lower rolls or a smaller comment."

// ErrorText renders err as the reply lines shown to the user. Parse errors
// get a caret line under the offending character.
func ErrorText(req Request, err error) []string {
	if errors.Is(err, ErrBufferOverflow) {
		return []string{overflowText}
	}
	e, ok := expr.AsError(err)
	if !ok {
		return []string{err.Error()}
	}
	shown := " " + req.Expression

	switch e.Kind {
	case expr.KindParse:
		lines := []string{
			"During parsing, an error was found in the following expression:",
			shown,
			Caret(req.Expression, e.Pos),
			"Error description is as follows:",
			e.Message,
		}
		if hint := suggestAt(req.Expression, e.Pos); hint != "" {
			lines = append(lines, fmt.Sprintf("Did you mean %s?", hint))
		}
		return lines
	case expr.KindDivisionByZero:
		return []string{"Division by 0 in following expression:", shown}
	case expr.KindUndefined:
		return []string{"Undefined result in following expression:", shown}
	case expr.KindUnacceptableDice:
		if e.Message != "" {
			// draw limit for the whole request
			return []string{fmt.Sprintf("Too many dice were thrown in one request; the limit is %d, counting every repeat.", e.Number)}
		}
		return []string{limitText("dice", e.Number, expr.MaxDice)}
	case expr.KindUnacceptableSides:
		return []string{limitText("sides", e.Number, expr.MaxSides)}
	case expr.KindUnacceptableTimes:
		return []string{limitText("times", e.Number, expr.MaxTimes)}
	case expr.KindOverflow:
		return []string{"Dice results in following expression resulted in either overflow or underflow:", shown}
	default:
		return []string{
			"The following roll expression could not be properly evaluated, please try again or let an administrator know.",
			shown,
			"Error description is as follows:",
			e.Message,
		}
	}
}

// Caret returns the marker line pointing at pos in expression. A position
// past the end points just after the last character.
func Caret(expression string, pos int) string {
	pos = max(0, min(pos, len(expression)))
	return "(" + strings.Repeat(" ", pos) + "^)"
}

func limitText(what string, n int64, limit int) string {
	if n <= 0 {
		return fmt.Sprintf("The number of %s that you entered (%d) was under 1. Please enter a number between 1 and %d.", what, n, limit)
	}
	return fmt.Sprintf("The number of %s that you entered (%d) was over the limit of %d. Please enter a lower number of %s.", what, n, limit, what)
}

// Suggest returns the known function name closest to word, or "" when
// nothing resembles it.
func Suggest(word string) string {
	names := make([]string, 0, 32)
	for _, f := range expr.Functions() {
		names = append(names, f.Name)
	}
	ranks := fuzzy.RankFindFold(word, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// suggestAt looks at the word around pos and suggests a function name if the
// word is not already one.
func suggestAt(expression string, pos int) string {
	if pos < 0 || pos >= len(expression) || !isLetter(expression[pos]) {
		return ""
	}
	start, end := pos, pos
	for start > 0 && isLetter(expression[start-1]) {
		start--
	}
	for end < len(expression) && (isLetter(expression[end]) || expression[end] >= '0' && expression[end] <= '9') {
		end++
	}
	word := strings.ToLower(expression[start:end])
	if len(word) < 2 {
		return ""
	}
	for _, f := range expr.Functions() {
		if f.Name == word {
			return ""
		}
	}
	return Suggest(word)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
