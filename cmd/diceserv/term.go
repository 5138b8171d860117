package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-dice/cmd/diceserv/games"
)

var (
	styleReverse = lipgloss.NewStyle().Reverse(true)

	styleNotice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleErr = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleCaret = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))
)

// styleLine turns the chat reverse-video control code into terminal
// styling.
func styleLine(line string) string {
	parts := strings.Split(line, games.Reverse)
	if len(parts) == 1 {
		return line
	}
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString(styleReverse.Render(p))
			continue
		}
		b.WriteString(p)
	}
	return b.String()
}

func isCaretLine(line string) bool {
	return strings.HasPrefix(line, "(") && strings.HasSuffix(line, "^)") && strings.Trim(line, "( ^)") == ""
}

// printReply writes a reply to out, error lines included.
func printReply(out io.Writer, reply games.Reply) {
	for _, n := range reply.Notices {
		fmt.Fprintln(out, styleNotice.Render(n))
	}
	if reply.Err == nil {
		fmt.Fprintln(out, styleLine(reply.Output))
		return
	}
	for _, l := range reply.ErrorText {
		switch {
		case isCaretLine(l):
			fmt.Fprintln(out, styleCaret.Render(l))
		case strings.HasPrefix(l, " "):
			fmt.Fprintln(out, l)
		default:
			fmt.Fprintln(out, styleErr.Render(l))
		}
	}
}
