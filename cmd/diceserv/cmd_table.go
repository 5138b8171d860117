package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/render"
)

var (
	styleBase = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	styleMode = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	styleDetail = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// tableModes are the commands the roll log cycles through with tab.
var tableModes = []string{"roll", "exroll", "calc", "excalc", "earthdawn", "dnd3e"}

// logEntry is one row of the roll log.
type logEntry struct {
	mode  string
	input games.Input
	reply games.Reply
}

func (e logEntry) results() string {
	if e.reply.Err != nil {
		return "error"
	}
	parts := make([]string, len(e.reply.Results))
	for i, v := range e.reply.Results {
		parts[i] = render.Number(v)
	}
	return strings.Join(parts, " ")
}

type tableModel struct {
	svc   *games.Service
	nick  string
	mode  int
	input textinput.Model
	table table.Model
	log   []logEntry
}

func newTableModel(svc *games.Service, nick string) tableModel {
	ti := textinput.New()
	ti.Placeholder = "3d6+2 #channel comment"
	ti.Focus()
	ti.CharLimit = 200

	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "MODE", Width: 10},
		{Title: "EXPRESSION", Width: 28},
		{Title: "RESULTS", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("99"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return tableModel{svc: svc, nick: nick, input: ti, table: t}
}

func (m tableModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tableModel) run(text string) logEntry {
	mode := tableModes[m.mode]
	args := strings.Fields(text)
	e := logEntry{mode: mode}
	switch mode {
	case "dnd3e":
		e.input = games.ParseTarget(args)
		e.input.Nick = m.nick
		e.reply = m.svc.DnD3e(e.input)
	case "earthdawn":
		e.input = games.ParseArgs(args)
		e.input.Nick = m.nick
		e.reply = m.svc.Earthdawn(e.input)
	default:
		rm, _ := render.ParseMode(mode)
		e.input = games.ParseArgs(args)
		e.input.Nick = m.nick
		e.reply = m.svc.Roll(rm, e.input)
	}
	return e
}

func (m tableModel) rows() []table.Row {
	rows := make([]table.Row, len(m.log))
	for i, e := range m.log {
		expression := e.input.Expression
		if e.mode == "dnd3e" {
			expression = "6~4d6"
		}
		rows[i] = table.Row{fmt.Sprintf("%d", i+1), e.mode, expression, e.results()}
	}
	return rows
}

func (m tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.mode = (m.mode + 1) % len(tableModes)
			return m, nil
		case "shift+tab":
			m.mode = (m.mode + len(tableModes) - 1) % len(tableModes)
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" && tableModes[m.mode] != "dnd3e" {
				return m, nil
			}
			m.log = append(m.log, m.run(text))
			m.table.SetRows(m.rows())
			m.table.GotoBottom()
			m.input.SetValue("")
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tableModel) View() string {
	title := styleTitle.Render(strings.ToUpper(appName) + "  roll log")
	tableView := styleBase.Render(m.table.View())

	var detail strings.Builder
	if i := m.table.Cursor(); i >= 0 && i < len(m.log) {
		printReply(&detail, m.log[i].reply)
	}

	prompt := styleMode.Render(tableModes[m.mode]) + " " + m.input.View()
	help := styleHelp.Render("enter  roll    tab  change mode    ↑/↓  browse    esc  quit")

	view := title + "\n" + tableView + "\n"
	if detail.Len() > 0 {
		view += styleDetail.Render(strings.TrimRight(detail.String(), "\n")) + "\n"
	}
	return view + prompt + "\n" + help
}

func newTableCommand() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Full-screen roll log",
		Long: "Open a full-screen log of rolls. Type an expression and press enter;\n" +
			"tab switches between roll, exroll, calc, excalc, earthdawn and dnd3e.\n" +
			"Selecting a row shows its full reply.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			p := tea.NewProgram(newTableModel(svc, flags.nick), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
