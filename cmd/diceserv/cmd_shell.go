package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"go-dice/cmd/diceserv/expr"
	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/render"
)

// shellCommands are the words the shell understands, with their help text.
var shellCommands = []struct{ name, help string }{
	{"roll", "roll EXPR [#channel] [comment]"},
	{"exroll", "exroll EXPR [#channel] [comment]"},
	{"calc", "calc EXPR [#channel] [comment]"},
	{"excalc", "excalc EXPR [#channel] [comment]"},
	{"earthdawn", "earthdawn STEP[+KARMA] [#channel] [comment]"},
	{"dnd3e", "dnd3e [#channel] [comment]"},
	{"functions", "functions [filter]"},
	{"nick", "nick NAME   change who rolls are made for"},
	{"help", "help"},
	{"exit", "exit"},
}

// shell runs one line at a time against a service.
type shell struct {
	svc  *games.Service
	nick string
	out  io.Writer
}

// exec runs line and reports whether the shell should stop. A line that
// does not start with a command word is rolled as an expression.
func (sh *shell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	word, args := strings.ToLower(fields[0]), fields[1:]

	switch word {
	case "exit", "quit":
		return true
	case "help":
		for _, c := range shellCommands {
			fmt.Fprintln(sh.out, "  "+c.help)
		}
		fmt.Fprintln(sh.out, "  anything else is rolled as an expression")
		return false
	case "functions":
		fns := expr.Functions()
		if len(args) > 0 {
			fns = filterFunctions(fns, args[0])
		}
		printFunctions(sh.out, fns, len(args) == 0)
		return false
	case "nick":
		if len(args) != 1 {
			fmt.Fprintln(sh.out, styleErr.Render("usage: nick NAME"))
			return false
		}
		sh.nick = args[0]
		return false
	case "earthdawn":
		printReply(sh.out, sh.svc.Earthdawn(sh.input(games.ParseArgs(args))))
		return false
	case "dnd3e":
		printReply(sh.out, sh.svc.DnD3e(sh.input(games.ParseTarget(args))))
		return false
	}

	mode, err := render.ParseMode(word)
	if err != nil {
		mode, args = render.ModeRoll, fields
	}
	if len(args) == 0 {
		fmt.Fprintln(sh.out, styleErr.Render("usage: "+word+" EXPR [#channel] [comment]"))
		return false
	}
	printReply(sh.out, sh.svc.Roll(mode, sh.input(games.ParseArgs(args))))
	return false
}

func (sh *shell) input(in games.Input) games.Input {
	in.Nick = sh.nick
	return in
}

func shellCompleter() *readline.PrefixCompleter {
	functionNames := func(string) []string {
		var names []string
		for _, f := range expr.Functions() {
			names = append(names, f.Name)
		}
		return names
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, c := range shellCommands {
		if c.name == "functions" {
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(functionNames)))
			continue
		}
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}

// historyPath returns where shell history is kept, creating its directory.
func historyPath(cfg Config) (string, error) {
	path := cfg.HistoryFile
	if path == "" {
		dir, err := resolveConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, "history")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	return path, nil
}

func newShellCommand() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt with completion and history",
		Long: "Start an interactive prompt. Type a command such as `exroll 3d6`, or\n" +
			"just an expression to roll it. Tab completes command and function\n" +
			"names; history is kept across sessions.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			history, err := historyPath(cfg)
			if err != nil {
				return err
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:            appName + "> ",
				HistoryFile:       history,
				AutoComplete:      shellCompleter(),
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			sh := &shell{svc: svc, nick: flags.nick, out: rl.Stdout()}
			for {
				line, err := rl.Readline()
				switch {
				case errors.Is(err, readline.ErrInterrupt):
					if line == "" {
						return nil
					}
					continue
				case errors.Is(err, io.EOF):
					return nil
				case err != nil:
					return err
				}
				if sh.exec(line) {
					return nil
				}
			}
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
