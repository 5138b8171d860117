package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const completionsMarkerBegin = "# >>> " + appName + " completions >>>"
const completionsMarkerEnd = "# <<< " + appName + " completions <<<"

// shellDef describes where a shell reads its config and how it loads a
// completion script.
type shellDef struct {
	name           string
	configFilePath string
	fileName       string
	// setupBlock returns the config lines that load completions from dir.
	setupBlock func(dir string) string
	generate   func(cmd *cobra.Command, w io.Writer) error
}

func allShells() []shellDef {
	home := os.Getenv("HOME")
	return []shellDef{
		{
			name:           "zsh",
			configFilePath: filepath.Join(home, ".zshrc"),
			fileName:       "_" + appName,
			setupBlock: func(dir string) string {
				return "fpath=(" + dir + " $fpath)\nautoload -U compinit && compinit"
			},
			generate: func(cmd *cobra.Command, w io.Writer) error { return cmd.GenZshCompletion(w) },
		},
		{
			name:           "bash",
			configFilePath: filepath.Join(home, ".bashrc"),
			fileName:       appName,
			setupBlock: func(dir string) string {
				return `for f in ` + dir + `/*; do [ -f "$f" ] && source "$f"; done`
			},
			generate: func(cmd *cobra.Command, w io.Writer) error { return cmd.GenBashCompletionV2(w, true) },
		},
		{
			name:           "fish",
			configFilePath: filepath.Join(home, ".config", "fish", "config.fish"),
			fileName:       appName + ".fish",
			setupBlock: func(dir string) string {
				return "for f in " + dir + "/*.fish; source $f; end"
			},
			generate: func(cmd *cobra.Command, w io.Writer) error { return cmd.GenFishCompletion(w, true) },
		},
	}
}

func completionsDirFor(shell string) string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", appName, "completions", shell)
}

func resolveShell(name string) (*shellDef, error) {
	if name == "" {
		name = filepath.Base(os.Getenv("SHELL"))
		if name == "." {
			return nil, errors.New("could not detect shell from $SHELL; use --shell <zsh|bash|fish>")
		}
	}
	for _, s := range allShells() {
		if s.name == name {
			sc := s
			return &sc, nil
		}
	}
	return nil, fmt.Errorf("unsupported shell %q (supported: zsh, bash, fish)", name)
}

// writeCompletion regenerates the completion script for shell and returns
// its path.
func writeCompletion(root *cobra.Command, shell shellDef) (string, error) {
	dir := completionsDirFor(shell.name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, shell.fileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := shell.generate(root, f); err != nil {
		return "", fmt.Errorf("generating %s completion: %w", shell.name, err)
	}
	return path, nil
}

// isShellConfigured reports whether the shell config file carries the
// completions block.
func isShellConfigured(shell shellDef) (bool, error) {
	f, err := os.Open(shell.configFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), completionsMarkerBegin) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func configureShell(shell shellDef) error {
	if err := os.MkdirAll(filepath.Dir(shell.configFilePath), 0o755); err != nil {
		return err
	}
	block := completionsMarkerBegin + "\n" + shell.setupBlock(completionsDirFor(shell.name)) + "\n" + completionsMarkerEnd + "\n"
	f, err := os.OpenFile(shell.configFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString("\n" + block)
	return err
}

// unconfigureShell removes the completions block from the shell config file.
func unconfigureShell(shell shellDef) error {
	content, err := os.ReadFile(shell.configFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var result []string
	inBlock := false
	for _, line := range strings.Split(string(content), "\n") {
		switch {
		case strings.Contains(line, completionsMarkerBegin):
			inBlock = true
		case strings.Contains(line, completionsMarkerEnd):
			inBlock = false
		case !inBlock:
			result = append(result, line)
		}
	}
	return os.WriteFile(shell.configFilePath, []byte(strings.Join(result, "\n")), 0o644)
}

func newCompletionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completions",
		Short: "Install shell completions for " + appName,
		Long: "Write the completion script for your shell under\n" +
			"~/.local/share/" + appName + "/completions and hook it into the shell config.\n" +
			"Completion suggests function names inside expressions.",
	}
	cmd.AddCommand(newCompletionsSetupCommand())
	cmd.AddCommand(newCompletionsStatusCommand())
	cmd.AddCommand(newCompletionsRemoveCommand())
	return cmd
}

func newCompletionsSetupCommand() *cobra.Command {
	var shellFlag string
	var yesFlag bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate the completion script and configure your shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := resolveShell(shellFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			path, err := writeCompletion(cmd.Root(), *shell)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "→ Completion written to %s\n", path)

			configured, err := isShellConfigured(*shell)
			if err != nil {
				return err
			}
			if configured {
				fmt.Fprintf(out, "✅ %s is already configured.\n", shell.configFilePath)
				return nil
			}

			fmt.Fprintf(out, "Will append to %s:\n\n", shell.configFilePath)
			fmt.Fprintf(out, "  %s\n", completionsMarkerBegin)
			for _, line := range strings.Split(shell.setupBlock(completionsDirFor(shell.name)), "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
			fmt.Fprintf(out, "  %s\n\n", completionsMarkerEnd)

			if !yesFlag {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("not a terminal; rerun with --yes to confirm")
				}
				proceed := false
				err := huh.NewConfirm().
					Title("Proceed?").
					Value(&proceed).
					Run()
				if err != nil && !errors.Is(err, huh.ErrUserAborted) {
					return err
				}
				if !proceed {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := configureShell(*shell); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Done. Reload your shell or run:\n   source %s\n", shell.configFilePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&shellFlag, "shell", "", "shell to configure (default: auto-detect)")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newCompletionsStatusCommand() *cobra.Command {
	var shellFlag string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show completion setup status for the current shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := resolveShell(shellFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shell:       %s\n", shell.name)
			fmt.Fprintf(out, "Config file: %s\n", shell.configFilePath)

			configured, err := isShellConfigured(*shell)
			if err != nil {
				return err
			}
			if configured {
				fmt.Fprintf(out, "Configured:  ✅ yes\n")
			} else {
				fmt.Fprintf(out, "Configured:  ❌ no  → run '%s completions setup'\n", appName)
			}

			path := filepath.Join(completionsDirFor(shell.name), shell.fileName)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "Script:      ✅ %s\n", path)
			} else {
				fmt.Fprintf(out, "Script:      ❌ not generated\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shellFlag, "shell", "", "shell to check (default: auto-detect)")
	return cmd
}

func newCompletionsRemoveCommand() *cobra.Command {
	var shellFlag string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the completion script and unhook it from your shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := resolveShell(shellFlag)
			if err != nil {
				return err
			}
			dir := completionsDirFor(shell.name)
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
			if err := unconfigureShell(*shell); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed:", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&shellFlag, "shell", "", "shell to clean up (default: auto-detect)")
	return cmd
}
