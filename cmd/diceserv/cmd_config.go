package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the " + appName + " config file",
	Long:  "Commands for creating and inspecting the " + appName + " config file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: "Create the config directory and write " + configFileName + " into it.\n" +
		"On a terminal the main settings are asked for first; --yes keeps the\n" +
		"defaults without asking.\n\n" +
		"The default config directory is resolved as:\n" +
		"  $" + envConfigDir + " > $XDG_CONFIG_HOME/" + appName + " > ~/.config/" + appName,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetString("dir")
		yes, _ := cmd.Flags().GetBool("yes")

		if dir == "" {
			var err error
			dir, err = resolveConfigDir()
			if err != nil {
				return err
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		path := filepath.Join(dir, configFileName)

		cfg := defaultConfig()
		if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
			ok, err := askConfig(&cfg, path, &force)
			if errors.Is(err, huh.ErrUserAborted) || err == nil && !ok {
				fmt.Fprintln(os.Stderr, "aborted")
				return nil
			}
			if err != nil {
				return err
			}
		}

		data, err := marshalConfig(cfg)
		if err != nil {
			return err
		}
		if err := writeInitFile(path, data, force); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "initialised %s\n", dir)
		fmt.Fprintf(os.Stderr, "  %s\n", path)
		fmt.Fprintf(os.Stderr, "\nRun `%s shell` to start rolling.\n", appName)
		return nil
	},
}

// askConfig fills cfg from a form. When path already exists it also asks
// whether to overwrite it, and reports false if the answer is no.
func askConfig(cfg *Config, path string, force *bool) (bool, error) {
	maxLength := strconv.Itoa(cfg.MaxLength)
	fields := []huh.Field{
		huh.NewInput().
			Title("Nick").
			Description("Name the bot replies as; counts against the line limit.").
			Value(&cfg.Nick),
		huh.NewInput().
			Title("Max line length").
			Description("0 turns the limit off.").
			Value(&maxLength).
			Validate(validateMaxLength),
		huh.NewSelect[string]().
			Title("Verbosity").
			Options(huh.NewOptions("long", "short", "none")...).
			Value(&cfg.Verbosity),
		huh.NewInput().
			Title("Server address").
			Value(&cfg.Server.Addr),
		huh.NewInput().
			Title("Shell history file").
			Description("Empty keeps history next to the config file.").
			Value(&cfg.HistoryFile),
	}

	overwrite := true
	if _, err := os.Stat(path); err == nil && !*force {
		overwrite = false
		fields = append(fields, huh.NewConfirm().
			Title(path+" exists. Overwrite?").
			Value(&overwrite))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return false, err
	}
	if !overwrite {
		return false, nil
	}
	*force = true
	cfg.MaxLength, _ = strconv.Atoi(maxLength)
	return true, nil
}

func validateMaxLength(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func writeInitFile(path string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.Write(content)
	return err
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: "Print the configuration after the config file and " + envPrefix + "*\n" +
		"environment variables have been applied.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(flagConfig)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

func showConfig(w io.Writer, cfg Config) error {
	data, err := marshalConfig(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(flagConfig)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
	configInitCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
	configInitCmd.Flags().BoolP("yes", "y", false, "write the defaults without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
