package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"go-dice/cmd/diceserv/render"
)

// appName is the single source of truth for the application name.
// Env var names and config paths are derived from it.
const appName = "diceserv"

const configFileName = "config.yml"

var (
	envPrefix    = strings.ToUpper(appName) + "_"
	envConfigDir = envPrefix + "CONFIG_DIR"
)

// Config is the file, env and flag configuration.
type Config struct {
	// MaxLength is the chat server line limit; 0 turns off length checks.
	MaxLength int    `yaml:"max_length" env:"MAX_LENGTH"`
	Nick      string `yaml:"nick" env:"NICK"`
	Ident     string `yaml:"ident" env:"IDENT"`
	Host      string `yaml:"host" env:"HOST"`
	Privmsg   bool   `yaml:"privmsg" env:"PRIVMSG"`
	// Seed fixes the generator seed; 0 seeds from the clock.
	Seed        uint32   `yaml:"seed" env:"SEED"`
	Verbosity   string   `yaml:"verbosity" env:"VERBOSITY"`
	HistoryFile string   `yaml:"history_file" env:"HISTORY_FILE"`
	Ignore      []string `yaml:"ignore" env:"IGNORE" envSeparator:","`

	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

func defaultConfig() Config {
	return Config{
		MaxLength: render.DefaultMaxLength,
		Nick:      appName,
		Verbosity: render.TierLong.String(),
		Server:    ServerConfig{Addr: ":8080"},
	}
}

// Budget is the reply length budget the config describes.
func (c Config) Budget() render.Budget {
	return render.Budget{
		MaxLength: c.MaxLength,
		BotNick:   c.Nick,
		BotIdent:  c.Ident,
		BotHost:   c.Host,
		Privmsg:   c.Privmsg,
	}
}

// MaxTier parses Verbosity.
func (c Config) MaxTier() (render.Tier, error) {
	if c.Verbosity == "" {
		return render.TierLong, nil
	}
	return render.ParseTier(c.Verbosity)
}

// resolveConfigDir returns the base config directory for the application.
// Priority: $DICESERV_CONFIG_DIR > $XDG_CONFIG_HOME/diceserv > ~/.config/diceserv
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// readConfigFile overlays the YAML file at path on cfg. A missing file
// leaves cfg unchanged.
func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// loadConfig builds the effective config: defaults, then the config file,
// then DICESERV_* environment variables.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if err := readConfigFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.MaxTier(); err != nil {
		return cfg, err
	}
	if cfg.MaxLength < 0 {
		return cfg, fmt.Errorf("max_length must not be negative, got %d", cfg.MaxLength)
	}
	return cfg, nil
}

// configPath returns the config file to use: the --config flag, or
// config.yml in the resolved config directory.
func configPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	dir, err := resolveConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

const configHeader = "# " + appName + " configuration\n" +
	"# Every key can be overridden with a " + appName + " env var, e.g.\n" +
	"# DICESERV_MAX_LENGTH=0 or DICESERV_SERVER_ADDR=:9000.\n\n"

func marshalConfig(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(configHeader), data...), nil
}
