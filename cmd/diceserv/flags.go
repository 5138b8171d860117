package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/rng"
)

var flagConfig string

// outputFlags are shared by every command that rolls.
type outputFlags struct {
	maxLength int
	verbosity string
	seed      uint32
	nick      string
}

func (f *outputFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.maxLength, "max-length", 0, "line length limit for replies, 0 for none (default: from config)")
	fs.StringVarP(&f.verbosity, "verbosity", "V", "", "most detailed trace to show: long, short or none (default: from config)")
	fs.Uint32Var(&f.seed, "seed", 0, "seed the dice for a reproducible roll (default: from config, else the clock)")
	fs.StringVarP(&f.nick, "nick", "n", os.Getenv("USER"), "nick the roll is made for")
}

// apply overlays the flags that were set on cfg.
func (f *outputFlags) apply(fs *flag.FlagSet, cfg *Config) {
	if fs.Changed("max-length") {
		cfg.MaxLength = f.maxLength
	}
	if fs.Changed("verbosity") {
		cfg.Verbosity = f.verbosity
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
}

// setup loads the config, applies the flags and builds the service.
func (f *outputFlags) setup(fs *flag.FlagSet) (*games.Service, Config, error) {
	path, err := configPath(flagConfig)
	if err != nil {
		return nil, Config{}, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, cfg, err
	}
	f.apply(fs, &cfg)
	svc, err := newService(cfg)
	return svc, cfg, err
}

func newService(cfg Config) (*games.Service, error) {
	tier, err := cfg.MaxTier()
	if err != nil {
		return nil, err
	}
	gen := rng.Default()
	if cfg.Seed != 0 {
		gen = rng.New(cfg.Seed)
	}
	svc := games.New(gen, cfg.Budget())
	svc.MaxTier = tier
	return svc, nil
}
