package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"go-dice/cmd/diceserv/server"
)

func newServeCommand() *cobra.Command {
	var flags outputFlags
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rolls over HTTP and websockets",
		Long: "Start the HTTP API. POST a JSON body such as\n" +
			`  {"expression": "3d6+2", "channel": "#dnd", "nick": "alice"}` + "\n" +
			"to /api/roll, /api/exroll, /api/calc, /api/excalc, /api/earthdawn or\n" +
			"/api/dnd3e. Websocket clients connected to /ws/<channel> receive every\n" +
			"roll made for that channel and may roll themselves.\n\n" +
			"With --watch, edits to the config file change max_length, verbosity\n" +
			"and ignore without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			srv := server.New(svc, cfg.Server.AllowedOrigins)
			srv.SetIgnore(cfg.Ignore)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watch {
				path, err := configPath(flagConfig)
				if err != nil {
					return err
				}
				go func() {
					err := watchConfig(ctx, path, func() {
						reloadServer(srv, path, &flags, cmd.Flags())
					})
					if err != nil {
						log.Printf("config watch stopped: %v", err)
					}
				}()
			}
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config, else :8080)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the config file when it changes")
	return cmd
}

// reloadServer rereads the config and pushes the settings that can change
// at runtime. A broken file keeps the previous settings.
func reloadServer(srv *server.Server, path string, flags *outputFlags, fs *flag.FlagSet) {
	cfg, err := loadConfig(path)
	if err != nil {
		log.Printf("config reload: %v", err)
		return
	}
	flags.apply(fs, &cfg)
	tier, err := cfg.MaxTier()
	if err != nil {
		log.Printf("config reload: %v", err)
		return
	}
	srv.SetBudget(cfg.Budget())
	srv.SetMaxTier(tier)
	srv.SetIgnore(cfg.Ignore)
	log.Printf("config reloaded from %s", path)
}

// watchConfig calls onChange whenever the file at path is written, created
// or renamed into place, until ctx is done. The directory is watched so
// that editors which replace the file are followed.
func watchConfig(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	name := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("config watch: %v", err)
		}
	}
}
