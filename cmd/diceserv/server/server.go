// Package server exposes the roll commands over HTTP and streams channel
// rolls to websocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"go-dice/cmd/diceserv/expr"
	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/render"
)

// Modes lists every command name the API accepts.
var Modes = []string{"roll", "exroll", "calc", "excalc", "earthdawn", "dnd3e"}

var ErrUnknownMode = errors.New("unknown mode")

type Server struct {
	mu  sync.RWMutex
	svc games.Service

	hub      *Hub
	ignore   IgnoreList
	upgrader websocket.Upgrader
	started  time.Time
}

// New serves svc. An empty allowedOrigins accepts websocket upgrades from
// any origin.
func New(svc *games.Service, allowedOrigins []string) *Server {
	s := &Server{svc: *svc, hub: NewHub(), started: time.Now()}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host) {
				return true
			}
		}
		return false
	}
}

// SetBudget replaces the reply length budget for later requests.
func (s *Server) SetBudget(b render.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc.Budget = b
}

// SetMaxTier caps how much of the trace later replies show.
func (s *Server) SetMaxTier(t render.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc.MaxTier = t
}

// SetIgnore replaces the ignored channel and nick masks.
func (s *Server) SetIgnore(masks []string) { s.ignore.Set(masks) }

func (s *Server) service() games.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.svc
}

// Hub returns the channel subscriber registry.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/functions", s.handleFunctions).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/ignore", s.handleIgnore).Methods(http.MethodGet)
	api.HandleFunc("/{mode:"+strings.Join(Modes, "|")+"}", s.handleRoll).Methods(http.MethodPost)
	r.HandleFunc("/ws/{channel}", s.handleWS).Methods(http.MethodGet)
	return withCORS(r)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("diceserv listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Printf("diceserv stopped")
	return nil
}

// Run executes one command by name.
func (s *Server) Run(mode string, in games.Input) (games.Reply, error) {
	svc := s.service()
	switch strings.ToLower(mode) {
	case "earthdawn":
		return svc.Earthdawn(in), nil
	case "dnd3e":
		return svc.DnD3e(in), nil
	}
	m, err := render.ParseMode(mode)
	if err != nil {
		return games.Reply{}, ErrUnknownMode
	}
	return svc.Roll(m, in), nil
}

func (s *Server) dispatch(mode string, in games.Input) (games.Reply, error) {
	if s.ignore.Ignored(in) {
		log.Printf("roll: ignoring mode=%s channel=%q nick=%q", mode, in.Channel, in.Nick)
		return games.Reply{}, ErrIgnored
	}
	reply, err := s.Run(mode, in)
	if err != nil {
		return reply, err
	}
	if reply.Err != nil {
		log.Printf("roll: mode=%s expr=%q channel=%q error=%v", mode, in.Expression, in.Channel, reply.Err)
	} else {
		log.Printf("roll: mode=%s expr=%q channel=%q results=%v", mode, in.Expression, in.Channel, reply.Results)
	}
	if in.Channel != "" {
		n := s.hub.Broadcast(in.Channel, Message{
			Type:    "roll",
			Channel: in.Channel,
			Mode:    mode,
			Nick:    in.Nick,
			Lines:   reply.Lines(),
		})
		if n > 0 {
			log.Printf("ws: broadcast to %s reached %d subscriber(s)", in.Channel, n)
		}
	}
	return reply, nil
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	mode := mux.Vars(r)["mode"]
	var in games.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	reply, err := s.dispatch(mode, in)
	switch {
	case errors.Is(err, ErrIgnored):
		writeError(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	status := http.StatusOK
	if reply.Err != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, reply)
}

func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	fns := expr.Functions()
	if q := r.URL.Query().Get("q"); q != "" {
		matched := fns[:0]
		for _, f := range fns {
			if fuzzy.MatchFold(q, f.Name) {
				matched = append(matched, f)
			}
		}
		fns = matched
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"functions": fns,
		"constants": expr.Constants(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
