package server

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"sync"

	"go-dice/cmd/diceserv/games"
)

var ErrIgnored = errors.New("channel or nick is ignored")

// IgnoreList holds the channel and nick masks that get no replies. Masks
// take '*' and '?' wildcards and match case-insensitively; a mask starting
// with '#' only matches channels.
type IgnoreList struct {
	mu    sync.RWMutex
	masks []string
}

func (l *IgnoreList) Set(masks []string) {
	clean := make([]string, 0, len(masks))
	for _, m := range masks {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			clean = append(clean, m)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.masks = clean
}

func (l *IgnoreList) match(name string, channel bool) bool {
	if name == "" {
		return false
	}
	name = strings.ToLower(name)
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.masks {
		if strings.HasPrefix(m, "#") != channel {
			continue
		}
		if ok, _ := path.Match(m, name); ok {
			return true
		}
	}
	return false
}

// Ignored reports whether a request's channel or nick is on the list.
func (l *IgnoreList) Ignored(in games.Input) bool {
	return l.match(in.Channel, true) || l.match(in.Nick, false)
}

// List returns the masks that themselves match filter, or all masks when
// filter is empty.
func (l *IgnoreList) List(filter string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []string{}
	for _, m := range l.masks {
		if filter == "" {
			out = append(out, m)
			continue
		}
		if ok, _ := path.Match(strings.ToLower(filter), m); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if name := q.Get("status"); name != "" {
		in := games.Input{Nick: name}
		if strings.HasPrefix(name, "#") {
			in = games.Input{Channel: name}
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "ignored": s.ignore.Ignored(in)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"masks": s.ignore.List(q.Get("mask"))})
}
