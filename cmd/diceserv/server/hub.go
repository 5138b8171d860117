package server

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"go-dice/cmd/diceserv/games"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// Message is what subscribers of a channel receive.
type Message struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Mode    string   `json:"mode,omitempty"`
	Nick    string   `json:"nick,omitempty"`
	Lines   []string `json:"lines,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan Message
}

// Hub tracks websocket subscribers per channel. Channel names are case
// insensitive and the leading '#' is optional.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[*subscriber]struct{}{}}
}

// ChannelKey is the canonical form of a channel name.
func ChannelKey(channel string) string {
	return "#" + strings.ToLower(strings.TrimPrefix(channel, "#"))
}

func (h *Hub) subscribe(channel string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	key := ChannelKey(channel)
	sub := &subscriber{conn: conn, send: make(chan Message, sendBuffer)}
	sub.send <- Message{Type: "subscribed", Channel: key}
	if h.subs[key] == nil {
		h.subs[key] = map[*subscriber]struct{}{}
	}
	h.subs[key][sub] = struct{}{}
	return sub, true
}

func (h *Hub) unsubscribe(channel string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := ChannelKey(channel)
	if _, ok := h.subs[key][sub]; !ok {
		return
	}
	delete(h.subs[key], sub)
	if len(h.subs[key]) == 0 {
		delete(h.subs, key)
	}
	close(sub.send)
}

// Broadcast queues m for every subscriber of channel and returns how many
// it reached. Subscribers whose queue is full miss the message.
func (h *Hub) Broadcast(channel string, m Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for sub := range h.subs[ChannelKey(channel)] {
		select {
		case sub.send <- m:
			n++
		default:
			log.Printf("ws: dropping message for slow subscriber on %s", channel)
		}
	}
	return n
}

// Count returns the number of subscribers across all channels.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for key, subs := range h.subs {
		for sub := range subs {
			close(sub.send)
		}
		delete(h.subs, key)
	}
}

func (sub *subscriber) writeLoop() {
	defer sub.conn.Close()
	for m := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(m); err != nil {
			log.Printf("ws: write error: %v", err)
			return
		}
	}
	_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// clientIn is a roll sent by a subscriber. The reply goes to everyone on
// the subscriber's channel.
type clientIn struct {
	Mode string `json:"mode"`
	games.Input
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	channel := ChannelKey(mux.Vars(r)["channel"])
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	sub, ok := s.hub.subscribe(channel, conn)
	if !ok {
		_ = conn.Close()
		return
	}
	log.Printf("ws: connect channel=%s from=%s", channel, r.RemoteAddr)
	go sub.writeLoop()

	defer func() {
		s.hub.unsubscribe(channel, sub)
		log.Printf("ws: closed channel=%s from=%s", channel, r.RemoteAddr)
	}()
	for {
		var in clientIn
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: read error channel=%s: %v", channel, err)
			}
			return
		}
		in.Channel = channel
		if _, err := s.dispatch(in.Mode, in.Input); err != nil {
			s.hub.Broadcast(channel, Message{Type: "error", Channel: channel, Mode: in.Mode, Lines: []string{err.Error()}})
		}
	}
}
