package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/render"
)

type maxRand struct{}

func (maxRand) Range(_, max int) int { return max }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(games.New(maxRand{}, render.Budget{}), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

type replyBody struct {
	Output  string    `json:"output"`
	Results []float64 `json:"results"`
	Notices []string  `json:"notices"`
	Error   []string  `json:"error"`
}

func post(t *testing.T, url string, body any) (*http.Response, replyBody) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out replyBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRollEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := post(t, ts.URL+"/api/exroll", games.Input{Expression: "2d6+1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<Exroll [2d6+1]: {2d6=(6 6)} 13>", body.Output)
	assert.Equal(t, []float64{13}, body.Results)
	assert.Empty(t, body.Error)

	_, body = post(t, ts.URL+"/api/dnd3e", games.Input{})
	assert.Contains(t, body.Output, "<D&D 3e Character roll [6~4d6]: {4d6=(")
}

func TestRollEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := post(t, ts.URL+"/api/calc", games.Input{Expression: "1/0"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"Division by 0 in following expression:", " 1/0"}, body.Error)
	assert.Empty(t, body.Output)

	resp, err := http.Post(ts.URL+"/api/roll", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/shout", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/roll")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRunUnknownMode(t *testing.T) {
	s := New(games.New(maxRand{}, render.Budget{}), nil)
	_, err := s.Run("shout", games.Input{Expression: "1"})
	assert.ErrorIs(t, err, ErrUnknownMode)

	reply, err := s.Run("DnD3e", games.Input{})
	require.NoError(t, err)
	assert.Equal(t, []float64{18, 18, 18, 18, 18, 18}, reply.Results)
}

func TestSetBudget(t *testing.T) {
	s, ts := newTestServer(t)
	s.SetBudget(render.Budget{MaxLength: 40})

	resp, body := post(t, ts.URL+"/api/roll", games.Input{Expression: "3d6", Nick: "bob", Comment: strings.Repeat("x", 30)})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, body.Error, 1)
}

func TestFunctionsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/functions?q=sqr")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Functions []struct {
			Name string `json:"name"`
		} `json:"functions"`
		Constants map[string]float64 `json:"constants"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Functions)
	for _, f := range body.Functions {
		assert.Contains(t, f.Name, "s")
	}
	assert.InDelta(t, 3.14159, body.Constants["pi"], 1e-5)
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.NotZero(t, st.Pid)
	assert.Positive(t, st.Goroutines)
	assert.Zero(t, st.Subscribers)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/roll", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dialChannel(t *testing.T, ts *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "subscribed", hello.Type)
	return conn
}

func TestChannelBroadcast(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialChannel(t, ts, "DnD")
	assert.Equal(t, 1, s.Hub().Count())

	_, body := post(t, ts.URL+"/api/roll", games.Input{Expression: "1d20", Channel: "#dnd", Nick: "alice", Comment: "init"})
	assert.Equal(t, "<Roll for alice [1d20]: 20> init", body.Output)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, Message{Type: "roll", Channel: "#dnd", Mode: "roll", Nick: "alice", Lines: []string{body.Output}}, m)
}

func TestChannelRollFromSubscriber(t *testing.T) {
	_, ts := newTestServer(t)
	sender := dialChannel(t, ts, "ed")
	listener := dialChannel(t, ts, "ed")

	require.NoError(t, sender.WriteJSON(map[string]string{"mode": "calc", "expression": "7/2", "nick": "kim"}))

	for _, conn := range []*websocket.Conn{sender, listener} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		assert.Equal(t, []string{"<Calc for kim [7/2]: 3.5>"}, m.Lines)
		assert.Equal(t, "#ed", m.Channel)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"dice.example.org"})
	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://dice.example.org")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}

func TestHubClose(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialChannel(t, ts, "x")
	s.Hub().Close()
	assert.Zero(t, s.Hub().Count())
	assert.Zero(t, s.Hub().Broadcast("#x", Message{Type: "roll"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestListenAndServeStops(t *testing.T) {
	s := New(games.New(maxRand{}, render.Budget{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestIgnoreList(t *testing.T) {
	var l IgnoreList
	l.Set([]string{"#Spam*", "troll", " ", "bot?"})

	assert.True(t, l.Ignored(games.Input{Channel: "#spamfest"}))
	assert.True(t, l.Ignored(games.Input{Channel: "#ok", Nick: "TROLL"}))
	assert.True(t, l.Ignored(games.Input{Nick: "bot1"}))
	assert.False(t, l.Ignored(games.Input{Nick: "bot12"}))
	assert.False(t, l.Ignored(games.Input{Nick: "#spam"}), "channel masks only match channels")
	assert.False(t, l.Ignored(games.Input{Channel: "#dnd", Nick: "alice"}))

	assert.Equal(t, []string{"#spam*", "troll", "bot?"}, l.List(""))
	assert.Equal(t, []string{"#spam*"}, l.List("#*"))
}

func TestIgnoredRequests(t *testing.T) {
	s, ts := newTestServer(t)
	s.SetIgnore([]string{"#quiet"})

	resp, err := http.Post(ts.URL+"/api/roll", "application/json", strings.NewReader(`{"expression":"1d6","channel":"#QUIET"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/ignore?status=%23quiet")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Ignored bool `json:"ignored"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Ignored)
}
