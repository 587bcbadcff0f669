package web

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
)

func dialSession(t *testing.T, baseURL, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?session=" + id
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func isState(msg Message) bool {
	return msg.Event == EventState && msg.State != nil
}

func TestWebSocketSendsInitialState(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{Variant: "merge5_instant", Seed: 4})

	conn := dialSession(t, ts.URL, created.Session.ID)
	msg := readUntil(t, conn, isState)
	assert.Equal(t, created.Session.ID, msg.SessionID)
	assert.True(t, created.State.Grid.Equal(msg.State.Grid))
}

func TestWebSocketMove(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{Variant: "merge5_instant", Seed: 4})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	dir := movingDirection(t, created.State.Grid)
	slid := merge5.Slide(created.State.Grid, dir).Grid
	require.NoError(t, conn.WriteJSON(Command{Action: "move", Direction: dir.String()}))

	msg := readUntil(t, conn, func(m Message) bool {
		return isState(m) && m.State.Moves == 1 && len(m.State.Grid.EmptyCells()) == len(slid.EmptyCells())-1
	})
	assert.Equal(t, merge5.PhaseIdle, msg.State.Phase)
}

func TestWebSocketDeferredSpawn(t *testing.T) {
	rules := merge5.DefaultRules()
	rules.SpawnDelay = 20 * time.Millisecond
	_, ts := newTestServer(t, Options{}, session.WithRules(rules))
	created := createSession(t, ts.URL, CreateRequest{Seed: 8})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	dir := movingDirection(t, created.State.Grid)
	require.NoError(t, conn.WriteJSON(Command{Action: "move", Direction: dir.String()}))

	pending := readUntil(t, conn, func(m Message) bool {
		return isState(m) && m.State.Phase == merge5.PhaseAwaitingSpawn
	})
	assert.Equal(t, 1, pending.State.Moves)
	assert.True(t, merge5.Slide(created.State.Grid, dir).Grid.Equal(pending.State.Grid))

	landed := readUntil(t, conn, func(m Message) bool {
		return isState(m) && m.State.Phase == merge5.PhaseIdle
	})
	assert.Len(t, landed.State.Grid.EmptyCells(), len(pending.State.Grid.EmptyCells())-1)
}

func TestWebSocketReset(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{Variant: "merge5_instant", Seed: 6})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	dir := movingDirection(t, created.State.Grid)
	require.NoError(t, conn.WriteJSON(Command{Action: "move", Direction: dir.String()}))
	readUntil(t, conn, func(m Message) bool { return isState(m) && m.State.Moves == 1 })

	require.NoError(t, conn.WriteJSON(Command{Action: "reset"}))
	msg := readUntil(t, conn, func(m Message) bool { return isState(m) && m.State.Moves == 0 })
	assert.Zero(t, msg.State.Score)
}

func TestWebSocketStateRequest(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{Seed: 1})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	require.NoError(t, conn.WriteJSON(Command{Action: "state"}))
	msg := readUntil(t, conn, isState)
	assert.True(t, created.State.Grid.Equal(msg.State.Grid))
}

func TestWebSocketCommandErrors(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	isError := func(m Message) bool { return m.Event == EventError }

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "malformed command", readUntil(t, conn, isError).Error)

	require.NoError(t, conn.WriteJSON(Command{Action: "move", Direction: "sideways"}))
	assert.Contains(t, readUntil(t, conn, isError).Error, "sideways")

	require.NoError(t, conn.WriteJSON(Command{Action: "jump"}))
	assert.Contains(t, readUntil(t, conn, isError).Error, "jump")
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	base := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws?session=missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{Variant: "merge5_instant", Seed: 11})
	id := created.Session.ID

	a := dialSession(t, ts.URL, id)
	b := dialSession(t, ts.URL, id)
	readUntil(t, a, isState)
	readUntil(t, b, isState)
	assert.Eventually(t, func() bool { return s.Hub().Clients(id) == 2 }, time.Second, 10*time.Millisecond)

	dir := movingDirection(t, created.State.Grid)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/move",
		MoveRequest{Direction: dir.String()}, nil))

	moved := func(m Message) bool { return isState(m) && m.State.Moves == 1 }
	readUntil(t, a, moved)
	readUntil(t, b, moved)
}

func TestHubDropsClosedClients(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{})
	id := created.Session.ID

	conn := dialSession(t, ts.URL, id)
	readUntil(t, conn, isState)
	assert.Eventually(t, func() bool { return s.Hub().Clients(id) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Hub().Clients(id) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteNotifiesClients(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	created := createSession(t, ts.URL, CreateRequest{})
	conn := dialSession(t, ts.URL, created.Session.ID)
	readUntil(t, conn, isState)

	require.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, ts.URL+"/api/sessions/"+created.Session.ID, nil, nil))
	msg := readUntil(t, conn, func(m Message) bool { return m.Event == EventClosed })
	assert.Equal(t, created.Session.ID, msg.SessionID)
}
