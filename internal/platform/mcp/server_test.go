package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
	"github.com/vovakirdan/merge5/internal/storage"
)

type fakeScores struct {
	records []storage.ScoreRecord
	err     error
}

func (f *fakeScores) TopScores(gameID string, limit int) ([]storage.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func newTestServer(t *testing.T, scores ScoreLister) (*Server, *session.Manager) {
	t.Helper()
	m := session.NewManager()
	t.Cleanup(m.Close)
	return NewServer(m, scores, nil, "test"), m
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

var sessionIDPattern = regexp.MustCompile(`Created session: (\S+)`)

func newGame(t *testing.T, s *Server, args map[string]any) string {
	t.Helper()
	res, err := s.handleNewGame(context.Background(), call("new_game", args))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	m := sessionIDPattern.FindStringSubmatch(resultText(t, res))
	require.Len(t, m, 2)
	return m[1]
}

func movingDirection(t *testing.T, g merge5.Grid) merge5.Direction {
	t.Helper()
	for _, d := range merge5.Directions {
		if merge5.Slide(g, d).Changed {
			return d
		}
	}
	t.Fatal("no direction changes the board")
	return 0
}

func TestNewGameDefaults(t *testing.T) {
	s, m := newTestServer(t, nil)

	id := newGame(t, s, map[string]any{"player": "agent", "seed": float64(42)})
	info, err := m.Info(id)
	require.NoError(t, err)
	assert.Equal(t, DefaultVariant, info.Variant)
	assert.Equal(t, "agent", info.Player)
}

func TestNewGameUnknownVariant(t *testing.T) {
	s, _ := newTestServer(t, nil)

	res, err := s.handleNewGame(context.Background(), call("new_game", map[string]any{"variant": "tetris"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "unknown variant")
}

func TestMoveAndState(t *testing.T) {
	s, m := newTestServer(t, nil)
	id := newGame(t, s, map[string]any{"seed": float64(7)})

	before, err := m.Get(id)
	require.NoError(t, err)
	dir := movingDirection(t, before.Grid)

	res, err := s.handleMove(context.Background(), call("move", map[string]any{
		"session_id": id,
		"direction":  dir.String(),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Moved "+dir.String())
	assert.Contains(t, resultText(t, res), "Moves: 1")

	res, err = s.handleGameState(context.Background(), call("game_state", map[string]any{"session_id": id}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	after, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, FormatState(after), resultText(t, res))
	assert.Equal(t, 1, after.Moves)
}

func TestMoveErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	id := newGame(t, s, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing session", map[string]any{"direction": "left"}, "session_id"},
		{"missing direction", map[string]any{"session_id": id}, "direction"},
		{"bad direction", map[string]any{"session_id": id, "direction": "sideways"}, "sideways"},
		{"unknown session", map[string]any{"session_id": "nope", "direction": "left"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleMove(ctx, call("move", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestResetGame(t *testing.T) {
	s, m := newTestServer(t, nil)
	id := newGame(t, s, map[string]any{"seed": float64(3)})

	snap, err := m.Get(id)
	require.NoError(t, err)
	_, err = m.Move(id, movingDirection(t, snap.Grid))
	require.NoError(t, err)

	res, err := s.handleReset(context.Background(), call("reset_game", map[string]any{"session_id": id}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Game reset.")

	snap, err = m.Get(id)
	require.NoError(t, err)
	assert.Zero(t, snap.Moves)
}

func TestListSessions(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleListSessions(ctx, call("list_sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, "No active sessions.", resultText(t, res))

	a := newGame(t, s, nil)
	b := newGame(t, s, map[string]any{"variant": "merge5"})

	res, err = s.handleListSessions(ctx, call("list_sessions", nil))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Active sessions (2)")
	assert.Contains(t, text, a)
	assert.Contains(t, text, b+" [merge5]")
}

func TestHighScores(t *testing.T) {
	scores := &fakeScores{records: []storage.ScoreRecord{
		{GameID: "merge5", Player: "ann", Score: 900, MaxTile: 128, Moves: 120},
		{GameID: "merge5", Score: 400, MaxTile: 64, Moves: 70},
	}}
	s, _ := newTestServer(t, scores)
	ctx := context.Background()

	res, err := s.handleHighScores(ctx, call("high_scores", map[string]any{"limit": float64(1)}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "High scores for merge5")
	assert.Contains(t, text, "900")
	assert.Contains(t, text, "ann")
	assert.NotContains(t, text, "400")

	res, err = s.handleHighScores(ctx, call("high_scores", map[string]any{"variant": "tetris"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleHighScores(ctx, call("high_scores", map[string]any{"limit": float64(0)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	scores.err = errors.New("disk gone")
	res, err = s.handleHighScores(ctx, call("high_scores", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHighScoresEmpty(t *testing.T) {
	s, _ := newTestServer(t, &fakeScores{})

	res, err := s.handleHighScores(context.Background(), call("high_scores", map[string]any{"variant": "merge5_instant"}))
	require.NoError(t, err)
	assert.Equal(t, "No scores yet for merge5_instant.", resultText(t, res))
}

func TestFormatState(t *testing.T) {
	snap := merge5.Snapshot{
		Size:    2,
		Grid:    merge5.Grid{{2, 0}, {0, 4}},
		Score:   12,
		Moves:   3,
		MaxTile: 4,
	}
	want := "Score: 12  Moves: 3  Max tile: 4\n\n" +
		"    2     .\n" +
		"    .     4\n"
	assert.Equal(t, want, FormatState(snap))

	snap.Locked = true
	snap.Phase = merge5.PhaseAwaitingSpawn
	text := FormatState(snap)
	assert.Contains(t, text, "A new tile is about to appear.")
	assert.True(t, strings.HasSuffix(text, "No moves left.\n"))
}

func TestFormatMove(t *testing.T) {
	snap := merge5.Snapshot{Grid: merge5.Grid{{4, 0}, {0, 0}}}

	assert.True(t, strings.HasPrefix(FormatMove(merge5.DirLeft, session.MoveResult{Changed: true, Gained: 4, Snapshot: snap}), "Moved left: +4 points."))
	assert.True(t, strings.HasPrefix(FormatMove(merge5.DirUp, session.MoveResult{Changed: true, Snapshot: snap}), "Moved up."))
	assert.True(t, strings.HasPrefix(FormatMove(merge5.DirRight, session.MoveResult{Snapshot: snap}), "Moved right: nothing changed."))
}

// rpcMessage is a JSON-RPC frame as written by the stdio transport.
type rpcMessage struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
}

func TestServeStdio(t *testing.T) {
	s, _ := newTestServer(t, nil)

	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}
	inR, inW := io.Pipe()
	var out syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, inR, &out) }()

	for _, r := range requests {
		_, err := io.WriteString(inW, r+"\n")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") >= 2
	}, 2*time.Second, 10*time.Millisecond)

	var toolsList *rpcMessage
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var msg rpcMessage
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		if msg.ID == 2 {
			toolsList = &msg
		}
	}
	require.NotNil(t, toolsList)
	for _, name := range []string{"new_game", "move", "game_state", "reset_game", "list_sessions"} {
		assert.Contains(t, string(toolsList.Result), `"`+name+`"`)
	}
	assert.NotContains(t, string(toolsList.Result), `"high_scores"`)

	cancel()
	inW.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
