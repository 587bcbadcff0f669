// Package mcp exposes merge5 sessions as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
	"github.com/vovakirdan/merge5/internal/storage"
)

// DefaultVariant is used by new_game. Agents get the settled board in the
// move reply, so the tile spawns synchronously.
const DefaultVariant = "merge5_instant"

const instructions = `merge5 - sliding tile puzzle on a 5x5 board.

Every move slides all tiles in one direction. Two equal tiles that meet
merge into their sum, which is added to the score. A tile made by a merge
does not merge again in the same move. After every move that changes the
board a new tile (2, or 4 with 10% probability) appears on an empty cell.
There is no game over: when no direction changes the board the game just
reports that no moves are left.

TOOLS:
- new_game: start a session and get its id
- move: slide up/down/left/right
- game_state: current board and score
- reset_game: start the session over
- list_sessions: all running sessions
- high_scores: best saved results (when a scoreboard is configured)`

// ScoreLister reads the scoreboard.
type ScoreLister interface {
	TopScores(gameID string, limit int) ([]storage.ScoreRecord, error)
}

// Server wraps the MCP server and its tools.
type Server struct {
	manager   *session.Manager
	scores    ScoreLister
	logger    *log.Logger
	mcpServer *server.MCPServer
}

// NewServer registers the tools over manager. scores may be nil.
func NewServer(manager *session.Manager, scores ScoreLister, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		manager: manager,
		scores:  scores,
		logger:  logger,
	}
	s.mcpServer = server.NewMCPServer(
		"merge5",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks MCP on in/out until ctx is canceled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))
	s.logger.Info("serving MCP on stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	directions := mcp.Enum("up", "down", "left", "right")

	s.mcpServer.AddTool(mcp.NewTool("new_game",
		mcp.WithDescription("Start a new game session"),
		mcp.WithString("variant", mcp.Description("Variant id (merge5 or merge5_instant)"), mcp.DefaultString(DefaultVariant)),
		mcp.WithString("player", mcp.Description("Name recorded with the score")),
		mcp.WithNumber("seed", mcp.Description("Random seed for a reproducible game")),
	), s.handleNewGame)

	s.mcpServer.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Slide all tiles in a direction"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("direction", mcp.Required(), directions, mcp.Description("Direction to slide")),
	), s.handleMove)

	s.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the board and score of a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGameState)

	s.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Restart a session with a fresh board"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all running sessions"),
	), s.handleListSessions)

	if s.scores != nil {
		s.mcpServer.AddTool(mcp.NewTool("high_scores",
			mcp.WithDescription("Best saved results of a variant"),
			mcp.WithString("variant", mcp.Description("Variant id"), mcp.DefaultString(merge5.Variants[0].ID)),
			mcp.WithNumber("limit", mcp.Description("Number of entries"), mcp.DefaultNumber(10)),
		), s.handleHighScores)
	}
}

func (s *Server) handleNewGame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.manager.Create(session.CreateOptions{
		Variant: req.GetString("variant", DefaultVariant),
		Player:  req.GetString("player", ""),
		Seed:    int64(req.GetFloat("seed", 0)),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.manager.Get(info.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("session created", "id", info.ID, "variant", info.Variant)
	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nVariant: %s\n\n%s", info.ID, info.Variant, FormatState(snap))), nil
}

func (s *Server) handleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, ok := merge5.ParseDirection(name)
	if !ok {
		return mcp.NewToolResultErrorf("unknown direction %q, use up, down, left or right", name), nil
	}
	res, err := s.manager.Move(id, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(FormatMove(dir, res)), nil
}

func (s *Server) handleGameState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.manager.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(FormatState(snap)), nil
}

func (s *Server) handleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.manager.Reset(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game reset.\n\n" + FormatState(snap)), nil
}

func (s *Server) handleListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := s.manager.List()
	if len(infos) == 0 {
		return mcp.NewToolResultText("No active sessions."), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions (%d):\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&sb, "- %s [%s] score=%d max_tile=%d moves=%d\n",
			info.ID, info.Variant, info.Score, info.MaxTile, info.Moves)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleHighScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	variant := req.GetString("variant", merge5.Variants[0].ID)
	if _, ok := merge5.VariantByID(variant); !ok {
		return mcp.NewToolResultErrorf("unknown variant %q", variant), nil
	}
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	records, err := s.scores.TopScores(variant, limit)
	if err != nil {
		s.logger.Error("cannot read scores", "variant", variant, "error", err)
		return mcp.NewToolResultErrorFromErr("cannot read scores", err), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No scores yet for %s.", variant)), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "High scores for %s:\n", variant)
	for i, r := range records {
		player := r.Player
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(&sb, "%2d. %6d  tile %-5d moves %-5d %s\n", i+1, r.Score, r.MaxTile, r.Moves, player)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
