// Package web serves merge5 sessions over a JSON API and streams their
// state to WebSocket clients.
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/session"
	"github.com/vovakirdan/merge5/internal/storage"
)

// ScoreLister reads the scoreboard.
type ScoreLister interface {
	TopScores(gameID string, limit int) ([]storage.ScoreRecord, error)
}

// Options configures a Server.
type Options struct {
	Address string
	// IdleTimeout prunes sessions without moves. Zero keeps them forever.
	IdleTimeout time.Duration
	// Scores enables /api/scores. May be nil.
	Scores ScoreLister
	Logger *log.Logger
}

// Server is the HTTP frontend.
type Server struct {
	manager *session.Manager
	hub     *Hub
	scores  ScoreLister
	router  *mux.Router
	logger  *log.Logger
	opts    Options
}

// CreateRequest is the body of POST /api/sessions. All fields are optional.
type CreateRequest struct {
	Variant string `json:"variant"`
	Player  string `json:"player"`
	Seed    int64  `json:"seed"`
}

// MoveRequest is the body of POST /api/sessions/{id}/move.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// SessionResponse pairs a session's listing entry with its state.
type SessionResponse struct {
	Session session.Info    `json:"session"`
	State   merge5.Snapshot `json:"state"`
}

// NewServer creates a server over manager.
func NewServer(manager *session.Manager, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Server{
		manager: manager,
		hub:     NewHub(manager, opts.Logger),
		scores:  opts.Scores,
		router:  mux.NewRouter(),
		logger:  opts.Logger,
		opts:    opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/variants", s.handleVariants).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/scores/{variant}", s.handleScores).Methods(http.MethodGet)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe runs the hub and the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	if s.opts.IdleTimeout > 0 {
		go s.pruneLoop(ctx)
	}

	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting web server", "address", s.opts.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(max(s.opts.IdleTimeout/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.manager.Prune(s.opts.IdleTimeout); n > 0 {
				s.logger.Info("pruned idle sessions", "count", n)
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.manager.Len(),
	})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	type variant struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	out := make([]variant, 0, len(merge5.Variants))
	for _, v := range merge5.Variants {
		out = append(out, variant{ID: v.ID, Title: v.Title, Description: v.Description})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.manager.Create(session.CreateOptions{
		Variant: req.Variant,
		Player:  req.Player,
		Seed:    req.Seed,
	})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	snap, err := s.manager.Get(info.ID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("session created", "id", info.ID, "variant", info.Variant, "player", info.Player)
	respondJSON(w, http.StatusCreated, SessionResponse{Session: info, State: snap})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.List()
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	info, err := s.manager.Info(id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	snap, err := s.manager.Get(id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, SessionResponse{Session: info, State: snap})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.manager.Delete(id); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.hub.Notify(Message{Event: EventClosed, SessionID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, ok := merge5.ParseDirection(req.Direction)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", req.Direction))
		return
	}
	res, err := s.manager.Move(id, dir)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := s.manager.Reset(id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"state": snap})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if s.scores == nil {
		respondError(w, http.StatusServiceUnavailable, "scoreboard disabled")
		return
	}
	variant := mux.Vars(r)["variant"]
	if _, ok := merge5.VariantByID(variant); !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown variant %q", variant))
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	scores, err := s.scores.TopScores(variant, limit)
	if err != nil {
		s.logger.Error("cannot read scores", "variant", variant, "error", err)
		respondError(w, http.StatusInternalServerError, "cannot read scores")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"variant": variant,
		"scores":  scores,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		respondError(w, http.StatusBadRequest, "session query parameter is required")
		return
	}
	if _, err := s.manager.Info(id); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.hub.ServeWS(w, r, id)
}

// decodeBody accepts an empty body as the zero value.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid request body: %w", err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrUnknownVariant):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("web: response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
