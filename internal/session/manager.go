// Package session keeps headless merge5 games for the remote frontends.
// The manager map is guarded by an RWMutex and every session by its own
// mutex, so moves on different sessions never contend.
package session

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/storage"
)

var (
	// ErrNotFound is returned for unknown session IDs.
	ErrNotFound = errors.New("session: not found")
	// ErrExists is returned when creating a session with a taken ID.
	ErrExists = errors.New("session: already exists")
	// ErrUnknownVariant is returned for variant IDs that are not registered.
	ErrUnknownVariant = errors.New("session: unknown variant")
)

// ScoreSaver persists results of sessions that end with a positive score.
type ScoreSaver interface {
	SaveScore(rec storage.ScoreRecord) (int64, error)
}

// Event is published after every settled move and every spawn.
type Event struct {
	SessionID string
	Snapshot  merge5.Snapshot
}

// Info describes a session for listings.
type Info struct {
	ID        string    `json:"id"`
	Variant   string    `json:"variant"`
	Player    string    `json:"player,omitempty"`
	Score     int       `json:"score"`
	MaxTile   int       `json:"max_tile"`
	Moves     int       `json:"moves"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MoveResult is the outcome of a move on a session.
type MoveResult struct {
	Changed  bool            `json:"changed"`
	Gained   int             `json:"gained"`
	Snapshot merge5.Snapshot `json:"state"`
}

// CreateOptions configures a new session. Zero values pick defaults:
// a generated ID, the merge5 variant and a time-based seed.
type CreateOptions struct {
	ID      string
	Variant string
	Player  string
	Seed    int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithRules sets the base rules variants derive from.
func WithRules(r merge5.Rules) Option {
	return func(m *Manager) { m.base = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithScoreSaver records finished sessions.
func WithScoreSaver(s ScoreSaver) Option {
	return func(m *Manager) { m.saver = s }
}

// Manager owns the sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	subMu  sync.RWMutex
	subs   map[int]func(Event)
	nextID int

	base   merge5.Rules
	saver  ScoreSaver
	logger *log.Logger
	now    func() time.Time
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		subs:     make(map[int]func(Event)),
		base:     merge5.BaseRules(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

// Create starts a new session.
func (m *Manager) Create(opts CreateOptions) (Info, error) {
	if opts.Variant == "" {
		opts.Variant = merge5.Variants[0].ID
	}
	v, ok := merge5.VariantByID(opts.Variant)
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownVariant, opts.Variant)
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	now := m.now()
	s := &session{
		id:      opts.ID,
		variant: v,
		player:  opts.Player,
		created: now,
		updated: now,
		rules:   v.RulesFor(m.base),
		manager: m,
	}
	s.engine = merge5.NewEngine(s.rules, rand.New(rand.NewSource(opts.Seed)))
	s.engine.SetObserver(merge5.ObserverFunc(s.observe))

	m.mu.Lock()
	if _, exists := m.sessions[opts.ID]; exists {
		m.mu.Unlock()
		return Info{}, fmt.Errorf("%w: %q", ErrExists, opts.ID)
	}
	m.sessions[opts.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "id", opts.ID, "variant", v.ID, "player", opts.Player)
	return s.info(), nil
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (merge5.Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return merge5.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Info returns the listing entry of a session.
func (m *Manager) Info(id string) (Info, error) {
	s, err := m.get(id)
	if err != nil {
		return Info{}, err
	}
	return s.info(), nil
}

// Move applies a move. With a spawn delay the new tile lands later and is
// reported through Subscribe.
func (m *Manager) Move(id string, dir merge5.Direction) (MoveResult, error) {
	s, err := m.get(id)
	if err != nil {
		return MoveResult{}, err
	}
	return s.move(dir)
}

// Reset restarts a session, saving the finished game first.
func (m *Manager) Reset(id string) (merge5.Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return merge5.Snapshot{}, err
	}
	return s.reset()
}

// Delete ends a session, saving its score.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.close()
	m.logger.Debug("session deleted", "id", id)
	return nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.info()
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune deletes sessions idle for longer than maxIdle and returns how many.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var stale []string
	for _, info := range m.List() {
		if info.UpdatedAt.Before(cutoff) {
			stale = append(stale, info.ID)
		}
	}
	n := 0
	for _, id := range stale {
		if m.Delete(id) == nil {
			n++
		}
	}
	return n
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// Subscribe registers fn for every Event and returns a function removing it.
// fn runs with the session locked and must not call back into the manager.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) publish(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, fn := range m.subs {
		fn(ev)
	}
}

func (m *Manager) saveScore(rec storage.ScoreRecord) {
	if m.saver == nil || rec.Score <= 0 {
		return
	}
	if _, err := m.saver.SaveScore(rec); err != nil {
		m.logger.Warn("could not save score", "game", rec.GameID, "error", err)
	}
}
