package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/merge5/internal/games/merge5"
	"github.com/vovakirdan/merge5/internal/storage"
)

type session struct {
	mu sync.Mutex

	id      string
	variant merge5.Variant
	player  string
	rules   merge5.Rules
	engine  *merge5.Engine
	created time.Time
	updated time.Time

	// spawnTimer places the deferred tile; nil while idle. spawnGen
	// invalidates a timer that fired while a move held the lock.
	spawnTimer *time.Timer
	spawnGen   int
	closed     bool

	manager *Manager
}

// observe forwards engine callbacks. Called with s.mu held.
func (s *session) observe(snap merge5.Snapshot) {
	snap.Variant = s.variant.ID
	s.manager.publish(Event{SessionID: s.id, Snapshot: snap})
}

func (s *session) snapshot() merge5.Snapshot {
	snap := s.engine.Snapshot()
	snap.Variant = s.variant.ID
	return snap
}

func (s *session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.id,
		Variant:   s.variant.ID,
		Player:    s.player,
		Score:     s.engine.Score(),
		MaxTile:   s.engine.Grid().MaxTile(),
		Moves:     s.engine.Moves(),
		CreatedAt: s.created,
		UpdatedAt: s.updated,
	}
}

// move fails with ErrNotFound once the session is closed; its score has
// already been saved.
func (s *session) move(dir merge5.Direction) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrNotFound, s.id)
	}

	// The engine places a pending tile itself before moving.
	s.stopTimer()
	res := s.engine.Move(dir)
	s.updated = s.manager.now()

	if s.engine.Phase() == merge5.PhaseAwaitingSpawn && !s.closed {
		gen := s.spawnGen
		s.spawnTimer = time.AfterFunc(s.rules.SpawnDelay, func() { s.completeSpawn(gen) })
	}
	return MoveResult{
		Changed:  res.Changed,
		Gained:   res.Gained,
		Snapshot: s.snapshot(),
	}, nil
}

func (s *session) completeSpawn(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.spawnGen {
		return
	}
	s.spawnTimer = nil
	s.engine.CompleteSpawn()
}

func (s *session) reset() (merge5.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return merge5.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, s.id)
	}

	s.stopTimer()
	s.manager.saveScore(s.record())
	s.engine.Restart()
	s.updated = s.manager.now()
	return s.snapshot(), nil
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimer()
	s.manager.saveScore(s.record())
}

func (s *session) stopTimer() {
	s.spawnGen++
	if s.spawnTimer != nil {
		s.spawnTimer.Stop()
		s.spawnTimer = nil
	}
}

func (s *session) record() storage.ScoreRecord {
	return storage.ScoreRecord{
		GameID:  s.variant.ID,
		Player:  s.player,
		Score:   s.engine.Score(),
		MaxTile: s.engine.Grid().MaxTile(),
		Moves:   s.engine.Moves(),
	}
}
