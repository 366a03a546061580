// Package session provides the in-memory bounded conversation store.
package session

import (
	"sync"
	"time"

	"github.com/leiyu1203/chatgate/domain"
)

// Session id length bounds. Ids outside these bounds degrade to an
// anonymous session that is never held by the store.
const (
	MinSessionIDLen = 8
	MaxSessionIDLen = 64
)

// ValidSessionID reports whether id may be persisted.
func ValidSessionID(id string) bool {
	return len(id) >= MinSessionIDLen && len(id) <= MaxSessionIDLen
}

// Store maps session ids to bounded conversation histories with
// recency-based expiry. Sessions do not survive a process restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	maxTurns int
	ttl      time.Duration
}

// NewStore creates an empty session store.
func NewStore(maxTurns int, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
		maxTurns: maxTurns,
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, creating it lazily. An invalid
// id yields an ephemeral anonymous session that never enters the store.
// UpdatedAt is refreshed on every call.
func (s *Store) GetOrCreate(id string) *domain.Session {
	if !ValidSessionID(id) {
		return &domain.Session{UpdatedAt: time.Now()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &domain.Session{ID: id}
		s.sessions[id] = sess
	}
	sess.UpdatedAt = time.Now()
	return sess
}

// Append adds a turn to the session and enforces the truncation bound:
// when the history exceeds the configured maximum, the oldest turns are
// evicted so only the most recent window remains.
func (s *Store) Append(sess *domain.Session, turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	sess.Turns = append(sess.Turns, turn)
	if s.maxTurns > 0 && len(sess.Turns) > s.maxTurns {
		trimmed := make([]domain.Turn, s.maxTurns)
		copy(trimmed, sess.Turns[len(sess.Turns)-s.maxTurns:])
		sess.Turns = trimmed
	}
	sess.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the session's turns for upstream calls, so
// concurrent appends cannot race the encoder.
func (s *Store) Snapshot(sess *domain.Session) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out
}

// Delete removes the session outright. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep removes every session idle longer than the TTL and returns the
// number removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
