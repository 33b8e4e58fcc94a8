package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultSessionTTL is how long an untouched session is kept before eviction.
const DefaultSessionTTL = 2 * time.Hour

// Manager tracks the sessions of all connected pages, keyed by session ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

// Create registers a new session with a fresh ID.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()

	s := &Session{
		id:       uuid.NewString(),
		status:   StatusIdle,
		lastSeen: m.now(),
	}
	m.sessions[s.id] = s
	log.Debug().Str("sessionId", s.id).Msg("created session")
	return s
}

// Get returns the session for id, refreshing its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = m.now()
	s.mu.Unlock()
	return s, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictLocked drops sessions idle past the TTL. Caller holds m.mu.
func (m *Manager) evictLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			log.Debug().Str("sessionId", id).Msg("evicted idle session")
		}
	}
}
