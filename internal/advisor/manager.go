package advisor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/core-coin/blocksage/internal/metrics"
	"github.com/core-coin/blocksage/internal/models"
)

// Manager tracks open sessions by id.
type Manager struct {
	engine *Engine

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(engine *Engine) *Manager {
	return &Manager{
		engine:   engine,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session with a random id.
func (m *Manager) Create() *Session {
	return m.Open(uuid.NewString())
}

// Open returns the session with the given id, creating it if needed.
func (m *Manager) Open(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := m.engine.NewSession(id)
	m.sessions[id] = s
	metrics.ActiveSessions.Inc()
	return s
}

// Get returns an open session or models.ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

// Discard closes and forgets a session.
func (m *Manager) Discard(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return models.ErrSessionNotFound
	}
	s.Close()
	metrics.ActiveSessions.Dec()
	return nil
}

// Sweep discards idle sessions with no activity for maxIdle and returns how many were removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.engine.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.closeIfIdle(cutoff) {
			delete(m.sessions, id)
			metrics.ActiveSessions.Dec()
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
