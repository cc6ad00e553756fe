package agent

import (
	"sync"

	"github.com/google/uuid"
)

// SessionInfo is a read-only view of a session for listings.
type SessionInfo struct {
	ID        string `json:"id"`
	State     State  `json:"state"`
	TurnCount int    `json:"turn_count"`
}

// Manager holds the live sessions. Sessions are fully isolated from one
// another; the only shared state is this map, so a plain RWMutex is enough.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a new session and returns it.
func (m *Manager) Create() *Session {
	sess := NewSession(uuid.NewString())

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return sess
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove drops a session. There is no terminal state; a removed session just ends.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// List returns a snapshot of all live sessions.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, sess := range m.sessions {
		infos = append(infos, SessionInfo{
			ID:        sess.ID,
			State:     sess.State(),
			TurnCount: sess.TurnCount(),
		})
	}
	return infos
}
