// Package session holds per-browser state: the upload cache and the last
// dashboard snapshot. A session is created the first time a request has
// something to remember and is dropped after IdleTimeout without use.
// Admin authority is not kept here; see Signer.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the session id.
const CookieName = "printeasy_session"

// DefaultIdleTimeout applies when NewManager gets a non-positive timeout.
const DefaultIdleTimeout = 2 * time.Hour

// Session is safe for concurrent use by requests sharing a cookie.
type Session struct {
	ID        string
	CreatedAt time.Time

	// guarded by Manager.mu
	lastSeen time.Time

	mu          sync.Mutex
	pageCounts  map[string]int
	lastRefresh time.Time
	snapshot    any
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		lastSeen:   now,
		pageCounts: map[string]int{},
	}
}

// PageCount returns a page count cached for content hash h.
func (s *Session) PageCount(h string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.pageCounts[h]
	return n, ok
}

// RememberPageCount caches n for content hash h.
func (s *Session) RememberPageCount(h string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCounts[h] = n
}

// Snapshot returns the cached dashboard if it was taken less than minInterval ago.
func (s *Session) Snapshot(now time.Time, minInterval time.Duration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || now.Sub(s.lastRefresh) >= minInterval {
		return nil, false
	}
	return s.snapshot, true
}

// StoreSnapshot replaces the cached dashboard. A nil v invalidates it.
func (s *Session) StoreSnapshot(v any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = v
	s.lastRefresh = now
}

// Reset drops everything but the id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCounts = map[string]int{}
	s.snapshot = nil
	s.lastRefresh = time.Time{}
}

// Manager owns the live sessions of one process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	nowFunc  func() time.Time
}

// NewManager returns a Manager that forgets sessions unused for idle.
func NewManager(idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Manager{sessions: map[string]*Session{}, idle: idle, nowFunc: time.Now}
}

// Start evicts idle sessions, then creates and registers a new one.
func (m *Manager) Start() *Session {
	now := m.nowFunc()
	s := newSession(now)
	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session and marks it used. An idle one is evicted.
func (m *Manager) Get(id string) (*Session, bool) {
	now := m.nowFunc()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(s.lastSeen) >= m.idle {
		delete(m.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// End clears and forgets the session.
func (m *Manager) End(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Reset()
	}
}

// Len counts registered sessions, idle ones not yet swept included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.idle {
			delete(m.sessions, id)
		}
	}
}

// ContentHash keys the upload cache.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
