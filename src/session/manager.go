package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stake-plus/veritrust/src/ledger"
	"github.com/stake-plus/veritrust/src/logging"
)

// Session owns the history of one dashboard user.
type Session struct {
	ID      string
	Created time.Time
	Ledger  *ledger.Ledger

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the last time the session was used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager holds live sessions in memory. Sessions idle longer than the TTL are
// dropped together with their history.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewManager creates a manager. ledgerCapacity is passed to every new ledger.
func NewManager(ttl time.Duration, ledgerCapacity int) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		capacity: ledgerCapacity,
		now:      time.Now,
	}
}

// TTL is the idle lifetime of a session.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session with an empty ledger.
func (m *Manager) Create() *Session {
	return m.Resolve(uuid.NewString())
}

// Resolve returns the session for id, starting an empty one if the id is unknown
// (e.g. after a restart wiped memory).
func (m *Manager) Resolve(id string) *Session {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id, Created: now, Ledger: ledger.New(m.capacity)}
		m.sessions[id] = s
	}
	s.touch(now)
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many went.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	log := logging.New("session")
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Info("expired sessions removed", "count", n, "live", m.Len())
			}
		}
	}
}
