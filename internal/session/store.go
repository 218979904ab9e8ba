// Package session provides the session repository: one record per
// assessment run, created on start and retained for a bounded time after
// completion so results stay queryable without unbounded growth.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sovadim/knowledge-engine/internal/domain/session"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// Store is the session repository consumed by the traversal engine.
type Store interface {
	Create(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in a process map. Finished sessions are
// swept by a janitor once they outlive the retention TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store retaining finished sessions for
// ttl. A ttl of zero disables the janitor (useful in tests).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*session.Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go store.janitor()
	}
	return store
}

// Create stores a new session.
func (m *MemoryStore) Create(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return apperrors.NewConflict(fmt.Sprintf("session %s already exists", s.ID))
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the session or a not-found error.
func (m *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("session %s not found", id))
	}
	return s.Clone(), nil
}

// Save overwrites an existing session.
func (m *MemoryStore) Save(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return apperrors.NewNotFound(fmt.Sprintf("session %s not found", s.ID))
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Delete removes a session. Deleting a missing session is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Close stops the janitor.
func (m *MemoryStore) Close() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *MemoryStore) janitor() {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep removes finished sessions whose last update is older than ttl.
// Active sessions are never evicted; timeouts belong to the transport
// layer, not here.
func (m *MemoryStore) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Completed && now.Sub(s.UpdatedAt) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
