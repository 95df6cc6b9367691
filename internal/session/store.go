package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/shared"
)

// Store persists sessions by ID. Load returns [shared.ErrSessionNotFound] for unknown or expired IDs.
type Store interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, id string, s *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// pruneInterval is the minimum time between sweeps of expired sessions on the write path.
const pruneInterval = time.Minute

// MemoryStore is an in-process [Store]. Sessions are stored encoded so callers never share a value.
//
// Expired sessions are dropped when loaded and swept by [MemoryStore.Save] at most once per pruneInterval.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	now       func() time.Time
	nextPrune time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && cur.expires.Equal(e.expires) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, shared.ErrSessionNotFound
	}

	return decode(e.data)
}

func (m *MemoryStore) Save(ctx context.Context, id string, s *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSessionBackend, err)
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !now.Before(m.nextPrune) {
		m.prune(now)
		m.nextPrune = now.Add(pruneInterval)
	}
	m.entries[id] = memoryEntry{data: data, expires: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Prune drops expired sessions and returns how many were removed.
func (m *MemoryStore) Prune() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune(now)
}

// prune removes entries expired at now. m.mu must be held for writing.
func (m *MemoryStore) prune(now time.Time) int {
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func decode(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSessionBackend, err)
	}
	return &s, nil
}
