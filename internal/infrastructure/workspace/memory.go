package workspace

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kpcalc/backend/internal/domain"
)

const cleanupInterval = 10 * time.Minute

// storedWorkspace is a serialized workspace with its expiration
type storedWorkspace struct {
	data       []byte
	expiration time.Time
}

// MemoryStore is a thread-safe in-process workspace store with TTL support
type MemoryStore struct {
	data  map[string]storedWorkspace
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a new in-memory workspace store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]storedWorkspace),
		stop: make(chan struct{}),
	}

	// Remove expired workspaces every 10 minutes
	go store.cleanupExpired()

	return store
}

// Save stores a workspace under its ID. A zero TTL keeps it until deleted.
func (s *MemoryStore) Save(ctx context.Context, ws *domain.Workspace, ttl time.Duration) error {
	if ws == nil || ws.ID == "" {
		return domain.ErrInvalidRequest
	}

	// Serialize so callers cannot mutate stored state, same as Redis
	data, err := json.Marshal(ws)
	if err != nil {
		return err
	}

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[ws.ID] = storedWorkspace{data: data, expiration: expiration}
	return nil
}

// Load returns a copy of the stored workspace
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Workspace, error) {
	s.mutex.RLock()
	item, exists := s.data[id]
	s.mutex.RUnlock()

	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrWorkspaceNotFound
	}

	var ws domain.Workspace
	if err := json.Unmarshal(item.data, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Delete removes a workspace. Deleting a missing workspace is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, id)
	return nil
}

// Size returns the current number of stored workspaces, expired ones included
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all workspaces
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]storedWorkspace)
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.removeExpired(now)
		}
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, item := range s.data {
		if item.expired(now) {
			delete(s.data, id)
		}
	}
}

func (w storedWorkspace) expired(now time.Time) bool {
	return !w.expiration.IsZero() && now.After(w.expiration)
}
