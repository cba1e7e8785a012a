package memory

import (
	"context"
	"strings"
	"sync"

	"civic-quiz-engine/internal/domain"
)

// ProgressStore is an in-memory implementation of engine.ProgressStore,
// used for guests and tests. Saves are idempotent overwrites.
type ProgressStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{snapshots: make(map[string]domain.Snapshot)}
}

func (s *ProgressStore) SaveProgress(_ context.Context, key domain.ProgressKey, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[compositeKey(key)] = snap
	return nil
}

func (s *ProgressStore) LoadProgress(_ context.Context, key domain.ProgressKey) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[compositeKey(key)]
	if !ok {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *ProgressStore) ClearProgress(_ context.Context, key domain.ProgressKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, compositeKey(key))
	return nil
}

func compositeKey(key domain.ProgressKey) string {
	return strings.Join([]string{key.Identity(), key.SessionID, key.TopicID, key.Mode}, "|")
}
