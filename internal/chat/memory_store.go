package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory conversation store. It backs
// tests and storage-less runs.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[int64][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[int64][]Turn)}
}

func (s *MemoryStore) Append(ctx context.Context, userID int64, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing := s.turns[userID]
	// Keep per-user timestamps non-decreasing even if the clock steps back.
	if n := len(existing); n > 0 && now.Before(existing[n-1].Timestamp) {
		now = existing[n-1].Timestamp
	}

	s.turns[userID] = append(existing, Turn{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.turns[userID]
	if limit > len(all) {
		limit = len(all)
	}
	if limit <= 0 {
		return nil, nil
	}

	// Copy so callers cannot mutate stored turns.
	out := make([]Turn, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, userID)
	return nil
}
