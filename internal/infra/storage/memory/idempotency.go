package memory

import (
	"context"
	"sync"
	"time"

	"stayengine/internal/app/middleware"
)

// IdempotencyStore keeps replayable results in memory. Expired records are
// dropped on read.
type IdempotencyStore struct {
	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
	now   func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord), now: time.Now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if ok && !rec.ExpiresAt.IsZero() && !s.now().Before(rec.ExpiresAt) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
