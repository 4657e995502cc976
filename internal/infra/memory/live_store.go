package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

// LiveStore is an in-memory implementation of app.LiveStore. The mutex
// makes the version compare-and-increment atomic for a single process;
// use the Redis store when more than one server instance is involved.
type LiveStore struct {
	mu    sync.RWMutex
	docs  map[string]domain.LiveDocument
	clock func() time.Time
}

func NewLiveStore() *LiveStore {
	return &LiveStore{
		docs:  make(map[string]domain.LiveDocument),
		clock: time.Now,
	}
}

// NewLiveStoreWithClock is test-only for deterministic timestamps.
func NewLiveStoreWithClock(now func() time.Time) *LiveStore {
	store := NewLiveStore()
	store.clock = now
	return store
}

func (s *LiveStore) Load(_ context.Context, showID string, sinceVersion int64) (domain.LiveDocument, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[showID]
	if !ok {
		doc = domain.ZeroDocument()
	}
	if sinceVersion >= 0 && sinceVersion == doc.Version {
		return doc, false, nil
	}
	return doc, true, nil
}

func (s *LiveStore) Save(_ context.Context, showID string, version int64, state domain.LiveState, by string) (app.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[showID]
	if !ok {
		current = domain.ZeroDocument()
	}
	if version != current.Version {
		latest := current
		return app.SaveResult{OK: false, Version: current.Version, Latest: &latest}, nil
	}

	doc := domain.LiveDocument{
		Version:   current.Version + 1,
		UpdatedAt: s.clock().UnixMilli(),
		State:     state,
	}
	if by != "" {
		doc.By = &by
	}
	s.docs[showID] = doc
	return app.SaveResult{OK: true, Version: doc.Version}, nil
}
