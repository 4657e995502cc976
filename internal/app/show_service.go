package app

import (
	"context"
	"sync"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/scoring"
)

// LiveStore abstracts how versioned live documents are stored (in-memory,
// Redis, etc). Save performs the compare-and-increment atomically: it
// accepts a write iff the caller's version matches the stored one,
// otherwise it rejects and returns the current document.
type LiveStore interface {
	// Load returns the current document for a show. When sinceVersion is
	// >= 0 and equals the stored version, changed is false and the
	// document can be ignored by the caller. A show nobody has saved yet
	// loads as the version-0 zero state, not an error.
	Load(ctx context.Context, showID string, sinceVersion int64) (doc domain.LiveDocument, changed bool, err error)
	Save(ctx context.Context, showID string, version int64, state domain.LiveState, by string) (SaveResult, error)
}

// SaveResult is the outcome of a conditional save. Exactly one of the two
// shapes applies: accepted (OK true, Version is the new version) or
// conflict (OK false, Latest is the authoritative document to adopt).
type SaveResult struct {
	OK      bool
	Version int64
	Latest  *domain.LiveDocument
}

// ContentRepository loads show content (from cache/backing store).
type ContentRepository interface {
	GetShow(ctx context.Context, showID string) (domain.ShowContent, error)
}

// StandingsUpdate is pushed to display subscribers after every accepted
// save.
type StandingsUpdate struct {
	ShowID    string             `json:"showId"`
	Version   int64              `json:"version"`
	Rows      []scoring.Standing `json:"rows"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ShowService contains the live-scoring use cases: conditional loads,
// optimistic-concurrency saves, and standings derivation/fan-out.
type ShowService struct {
	store LiveStore
	shows ContentRepository
	now   func() time.Time

	mu    sync.Mutex
	feeds map[string]*feed
}

func NewShowService(store LiveStore, shows ContentRepository) *ShowService {
	return &ShowService{
		store: store,
		shows: shows,
		now:   time.Now,
		feeds: make(map[string]*feed),
	}
}

// GetLive returns the live document for a show, or changed=false when the
// caller's version is still current.
func (s *ShowService) GetLive(ctx context.Context, showID string, sinceVersion int64) (domain.LiveDocument, bool, error) {
	return s.store.Load(ctx, showID, sinceVersion)
}

// SaveLive attempts a conditional save. On acceptance the new version is
// returned and subscribers get a fresh standings snapshot; on conflict the
// result carries the store's authoritative document. A conflict is a
// protocol outcome, not an error.
func (s *ShowService) SaveLive(ctx context.Context, showID string, version int64, state domain.LiveState, by string) (SaveResult, error) {
	if version < 0 {
		return SaveResult{}, domain.ErrBadVersion
	}
	result, err := s.store.Save(ctx, showID, version, state, by)
	if err != nil {
		return SaveResult{}, err
	}
	if result.OK {
		s.broadcast(ctx, showID, result.Version, state)
	}
	return result, nil
}

// Standings computes the current scoreboard from the authoritative live
// document plus the show's question list and scoring config.
func (s *ShowService) Standings(ctx context.Context, showID string) (StandingsUpdate, error) {
	doc, _, err := s.store.Load(ctx, showID, -1)
	if err != nil {
		return StandingsUpdate{}, err
	}
	rows, err := s.computeRows(ctx, showID, doc.State)
	if err != nil {
		return StandingsUpdate{}, err
	}
	return StandingsUpdate{
		ShowID:    showID,
		Version:   doc.Version,
		Rows:      rows,
		UpdatedAt: s.now(),
	}, nil
}

// Subscribe returns a channel of standings updates for a show. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *ShowService) Subscribe(ctx context.Context, showID string) (<-chan StandingsUpdate, func(), error) {
	initial, err := s.Standings(ctx, showID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	f, ok := s.feeds[showID]
	if !ok {
		f = newFeed()
		s.feeds[showID] = f
	}
	s.mu.Unlock()

	ch, cancel := f.subscribe(initial)
	return ch, func() {
		cancel()
		s.mu.Lock()
		if f.isEmpty() {
			delete(s.feeds, showID)
		}
		s.mu.Unlock()
	}, nil
}

func (s *ShowService) broadcast(ctx context.Context, showID string, version int64, state domain.LiveState) {
	s.mu.Lock()
	f, ok := s.feeds[showID]
	s.mu.Unlock()
	if !ok {
		return
	}
	rows, err := s.computeRows(ctx, showID, state)
	if err != nil {
		return
	}
	f.publish(StandingsUpdate{
		ShowID:    showID,
		Version:   version,
		Rows:      rows,
		UpdatedAt: s.now(),
	})
}

func (s *ShowService) computeRows(ctx context.Context, showID string, state domain.LiveState) ([]scoring.Standing, error) {
	content, err := s.shows.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	cfg := content.Config
	if cfg.TeamCount == 0 {
		cfg.TeamCount = len(state.Teams)
	}
	return scoring.Standings(state.Teams, content.Questions, state.Grid, cfg), nil
}

// feed fans a show's standings updates out to display subscribers.
type feed struct {
	mu          sync.Mutex
	subscribers map[chan StandingsUpdate]struct{}
}

func newFeed() *feed {
	return &feed{subscribers: make(map[chan StandingsUpdate]struct{})}
}

func (f *feed) subscribe(initial StandingsUpdate) (<-chan StandingsUpdate, func()) {
	ch := make(chan StandingsUpdate, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *feed) publish(update StandingsUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- update:
		default:
			// Slow display clients only ever need the latest snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

func (f *feed) isEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}
