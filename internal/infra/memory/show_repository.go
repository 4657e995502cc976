package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ShowLoader fetches show content from a backing store (e.g., Postgres).
type ShowLoader interface {
	LoadShow(ctx context.Context, showID string) (domain.ShowContent, error)
}

// ShowRepository caches show content with TTL to avoid repeated DB hits.
// Show content is immutable for the duration of a live session, so a
// stale-by-minutes cache is fine.
type ShowRepository struct {
	loader ShowLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedShow
}

type cachedShow struct {
	content   domain.ShowContent
	expiresAt time.Time
}

func NewShowRepository(loader ShowLoader, ttl time.Duration) *ShowRepository {
	return &ShowRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedShow),
	}
}

func (r *ShowRepository) GetShow(ctx context.Context, showID string) (domain.ShowContent, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[showID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.content, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(showID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[showID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.content, nil
		}
		r.mu.RUnlock()

		content, err := r.loader.LoadShow(ctx, showID)
		if err != nil {
			return domain.ShowContent{}, err
		}

		r.mu.Lock()
		r.cache[showID] = cachedShow{
			content:   content,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.ShowContent{}, err
	}
	return result.(domain.ShowContent), nil
}

func (r *ShowRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticShowLoader is a simple loader backed by an in-memory map (useful
// for tests/demos).
type StaticShowLoader struct {
	shows map[string]domain.ShowContent
}

func NewStaticShowLoader(shows map[string]domain.ShowContent) *StaticShowLoader {
	return &StaticShowLoader{shows: shows}
}

func (l *StaticShowLoader) LoadShow(_ context.Context, showID string) (domain.ShowContent, error) {
	if content, ok := l.shows[showID]; ok {
		return content, nil
	}
	return domain.ShowContent{}, domain.ErrShowNotFound
}
