package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ShowLoader fetches show content from a backing store (e.g., Postgres).
type ShowLoader interface {
	LoadShow(ctx context.Context, showID string) (domain.ShowContent, error)
}

// ShowRepository caches show content as a JSON blob in Redis
// (SET show:{showID}:content) and falls back to a loader on cache miss.
type ShowRepository struct {
	client *redis.Client
	loader ShowLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewShowRepository(client *redis.Client, loader ShowLoader, ttl time.Duration) *ShowRepository {
	return &ShowRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ShowRepository) GetShow(ctx context.Context, showID string) (domain.ShowContent, error) {
	key := r.key(showID)

	if content, ok := r.cached(ctx, key); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(showID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if content, ok := r.cached(ctx, key); ok {
			return content, nil
		}

		content, err := r.loader.LoadShow(ctx, showID)
		if err != nil {
			return domain.ShowContent{}, err
		}

		raw, err := json.Marshal(content)
		if err != nil {
			return domain.ShowContent{}, fmt.Errorf("marshal show content: %w", err)
		}
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		return content, nil
	})
	if err != nil {
		return domain.ShowContent{}, err
	}
	return result.(domain.ShowContent), nil
}

func (r *ShowRepository) cached(ctx context.Context, key string) (domain.ShowContent, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return domain.ShowContent{}, false
	}
	var content domain.ShowContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.ShowContent{}, false
	}
	return content, true
}

func (r *ShowRepository) key(showID string) string {
	return "show:" + showID + ":content"
}

func (r *ShowRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
