package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LiveStore keeps one JSON live document per show in Redis. The version
// compare-and-increment runs inside a WATCH/MULTI transaction so
// concurrent writers from multiple server instances serialize on the
// document key: a save whose key changed between read and commit fails
// the transaction and is reported as a conflict.
type LiveStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

func NewLiveStore(client *redis.Client, ttl time.Duration) *LiveStore {
	return &LiveStore{client: client, ttl: ttl, clock: time.Now}
}

func (s *LiveStore) Load(ctx context.Context, showID string, sinceVersion int64) (domain.LiveDocument, bool, error) {
	doc, err := s.get(ctx, showID)
	if err != nil {
		return domain.LiveDocument{}, false, err
	}
	if sinceVersion >= 0 && sinceVersion == doc.Version {
		return doc, false, nil
	}
	return doc, true, nil
}

func (s *LiveStore) Save(ctx context.Context, showID string, version int64, state domain.LiveState, by string) (app.SaveResult, error) {
	key := s.key(showID)
	var result app.SaveResult

	txn := func(tx *redis.Tx) error {
		current, err := getDocument(ctx, tx, key)
		if err != nil {
			return err
		}
		if version != current.Version {
			latest := current
			result = app.SaveResult{OK: false, Version: current.Version, Latest: &latest}
			return nil
		}

		doc := domain.LiveDocument{
			Version:   current.Version + 1,
			UpdatedAt: s.clock().UnixMilli(),
			State:     state,
		}
		if by != "" {
			doc.By = &by
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal live document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = app.SaveResult{OK: true, Version: doc.Version}
		return nil
	}

	err := s.client.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Someone else committed between our read and our write. Same
		// outcome as a stale version: hand back the latest document.
		latest, getErr := s.get(ctx, showID)
		if getErr != nil {
			return app.SaveResult{}, getErr
		}
		return app.SaveResult{OK: false, Version: latest.Version, Latest: &latest}, nil
	}
	if err != nil {
		return app.SaveResult{}, err
	}
	return result, nil
}

func (s *LiveStore) get(ctx context.Context, showID string) (domain.LiveDocument, error) {
	return getDocument(ctx, s.client, s.key(showID))
}

func (s *LiveStore) key(showID string) string {
	return "show:live:" + showID
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getDocument(ctx context.Context, client redisGetter, key string) (domain.LiveDocument, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ZeroDocument(), nil
	}
	if err != nil {
		return domain.LiveDocument{}, fmt.Errorf("load live document: %w", err)
	}
	var doc domain.LiveDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.LiveDocument{}, fmt.Errorf("unmarshal live document: %w", err)
	}
	return doc, nil
}
