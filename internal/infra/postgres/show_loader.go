package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

// ShowLoader loads show content JSONB from Postgres.
type ShowLoader struct {
	pool *pgxpool.Pool
}

func NewShowLoader(pool *pgxpool.Pool) *ShowLoader {
	return &ShowLoader{pool: pool}
}

func (l *ShowLoader) LoadShow(ctx context.Context, showID string) (domain.ShowContent, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM shows WHERE id=$1`, showID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ShowContent{}, domain.ErrShowNotFound
	}
	if err != nil {
		return domain.ShowContent{}, fmt.Errorf("load show: %w", err)
	}
	var content domain.ShowContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.ShowContent{}, fmt.Errorf("unmarshal show: %w", err)
	}
	if content.ShowID == "" {
		content.ShowID = showID
	}
	return content, nil
}
