package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// BaseURLRepository persists the per-event base URL.
type BaseURLRepository struct {
	db DBInterface
}

func NewBaseURLRepository(db DBInterface) *BaseURLRepository {
	return &BaseURLRepository{db: db}
}

// Get returns the base URL of the event or ErrNotFound.
func (r *BaseURLRepository) Get(ctx context.Context, eventID int64) (*model.BaseURL, error) {
	query, args, err := psql.Select("event_id", "base_url").
		From("attestation_base_urls").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var baseURL model.BaseURL
	if err := pgxscan.Get(ctx, r.db, &baseURL, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning base url: %w", err)
	}
	return &baseURL, nil
}

// Upsert creates or replaces the base URL of the event.
func (r *BaseURLRepository) Upsert(ctx context.Context, baseURL *model.BaseURL) error {
	query, args, err := psql.Insert("attestation_base_urls").
		Columns("event_id", "base_url").
		Values(baseURL.EventID, baseURL.BaseURL).
		Suffix("ON CONFLICT (event_id) DO UPDATE SET base_url = EXCLUDED.base_url").
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting base url: %w", err)
	}
	return nil
}

// Delete removes the base URL of the event.
func (r *BaseURLRepository) Delete(ctx context.Context, eventID int64) error {
	query, args, err := psql.Delete("attestation_base_urls").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting base url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
