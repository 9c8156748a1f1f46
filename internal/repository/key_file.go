package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// KeyFileRepository persists the reference to an event's uploaded key file.
type KeyFileRepository struct {
	db DBInterface
}

func NewKeyFileRepository(db DBInterface) *KeyFileRepository {
	return &KeyFileRepository{db: db}
}

// Get returns the key file of the event or ErrNotFound.
func (r *KeyFileRepository) Get(ctx context.Context, eventID int64) (*model.KeyFile, error) {
	query, args, err := psql.Select("event_id", "upload").
		From("attestation_key_files").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var keyFile model.KeyFile
	if err := pgxscan.Get(ctx, r.db, &keyFile, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning key file: %w", err)
	}
	return &keyFile, nil
}

// Upsert creates or replaces the key file reference of the event.
func (r *KeyFileRepository) Upsert(ctx context.Context, keyFile *model.KeyFile) error {
	query, args, err := psql.Insert("attestation_key_files").
		Columns("event_id", "upload").
		Values(keyFile.EventID, keyFile.Upload).
		Suffix("ON CONFLICT (event_id) DO UPDATE SET upload = EXCLUDED.upload").
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting key file: %w", err)
	}
	return nil
}

// Delete removes the key file reference of the event.
func (r *KeyFileRepository) Delete(ctx context.Context, eventID int64) error {
	query, args, err := psql.Delete("attestation_key_files").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting key file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
