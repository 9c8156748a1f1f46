package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// AttestationLinkRepository persists generated magic links, one per position.
type AttestationLinkRepository struct {
	db DBInterface
}

func NewAttestationLinkRepository(db DBInterface) *AttestationLinkRepository {
	return &AttestationLinkRepository{db: db}
}

// Exists reports whether a link has been stored for the position.
func (r *AttestationLinkRepository) Exists(ctx context.Context, positionID int64) (bool, error) {
	sub := psql.Select("1").
		From("attestation_links").
		Where(squirrel.Eq{"order_position_id": positionID})

	query, args, err := psql.Select().
		Column(squirrel.Expr("EXISTS(?)", sub)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking attestation link: %w", err)
	}
	return exists, nil
}

// Get returns the link of the position or ErrNotFound.
func (r *AttestationLinkRepository) Get(ctx context.Context, positionID int64) (*model.AttestationLink, error) {
	query, args, err := psql.Select("order_position_id", "magic_link").
		From("attestation_links").
		Where(squirrel.Eq{"order_position_id": positionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var link model.AttestationLink
	if err := pgxscan.Get(ctx, r.db, &link, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning attestation link: %w", err)
	}
	return &link, nil
}

// Upsert stores the link, replacing an existing one for the same position.
func (r *AttestationLinkRepository) Upsert(ctx context.Context, link *model.AttestationLink) error {
	query, args, err := psql.Insert("attestation_links").
		Columns("order_position_id", "magic_link").
		Values(link.OrderPositionID, link.MagicLink).
		Suffix("ON CONFLICT (order_position_id) DO UPDATE SET magic_link = EXCLUDED.magic_link").
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting attestation link: %w", err)
	}
	return nil
}

// Delete removes the link of the position.
func (r *AttestationLinkRepository) Delete(ctx context.Context, positionID int64) error {
	query, args, err := psql.Delete("attestation_links").
		Where(squirrel.Eq{"order_position_id": positionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting attestation link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
