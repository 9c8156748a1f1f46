package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// EventRepository reads host events.
type EventRepository struct {
	db DBInterface
}

func NewEventRepository(db DBInterface) *EventRepository {
	return &EventRepository{db: db}
}

// Get returns the event with the given id or ErrNotFound.
func (r *EventRepository) Get(ctx context.Context, id int64) (*model.Event, error) {
	query, args, err := psql.Select("id", "slug", "name", "locale").
		From("events").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var event model.Event
	if err := pgxscan.Get(ctx, r.db, &event, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	return &event, nil
}
