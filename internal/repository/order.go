package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// OrderRepository reads host orders.
type OrderRepository struct {
	db DBInterface
}

func NewOrderRepository(db DBInterface) *OrderRepository {
	return &OrderRepository{db: db}
}

// Get returns the order of the event or ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, eventID, id int64) (*model.Order, error) {
	query, args, err := psql.Select("id", "event_id", "code", "COALESCE(email, '') AS email").
		From("orders").
		Where(squirrel.Eq{"id": id, "event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var order model.Order
	if err := pgxscan.Get(ctx, r.db, &order, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	return &order, nil
}
