package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// OrderPositionRepository reads host order positions together with the
// order code and event slug the generator needs.
type OrderPositionRepository struct {
	db DBInterface
}

func NewOrderPositionRepository(db DBInterface) *OrderPositionRepository {
	return &OrderPositionRepository{db: db}
}

// positionSelect joins the order and event of a position. Positions without
// an attendee email fall back to the order email.
func positionSelect() squirrel.SelectBuilder {
	return psql.Select(
		"p.id",
		"p.order_id",
		"p.positionid",
		"p.item_id",
		"COALESCE(p.attendee_name, '') AS attendee_name",
		"COALESCE(NULLIF(p.attendee_email, ''), o.email, '') AS attendee_email",
		"p.secret",
		"o.code AS order_code",
		"e.slug AS event_slug",
	).
		From("order_positions p").
		Join("orders o ON o.id = p.order_id").
		Join("events e ON e.id = o.event_id")
}

// Get returns the position if it belongs to an order of the event.
func (r *OrderPositionRepository) Get(ctx context.Context, eventID, id int64) (*model.OrderPosition, error) {
	query, args, err := positionSelect().
		Where(squirrel.Eq{"p.id": id, "o.event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var position model.OrderPosition
	if err := pgxscan.Get(ctx, r.db, &position, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning order position: %w", err)
	}
	return &position, nil
}

// FirstByOrder returns the position with the lowest positionid of the
// order, or ErrNotFound for an order without positions.
func (r *OrderPositionRepository) FirstByOrder(ctx context.Context, orderID int64) (*model.OrderPosition, error) {
	query, args, err := positionSelect().
		Where(squirrel.Eq{"p.order_id": orderID}).
		OrderBy("p.positionid ASC", "p.id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var position model.OrderPosition
	if err := pgxscan.Get(ctx, r.db, &position, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning order position: %w", err)
	}
	return &position, nil
}

// ListByOrder returns all positions of the order by positionid.
func (r *OrderPositionRepository) ListByOrder(ctx context.Context, orderID int64) ([]*model.OrderPosition, error) {
	query, args, err := positionSelect().
		Where(squirrel.Eq{"p.order_id": orderID}).
		OrderBy("p.positionid ASC", "p.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var positions []*model.OrderPosition
	if err := pgxscan.Select(ctx, r.db, &positions, query, args...); err != nil {
		return nil, fmt.Errorf("scanning order positions: %w", err)
	}
	return positions, nil
}
