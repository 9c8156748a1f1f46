// Package model holds the entities the plugin reads from the host
// framework (events, orders, positions) and the three tables it owns.
package model

import "fmt"

// Event is the host's event, reduced to what the plugin needs.
type Event struct {
	ID     int64  `db:"id" json:"id"`
	Slug   string `db:"slug" json:"slug"`
	Name   string `db:"name" json:"name"`
	Locale string `db:"locale" json:"locale"`
}

// Order is the host's order.
type Order struct {
	ID      int64  `db:"id" json:"id"`
	EventID int64  `db:"event_id" json:"event_id"`
	Code    string `db:"code" json:"code"`
	Email   string `db:"email" json:"email"`
}

// OrderPosition is a single ticket inside an order.
//
// PositionID is the 1-based ordinal of the position within its order,
// not a database key.
type OrderPosition struct {
	ID            int64  `db:"id" json:"id"`
	OrderID       int64  `db:"order_id" json:"order_id"`
	PositionID    int    `db:"positionid" json:"positionid"`
	ItemID        int64  `db:"item_id" json:"item_id"`
	AttendeeName  string `db:"attendee_name" json:"attendee_name"`
	AttendeeEmail string `db:"attendee_email" json:"attendee_email"`
	Secret        string `db:"secret" json:"-"`

	// OrderCode and EventSlug are joined in when positions are loaded.
	OrderCode string `db:"order_code" json:"order_code"`
	EventSlug string `db:"event_slug" json:"event_slug"`
}

// TicketID identifies the position towards the generator: "<order code>-<positionid>".
func (p *OrderPosition) TicketID() string {
	return fmt.Sprintf("%s-%d", p.OrderCode, p.PositionID)
}
