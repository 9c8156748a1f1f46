package model

// MaxURLLength bounds BaseURL.BaseURL and AttestationLink.MagicLink.
const MaxURLLength = 4096

// BaseURL is the per-event prefix prepended to every magic link.
// One row per event; the event is the primary key.
type BaseURL struct {
	EventID int64  `db:"event_id" json:"event_id"`
	BaseURL string `db:"base_url" json:"base_url"`
}

// KeyFile references the key material uploaded for an event.
// Upload is the storage name, resolved to a filesystem path at render time.
type KeyFile struct {
	EventID int64  `db:"event_id" json:"event_id"`
	Upload  string `db:"upload" json:"upload"`
}

// AttestationLink caches the generated magic link of one order position.
type AttestationLink struct {
	OrderPositionID int64  `db:"order_position_id" json:"order_position_id"`
	MagicLink       string `db:"magic_link" json:"magic_link"`
}
