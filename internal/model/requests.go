package model

import "github.com/deppfellow/attestation-plugin/internal/validation"

// EventRequest addresses an event's attestation settings.
type EventRequest struct {
	EventID int64 `param:"event_id" validate:"required,gt=0"`
}

func (r *EventRequest) Validate() error { return validation.Struct(r) }

// SetBaseURLRequest sets the prefix of the event's magic links.
type SetBaseURLRequest struct {
	EventID int64  `param:"event_id" json:"-" validate:"required,gt=0"`
	BaseURL string `json:"base_url" validate:"required,url,max=4096"`
}

func (r *SetBaseURLRequest) Validate() error { return validation.Struct(r) }

// RenderRequest previews the placeholder for an order or a position.
// Exactly one of OrderID and PositionID is set.
type RenderRequest struct {
	EventID    int64  `param:"event_id" json:"-" validate:"required,gt=0"`
	OrderID    *int64 `json:"order_id,omitempty" validate:"required_without=PositionID,excluded_with=PositionID,omitempty,gt=0"`
	PositionID *int64 `json:"position_id,omitempty" validate:"required_without=OrderID,omitempty,gt=0"`
}

func (r *RenderRequest) Validate() error { return validation.Struct(r) }

// PositionRequest addresses one order position of an event.
type PositionRequest struct {
	EventID    int64 `param:"event_id" json:"-" validate:"required,gt=0"`
	PositionID int64 `param:"position_id" json:"-" validate:"required,gt=0"`
}

func (r *PositionRequest) Validate() error { return validation.Struct(r) }

// SendEmailRequest queues the attestation email of a position. Without To
// the attendee email is used.
type SendEmailRequest struct {
	EventID    int64  `param:"event_id" json:"-" validate:"required,gt=0"`
	PositionID int64  `param:"position_id" json:"-" validate:"required,gt=0"`
	To         string `json:"to,omitempty" validate:"omitempty,email"`
}

func (r *SendEmailRequest) Validate() error { return validation.Struct(r) }

// EmailPreviewRequest renders the attestation email with sample values.
type EmailPreviewRequest struct {
	EventID int64 `param:"event_id" validate:"required,gt=0"`
}

func (r *EmailPreviewRequest) Validate() error { return validation.Struct(r) }

// Settings is the attestation configuration of an event.
type Settings struct {
	EventID int64  `json:"event_id"`
	BaseURL string `json:"base_url,omitempty"`
	// KeyFile is the stored name of the uploaded key file.
	KeyFile string `json:"key_file,omitempty"`
	// KeyFilePresent reports whether the stored key file exists on disk.
	KeyFilePresent bool `json:"key_file_present"`
}

// RenderResponse carries a rendered placeholder value.
type RenderResponse struct {
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

// LinkResponse carries the stored magic link of a position and the full
// URL it renders to.
type LinkResponse struct {
	OrderPositionID int64  `json:"order_position_id"`
	MagicLink       string `json:"magic_link"`
	URL             string `json:"url,omitempty"`
}

// JobResponse identifies an enqueued background task.
type JobResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

// OrderRequest addresses an order of an event.
type OrderRequest struct {
	EventID int64 `param:"event_id" json:"-" validate:"required,gt=0"`
	OrderID int64 `param:"order_id" json:"-" validate:"required,gt=0"`
}

func (r *OrderRequest) Validate() error { return validation.Struct(r) }

// EmailPreviewResponse is a rendered email without sending it.
type EmailPreviewResponse struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// JobsResponse lists the tasks enqueued for an order.
type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}
