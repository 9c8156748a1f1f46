package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/attestation-plugin/internal/lib/email"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/hibiken/asynq"
)

type EventStore interface {
	Get(ctx context.Context, id int64) (*model.Event, error)
}

type PositionStore interface {
	Get(ctx context.Context, eventID, id int64) (*model.OrderPosition, error)
}

// Mailer sends the attestation email.
type Mailer interface {
	SendAttestationEmail(ctx context.Context, m email.AttestationEmail) error
}

// Handlers holds what the task handlers need.
type Handlers struct {
	Events       EventStore
	Positions    PositionStore
	Placeholders *placeholder.Registry
	Mailer       Mailer
}

// InitHandlers sets the dependencies of the task handlers. It must be
// called before Start.
func (j *JobService) InitHandlers(h Handlers) {
	j.handlers = h
}

// loadContext resolves the mail context of a payload. Rows that vanished
// since enqueueing skip retries.
func (j *JobService) loadContext(ctx context.Context, p AttestationPayload) (placeholder.Context, error) {
	event, err := j.handlers.Events.Get(ctx, p.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return placeholder.Context{}, fmt.Errorf("event %d: %w", p.EventID, asynq.SkipRetry)
		}
		return placeholder.Context{}, err
	}

	position, err := j.handlers.Positions.Get(ctx, p.EventID, p.PositionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return placeholder.Context{}, fmt.Errorf("position %d: %w", p.PositionID, asynq.SkipRetry)
		}
		return placeholder.Context{}, err
	}

	return placeholder.Context{Event: event, Position: position}, nil
}

// handleGenerateAttestationTask renders the placeholder once so the link
// is stored before any mail goes out.
func (j *JobService) handleGenerateAttestationTask(ctx context.Context, t *asynq.Task) error {
	var p AttestationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal attestation payload: %w", err)
	}

	logger := j.logger.With().
		Str("type", TaskGenerateAttestation).
		Int64("event_id", p.EventID).
		Int64("position_id", p.PositionID).
		Logger()
	logger.Info().Msg("Processing attestation generation task")

	mctx, err := j.loadContext(ctx, p)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load attestation context")
		return err
	}

	// The value is a credential; only its presence is logged.
	value := j.handlers.Placeholders.Values(ctx, mctx)[placeholder.Identifier]
	logger.Info().Bool("rendered", value != "").Msg("Rendered attestation link")

	return nil
}

// handleAttestationEmailTask renders every placeholder for the position
// and mails the attestation link.
func (j *JobService) handleAttestationEmailTask(ctx context.Context, t *asynq.Task) error {
	var p AttestationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal attestation email payload: %w", err)
	}

	logger := j.logger.With().
		Str("type", TaskAttestationEmail).
		Int64("event_id", p.EventID).
		Int64("position_id", p.PositionID).
		Logger()
	logger.Info().Msg("Processing attestation email task")

	mctx, err := j.loadContext(ctx, p.AttestationPayload)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load attestation context")
		return err
	}

	to := p.To
	if to == "" {
		to = mctx.Position.AttendeeEmail
	}
	if to == "" {
		return fmt.Errorf("position %d has no recipient: %w", p.PositionID, asynq.SkipRetry)
	}

	values := j.handlers.Placeholders.Values(ctx, mctx)

	err = j.handlers.Mailer.SendAttestationEmail(ctx, email.AttestationEmail{
		To:           to,
		Locale:       mctx.Event.Locale,
		AttendeeName: mctx.Position.AttendeeName,
		EventName:    mctx.Event.Name,
		Link:         values[placeholder.Identifier],
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send attestation email")
		return err // returning err makes Asynq mark it failed and schedule retry
	}

	logger.Info().Msg("Successfully sent attestation email")
	return nil
}
