package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/deppfellow/attestation-plugin/internal/generator"
	"github.com/deppfellow/attestation-plugin/internal/i18n"
	"github.com/deppfellow/attestation-plugin/internal/lib/email"
	"github.com/deppfellow/attestation-plugin/internal/lib/job"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/sqlerr"
	"github.com/deppfellow/attestation-plugin/internal/storage"
	"github.com/rs/zerolog"
)

// AttestationService previews, inspects and regenerates attestation links.
type AttestationService struct {
	logger       *zerolog.Logger
	repos        *repository.Repositories
	storage      *storage.KeyFileStorage
	generator    generator.Generator
	placeholders *placeholder.Registry
	jobs         job.Enqueuer
}

func NewAttestationService(logger *zerolog.Logger, deps Deps, jobs job.Enqueuer) *AttestationService {
	return &AttestationService{
		logger:       logger,
		repos:        deps.Repos,
		storage:      deps.Storage,
		generator:    deps.Generator,
		placeholders: deps.Placeholders,
		jobs:         jobs,
	}
}

// Render renders the placeholder for an order or a position the way a
// mail would. Like a mail, it generates and stores a missing link.
func (s *AttestationService) Render(ctx context.Context, req *model.RenderRequest) (*model.RenderResponse, error) {
	event, err := loadEvent(ctx, s.repos, req.EventID)
	if err != nil {
		return nil, err
	}

	mctx := placeholder.Context{Event: event}
	if req.OrderID != nil {
		order, err := s.repos.Orders.Get(ctx, req.EventID, *req.OrderID)
		if err != nil {
			return nil, notFound(err, "Order")
		}
		mctx.Order = order
	} else {
		position, err := loadPosition(ctx, s.repos, req.EventID, *req.PositionID)
		if err != nil {
			return nil, err
		}
		mctx.Position = position
	}

	values := s.placeholders.Values(ctx, mctx)
	return &model.RenderResponse{
		Identifier: placeholder.Identifier,
		Value:      values[placeholder.Identifier],
	}, nil
}

// GetLink returns the stored link of a position.
func (s *AttestationService) GetLink(ctx context.Context, eventID, positionID int64) (*model.LinkResponse, error) {
	if _, err := loadPosition(ctx, s.repos, eventID, positionID); err != nil {
		return nil, err
	}

	link, err := s.repos.AttestationLinks.Get(ctx, positionID)
	if err != nil {
		return nil, notFound(err, "Attestation link")
	}

	return s.linkResponse(ctx, eventID, link)
}

// Regenerate runs the generator for the position and overwrites its
// stored link. Missing settings and generator rejections answer 422 with
// the placeholder's message.
func (s *AttestationService) Regenerate(ctx context.Context, eventID, positionID int64) (*model.LinkResponse, error) {
	event, err := loadEvent(ctx, s.repos, eventID)
	if err != nil {
		return nil, err
	}

	position, err := loadPosition(ctx, s.repos, eventID, positionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.BaseURLs.Get(ctx, eventID); err != nil {
		return nil, s.settingsError(err, event.Locale, i18n.MissingBaseURL, "MISSING_BASE_URL")
	}

	keyFile, err := s.repos.KeyFiles.Get(ctx, eventID)
	if err != nil {
		return nil, s.settingsError(err, event.Locale, i18n.MissingKeyFile, "MISSING_KEY_FILE")
	}

	magicLink, err := s.generator.GenerateLink(ctx, position, s.storage.Path(keyFile.Upload))
	if err != nil {
		if errors.Is(err, generator.ErrValue) {
			code := "GENERATION_FAILED"
			s.logger.Warn().Err(err).Int64("position_id", positionID).Msg("attestation link regeneration rejected")
			return nil, errs.NewUnprocessableEntityError(i18n.T(event.Locale, i18n.GenerationFailed), true, &code)
		}
		return nil, fmt.Errorf("regenerating attestation link: %w", err)
	}

	link := &model.AttestationLink{OrderPositionID: positionID, MagicLink: magicLink}
	if err := s.repos.AttestationLinks.Upsert(ctx, link); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	s.logger.Info().Int64("event_id", eventID).Int64("position_id", positionID).Msg("attestation link regenerated")

	return s.linkResponse(ctx, eventID, link)
}

// DeleteLink removes the stored link; the next render generates a new one.
func (s *AttestationService) DeleteLink(ctx context.Context, eventID, positionID int64) error {
	if _, err := loadPosition(ctx, s.repos, eventID, positionID); err != nil {
		return err
	}

	if err := s.repos.AttestationLinks.Delete(ctx, positionID); err != nil {
		return notFound(err, "Attestation link")
	}

	s.logger.Info().Int64("event_id", eventID).Int64("position_id", positionID).Msg("attestation link deleted")
	return nil
}

// QueueEmail enqueues the attestation email of a position.
func (s *AttestationService) QueueEmail(ctx context.Context, req *model.SendEmailRequest) (*model.JobResponse, error) {
	position, err := loadPosition(ctx, s.repos, req.EventID, req.PositionID)
	if err != nil {
		return nil, err
	}
	if req.To == "" && position.AttendeeEmail == "" {
		return nil, errs.NewBadRequestError("The position has no attendee email", true, nil, []errs.FieldError{
			{Field: "to", Error: "is required"},
		}, nil)
	}

	task, err := job.NewAttestationEmailTask(req.EventID, req.PositionID, req.To)
	if err != nil {
		return nil, err
	}

	info, err := s.jobs.EnqueueContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("enqueueing attestation email: %w", err)
	}

	return &model.JobResponse{TaskID: info.ID, Queue: info.Queue}, nil
}

// QueueOrderGeneration enqueues link pre-generation for every position of an order.
func (s *AttestationService) QueueOrderGeneration(ctx context.Context, eventID, orderID int64) (*model.JobsResponse, error) {
	if _, err := s.repos.Orders.Get(ctx, eventID, orderID); err != nil {
		return nil, notFound(err, "Order")
	}

	positions, err := s.repos.Positions.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	response := &model.JobsResponse{Jobs: make([]model.JobResponse, 0, len(positions))}
	for _, position := range positions {
		task, err := job.NewGenerateAttestationTask(eventID, position.ID)
		if err != nil {
			return nil, err
		}
		info, err := s.jobs.EnqueueContext(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("enqueueing attestation generation: %w", err)
		}
		response.Jobs = append(response.Jobs, model.JobResponse{TaskID: info.ID, Queue: info.Queue})
	}

	return response, nil
}

// PreviewEmail renders the attestation email of the event with the
// placeholder's sample value.
func (s *AttestationService) PreviewEmail(ctx context.Context, eventID int64) (*model.EmailPreviewResponse, error) {
	event, err := loadEvent(ctx, s.repos, eventID)
	if err != nil {
		return nil, err
	}

	html, err := email.Preview(email.TemplateAttestation, email.AttestationEmail{
		Locale:    event.Locale,
		EventName: event.Name,
		Link:      s.placeholders.Samples(event)[placeholder.Identifier],
	})
	if err != nil {
		return nil, err
	}

	return &model.EmailPreviewResponse{
		Subject: i18n.T(event.Locale, i18n.EmailSubject, event.Name),
		HTML:    html,
	}, nil
}

func (s *AttestationService) settingsError(err error, locale, message, code string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewUnprocessableEntityError(i18n.T(locale, message), true, &code)
	}
	return sqlerr.HandleError(err)
}

// linkResponse adds the full URL when the event has a base URL.
func (s *AttestationService) linkResponse(ctx context.Context, eventID int64, link *model.AttestationLink) (*model.LinkResponse, error) {
	response := &model.LinkResponse{OrderPositionID: link.OrderPositionID, MagicLink: link.MagicLink}

	baseURL, err := s.repos.BaseURLs.Get(ctx, eventID)
	switch {
	case err == nil:
		response.URL = baseURL.BaseURL + link.MagicLink
	case !errors.Is(err, repository.ErrNotFound):
		return nil, sqlerr.HandleError(err)
	}

	return response, nil
}
