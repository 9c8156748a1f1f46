package handler

import (
	"context"

	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/labstack/echo/v4"
)

// AttestationService is what AttestationHandler needs from the service layer.
type AttestationService interface {
	Render(ctx context.Context, req *model.RenderRequest) (*model.RenderResponse, error)
	GetLink(ctx context.Context, eventID, positionID int64) (*model.LinkResponse, error)
	Regenerate(ctx context.Context, eventID, positionID int64) (*model.LinkResponse, error)
	DeleteLink(ctx context.Context, eventID, positionID int64) error
	QueueEmail(ctx context.Context, req *model.SendEmailRequest) (*model.JobResponse, error)
	QueueOrderGeneration(ctx context.Context, eventID, orderID int64) (*model.JobsResponse, error)
	PreviewEmail(ctx context.Context, eventID int64) (*model.EmailPreviewResponse, error)
}

type AttestationHandler struct {
	Handler
	attestation AttestationService
}

func NewAttestationHandler(s *server.Server, attestation AttestationService) *AttestationHandler {
	return &AttestationHandler{
		Handler:     NewHandler(s),
		attestation: attestation,
	}
}

func (h *AttestationHandler) Render(c echo.Context, req *model.RenderRequest) (*model.RenderResponse, error) {
	return h.attestation.Render(c.Request().Context(), req)
}

func (h *AttestationHandler) GetLink(c echo.Context, req *model.PositionRequest) (*model.LinkResponse, error) {
	return h.attestation.GetLink(c.Request().Context(), req.EventID, req.PositionID)
}

func (h *AttestationHandler) Regenerate(c echo.Context, req *model.PositionRequest) (*model.LinkResponse, error) {
	return h.attestation.Regenerate(c.Request().Context(), req.EventID, req.PositionID)
}

func (h *AttestationHandler) DeleteLink(c echo.Context, req *model.PositionRequest) error {
	return h.attestation.DeleteLink(c.Request().Context(), req.EventID, req.PositionID)
}

func (h *AttestationHandler) QueueEmail(c echo.Context, req *model.SendEmailRequest) (*model.JobResponse, error) {
	return h.attestation.QueueEmail(c.Request().Context(), req)
}

func (h *AttestationHandler) QueueOrderGeneration(c echo.Context, req *model.OrderRequest) (*model.JobsResponse, error) {
	return h.attestation.QueueOrderGeneration(c.Request().Context(), req.EventID, req.OrderID)
}

func (h *AttestationHandler) PreviewEmail(c echo.Context, req *model.EmailPreviewRequest) (*model.EmailPreviewResponse, error) {
	return h.attestation.PreviewEmail(c.Request().Context(), req.EventID)
}
