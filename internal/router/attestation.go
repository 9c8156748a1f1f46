package router

import (
	"net/http"

	"github.com/deppfellow/attestation-plugin/internal/handler"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/labstack/echo/v4"
)

func registerAttestationRoutes(v1 *echo.Group, h *handler.Handlers) {
	settings := h.Settings
	attestation := h.Attestation

	g := v1.Group("/events/:event_id/attestation")

	g.GET("/settings", handler.Handle(settings.Handler, settings.GetSettings, http.StatusOK, &model.EventRequest{}))
	g.PUT("/base-url", handler.Handle(settings.Handler, settings.SetBaseURL, http.StatusOK, &model.SetBaseURLRequest{}))
	g.POST("/key-file", handler.Handle(settings.Handler, settings.UploadKeyFile, http.StatusOK, &model.EventRequest{}))
	g.DELETE("/key-file", handler.HandleNoContent(settings.Handler, settings.DeleteKeyFile, http.StatusNoContent, &model.EventRequest{}))

	g.POST("/render", handler.Handle(attestation.Handler, attestation.Render, http.StatusOK, &model.RenderRequest{}))
	g.GET("/email-preview", handler.Handle(attestation.Handler, attestation.PreviewEmail, http.StatusOK, &model.EmailPreviewRequest{}))
	g.POST("/orders/:order_id/generate", handler.Handle(attestation.Handler, attestation.QueueOrderGeneration, http.StatusAccepted, &model.OrderRequest{}))

	positions := g.Group("/positions/:position_id")
	positions.GET("", handler.Handle(attestation.Handler, attestation.GetLink, http.StatusOK, &model.PositionRequest{}))
	positions.DELETE("", handler.HandleNoContent(attestation.Handler, attestation.DeleteLink, http.StatusNoContent, &model.PositionRequest{}))
	positions.POST("/regenerate", handler.Handle(attestation.Handler, attestation.Regenerate, http.StatusOK, &model.PositionRequest{}))
	positions.POST("/email", handler.Handle(attestation.Handler, attestation.QueueEmail, http.StatusAccepted, &model.SendEmailRequest{}))
}
