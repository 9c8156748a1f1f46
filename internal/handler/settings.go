package handler

import (
	"context"
	"io"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/labstack/echo/v4"
)

// KeyFileField is the multipart field carrying an uploaded key file.
const KeyFileField = "upload"

// SettingsService is what SettingsHandler needs from the service layer.
type SettingsService interface {
	GetSettings(ctx context.Context, eventID int64) (*model.Settings, error)
	SetBaseURL(ctx context.Context, eventID int64, baseURL string) (*model.Settings, error)
	UploadKeyFile(ctx context.Context, eventID int64, filename string, r io.Reader) (*model.Settings, error)
	DeleteKeyFile(ctx context.Context, eventID int64) error
}

type SettingsHandler struct {
	Handler
	settings SettingsService
}

func NewSettingsHandler(s *server.Server, settings SettingsService) *SettingsHandler {
	return &SettingsHandler{
		Handler:  NewHandler(s),
		settings: settings,
	}
}

func (h *SettingsHandler) GetSettings(c echo.Context, req *model.EventRequest) (*model.Settings, error) {
	return h.settings.GetSettings(c.Request().Context(), req.EventID)
}

func (h *SettingsHandler) SetBaseURL(c echo.Context, req *model.SetBaseURLRequest) (*model.Settings, error) {
	return h.settings.SetBaseURL(c.Request().Context(), req.EventID, req.BaseURL)
}

// UploadKeyFile stores the multipart field "upload" as the event's key file,
// replacing any earlier upload.
func (h *SettingsHandler) UploadKeyFile(c echo.Context, req *model.EventRequest) (*model.Settings, error) {
	fileHeader, err := c.FormFile(KeyFileField)
	if err != nil {
		return nil, errs.NewBadRequestError("A key file is required", true, nil, []errs.FieldError{
			{Field: KeyFileField, Error: "is required"},
		}, nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return h.settings.UploadKeyFile(c.Request().Context(), req.EventID, fileHeader.Filename, file)
}

func (h *SettingsHandler) DeleteKeyFile(c echo.Context, req *model.EventRequest) error {
	return h.settings.DeleteKeyFile(c.Request().Context(), req.EventID)
}
