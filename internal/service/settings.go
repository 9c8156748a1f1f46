package service

import (
	"context"
	"errors"
	"io"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/sqlerr"
	"github.com/deppfellow/attestation-plugin/internal/storage"
	"github.com/rs/zerolog"
)

// SettingsService manages the per-event base URL and key file.
type SettingsService struct {
	logger  *zerolog.Logger
	repos   *repository.Repositories
	storage *storage.KeyFileStorage
}

func NewSettingsService(logger *zerolog.Logger, repos *repository.Repositories, storage *storage.KeyFileStorage) *SettingsService {
	return &SettingsService{logger: logger, repos: repos, storage: storage}
}

// GetSettings returns what is configured for the event. Missing rows
// leave the fields empty.
func (s *SettingsService) GetSettings(ctx context.Context, eventID int64) (*model.Settings, error) {
	if _, err := loadEvent(ctx, s.repos, eventID); err != nil {
		return nil, err
	}

	settings := &model.Settings{EventID: eventID}

	baseURL, err := s.repos.BaseURLs.Get(ctx, eventID)
	switch {
	case err == nil:
		settings.BaseURL = baseURL.BaseURL
	case !errors.Is(err, repository.ErrNotFound):
		return nil, sqlerr.HandleError(err)
	}

	keyFile, err := s.repos.KeyFiles.Get(ctx, eventID)
	switch {
	case err == nil:
		settings.KeyFile = keyFile.Upload
		present, err := s.storage.Exists(keyFile.Upload)
		if err != nil {
			s.logger.Warn().Err(err).Int64("event_id", eventID).Msg("failed to stat key file")
		}
		settings.KeyFilePresent = present
	case !errors.Is(err, repository.ErrNotFound):
		return nil, sqlerr.HandleError(err)
	}

	return settings, nil
}

// SetBaseURL creates or replaces the base URL of the event.
func (s *SettingsService) SetBaseURL(ctx context.Context, eventID int64, baseURL string) (*model.Settings, error) {
	if _, err := loadEvent(ctx, s.repos, eventID); err != nil {
		return nil, err
	}

	if err := s.repos.BaseURLs.Upsert(ctx, &model.BaseURL{EventID: eventID, BaseURL: baseURL}); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	s.logger.Info().Int64("event_id", eventID).Str("base_url", baseURL).Msg("base url updated")

	return s.GetSettings(ctx, eventID)
}

// UploadKeyFile stores a new key file for the event and removes the one
// it replaces. Existing attestation links are kept.
func (s *SettingsService) UploadKeyFile(ctx context.Context, eventID int64, filename string, r io.Reader) (*model.Settings, error) {
	if _, err := loadEvent(ctx, s.repos, eventID); err != nil {
		return nil, err
	}

	previous, err := s.repos.KeyFiles.Get(ctx, eventID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, sqlerr.HandleError(err)
	}

	name, err := s.storage.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, errs.NewBadRequestError("Key file is too large", true, nil, []errs.FieldError{
				{Field: "upload", Error: "must not exceed 1 MiB"},
			}, nil)
		}
		return nil, err
	}

	if err := s.repos.KeyFiles.Upsert(ctx, &model.KeyFile{EventID: eventID, Upload: name}); err != nil {
		if removeErr := s.storage.Delete(name); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("upload", name).Msg("failed to remove orphaned key file")
		}
		return nil, sqlerr.HandleError(err)
	}

	if previous != nil && previous.Upload != name {
		if err := s.storage.Delete(previous.Upload); err != nil {
			s.logger.Warn().Err(err).Str("upload", previous.Upload).Msg("failed to remove replaced key file")
		}
	}

	s.logger.Info().Int64("event_id", eventID).Str("upload", name).Msg("key file uploaded")

	return s.GetSettings(ctx, eventID)
}

// DeleteKeyFile removes the key file of the event from the database and disk.
func (s *SettingsService) DeleteKeyFile(ctx context.Context, eventID int64) error {
	if _, err := loadEvent(ctx, s.repos, eventID); err != nil {
		return err
	}

	keyFile, err := s.repos.KeyFiles.Get(ctx, eventID)
	if err != nil {
		return notFound(err, "Key file")
	}

	if err := s.repos.KeyFiles.Delete(ctx, eventID); err != nil {
		return notFound(err, "Key file")
	}

	if err := s.storage.Delete(keyFile.Upload); err != nil {
		s.logger.Warn().Err(err).Str("upload", keyFile.Upload).Msg("failed to remove key file")
	}

	s.logger.Info().Int64("event_id", eventID).Msg("key file deleted")
	return nil
}

// CheckStorage reports whether the key file storage is usable.
func (s *SettingsService) CheckStorage() error {
	return s.storage.Check()
}
