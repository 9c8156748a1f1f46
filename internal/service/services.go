package service

import (
	"github.com/deppfellow/attestation-plugin/internal/generator"
	"github.com/deppfellow/attestation-plugin/internal/lib/job"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/deppfellow/attestation-plugin/internal/storage"
)

type Services struct {
	Auth        *AuthService
	Job         *job.JobService
	Settings    *SettingsService
	Attestation *AttestationService
}

// Deps are the domain collaborators shared by the services.
type Deps struct {
	Repos        *repository.Repositories
	Storage      *storage.KeyFileStorage
	Generator    generator.Generator
	Placeholders *placeholder.Registry
}

func NewServices(s *server.Server, deps Deps) (*Services, error) {
	return &Services{
		Job:         s.Job,
		Auth:        NewAuthService(s),
		Settings:    NewSettingsService(s.Logger, deps.Repos, deps.Storage),
		Attestation: NewAttestationService(s.Logger, deps, s.Job.Client),
	}, nil
}
