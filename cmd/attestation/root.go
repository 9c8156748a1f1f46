package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/attestation-plugin/internal/config"
	"github.com/deppfellow/attestation-plugin/internal/database"
	"github.com/deppfellow/attestation-plugin/internal/generator"
	"github.com/deppfellow/attestation-plugin/internal/handler"
	"github.com/deppfellow/attestation-plugin/internal/lib/email"
	"github.com/deppfellow/attestation-plugin/internal/lib/job"
	"github.com/deppfellow/attestation-plugin/internal/logger"
	"github.com/deppfellow/attestation-plugin/internal/middleware"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/router"
	"github.com/deppfellow/attestation-plugin/internal/server"
	"github.com/deppfellow/attestation-plugin/internal/service"
	"github.com/deppfellow/attestation-plugin/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attestation",
		Short:         "Attestation magic-link service for ticket mails",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
	)

	return root
}

// app is the process-wide setup shared by every command.
type app struct {
	cfg           *config.Config
	loggerService *logger.LoggerService
	log           zerolog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	return &app{
		cfg:           cfg,
		loggerService: loggerService,
		log:           logger.NewLoggerWithService(cfg.Observability, loggerService),
	}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			if err := database.Migrate(cmd.Context(), &a.log, a.cfg); err != nil {
				a.log.Error().Err(err).Msg("failed to migrate database")
				return err
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and the job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.loggerService.Shutdown()

			if err := a.serve(cmd.Context(), migrate); err != nil {
				a.log.Error().Err(err).Msg("server stopped with error")
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before serving")

	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := database.Migrate(ctx, &a.log, a.cfg); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	srv, err := server.New(a.cfg, &a.log, a.loggerService)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(srv.DB.Pool)

	keyFiles, err := storage.NewOS(a.cfg.Attestation.StorageRoot)
	if err != nil {
		return err
	}

	gen, err := generator.NewCommandGenerator(a.cfg.Attestation.GeneratorCommand, a.cfg.Attestation.GeneratorTimeout, afero.NewOsFs(), &a.log)
	if err != nil {
		return err
	}

	placeholders := placeholder.NewAttestationRegistry(placeholder.Deps{
		BaseURLs:  repos.BaseURLs,
		KeyFiles:  repos.KeyFiles,
		Links:     repos.AttestationLinks,
		Positions: repos.Positions,
		KeyPaths:  keyFiles,
		Generator: gen,
		Logger:    &a.log,
	})

	services, err := service.NewServices(srv, service.Deps{
		Repos:        repos,
		Storage:      keyFiles,
		Generator:    gen,
		Placeholders: placeholders,
	})
	if err != nil {
		return fmt.Errorf("could not create services: %w", err)
	}

	if err := srv.StartJobs(job.Handlers{
		Events:       repos.Events,
		Positions:    repos.Positions,
		Placeholders: placeholders,
		Mailer:       email.NewClient(a.cfg, &a.log),
	}); err != nil {
		return fmt.Errorf("starting job workers: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers, middleware.NewMiddlewares(srv))
	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info().Msg("server exited properly")
	return nil
}
