package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/deppfellow/attestation-plugin/internal/generator"
	"github.com/deppfellow/attestation-plugin/internal/i18n"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/storage"
	"github.com/hibiken/asynq"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var positionColumns = []string{"id", "order_id", "positionid", "item_id", "attendee_name", "attendee_email", "secret", "order_code", "event_slug"}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(f.tasks)), Queue: "critical"}, nil
}

type testEnv struct {
	pool    pgxmock.PgxPoolIface
	fs      afero.Fs
	storage *storage.KeyFileStorage
	gen     generator.Func
	jobs    *fakeEnqueuer
	deps    Deps
	logger  zerolog.Logger
}

func newTestEnv(t *testing.T, gen generator.Func) *testEnv {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	env := &testEnv{
		pool:   mockPool,
		fs:     afero.NewMemMapFs(),
		gen:    gen,
		jobs:   &fakeEnqueuer{},
		logger: zerolog.Nop(),
	}
	env.storage = storage.New(env.fs, "/data")
	repos := repository.NewRepositories(mockPool)
	env.deps = Deps{
		Repos:     repos,
		Storage:   env.storage,
		Generator: gen,
		Placeholders: placeholder.NewAttestationRegistry(placeholder.Deps{
			BaseURLs:  repos.BaseURLs,
			KeyFiles:  repos.KeyFiles,
			Links:     repos.AttestationLinks,
			Positions: repos.Positions,
			KeyPaths:  env.storage,
			Generator: gen,
			Logger:    &env.logger,
		}),
	}
	return env
}

func (e *testEnv) expectEvent(eventID int64, locale string) {
	e.pool.ExpectQuery("SELECT id, slug, name, locale FROM events WHERE id = \\$1").
		WithArgs(eventID).
		WillReturnRows(e.pool.NewRows([]string{"id", "slug", "name", "locale"}).AddRow(eventID, "devcon", "DevCon", locale))
}

func (e *testEnv) expectPosition(eventID, positionID int64) {
	e.pool.ExpectQuery("FROM order_positions p (.+) WHERE o.event_id = \\$1 AND p.id = \\$2").
		WithArgs(eventID, positionID).
		WillReturnRows(e.pool.NewRows(positionColumns).
			AddRow(positionID, int64(5), 1, int64(2), "Ada", "ada@example.org", "s", "ABC12", "devcon"))
}

func (e *testEnv) expectBaseURL(eventID int64, baseURL string) {
	rows := e.pool.NewRows([]string{"event_id", "base_url"})
	if baseURL != "" {
		rows.AddRow(eventID, baseURL)
	}
	e.pool.ExpectQuery("FROM attestation_base_urls WHERE event_id = \\$1").WithArgs(eventID).WillReturnRows(rows)
}

func (e *testEnv) expectKeyFile(eventID int64, upload string) {
	rows := e.pool.NewRows([]string{"event_id", "upload"})
	if upload != "" {
		rows.AddRow(eventID, upload)
	}
	e.pool.ExpectQuery("FROM attestation_key_files WHERE event_id = \\$1").WithArgs(eventID).WillReturnRows(rows)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Status
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should set base url and return settings", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewSettingsService(&env.logger, env.deps.Repos, env.storage)

		env.expectEvent(1, "en")
		env.pool.ExpectExec("INSERT INTO attestation_base_urls").
			WithArgs(int64(1), "https://attest.example.org/").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.expectEvent(1, "en")
		env.expectBaseURL(1, "https://attest.example.org/")
		env.expectKeyFile(1, "")

		settings, err := svc.SetBaseURL(ctx, 1, "https://attest.example.org/")
		require.NoError(t, err)
		assert.Equal(t, &model.Settings{EventID: 1, BaseURL: "https://attest.example.org/"}, settings)
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})

	t.Run("Should answer 404 for unknown event", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewSettingsService(&env.logger, env.deps.Repos, env.storage)
		env.pool.ExpectQuery("FROM events").
			WithArgs(int64(2)).
			WillReturnRows(env.pool.NewRows([]string{"id", "slug", "name", "locale"}))

		_, err := svc.GetSettings(ctx, 2)
		assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})

	t.Run("Should replace key file and remove the old one", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewSettingsService(&env.logger, env.deps.Repos, env.storage)
		oldName, err := env.storage.Save(ctx, "old.pem", strings.NewReader("OLD"))
		require.NoError(t, err)

		env.expectEvent(1, "en")
		env.expectKeyFile(1, oldName)
		env.pool.ExpectExec("INSERT INTO attestation_key_files (.+) ON CONFLICT \\(event_id\\)").
			WithArgs(int64(1), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.expectEvent(1, "en")
		env.expectBaseURL(1, "")
		env.pool.ExpectQuery("FROM attestation_key_files WHERE event_id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(env.pool.NewRows([]string{"event_id", "upload"}).AddRow(int64(1), storage.KeyFileDir+"/new.pem"))

		_, err = svc.UploadKeyFile(ctx, 1, "new.pem", strings.NewReader("NEW"))
		require.NoError(t, err)

		exists, err := env.storage.Exists(oldName)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})

	t.Run("Should remove stored file when saving row fails", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewSettingsService(&env.logger, env.deps.Repos, env.storage)

		env.expectEvent(1, "en")
		env.expectKeyFile(1, "")
		env.pool.ExpectExec("INSERT INTO attestation_key_files").
			WithArgs(int64(1), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		_, err := svc.UploadKeyFile(ctx, 1, "new.pem", strings.NewReader("NEW"))
		assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))

		entries, err := afero.ReadDir(env.fs, "/data/"+storage.KeyFileDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Should answer 404 when deleting missing key file", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewSettingsService(&env.logger, env.deps.Repos, env.storage)
		env.expectEvent(1, "en")
		env.expectKeyFile(1, "")

		err := svc.DeleteKeyFile(ctx, 1)
		assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	})
}

func TestAttestationService_Regenerate(t *testing.T) {
	ctx := context.Background()
	keyName := storage.KeyFileDir + "/k.pem"

	t.Run("Should overwrite stored link", func(t *testing.T) {
		var keyPath string
		env := newTestEnv(t, func(_ context.Context, position *model.OrderPosition, path string) (string, error) {
			keyPath = path
			return "?ticket=" + position.TicketID(), nil
		})
		svc := NewAttestationService(&env.logger, env.deps, env.jobs)

		env.expectEvent(1, "en")
		env.expectPosition(1, 11)
		env.expectBaseURL(1, "https://attest.example.org/")
		env.expectKeyFile(1, keyName)
		env.pool.ExpectExec("INSERT INTO attestation_links (.+) ON CONFLICT \\(order_position_id\\) DO UPDATE").
			WithArgs(int64(11), "?ticket=ABC12-1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.expectBaseURL(1, "https://attest.example.org/")

		link, err := svc.Regenerate(ctx, 1, 11)
		require.NoError(t, err)
		assert.Equal(t, "https://attest.example.org/?ticket=ABC12-1", link.URL)
		assert.Equal(t, env.storage.Path(keyName), keyPath)
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})

	t.Run("Should answer 422 with translated message without key file", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewAttestationService(&env.logger, env.deps, env.jobs)

		env.expectEvent(1, "de")
		env.expectPosition(1, 11)
		env.expectBaseURL(1, "https://attest.example.org/")
		env.expectKeyFile(1, "")

		_, err := svc.Regenerate(ctx, 1, 11)
		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
		assert.Equal(t, "MISSING_KEY_FILE", httpErr.Code)
		assert.Equal(t, i18n.T("de", i18n.MissingKeyFile), httpErr.Message)
	})

	t.Run("Should answer 422 on generator value error and persist nothing", func(t *testing.T) {
		env := newTestEnv(t, func(context.Context, *model.OrderPosition, string) (string, error) {
			return "", generator.ErrValue
		})
		svc := NewAttestationService(&env.logger, env.deps, env.jobs)

		env.expectEvent(1, "en")
		env.expectPosition(1, 11)
		env.expectBaseURL(1, "https://attest.example.org/")
		env.expectKeyFile(1, keyName)

		_, err := svc.Regenerate(ctx, 1, 11)
		assert.Equal(t, http.StatusUnprocessableEntity, httpStatus(t, err))
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})
}

func TestAttestationService_Render(t *testing.T) {
	t.Run("Should render stored link for position", func(t *testing.T) {
		env := newTestEnv(t, func(context.Context, *model.OrderPosition, string) (string, error) {
			t.Fatal("generator must not run for stored links")
			return "", nil
		})
		svc := NewAttestationService(&env.logger, env.deps, env.jobs)
		positionID := int64(11)

		env.expectEvent(1, "en")
		env.expectPosition(1, 11)
		env.expectBaseURL(1, "https://attest.example.org/")
		env.expectKeyFile(1, storage.KeyFileDir+"/k.pem")
		env.pool.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(11)).
			WillReturnRows(env.pool.NewRows([]string{"exists"}).AddRow(true))
		env.pool.ExpectQuery("FROM attestation_links WHERE order_position_id = \\$1").
			WithArgs(int64(11)).
			WillReturnRows(env.pool.NewRows([]string{"order_position_id", "magic_link"}).AddRow(int64(11), "?ticket=stored"))

		got, err := svc.Render(context.Background(), &model.RenderRequest{EventID: 1, PositionID: &positionID})
		require.NoError(t, err)
		assert.Equal(t, &model.RenderResponse{Identifier: placeholder.Identifier, Value: "https://attest.example.org/?ticket=stored"}, got)
		assert.NoError(t, env.pool.ExpectationsWereMet())
	})
}

func TestAttestationService_QueueEmail(t *testing.T) {
	t.Run("Should enqueue email task", func(t *testing.T) {
		env := newTestEnv(t, nil)
		svc := NewAttestationService(&env.logger, env.deps, env.jobs)
		env.expectPosition(1, 11)

		res, err := svc.QueueEmail(context.Background(), &model.SendEmailRequest{EventID: 1, PositionID: 11})
		require.NoError(t, err)
		assert.Equal(t, "task-1", res.TaskID)
		require.Len(t, env.jobs.tasks, 1)
		assert.Equal(t, "email:attestation", env.jobs.tasks[0].Type())
	})
}

func TestAttestationService_PreviewEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAttestationService(&env.logger, env.deps, env.jobs)
	env.expectEvent(1, "en")

	preview, err := svc.PreviewEmail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Your attestation link for DevCon", preview.Subject)
	assert.Contains(t, preview.HTML, placeholder.Sample)
}
