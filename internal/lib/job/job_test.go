package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/lib/email"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/placeholder"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents map[int64]*model.Event

func (f fakeEvents) Get(_ context.Context, id int64) (*model.Event, error) {
	if e, ok := f[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

type fakePositions map[int64]*model.OrderPosition

func (f fakePositions) Get(_ context.Context, _, id int64) (*model.OrderPosition, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type fakeMailer struct {
	sent []email.AttestationEmail
	err  error
}

func (f *fakeMailer) SendAttestationEmail(_ context.Context, m email.AttestationEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type countingPlaceholder struct {
	renders int
}

func (c *countingPlaceholder) Identifier() string { return placeholder.Identifier }
func (c *countingPlaceholder) RequiredContext() []string {
	return []string{placeholder.ContextEvent, placeholder.ContextPosition}
}
func (c *countingPlaceholder) RenderSample(*model.Event) string { return placeholder.Sample }
func (c *countingPlaceholder) Render(_ context.Context, mctx placeholder.Context) string {
	c.renders++
	return "https://attest.example.org/?ticket=" + mctx.Position.TicketID()
}

func newTestService(t *testing.T) (*JobService, *fakeMailer, *countingPlaceholder) {
	t.Helper()
	logger := zerolog.Nop()
	mailer := &fakeMailer{}
	p := &countingPlaceholder{}
	registry := placeholder.NewRegistry()
	registry.Register(p)

	j := &JobService{logger: &logger}
	j.InitHandlers(Handlers{
		Events: fakeEvents{1: {ID: 1, Name: "DevCon", Locale: "en"}},
		Positions: fakePositions{11: {
			ID: 11, PositionID: 1, OrderCode: "ABC12",
			AttendeeName: "Ada", AttendeeEmail: "ada@example.org",
		}},
		Placeholders: registry,
		Mailer:       mailer,
	})
	return j, mailer, p
}

func mustTask(t *testing.T) func(*asynq.Task, error) *asynq.Task {
	return func(task *asynq.Task, err error) *asynq.Task {
		t.Helper()
		require.NoError(t, err)
		return task
	}
}

func TestTasks(t *testing.T) {
	t.Run("Should encode email payload", func(t *testing.T) {
		task := mustTask(t)(NewAttestationEmailTask(1, 11, "ops@example.org"))
		assert.Equal(t, TaskAttestationEmail, task.Type())

		var p AttestationEmailPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		assert.Equal(t, int64(1), p.EventID)
		assert.Equal(t, int64(11), p.PositionID)
		assert.Equal(t, "ops@example.org", p.To)
	})
}

func TestHandleAttestationEmailTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Should mail rendered link to attendee", func(t *testing.T) {
		j, mailer, _ := newTestService(t)

		err := j.handleAttestationEmailTask(ctx, mustTask(t)(NewAttestationEmailTask(1, 11, "")))
		require.NoError(t, err)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, email.AttestationEmail{
			To:           "ada@example.org",
			Locale:       "en",
			AttendeeName: "Ada",
			EventName:    "DevCon",
			Link:         "https://attest.example.org/?ticket=ABC12-1",
		}, mailer.sent[0])
	})

	t.Run("Should honor explicit recipient", func(t *testing.T) {
		j, mailer, _ := newTestService(t)

		err := j.handleAttestationEmailTask(ctx, mustTask(t)(NewAttestationEmailTask(1, 11, "ops@example.org")))
		require.NoError(t, err)
		assert.Equal(t, "ops@example.org", mailer.sent[0].To)
	})

	t.Run("Should skip retry for vanished position", func(t *testing.T) {
		j, mailer, _ := newTestService(t)

		err := j.handleAttestationEmailTask(ctx, mustTask(t)(NewAttestationEmailTask(1, 99, "")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Empty(t, mailer.sent)
	})

	t.Run("Should return provider error for retry", func(t *testing.T) {
		j, mailer, _ := newTestService(t)
		mailer.err = errors.New("rate limited")

		err := j.handleAttestationEmailTask(ctx, mustTask(t)(NewAttestationEmailTask(1, 11, "")))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandleGenerateAttestationTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Should render placeholder once", func(t *testing.T) {
		j, _, p := newTestService(t)

		err := j.handleGenerateAttestationTask(ctx, mustTask(t)(NewGenerateAttestationTask(1, 11)))
		require.NoError(t, err)
		assert.Equal(t, 1, p.renders)
	})

	t.Run("Should skip retry for vanished event", func(t *testing.T) {
		j, _, p := newTestService(t)

		err := j.handleGenerateAttestationTask(ctx, mustTask(t)(NewGenerateAttestationTask(2, 11)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Zero(t, p.renders)
	})

	t.Run("Should reject malformed payload", func(t *testing.T) {
		j, _, _ := newTestService(t)

		err := j.handleGenerateAttestationTask(ctx, asynq.NewTask(TaskGenerateAttestation, []byte("{")))
		assert.Error(t, err)
	})
}
