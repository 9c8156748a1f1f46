// Package placeholder renders the "attestation_link" mail placeholder.
//
// Two variants share the identifier: one renders for an order (using its
// first position), the other for a single position. The Registry picks
// the variant that fits the mail context.
package placeholder

import (
	"context"
	"errors"

	"github.com/deppfellow/attestation-plugin/internal/generator"
	"github.com/deppfellow/attestation-plugin/internal/i18n"
	"github.com/deppfellow/attestation-plugin/internal/metrics"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/rs/zerolog"
)

// Identifier is the name templates use, e.g. "{attestation_link}".
const Identifier = "attestation_link"

// Sample is shown in template previews instead of a real link.
const Sample = "http://localhost/?ticket=MIGZMAoCAQYCAgTRA…"

// Context keys a placeholder can require.
const (
	ContextEvent    = "event"
	ContextOrder    = "order"
	ContextPosition = "position"
)

// Context is the mail rendering context.
type Context struct {
	Event    *model.Event
	Order    *model.Order
	Position *model.OrderPosition
}

// Has reports whether the context carries key.
func (c Context) Has(key string) bool {
	switch key {
	case ContextEvent:
		return c.Event != nil
	case ContextOrder:
		return c.Order != nil
	case ContextPosition:
		return c.Position != nil
	default:
		return false
	}
}

// Placeholder is a mail text placeholder.
type Placeholder interface {
	Identifier() string
	RequiredContext() []string
	Render(ctx context.Context, mctx Context) string
	RenderSample(event *model.Event) string
}

type BaseURLStore interface {
	Get(ctx context.Context, eventID int64) (*model.BaseURL, error)
}

type KeyFileStore interface {
	Get(ctx context.Context, eventID int64) (*model.KeyFile, error)
}

type LinkStore interface {
	Exists(ctx context.Context, positionID int64) (bool, error)
	Get(ctx context.Context, positionID int64) (*model.AttestationLink, error)
	Upsert(ctx context.Context, link *model.AttestationLink) error
}

type PositionStore interface {
	FirstByOrder(ctx context.Context, orderID int64) (*model.OrderPosition, error)
}

// KeyPathResolver turns a stored key file name into the path handed to
// the generator.
type KeyPathResolver interface {
	Path(name string) string
}

// Deps are the collaborators of the attestation placeholders.
type Deps struct {
	BaseURLs  BaseURLStore
	KeyFiles  KeyFileStore
	Links     LinkStore
	Positions PositionStore
	KeyPaths  KeyPathResolver
	Generator generator.Generator
	Logger    *zerolog.Logger
}

// PositionResolver finds the position a render is about.
type PositionResolver func(ctx context.Context, mctx Context) (*model.OrderPosition, error)

// AttestationPlaceholder renders base URL + magic link of a position,
// generating and storing the link on first use.
type AttestationPlaceholder struct {
	deps     Deps
	variant  string
	required []string
	resolve  PositionResolver
}

// NewOrderPlaceholder renders for the first position of the order in the
// context. It is meant for orders whose positions carry no attendee email.
func NewOrderPlaceholder(deps Deps) *AttestationPlaceholder {
	return &AttestationPlaceholder{
		deps:     withDefaults(deps),
		variant:  "order",
		required: []string{ContextEvent, ContextOrder},
		resolve: func(ctx context.Context, mctx Context) (*model.OrderPosition, error) {
			if mctx.Order == nil {
				return nil, nil
			}
			return deps.Positions.FirstByOrder(ctx, mctx.Order.ID)
		},
	}
}

// NewPositionPlaceholder renders for the position in the context.
func NewPositionPlaceholder(deps Deps) *AttestationPlaceholder {
	return &AttestationPlaceholder{
		deps:     withDefaults(deps),
		variant:  "position",
		required: []string{ContextEvent, ContextPosition},
		resolve: func(_ context.Context, mctx Context) (*model.OrderPosition, error) {
			return mctx.Position, nil
		},
	}
}

func withDefaults(deps Deps) Deps {
	if deps.Logger == nil {
		nop := zerolog.Nop()
		deps.Logger = &nop
	}
	return deps
}

func (p *AttestationPlaceholder) Identifier() string { return Identifier }

func (p *AttestationPlaceholder) RequiredContext() []string { return p.required }

// Variant is "order" or "position".
func (p *AttestationPlaceholder) Variant() string { return p.variant }

func (p *AttestationPlaceholder) RenderSample(*model.Event) string { return Sample }

// Render never fails: every problem turns into a translated message.
func (p *AttestationPlaceholder) Render(ctx context.Context, mctx Context) string {
	text, outcome := p.render(ctx, mctx)
	metrics.PlaceholderRendersTotal.WithLabelValues(p.variant, outcome).Inc()
	return text
}

func (p *AttestationPlaceholder) render(ctx context.Context, mctx Context) (string, string) {
	event := mctx.Event
	locale := ""
	if event != nil {
		locale = event.Locale
	}
	fail := func(key, outcome string) (string, string) {
		return i18n.T(locale, key), outcome
	}
	if event == nil {
		return fail(i18n.MissingBaseURL, metrics.OutcomeMissingBaseURL)
	}

	base := p.deps.Logger
	if reqLogger := zerolog.Ctx(ctx); reqLogger.GetLevel() != zerolog.Disabled {
		base = reqLogger
	}
	log := base.With().
		Str("placeholder", Identifier).
		Str("variant", p.variant).
		Int64("event_id", event.ID).
		Logger()

	baseURL, err := p.deps.BaseURLs.Get(ctx, event.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to load base url")
		}
		return fail(i18n.MissingBaseURL, metrics.OutcomeMissingBaseURL)
	}

	keyFile, err := p.deps.KeyFiles.Get(ctx, event.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to load key file")
		}
		return fail(i18n.MissingKeyFile, metrics.OutcomeMissingKeyFile)
	}

	position, err := p.resolve(ctx, mctx)
	if err != nil || position == nil {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to resolve order position")
		} else {
			log.Warn().Msg("no order position to render attestation link for")
		}
		return fail(i18n.GenerationFailed, metrics.OutcomeGenerationFailed)
	}
	log = log.With().Int64("position_id", position.ID).Logger()

	outcome := metrics.OutcomeCached
	exists, err := p.deps.Links.Exists(ctx, position.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check attestation link")
		return fail(i18n.MissingAttestationLink, metrics.OutcomeMissingLink)
	}

	if !exists {
		link, err := p.deps.Generator.GenerateLink(ctx, position, p.deps.KeyPaths.Path(keyFile.Upload))
		if err != nil {
			if errors.Is(err, generator.ErrValue) {
				log.Warn().Err(err).Msg("attestation link generation rejected")
			} else {
				log.Error().Err(err).Msg("attestation link generator failed")
			}
			return fail(i18n.GenerationFailed, metrics.OutcomeGenerationFailed)
		}

		err = p.deps.Links.Upsert(ctx, &model.AttestationLink{OrderPositionID: position.ID, MagicLink: link})
		if err != nil {
			log.Error().Err(err).Msg("failed to store attestation link")
		}
		outcome = metrics.OutcomeOK
	}

	link, err := p.deps.Links.Get(ctx, position.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to load attestation link")
		}
		return fail(i18n.MissingAttestationLink, metrics.OutcomeMissingLink)
	}

	return baseURL.BaseURL + link.MagicLink, outcome
}
