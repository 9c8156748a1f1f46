package placeholder

import (
	"context"
	"sync"

	"github.com/deppfellow/attestation-plugin/internal/model"
)

// Registry holds the placeholders available to mail templates.
// When two placeholders share an identifier the later registration wins
// for every context it can render.
type Registry struct {
	mu           sync.RWMutex
	placeholders []Placeholder
}

func NewRegistry() *Registry {
	return &Registry{}
}

// NewAttestationRegistry registers the order variant, then the position
// variant, so attendee mails render for their own position.
func NewAttestationRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(NewOrderPlaceholder(deps), NewPositionPlaceholder(deps))
	return r
}

func (r *Registry) Register(placeholders ...Placeholder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placeholders = append(r.placeholders, placeholders...)
}

// Placeholders returns the registered placeholders in registration order.
func (r *Registry) Placeholders() []Placeholder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Placeholder(nil), r.placeholders...)
}

// Resolve returns, per identifier, the latest placeholder whose required
// context is present in mctx.
func (r *Registry) Resolve(mctx Context) map[string]Placeholder {
	placeholders := r.Placeholders()
	resolved := make(map[string]Placeholder, len(placeholders))
	for i := len(placeholders) - 1; i >= 0; i-- {
		p := placeholders[i]
		if _, ok := resolved[p.Identifier()]; ok {
			continue
		}
		if satisfies(mctx, p.RequiredContext()) {
			resolved[p.Identifier()] = p
		}
	}
	return resolved
}

// Values renders every placeholder resolved for mctx.
func (r *Registry) Values(ctx context.Context, mctx Context) map[string]string {
	resolved := r.Resolve(mctx)
	values := make(map[string]string, len(resolved))
	for identifier, p := range resolved {
		values[identifier] = p.Render(ctx, mctx)
	}
	return values
}

// Samples renders preview values for every identifier.
func (r *Registry) Samples(event *model.Event) map[string]string {
	placeholders := r.Placeholders()
	samples := make(map[string]string, len(placeholders))
	for _, p := range placeholders {
		samples[p.Identifier()] = p.RenderSample(event)
	}
	return samples
}

func satisfies(mctx Context, required []string) bool {
	for _, key := range required {
		if !mctx.Has(key) {
			return false
		}
	}
	return true
}
