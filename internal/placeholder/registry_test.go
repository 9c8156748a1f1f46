package placeholder

import (
	"context"
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/stretchr/testify/assert"
)

type staticPlaceholder struct {
	identifier string
	required   []string
	value      string
	renders    *int
}

func (s staticPlaceholder) Identifier() string        { return s.identifier }
func (s staticPlaceholder) RequiredContext() []string { return s.required }
func (s staticPlaceholder) RenderSample(*model.Event) string {
	return "sample:" + s.value
}

func (s staticPlaceholder) Render(context.Context, Context) string {
	if s.renders != nil {
		*s.renders++
	}
	return s.value
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	event := &model.Event{ID: 1}
	order := &model.Order{ID: 5}
	position := &model.OrderPosition{ID: 11}

	t.Run("Should prefer later registration when both fit", func(t *testing.T) {
		orderRenders := 0
		r := NewRegistry()
		r.Register(
			staticPlaceholder{identifier: Identifier, required: []string{ContextEvent, ContextOrder}, value: "order", renders: &orderRenders},
			staticPlaceholder{identifier: Identifier, required: []string{ContextEvent, ContextPosition}, value: "position"},
		)

		values := r.Values(ctx, Context{Event: event, Order: order, Position: position})
		assert.Equal(t, map[string]string{Identifier: "position"}, values)
		assert.Zero(t, orderRenders)
	})

	t.Run("Should fall back to earlier registration when context is missing", func(t *testing.T) {
		r := NewRegistry()
		r.Register(
			staticPlaceholder{identifier: Identifier, required: []string{ContextEvent, ContextOrder}, value: "order"},
			staticPlaceholder{identifier: Identifier, required: []string{ContextEvent, ContextPosition}, value: "position"},
		)

		values := r.Values(ctx, Context{Event: event, Order: order})
		assert.Equal(t, map[string]string{Identifier: "order"}, values)
	})

	t.Run("Should skip placeholders without required context", func(t *testing.T) {
		r := NewRegistry()
		r.Register(staticPlaceholder{identifier: Identifier, required: []string{ContextEvent, ContextPosition}, value: "position"})

		assert.Empty(t, r.Values(ctx, Context{Order: order, Position: position}))
	})

	t.Run("Should render samples per identifier", func(t *testing.T) {
		r := NewRegistry()
		r.Register(
			staticPlaceholder{identifier: Identifier, value: "a"},
			staticPlaceholder{identifier: "other", value: "b"},
		)

		assert.Equal(t, map[string]string{Identifier: "sample:a", "other": "sample:b"}, r.Samples(event))
	})

	t.Run("Should register order before position variant", func(t *testing.T) {
		f := newFixture()
		placeholders := NewAttestationRegistry(f.deps).Placeholders()

		assert.Len(t, placeholders, 2)
		assert.Equal(t, "order", placeholders[0].(*AttestationPlaceholder).Variant())
		assert.Equal(t, "position", placeholders[1].(*AttestationPlaceholder).Variant())
	})
}
