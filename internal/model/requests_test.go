package model

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
	}
	return fields
}

func TestSetBaseURLRequest(t *testing.T) {
	t.Run("Should accept absolute URL", func(t *testing.T) {
		r := &SetBaseURLRequest{EventID: 1, BaseURL: "https://attest.example.org/"}
		assert.NoError(t, r.Validate())
	})

	t.Run("Should reject relative and oversized URLs", func(t *testing.T) {
		r := &SetBaseURLRequest{EventID: 1, BaseURL: "not a url"}
		assert.Equal(t, []string{"base_url"}, failedFields(t, r.Validate()))

		r.BaseURL = "https://example.org/" + strings.Repeat("a", MaxURLLength)
		assert.Equal(t, []string{"base_url"}, failedFields(t, r.Validate()))
	})
}

func TestRenderRequest(t *testing.T) {
	t.Run("Should accept either order or position", func(t *testing.T) {
		assert.NoError(t, (&RenderRequest{EventID: 1, OrderID: ptr(5)}).Validate())
		assert.NoError(t, (&RenderRequest{EventID: 1, PositionID: ptr(11)}).Validate())
	})

	t.Run("Should require one of order and position", func(t *testing.T) {
		fields := failedFields(t, (&RenderRequest{EventID: 1}).Validate())
		assert.ElementsMatch(t, []string{"order_id", "position_id"}, fields)
	})

	t.Run("Should reject both order and position", func(t *testing.T) {
		fields := failedFields(t, (&RenderRequest{EventID: 1, OrderID: ptr(5), PositionID: ptr(11)}).Validate())
		assert.Equal(t, []string{"order_id"}, fields)
	})
}

func TestSendEmailRequest(t *testing.T) {
	assert.NoError(t, (&SendEmailRequest{EventID: 1, PositionID: 11}).Validate())
	assert.Equal(t, []string{"to"}, failedFields(t, (&SendEmailRequest{EventID: 1, PositionID: 11, To: "nope"}).Validate()))
	assert.Equal(t, []string{"position_id"}, failedFields(t, (&SendEmailRequest{EventID: 1}).Validate()))
}
