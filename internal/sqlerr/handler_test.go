package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	t.Run("Should map foreign key violation on unknown event", func(t *testing.T) {
		err := HandleError(fmt.Errorf("upsert base url: %w", &pgconn.PgError{
			Code:       "23503",
			Severity:   "ERROR",
			TableName:  "attestation_base_urls",
			ColumnName: "event_id",
		}))

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "BASE_URL_NOT_FOUND", httpErr.Code)
		assert.Equal(t, "The referenced event does not exist", httpErr.Message)
	})

	t.Run("Should map overly long base url", func(t *testing.T) {
		err := HandleError(&pgconn.PgError{Code: "22001", TableName: "attestation_base_urls"})

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "BASE_URL_INVALID", httpErr.Code)
	})

	t.Run("Should name column on unique violation", func(t *testing.T) {
		err := HandleError(&pgconn.PgError{
			Code:           "23505",
			TableName:      "attestation_key_files",
			ConstraintName: "attestation_key_files_upload_key",
		})

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, "A key file with this Upload already exists", httpErr.Message)
	})

	t.Run("Should map no rows with table hint to not found", func(t *testing.T) {
		err := HandleError(fmt.Errorf("table:attestation_links: %w", pgx.ErrNoRows))

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
		assert.Equal(t, "Attestation Link not found", httpErr.Message)
	})

	t.Run("Should pass HTTPError through", func(t *testing.T) {
		in := errs.NewForbiddenError("nope", false)
		assert.Same(t, in, HandleError(in))
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		err := HandleError(errors.New("connection reset"))

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	})
}

func TestErrCode(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ConvertPgError(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, UniqueViolation, ErrCode(wrapped))
	assert.Equal(t, Other, ErrCode(errors.New("x")))
}
