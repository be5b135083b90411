package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("query", "must not be empty")
	assert.Equal(t, "validation error: query: must not be empty", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNormalizationError(t *testing.T) {
	t.Parallel()

	err := NewNormalizationError("Crossref", "missing title")
	assert.Equal(t, "cannot normalize Crossref record: missing title", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("doi", "10.1038/nature12373")
	assert.Equal(t, "doi not found: 10.1038/nature12373", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	var nfe *NotFoundError
	assert.ErrorAs(t, error(err), &nfe)
	assert.Equal(t, "doi", nfe.Entity)
	assert.Equal(t, "10.1038/nature12373", nfe.ID)
}

func TestRateLimitError(t *testing.T) {
	t.Parallel()

	err := NewRateLimitError("OpenAlex", 2*time.Second)
	assert.Equal(t, "rate limited by OpenAlex: retry after 2s", err.Error())
	assert.ErrorIs(t, err, ErrRateLimited)

	var rle *RateLimitError
	assert.ErrorAs(t, error(err), &rle)
	assert.Equal(t, 2*time.Second, rle.RetryAfter)
}

func TestExternalAPIError(t *testing.T) {
	t.Parallel()

	t.Run("formats source and status", func(t *testing.T) {
		t.Parallel()
		err := NewExternalAPIError("Crossref", 503, "service unavailable", nil)
		assert.Equal(t, "Crossref API error (status 503): service unavailable", err.Error())
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("connection reset")
		err := NewExternalAPIError("arXiv", 502, "bad gateway", cause)
		assert.ErrorIs(t, err, cause)
	})
}
