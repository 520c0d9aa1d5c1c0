package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportExhaustedErrorUnwrap(t *testing.T) {
	err := NewTransportExhaustedError("climate finance", 500, 3, errors.New("connection reset"))

	assert.True(t, errors.Is(err, ErrTransportExhausted))
	assert.Contains(t, err.Error(), "climate finance")
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestResponseErrorUnwrap(t *testing.T) {
	err := NewResponseError("trade", 503, "service unavailable")

	assert.True(t, errors.Is(err, ErrBadResponse))
	assert.False(t, errors.Is(err, ErrTransportExhausted))
	assert.Contains(t, err.Error(), "503")
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("page_size", "must be positive")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "page_size")
}

func TestWrappedSentinelSurvivesFmtErrorf(t *testing.T) {
	inner := NewResponseError("trade", 404, "not found")
	wrapped := fmt.Errorf("fetch page: %w", inner)

	assert.True(t, errors.Is(wrapped, ErrBadResponse))

	var respErr *ResponseError
	assert.True(t, errors.As(wrapped, &respErr))
	assert.Equal(t, 404, respErr.StatusCode)
}
