package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesSentinelCopies(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("shorten: %w", ErrSlugInUse.WithCause(cause))

	assert.True(t, errors.Is(err, ErrSlugInUse))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, ErrSlugInUse.Cause, "sentinel must stay untouched")
}

func TestAsExposesCode(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("wrapped: %w", SystemError(errors.New("db down")))

	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "error.internal: db down", appErr.Error())
}

func TestInvalidRequestError(t *testing.T) {
	err := InvalidRequestError("error.start_date_required")
	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, "error.start_date_required", err.Error())
}
