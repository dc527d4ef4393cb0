package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapsHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeProjectNotFound, http.StatusNotFound},
		{CodeStateViolation, http.StatusConflict},
		{CodeStageLocked, http.StatusConflict},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeProviderError, http.StatusBadGateway},
		{CodeServiceUnavailable, http.StatusServiceUnavailable},
		{CodeInternalError, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus)
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStorageError, "persistence failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "persistence failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsAppError(t *testing.T) {
	appErr := New(CodeGenerationFailed, "bad output")
	assert.Same(t, appErr, AsAppError(appErr))

	wrapped := AsAppError(errors.New("boom"))
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeUnknown, wrapped.Code)
	assert.ErrorContains(t, wrapped, "boom")
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(ErrStageLocked, CodeStageLocked))
	assert.False(t, HasCode(ErrStageLocked, CodeStateViolation))
	assert.False(t, HasCode(errors.New("plain"), CodeStageLocked))
}
