package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	assert.Equal(t, "rejected error (code 400): bad payload", (&Error{Type: ErrorTypeRejected, Message: "bad payload", Code: 400}).Error())
	assert.Equal(t, "panel error: no trigger", New(ErrorTypePanel, "no trigger").Error())
	assert.Equal(t, "network error: dial: refused", Wrap(ErrorTypeNetwork, "dial", errors.New("refused")).Error())
}

func TestTypeOfUnwrapsChain(t *testing.T) {
	cause := errors.New("eof")
	err := fmt.Errorf("deliver: %w", Wrap(ErrorTypeNetwork, "post", cause))

	assert.Equal(t, ErrorTypeNetwork, TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryableError(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.False(t, IsRetryableError(nil))
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusGatewayTimeout, ErrorTypeTimeout},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusUnauthorized, ErrorTypeRejected},
		{http.StatusNotFound, ErrorTypeRejected},
		{http.StatusOK, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromStatus(tt.code), "status %d", tt.code)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.True(t, IsRetryable(ErrorTypeTimeout))
	assert.False(t, IsRetryable(ErrorTypeRejected))
	assert.False(t, IsRetryable(ErrorTypePanel))
}
