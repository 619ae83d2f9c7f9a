package utils

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorFormatting(t *testing.T) {
	withDetail := &CustomError{Message: "Navigation failed", Detail: "timeout after 30s"}
	assert.Equal(t, "Navigation failed: timeout after 30s", withDetail.Error())

	bare := &CustomError{Message: "Validation failed"}
	assert.Equal(t, "Validation failed", bare.Error())
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *CustomError
		code int
		want string
	}{
		{
			name: "adapter not found",
			err:  NewAdapterNotFoundError("Initech"),
			code: http.StatusNotFound,
			want: "No adapter registered for company: Initech",
		},
		{
			name: "registry collision",
			err:  NewRegistryCollisionError("Initech"),
			code: http.StatusConflict,
			want: "Adapter already registered: Initech",
		},
		{
			name: "navigation",
			err:  NewNavigationError("net::ERR_CONNECTION_RESET"),
			code: http.StatusBadGateway,
			want: "Navigation failed: net::ERR_CONNECTION_RESET",
		},
		{
			name: "capture",
			err:  NewCaptureError("render crashed"),
			code: http.StatusUnprocessableEntity,
			want: "Snapshot capture failed: render crashed",
		},
		{
			name: "storage",
			err:  NewStorageError("disk full"),
			code: http.StatusInternalServerError,
			want: "Storage operation failed: disk full",
		},
		{
			name: "timeout",
			err:  NewTimeoutError("throttled by rate limiter"),
			code: http.StatusRequestTimeout,
			want: "throttled by rate limiter",
		},
		{
			name: "challenge",
			err:  NewChallengeError("not cleared after 9s wait"),
			code: http.StatusForbidden,
			want: "Bot challenge not cleared: not cleared after 9s wait",
		},
		{
			name: "validation",
			err:  NewValidationError("company name empty"),
			code: http.StatusBadRequest,
			want: "Validation failed: company name empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
