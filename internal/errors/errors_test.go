package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/studypulse/studypulse/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad"), 400},
		{UnauthorizedError("no session"), 401},
		{NotFoundError("missing"), 404},
		{ConflictError("raced"), 409},
		{InternalError("boom", nil), 500},
		{ExternalError("upstream", nil), 502},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus())
	}
}

func TestErrorString_WithCause(t *testing.T) {
	err := InternalError("save failed", fmt.Errorf("connection reset"))
	assert.Contains(t, err.Error(), "save failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapper", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestAsStructuredError_PassesThrough(t *testing.T) {
	orig := ValidationError("already structured")
	got := AsStructuredError(fmt.Errorf("wrapped: %w", orig))
	assert.Equal(t, orig, got)
}

func TestAsStructuredError_MapsDomainSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{domain.ErrAccountNotFound, TypeNotFound},
		{domain.ErrEmailTaken, TypeValidation},
		{domain.ErrInvalidCredentials, TypeUnauthorized},
		{domain.ErrSessionTooShort, TypeValidation},
		{domain.ErrVersionConflict, TypeConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			got := AsStructuredError(fmt.Errorf("op: %w", tt.err))
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestAsStructuredError_UnknownBecomesInternal(t *testing.T) {
	got := AsStructuredError(fmt.Errorf("disk on fire"))
	assert.Equal(t, TypeInternal, got.Type)
	assert.Equal(t, 500, got.HTTPStatus())
}

func TestAsStructuredError_Nil(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))
}

func TestWithField(t *testing.T) {
	err := NotFoundError("account not found").WithField("account_id", "123")
	assert.Equal(t, "123", err.Context["account_id"])

	resp := err.ToResponse()
	assert.Equal(t, "account not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "123", resp.Context["account_id"])
}
