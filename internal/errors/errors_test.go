package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("session not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.Error(), "not_found")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := InternalError("failed to save session", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExternalError(t *testing.T) {
	cause := fmt.Errorf("write timeout")
	err := ExternalError("durable write failed", cause)

	assert.Equal(t, TypeExternal, err.Type)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapper", cause)

	require.ErrorIs(t, err, cause)
}

func TestWithContext(t *testing.T) {
	err := NotFoundError("session not found").WithContext("session_id", "ab12cd34")

	assert.Equal(t, "ab12cd34", err.Context["session_id"])

	resp := err.ToResponse()
	assert.Equal(t, "session not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "ab12cd34", resp.Context["session_id"])
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured errors pass through", func(t *testing.T) {
		orig := ValidationError("bad request")
		assert.Same(t, orig, AsStructuredError(orig))
	})

	t.Run("structured errors survive wrapping", func(t *testing.T) {
		orig := NotFoundError("gone")
		wrapped := fmt.Errorf("handler: %w", orig)
		assert.Same(t, orig, AsStructuredError(wrapped))
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		plain := errors.New("boom")
		structured := AsStructuredError(plain)
		assert.Equal(t, TypeInternal, structured.Type)
		assert.Equal(t, plain, structured.Cause)
	})
}
