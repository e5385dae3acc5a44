package errutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseErrorMessage(t *testing.T) {
	err := NotFound("relay not found")
	require.Equal(t, "[not_found] relay not found", err.Error())

	wrapped := Internal("query failed", WithErr(errors.New("connection reset")))
	require.Equal(t, "[internal] query failed: connection reset", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal("wrapper", WithErr(cause))
	require.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, StatusUnknown, CodeOf(nil))
	require.Equal(t, StatusNotFound, CodeOf(NotFound("x")))
	require.Equal(t, StatusValidationFailed, CodeOf(ValidationFailed("x")))
	require.Equal(t, StatusInternal, CodeOf(errors.New("foreign")))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("context: %w", Forbidden("nope"))
	require.Equal(t, StatusForbidden, CodeOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[CoreStatus]int{
		StatusBadRequest:       http.StatusBadRequest,
		StatusValidationFailed: http.StatusBadRequest,
		StatusUnauthorized:     http.StatusUnauthorized,
		StatusForbidden:        http.StatusForbidden,
		StatusNotFound:         http.StatusNotFound,
		StatusConflict:         http.StatusConflict,
		StatusInternal:         http.StatusInternalServerError,
		CoreStatus("made-up"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPStatus(), string(code))
	}
}

func TestJSONEnvelope(t *testing.T) {
	var base BaseError
	require.True(t, errors.As(ValidationFailed("bad pubkey"), &base))

	envelope := base.JSON().(map[string]interface{})
	inner := envelope["error"].(map[string]interface{})
	require.Equal(t, StatusValidationFailed, inner["code"])
	require.Equal(t, "bad pubkey", inner["message"])
}
