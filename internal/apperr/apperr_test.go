package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{AccountDeactivated, http.StatusForbidden},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{InvalidArgument, http.StatusBadRequest},
		{AlreadyDeleted, http.StatusConflict},
		{Unavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(New(tc.kind, "x")))
		})
	}

	t.Run("plain errors are internal", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	})
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(New(NotFound, "missing"))
	require.True(t, ok)
	assert.Equal(t, NotFound, k)

	_, ok = KindOf(errors.New("boom"))
	assert.False(t, ok)

	t.Run("survives fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", New(Forbidden, "nope"))
		assert.True(t, Is(wrapped, Forbidden))
		assert.False(t, Is(wrapped, NotFound))
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "community not found", Message(New(NotFound, "community not found")))
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection reset")),
		"internal details must not reach clients")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("token is expired")
	err := Wrap(Unauthenticated, "invalid or expired token", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "unauthenticated")
	assert.Contains(t, err.Error(), "token is expired")
}
