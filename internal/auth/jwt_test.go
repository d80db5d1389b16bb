package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	signed, err := GenerateToken("PA-1002", "parent", "meera@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseToken(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "PA-1002", claims.Subject)
	assert.Equal(t, "parent", claims.Role)
	assert.Equal(t, "meera@example.com", claims.Email)
	assert.Equal(t, "neurobridge", claims.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signed, err := GenerateToken("PA-1002", "parent", "meera@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(signed, "a-different-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	signed, err := GenerateToken("PA-1002", "parent", "meera@example.com", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(signed, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("definitely.not.a-jwt", testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnsignedAlgorithm(t *testing.T) {
	// alg=none with an empty signature must never validate.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJQQS0xMDAyIn0."
	_, err := ParseToken(unsigned, testSecret)
	assert.Error(t, err)
}
