package store

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked"))
	require.NoError(t, err)
	return tok
}

func TestDecodeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "user-1", "name": "Ada", "exp": exp.Unix()})

	claims, expiresAt, err := DecodeToken("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject())
	assert.Equal(t, "Ada", claims.DisplayName())
	assert.True(t, expiresAt.Equal(exp))
}

func TestDecodeTokenWithoutExpiry(t *testing.T) {
	claims, expiresAt, err := DecodeToken(signed(t, jwt.MapClaims{"sub": "u"}))
	require.NoError(t, err)
	assert.Equal(t, "u", claims.Subject())
	assert.True(t, expiresAt.IsZero())
}

func TestDecodeTokenRejects(t *testing.T) {
	_, _, err := DecodeToken("  ")
	assert.True(t, errors.Is(err, ErrMissingToken))

	_, _, err = DecodeToken("not.a.jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, _, err = DecodeToken(signed(t, jwt.MapClaims{"name": "no subject"}))
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
