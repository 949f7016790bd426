package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", h)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHashPassword_OutOfRangeCostUsesDefault(t *testing.T) {
	h, err := HashPassword("pw", 1)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	require.NoError(t, err)
	b, err := NewSessionToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestIngestToken(t *testing.T) {
	tok, err := NewIngestToken("secret", "bridge", time.Minute)
	require.NoError(t, err)

	sub, err := ParseIngestToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "bridge", sub)

	_, err = ParseIngestToken("other", tok)
	assert.ErrorIs(t, err, ErrInvalidIngestToken)

	expired, err := NewIngestToken("secret", "bridge", -time.Minute)
	require.NoError(t, err)
	_, err = ParseIngestToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidIngestToken)

	_, err = ParseIngestToken("secret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidIngestToken)
}
