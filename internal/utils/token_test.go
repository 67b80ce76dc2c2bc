package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestNewTokenPairRoundTrip(t *testing.T) {
	// ParseUserID checks the embedded expiry against the wall clock, so the
	// pair must be signed relative to the real now.
	now := time.Now().UTC().Truncate(time.Second)

	pair, err := NewTokenPair(testSecret, 42, 15*time.Minute, 7*24*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(15*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), pair.RefreshExpiresAt)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	id, err := ParseUserID(testSecret, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	id, err = ParseUserID(testSecret, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseUserIDWrongSecret(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 1, time.Minute, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseUserID("another-secret", pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseUserIDGarbage(t *testing.T) {
	_, err := ParseUserID(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseUserIDExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	pair, err := NewTokenPair(testSecret, 7, time.Minute, time.Minute, past)
	require.NoError(t, err)

	_, err = ParseUserID(testSecret, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

// An expired token must still resolve its user id through the
// signature-only parser so the refresh path can find and delete the
// matching session.
func TestParseUserIDSignatureOnlyIgnoresExpiry(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	pair, err := NewTokenPair(testSecret, 99, time.Minute, time.Minute, past)
	require.NoError(t, err)

	id, err := ParseUserIDSignatureOnly(testSecret, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), id)
}

func TestParseUserIDSignatureOnlyRejectsBadSignature(t *testing.T) {
	pair, err := NewTokenPair(testSecret, 99, time.Minute, time.Minute, time.Now())
	require.NoError(t, err)

	_, err = ParseUserIDSignatureOnly("another-secret", pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
