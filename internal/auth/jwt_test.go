package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParsePair(t *testing.T) {
	tm := NewTokenManager("acc-secret", "ref-secret", "store-backend", time.Minute, time.Hour)

	access, refresh, exp, err := tm.GeneratePair("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, isRefresh, err := tm.ParseAny(access)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)

	claims, isRefresh, err = tm.ParseAny(refresh)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseRejectsForeignToken(t *testing.T) {
	tm := NewTokenManager("acc-secret", "ref-secret", "store-backend", time.Minute, time.Hour)
	other := NewTokenManager("different", "keys", "store-backend", time.Minute, time.Hour)

	access, _, _, err := other.GeneratePair("user-1")
	require.NoError(t, err)

	_, _, err = tm.ParseAny(access)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager("acc-secret", "ref-secret", "store-backend", -time.Minute, -time.Minute)

	access, _, _, err := tm.GeneratePair("user-1")
	require.NoError(t, err)

	_, _, err = tm.ParseAny(access)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("correct horse battery staple", hash))
	assert.Error(t, VerifyPassword("wrong", hash))
}
