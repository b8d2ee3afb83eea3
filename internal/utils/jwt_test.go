package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "secret", 1)
	require.NoError(t, err)

	sub, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", sub)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("0xabc", "secret", 1)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT("0xabc", "secret", -1)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPasswordCost("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("hunter3", hash))
}
