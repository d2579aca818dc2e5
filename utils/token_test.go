package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteToken(t *testing.T) {
	token, err := NewInviteToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	_, err = hex.DecodeString(token)
	assert.NoError(t, err, "token must be hex")

	other, err := NewInviteToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestNewOTPCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q must be digits", code)
		}
		seen[code] = true
	}
	// 50 draws from a million values should not all collide.
	assert.Greater(t, len(seen), 1)
}
