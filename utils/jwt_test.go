package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/huddle/eventify-go/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-key-for-jwt-signing",
		JWTTTL:    time.Hour,
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	cfg := testConfig()

	token, err := IssueToken(cfg, "6543a1b2c3d4e5f678901234", "a@x.com", "organizer")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "6543a1b2c3d4e5f678901234", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "organizer", claims.Role)
	assert.Equal(t, "eventify", claims.Issuer)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := IssueToken(testConfig(), "id", "a@x.com", "user")
	require.NoError(t, err)

	other := &config.Config{JWTSecret: "a-different-secret", JWTTTL: time.Hour}
	_, err = VerifyToken(other, token)
	assert.Error(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: -time.Minute}

	token, err := IssueToken(cfg, "id", "a@x.com", "user")
	require.NoError(t, err)

	_, err = VerifyToken(cfg, token)
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := VerifyToken(testConfig(), "not-a-token")
	assert.Error(t, err)
}
