package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindhaven/companion/internal/config"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateSessionToken("session-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sessionID, err := ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-123", sessionID)
}

func TestValidateSessionTokenRejectsGarbage(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	_, err := ValidateSessionToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateSessionTokenRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "first-secret"
	token, err := GenerateSessionToken("session-123")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "second-secret"
	_, err = ValidateSessionToken(token)
	assert.Error(t, err)
}
