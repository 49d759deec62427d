package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lethe/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("signing-key", "lethe", "lethe-api")

	token, err := svc.GenerateAccessToken("tester", "test-suite", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tester", claims.Subject)
	assert.Equal(t, "test-suite", claims.ClientID)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService("signing-key", "lethe", "lethe-api")

	token, err := svc.GenerateAccessToken("tester", "test-suite", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_WrongKey(t *testing.T) {
	issuer := NewJWTService("signing-key", "lethe", "lethe-api")
	other := NewJWTService("different-key", "lethe", "lethe-api")

	token, err := issuer.GenerateAccessToken("tester", "test-suite", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService("signing-key", "lethe", "lethe-api")

	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
