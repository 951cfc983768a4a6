package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "caredex/pkg/domain-errors"
)

var tokenService = NewService("test-signing-key", "caredex-test")

func Test_GenerateAndValidate(t *testing.T) {
	signed, err := tokenService.Generate("ops@example.org", RoleAdmin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokenService.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := tokenService.Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	signed, err := tokenService.Generate("ops@example.org", RoleStaff, -time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Validate(signed)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_Validate_WrongKey(t *testing.T) {
	other := NewService("different-key", "caredex-test")
	signed, err := other.Generate("ops@example.org", RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Validate(signed)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}
