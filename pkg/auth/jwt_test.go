package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/portal-api/internal/model"
)

func testProfile() *model.Profile {
	return &model.Profile{
		Base:  model.Base{ID: uuid.New()},
		Email: "pat@example.com",
		Role:  model.RolePatient,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})
	profile := testProfile()

	token, err := svc.GenerateAccessToken(profile)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.ProfileID)
	assert.Equal(t, profile.Email, claims.Email)
	assert.Equal(t, model.RolePatient, claims.Role)
	assert.Equal(t, profile.ID.String(), claims.Subject)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})
	profile := testProfile()

	token, err := svc.GenerateRefreshToken(profile)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.ProfileID)
}

func TestTokenSecretsAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})
	profile := testProfile()

	access, err := svc.GenerateAccessToken(profile)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(profile)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(Config{Secret: "secret-a", RefreshSecret: "refresh-a"})
	verifier := NewJWTService(Config{Secret: "secret-b", RefreshSecret: "refresh-b"})

	token, err := issuer.GenerateAccessToken(testProfile())
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        -time.Minute,
	})

	token, err := svc.GenerateAccessToken(testProfile())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
