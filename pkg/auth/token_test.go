package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "tortasnery", ExpirationMinutes: 1440}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC().Truncate(time.Second)

	token, minted, err := MintAccessToken(cfg, now, SessionPayload{
		UserID: 42,
		Email:  "admin@tortasnery.com",
		Role:   enums.UserRoleAdmin,
		Name:   "Administrador",
	})
	require.NoError(t, err)
	require.NotEmpty(t, minted.ID)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "admin@tortasnery.com", claims.Email)
	assert.Equal(t, enums.UserRoleAdmin, claims.Role)
	assert.Equal(t, "Administrador", claims.Name)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.Equal(t, minted.ID, claims.ID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, now.Add(24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now().Add(-48*time.Hour), SessionPayload{
		UserID: 1,
		Role:   enums.UserRoleCliente,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now(), SessionPayload{UserID: 1, Role: enums.UserRoleCliente})
	require.NoError(t, err)

	other := cfg
	other.Secret = "other"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)

	other = cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	_, _, err := MintAccessToken(cfg, time.Now(), SessionPayload{UserID: 1, Role: "vendor"})
	assert.Error(t, err)

	_, _, err = MintAccessToken(cfg, time.Now(), SessionPayload{Role: enums.UserRoleAdmin})
	assert.Error(t, err)

	_, _, err = MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), SessionPayload{UserID: 1, Role: enums.UserRoleAdmin})
	assert.Error(t, err)
}
