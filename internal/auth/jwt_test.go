package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/auth"
)

func newService(t *testing.T, cfg auth.JWTConfig) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func testConfig() auth.JWTConfig {
	return auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "statusboard",
		Audience:   "statusboard-admin",
	}
}

func TestJWTService_GenerateAndValidateAdminToken(t *testing.T) {
	svc := newService(t, testConfig())

	token, expiresAt, err := svc.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "statusboard", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_DefaultExpiry(t *testing.T) {
	svc := newService(t, testConfig())

	_, expiresAt, err := svc.GenerateAdminToken("ops", 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenExpiry), expiresAt, 5*time.Second)
}

func TestNewJWTService_MissingKey(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{Issuer: "statusboard"})
	assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(t, testConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	svc1 := newService(t, testConfig())
	token, _, err := svc1.GenerateAdminToken("ops", time.Hour)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.SigningKey = "another-key"
	svc2 := newService(t, cfg)

	_, err = svc2.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuerOrAudience(t *testing.T) {
	svc := newService(t, testConfig())
	token, _, err := svc.GenerateAdminToken("ops", time.Hour)
	require.NoError(t, err)

	wrongIssuer := testConfig()
	wrongIssuer.Issuer = "someone-else"
	_, err = newService(t, wrongIssuer).ValidateAccessToken(token)
	assert.Error(t, err)

	wrongAudience := testConfig()
	wrongAudience.Audience = "public-api"
	_, err = newService(t, wrongAudience).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Role: auth.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	_, err = newService(t, cfg).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_MissingExpiry(t *testing.T) {
	cfg := testConfig()
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cfg.Issuer,
			Audience: jwt.ClaimStrings{cfg.Audience},
		},
		Role: auth.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	_, err = newService(t, cfg).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "viewer",
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "viewer",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	svc := newService(t, cfg)

	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)

	_, err = svc.ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrInsufficientRole)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "k")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_AUDIENCE", "")

	cfg := auth.ConfigFromEnv()
	assert.Equal(t, "k", cfg.SigningKey)
	assert.Equal(t, "statusboard", cfg.Issuer)
	assert.Equal(t, "statusboard-admin", cfg.Audience)
}
