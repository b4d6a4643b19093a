// Package auth issues and validates the bearer tokens that guard the
// component admin endpoints.
package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry applies when a token is minted without a TTL.
const DefaultTokenExpiry = 12 * time.Hour

// RoleAdmin grants access to catalog and monitor writes.
const RoleAdmin = "admin"

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrInsufficientRole   = errors.New("token lacks the required role")
	ErrMissingSigningKey  = errors.New("jwt signing key is not configured")
)

// JWTClaims are the claims of an admin token.
type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTConfig configures token signing. Tokens are HS256 signed with
// SigningKey and bound to Issuer and Audience.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// ConfigFromEnv reads JWT_SIGNING_KEY, JWT_ISSUER and JWT_AUDIENCE.
func ConfigFromEnv() JWTConfig {
	cfg := JWTConfig{
		SigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "statusboard"
	}
	if cfg.Audience == "" {
		cfg.Audience = "statusboard-admin"
	}
	return cfg
}

// JWTService mints and checks admin tokens.
type JWTService struct {
	key    []byte
	issuer string
	aud    string
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTService creates a JWTService. The signing key is required.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	s := &JWTService{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		aud:    cfg.Audience,
		now:    time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// GenerateAdminToken mints an admin token for subject. A non-positive ttl
// uses DefaultTokenExpiry.
func (s *JWTService) GenerateAdminToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.aud},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: RoleAdmin,
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks signature, issuer, audience and expiry.
// Expired tokens yield ErrAccessTokenExpired and every other failure wraps
// ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	return claims, nil
}

// ValidateAdminToken is ValidateAccessToken plus the admin role check.
func (s *JWTService) ValidateAdminToken(tokenString string) (*JWTClaims, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrInsufficientRole
	}
	return claims, nil
}
