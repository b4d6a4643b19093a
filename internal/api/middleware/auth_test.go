package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func createTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "statusboard",
		Audience:   "statusboard-admin",
	})
	require.NoError(t, err)
	return svc
}

// callAdmin sends a DELETE for a component through AdminAuth and returns the
// recorder plus the subject seen by the inner handler.
func callAdmin(validator middleware.TokenValidator, authorization string) (*httptest.ResponseRecorder, string) {
	var subject string
	handler := middleware.AdminAuth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/components/3", http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, subject
}

func TestAdminAuth_Header(t *testing.T) {
	jwtService := createTestJWTService(t)
	token, _, err := jwtService.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization header"},
		{"no scheme", "token123", http.StatusUnauthorized, "invalid authorization header format"},
		{"basic auth", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "invalid authorization header format"},
		{"scheme glued to token", "bearertoken123", http.StatusUnauthorized, "invalid authorization header format"},
		{"bare scheme", "Bearer", http.StatusUnauthorized, "invalid authorization header format"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "missing bearer token"},
		{"garbage token", "Bearer invalid.jwt.token", http.StatusUnauthorized, "invalid access token"},
		{"valid", "Bearer " + token, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent, ""},
		{"uppercase scheme", "BEARER " + token, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, subject := callAdmin(jwtService, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), tt.wantDetail)
				assert.Equal(t, `Bearer realm="statusboard-admin"`, rec.Header().Get("WWW-Authenticate"))
				assert.Empty(t, subject)
				return
			}
			assert.Equal(t, "ops@example.com", subject)
		})
	}
}

type stubValidator struct {
	err error
}

func (s stubValidator) ValidateAdminToken(string) (*auth.JWTClaims, error) {
	return nil, s.err
}

func TestAdminAuth_ValidatorErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"expired", fmt.Errorf("wrapped: %w", auth.ErrAccessTokenExpired), http.StatusUnauthorized, "access token has expired"},
		{"insufficient role", auth.ErrInsufficientRole, http.StatusForbidden, "admin role required"},
		{"invalid", auth.ErrInvalidAccessToken, http.StatusUnauthorized, "invalid access token"},
		{"other", fmt.Errorf("boom"), http.StatusUnauthorized, "authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := callAdmin(stubValidator{err: tt.err}, "Bearer some-token")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantDetail)
			assert.Contains(t, rec.Body.String(), "/v1/admin/components/3")
		})
	}
}

func TestGetSubject_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/monitors", http.NoBody)
	assert.Empty(t, middleware.GetSubject(req.Context()))
}
