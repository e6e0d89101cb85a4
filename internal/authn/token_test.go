package authn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "token-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func TestParseExtractsMetadataRoles(t *testing.T) {
	parser := NewTokenParser(testSecret, nil)
	raw := signToken(t, jwt.MapClaims{
		"sub":           "user-123",
		"email":         "a@x.com",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"app_metadata":  map[string]any{"role": "finance"},
		"user_metadata": map[string]any{"role": "admin"},
	})

	principal, err := parser.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.ID)
	assert.Equal(t, "a@x.com", principal.Email)
	assert.Equal(t, "finance", principal.AppRole)
	assert.Equal(t, "admin", principal.UserRole)
}

func TestParseRejectsBadSignature(t *testing.T) {
	parser := NewTokenParser("other-secret", nil)
	raw := signToken(t, jwt.MapClaims{"sub": "user-123", "exp": time.Now().Add(time.Hour).Unix()})

	_, err := parser.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	parser := NewTokenParser(testSecret, nil)
	raw := signToken(t, jwt.MapClaims{"sub": "user-123", "exp": time.Now().Add(-time.Minute).Unix()})

	_, err := parser.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	parser := NewTokenParser(testSecret, nil)
	raw := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	_, err := parser.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareInjectsPrincipal(t *testing.T) {
	parser := NewTokenParser(testSecret, nil)
	raw := signToken(t, jwt.MapClaims{"sub": "user-9", "exp": time.Now().Add(time.Hour).Unix()})

	var got *Principal
	handler := Middleware(parser, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "user-9", got.ID)
}

func TestMiddlewarePassesThroughWithoutToken(t *testing.T) {
	parser := NewTokenParser(testSecret, nil)
	called := false
	handler := Middleware(parser, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, PrincipalFromContext(r.Context()))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	assert.Nil(t, PrincipalFromContext(context.Background()))
}
