package superadmin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyConfirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/verify-super-admin", r.URL.Path)
		require.Equal(t, "Bearer service-secret", r.Header.Get("Authorization"))

		var req struct {
			UserID string `json:"user_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "user-1", req.UserID)

		_ = json.NewEncoder(w).Encode(map[string]bool{"is_super_admin": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-secret")
	ok, err := client.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyDeniedIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"is_super_admin": false})
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-secret")
	ok, err := client.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyServiceErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-secret")
	ok, err := client.Verify(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
	assert.False(t, ok, "an unavailable verifier never reports yes")
}

func TestVerifyUnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "service-secret")
	_, err := client.Verify(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}

func TestVerifyMalformedResponseIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-secret")
	_, err := client.Verify(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
}
