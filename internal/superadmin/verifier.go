// Package superadmin answers the elevated-trust check through the
// verification service, a boundary the requesting client can neither read
// nor write. A client-supplied or client-writable flag is never consulted.
package superadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrVerificationUnavailable indicates the verification service could not be
// reached or answered abnormally. Callers treat it as "not super admin" with
// a visible warning; it must never be treated as a yes.
var ErrVerificationUnavailable = errors.New("superadmin: verification unavailable")

// Client verifies super-admin status against the trusted verification
// service, authenticating with a service token the browser never sees.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, serviceToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type verifyRequest struct {
	UserID string `json:"user_id"`
}

type verifyResponse struct {
	IsSuperAdmin bool `json:"is_super_admin"`
}

// Verify reports whether the principal is a super admin. False is an
// answer, not an error; only transport or service failure is an error.
func (c *Client) Verify(ctx context.Context, principalID string) (bool, error) {
	payload, err := json.Marshal(verifyRequest{UserID: principalID})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/verify-super-admin", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %d", ErrVerificationUnavailable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: decode response: %v", ErrVerificationUnavailable, err)
	}
	return body.IsSuperAdmin, nil
}
