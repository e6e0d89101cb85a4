package invites

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/authz"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// stubRoleStore backs the guard protecting the issue route.
type stubRoleStore struct {
	records map[string]*authz.RoleRecord
}

func (s *stubRoleStore) GetRoleRecord(ctx context.Context, userID string) (*authz.RoleRecord, error) {
	record, ok := s.records[userID]
	if !ok {
		return nil, authz.ErrNoRoleRecord
	}
	copied := *record
	return &copied, nil
}

func (s *stubRoleStore) UpsertRoleRecord(ctx context.Context, record authz.RoleRecord) (*authz.RoleRecord, error) {
	s.records[record.UserID] = &record
	return &record, nil
}

type neverVerifier struct{}

func (neverVerifier) Verify(ctx context.Context, principalID string) (bool, error) {
	return false, nil
}

type handlerHarness struct {
	router  chi.Router
	service *Service
	clock   *fakeClock
	granter *mockGranter
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()
	store := &stubRoleStore{records: map[string]*authz.RoleRecord{
		"admin-1": {
			UserID:      "admin-1",
			Role:        catalog.RoleAdmin,
			Permissions: catalog.DefaultPermissions(catalog.RoleAdmin),
		},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := authz.NewGuard(authz.NewResolver(store, nil), neverVerifier{}, nil, nil)

	repo := newMockRepo()
	granter := newMockGranter()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	service := NewService(repo, granter, clock, logger, nil, nil, nil)
	handler := NewHandler(logger, service, authz.Middleware{Guard: guard})

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return &handlerHarness{router: r, service: service, clock: clock, granter: granter}
}

func (h *handlerHarness) do(method, target, body string, principal *authn.Principal) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if principal != nil {
		req = req.WithContext(authn.ContextWithPrincipal(req.Context(), principal))
	}
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func adminPrincipal() *authn.Principal {
	return &authn.Principal{ID: "admin-1", Email: "admin@test.local"}
}

func TestIssueEndpoint(t *testing.T) {
	h := newHandlerHarness(t)

	res := h.do(http.MethodPost, "/", `{"email":"new@test.local","role":"finance"}`, adminPrincipal())
	require.Equal(t, http.StatusCreated, res.Code)

	var body invitationResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "new@test.local", body.Email)
	assert.Equal(t, catalog.RoleFinance, body.Role)
	assert.Equal(t, StatusPending, body.Status)
	require.NotEmpty(t, body.Token, "raw token returned at issue time")

	// The validate response must not echo the token back.
	res = h.do(http.MethodGet, "/"+body.Token, "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var validated invitationResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &validated))
	assert.Empty(t, validated.Token)
	assert.Equal(t, body.ID, validated.ID)
}

func TestIssueEndpointRequiresUserManagement(t *testing.T) {
	h := newHandlerHarness(t)

	res := h.do(http.MethodPost, "/", `{"email":"new@test.local","role":"finance"}`, &authn.Principal{ID: "intern-1", UserRole: "intern"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.do(http.MethodPost, "/", `{"email":"new@test.local","role":"finance"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIssueEndpointRejectsUnknownRole(t *testing.T) {
	h := newHandlerHarness(t)

	res := h.do(http.MethodPost, "/", `{"email":"new@test.local","role":"wizard"}`, adminPrincipal())
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestValidateEndpointUnknownToken(t *testing.T) {
	h := newHandlerHarness(t)

	res := h.do(http.MethodGet, "/"+strings.Repeat("ab", tokenBytes), "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestValidateEndpointExpired(t *testing.T) {
	h := newHandlerHarness(t)

	_, token, err := h.service.Issue(context.Background(), "new@test.local", catalog.RoleIntern, time.Hour, "admin-1")
	require.NoError(t, err)

	h.clock.Advance(2 * time.Hour)
	res := h.do(http.MethodGet, "/"+token, "", nil)
	assert.Equal(t, http.StatusGone, res.Code)
}

func TestRedeemEndpoint(t *testing.T) {
	h := newHandlerHarness(t)

	_, token, err := h.service.Issue(context.Background(), "new@test.local", catalog.RoleManager, DefaultTTL, "admin-1")
	require.NoError(t, err)

	accepting := &authn.Principal{ID: "user-9", Email: "new@test.local"}
	res := h.do(http.MethodPost, "/"+token+"/redeem", "", accepting)
	require.Equal(t, http.StatusOK, res.Code)

	var body redeemResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "user-9", body.UserID)
	assert.Equal(t, catalog.RoleManager, body.Role)
	assert.Contains(t, body.Permissions, catalog.PermManageCampaigns)
	assert.Equal(t, 1, h.granter.granted)

	// Replay of a consumed link.
	res = h.do(http.MethodPost, "/"+token+"/redeem", "", accepting)
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestRedeemEndpointRequiresPrincipal(t *testing.T) {
	h := newHandlerHarness(t)

	res := h.do(http.MethodPost, "/"+strings.Repeat("cd", tokenBytes)+"/redeem", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
