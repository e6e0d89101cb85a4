package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

type stubVerifier struct {
	isSuperAdmin bool
	err          error
	calls        int
}

func (s *stubVerifier) Verify(ctx context.Context, principalID string) (bool, error) {
	s.calls++
	return s.isSuperAdmin, s.err
}

type denialCounter struct {
	reasons []string
}

func (d *denialCounter) GuardDenial(reason string) {
	d.reasons = append(d.reasons, reason)
}

func newTestGuard(repo Repository, verifier Verifier) (*Guard, *denialCounter) {
	denials := &denialCounter{}
	return NewGuard(NewResolver(repo, nil), verifier, nil, denials), denials
}

func TestGuardDeniesWithoutPrincipal(t *testing.T) {
	guard, denials := newTestGuard(newMockRepository(), &stubVerifier{})

	decision := guard.RequireAny(context.Background(), nil, catalog.PermViewFinances)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotAuthenticated, decision.Reason)
	assert.Equal(t, []string{string(ReasonNotAuthenticated)}, denials.reasons)
}

func TestGuardAllowsGrantedPermission(t *testing.T) {
	repo := newMockRepository()
	repo.records["u1"] = &RoleRecord{UserID: "u1", Role: catalog.RoleFinance}
	guard, _ := newTestGuard(repo, &stubVerifier{})

	decision := guard.RequireAny(context.Background(), &authn.Principal{ID: "u1"}, catalog.PermViewFinances)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
}

func TestGuardDeniesMissingPermission(t *testing.T) {
	repo := newMockRepository()
	repo.records["u1"] = &RoleRecord{UserID: "u1", Role: catalog.RoleIntern}
	guard, denials := newTestGuard(repo, &stubVerifier{})

	decision := guard.RequireAll(context.Background(), &authn.Principal{ID: "u1"},
		catalog.PermManageVideos, catalog.PermAdminSettings)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, decision.Reason)
	assert.NotEmpty(t, denials.reasons)
}

func TestGuardFallbackPrincipalHasNoCapabilities(t *testing.T) {
	guard, _ := newTestGuard(newMockRepository(), &stubVerifier{})
	principal := &authn.Principal{ID: "u1"}

	for _, perm := range []catalog.Permission{
		catalog.PermManageBrands,
		catalog.PermViewFinances,
		catalog.PermAdminSettings,
	} {
		decision := guard.RequireAny(context.Background(), principal, perm)
		assert.False(t, decision.Allowed, "permission %s", perm)
	}
}

func TestGuardRequireAllVacuouslyAllows(t *testing.T) {
	guard, _ := newTestGuard(newMockRepository(), &stubVerifier{})

	decision := guard.RequireAll(context.Background(), &authn.Principal{ID: "u1"})
	assert.True(t, decision.Allowed)
}

func TestGuardStoreFailureFailsClosed(t *testing.T) {
	repo := newMockRepository()
	repo.getError = errors.New("connection refused")
	guard, _ := newTestGuard(repo, &stubVerifier{})

	decision := guard.RequireAny(context.Background(), &authn.Principal{ID: "u1", AppRole: "admin"},
		catalog.PermAdminSettings)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRoleLookupFailed, decision.Reason)
}

func TestGuardRequireRole(t *testing.T) {
	repo := newMockRepository()
	repo.records["u1"] = &RoleRecord{UserID: "u1", Role: catalog.RoleFinance}
	guard, _ := newTestGuard(repo, &stubVerifier{})
	principal := &authn.Principal{ID: "u1"}

	assert.True(t, guard.RequireRole(context.Background(), principal, catalog.RoleAdmin, catalog.RoleFinance).Allowed)

	decision := guard.RequireRole(context.Background(), principal, catalog.RoleAdmin)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, decision.Reason)
}

func TestGuardSuperAdminConfirmed(t *testing.T) {
	guard, _ := newTestGuard(newMockRepository(), &stubVerifier{isSuperAdmin: true})

	decision := guard.RequireSuperAdmin(context.Background(), &authn.Principal{ID: "u1"})
	assert.True(t, decision.Allowed)
}

func TestGuardSuperAdminDeniedIsNotAnError(t *testing.T) {
	verifier := &stubVerifier{isSuperAdmin: false}
	guard, _ := newTestGuard(newMockRepository(), verifier)

	decision := guard.RequireSuperAdmin(context.Background(), &authn.Principal{ID: "u1"})
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotSuperAdmin, decision.Reason)
	assert.Equal(t, 1, verifier.calls)
}

func TestGuardSuperAdminUnavailableNeverAllows(t *testing.T) {
	verifier := &stubVerifier{isSuperAdmin: true, err: errors.New("dial tcp: timeout")}
	guard, denials := newTestGuard(newMockRepository(), verifier)

	decision := guard.RequireSuperAdmin(context.Background(), &authn.Principal{ID: "u1"})
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonVerificationUnavailable, decision.Reason)
	assert.Contains(t, denials.reasons, string(ReasonVerificationUnavailable))
}

func TestGuardSuperAdminRequiresPrincipal(t *testing.T) {
	verifier := &stubVerifier{isSuperAdmin: true}
	guard, _ := newTestGuard(newMockRepository(), verifier)

	decision := guard.RequireSuperAdmin(context.Background(), nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotAuthenticated, decision.Reason)
	assert.Zero(t, verifier.calls, "verifier must not be consulted without a principal")
}
