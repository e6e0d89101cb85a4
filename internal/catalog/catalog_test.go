package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPermissionsDeterministic(t *testing.T) {
	for _, role := range InvitableRoles() {
		first := DefaultPermissions(role)
		second := DefaultPermissions(role)
		require.Equal(t, first, second, "role %s", role)
		require.NotEmpty(t, first, "role %s", role)
	}
}

func TestDefaultPermissionsUnknownRole(t *testing.T) {
	assert.Empty(t, DefaultPermissions(Role("superhero")))
	assert.Empty(t, DefaultPermissions(RoleUser))
}

func TestDefaultPermissionsReturnsCopy(t *testing.T) {
	set := DefaultPermissions(RoleFinance)
	set[Permission("injected")] = struct{}{}
	assert.False(t, DefaultPermissions(RoleFinance).Has(Permission("injected")))
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"  Finance ", RoleFinance, true},
		{"brand_manager", RoleManager, true},
		{"influencer_manager", RoleOperationManager, true},
		{"user", RoleUser, true},
		{"root", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestIsInvitable(t *testing.T) {
	for _, role := range InvitableRoles() {
		assert.True(t, IsInvitable(role))
	}
	assert.False(t, IsInvitable(RoleUser))
	assert.False(t, IsInvitable(Role("nope")))
}

func TestSetPredicates(t *testing.T) {
	set := NewSet(PermViewFinances, PermProcessPayments)

	assert.True(t, set.Has(PermViewFinances))
	assert.False(t, set.Has(PermAdminSettings))

	assert.True(t, set.HasAny(PermAdminSettings, PermProcessPayments))
	assert.False(t, set.HasAny(PermAdminSettings, PermManageBrands))
	assert.False(t, set.HasAny(), "empty requirement matches nothing")
	assert.False(t, Set{}.HasAny())

	assert.True(t, set.HasAll(PermViewFinances, PermProcessPayments))
	assert.False(t, set.HasAll(PermViewFinances, PermAdminSettings))
	assert.True(t, set.HasAll(), "vacuously true")
	assert.True(t, Set{}.HasAll(), "vacuously true on empty set")
}

func TestSetSliceSorted(t *testing.T) {
	set := NewSet(PermViewFinances, PermAdminSettings, PermManageBrands)
	assert.Equal(t, []Permission{PermAdminSettings, PermManageBrands, PermViewFinances}, set.Slice())
}
