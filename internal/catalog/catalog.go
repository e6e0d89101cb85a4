// Package catalog is the single source of truth for roles, permissions and
// the default permission grant of each role. Every other package consults it
// instead of carrying its own copy of the table.
package catalog

import "strings"

// Role is a closed, immutable role identifier.
type Role string

// Canonical roles.
const (
	RoleAdmin            Role = "admin"
	RoleManager          Role = "manager"
	RoleOperationManager Role = "operation_manager"
	RoleFinance          Role = "finance"
	RoleIntern           Role = "intern"

	// RoleUser is the fail-closed fallback when no role source matches.
	// It carries no permissions and cannot be invited.
	RoleUser Role = "user"
)

// Legacy role names still present in older provider claims. They parse onto
// canonical roles and are never persisted.
const (
	legacyBrandManager      = "brand_manager"
	legacyInfluencerManager = "influencer_manager"
)

// Permission is an atomic capability tag.
type Permission string

const (
	PermManageBrands    Permission = "manage_brands"
	PermManageCampaigns Permission = "manage_campaigns"
	PermManageVideos    Permission = "manage_videos"
	PermViewFinances    Permission = "view_finances"
	PermProcessPayments Permission = "process_payments"
	PermUserManagement  Permission = "user_management"
	PermAdminSettings   Permission = "admin_settings"
)

var defaults = map[Role]Set{
	RoleAdmin: NewSet(
		PermManageBrands,
		PermManageCampaigns,
		PermManageVideos,
		PermViewFinances,
		PermProcessPayments,
		PermUserManagement,
		PermAdminSettings,
	),
	RoleManager: NewSet(
		PermManageBrands,
		PermManageCampaigns,
		PermManageVideos,
	),
	RoleOperationManager: NewSet(
		PermManageCampaigns,
		PermManageVideos,
	),
	RoleFinance: NewSet(
		PermViewFinances,
		PermProcessPayments,
	),
	RoleIntern: NewSet(
		PermManageVideos,
	),
}

// DefaultPermissions returns the default grant for a role. Unknown roles get
// the empty set rather than an error, so a bad value degrades to "no
// privileges" instead of failing a request.
func DefaultPermissions(role Role) Set {
	set, ok := defaults[role]
	if !ok {
		return Set{}
	}
	return set.Clone()
}

// ParseRole maps a raw role value onto the canonical enumeration. Legacy
// names are aliased; anything else reports ok=false.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager, Role(legacyBrandManager):
		return RoleManager, true
	case RoleOperationManager, Role(legacyInfluencerManager):
		return RoleOperationManager, true
	case RoleFinance:
		return RoleFinance, true
	case RoleIntern:
		return RoleIntern, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// InvitableRoles lists roles an invitation may carry. RoleUser is excluded:
// it is the absence of a grant, not something to hand out.
func InvitableRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleOperationManager, RoleFinance, RoleIntern}
}

// IsInvitable reports whether invitations may carry the role.
func IsInvitable(role Role) bool {
	_, ok := defaults[role]
	return ok
}
