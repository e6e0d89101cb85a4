// Package authz resolves effective roles and enforces permission checks.
package authz

import (
	"errors"
	"time"

	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

var (
	// ErrNotAuthenticated indicates no principal was presented.
	ErrNotAuthenticated = errors.New("authz: not authenticated")
	// ErrRoleLookupFailed indicates the role store failed; retryable,
	// never interpreted as an allow.
	ErrRoleLookupFailed = errors.New("authz: role lookup failed")
	// ErrNoRoleRecord indicates the principal has no stored grant. Callers
	// treat it as a normal miss, not a failure.
	ErrNoRoleRecord = errors.New("authz: no role record")
)

// RoleRecord is the persisted, authoritative grant for a user. An empty
// Permissions set means "use the catalog defaults for Role".
type RoleRecord struct {
	UserID       string
	Role         catalog.Role
	Permissions  catalog.Set
	IsSuperAdmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Source identifies which layer produced a resolution.
type Source string

const (
	SourceRecord        Source = "record"
	SourceProviderClaim Source = "provider_claim"
	SourceUserClaim     Source = "user_claim"
	SourceFallback      Source = "fallback"
)

// Resolution is the effective role and permission set for a principal.
type Resolution struct {
	Role        catalog.Role
	Permissions catalog.Set
	Source      Source
}
