package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// Resolver derives the effective role and permissions for a principal from
// layered sources. Precedence encodes trust: stored grant, then
// provider-managed claim, then the user-editable claim, then the fail-closed
// fallback. Resolution is computed fresh per call; nothing is cached, so a
// revoked grant takes effect on the next request.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve returns the effective role and permission set.
func (r *Resolver) Resolve(ctx context.Context, principal *authn.Principal) (Resolution, error) {
	if principal == nil || principal.ID == "" {
		return Resolution{}, ErrNotAuthenticated
	}

	record, err := r.repo.GetRoleRecord(ctx, principal.ID)
	switch {
	case err == nil:
		perms := record.Permissions
		if len(perms) == 0 {
			perms = catalog.DefaultPermissions(record.Role)
		}
		return Resolution{Role: record.Role, Permissions: perms, Source: SourceRecord}, nil
	case errors.Is(err, ErrNoRoleRecord):
		// Normal miss, fall through to claims.
	default:
		if r.logger != nil {
			r.logger.Error("role record lookup", slog.String("user_id", principal.ID), slog.Any("error", err))
		}
		return Resolution{}, fmt.Errorf("%w: %v", ErrRoleLookupFailed, err)
	}

	if role, ok := catalog.ParseRole(principal.AppRole); ok && role != catalog.RoleUser {
		return Resolution{
			Role:        role,
			Permissions: catalog.DefaultPermissions(role),
			Source:      SourceProviderClaim,
		}, nil
	}

	// A self-reported claim is honoured only up to catalog defaults and can
	// never imply super admin; it exists so a freshly invited account works
	// before an admin has provisioned a record.
	if role, ok := catalog.ParseRole(principal.UserRole); ok && role != catalog.RoleUser {
		return Resolution{
			Role:        role,
			Permissions: catalog.DefaultPermissions(role),
			Source:      SourceUserClaim,
		}, nil
	}

	return Resolution{Role: catalog.RoleUser, Permissions: catalog.Set{}, Source: SourceFallback}, nil
}

// Grant provisions or replaces a stored role grant. An empty permissions
// set defers to the catalog defaults at resolution time.
func (r *Resolver) Grant(ctx context.Context, userID string, role catalog.Role, perms catalog.Set) (*RoleRecord, error) {
	if !catalog.IsInvitable(role) {
		return nil, fmt.Errorf("authz: role %q cannot be granted", role)
	}
	return r.repo.UpsertRoleRecord(ctx, RoleRecord{
		UserID:      userID,
		Role:        role,
		Permissions: perms,
	})
}
