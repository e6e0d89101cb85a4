package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// Verifier answers elevated-trust checks through a boundary the client
// cannot reach directly.
type Verifier interface {
	Verify(ctx context.Context, principalID string) (bool, error)
}

// DenialRecorder counts guard denials by reason.
type DenialRecorder interface {
	GuardDenial(reason string)
}

// Reason explains a deny decision.
type Reason string

const (
	ReasonNotAuthenticated        Reason = "NotAuthenticated"
	ReasonInsufficientPermission  Reason = "InsufficientPermission"
	ReasonNotSuperAdmin           Reason = "NotSuperAdmin"
	ReasonVerificationUnavailable Reason = "VerificationUnavailable"
	ReasonRoleLookupFailed        Reason = "RoleLookupFailed"
)

// Decision is the guard's answer. Reason is empty on allow.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Guard composes the resolver, evaluator and verifier into a single
// allow/deny seam. It never returns errors: every failure below it
// collapses into Deny with the most specific reason, so callers cannot
// accidentally fail open.
type Guard struct {
	resolver *Resolver
	verifier Verifier
	logger   *slog.Logger
	denials  DenialRecorder
}

// NewGuard constructs a Guard. denials may be nil.
func NewGuard(resolver *Resolver, verifier Verifier, logger *slog.Logger, denials DenialRecorder) *Guard {
	return &Guard{resolver: resolver, verifier: verifier, logger: logger, denials: denials}
}

func (g *Guard) deny(reason Reason) Decision {
	if g.denials != nil {
		g.denials.GuardDenial(string(reason))
	}
	return Decision{Allowed: false, Reason: reason}
}

func allow() Decision {
	return Decision{Allowed: true}
}

func (g *Guard) resolve(ctx context.Context, principal *authn.Principal) (Resolution, *Decision) {
	resolution, err := g.resolver.Resolve(ctx, principal)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			d := g.deny(ReasonNotAuthenticated)
			return Resolution{}, &d
		}
		d := g.deny(ReasonRoleLookupFailed)
		return Resolution{}, &d
	}
	return resolution, nil
}

// RequireAny allows when the principal holds at least one of perms.
func (g *Guard) RequireAny(ctx context.Context, principal *authn.Principal, perms ...catalog.Permission) Decision {
	resolution, denied := g.resolve(ctx, principal)
	if denied != nil {
		return *denied
	}
	if resolution.Permissions.HasAny(perms...) {
		return allow()
	}
	return g.deny(ReasonInsufficientPermission)
}

// RequireAll allows when the principal holds every one of perms.
func (g *Guard) RequireAll(ctx context.Context, principal *authn.Principal, perms ...catalog.Permission) Decision {
	resolution, denied := g.resolve(ctx, principal)
	if denied != nil {
		return *denied
	}
	if resolution.Permissions.HasAll(perms...) {
		return allow()
	}
	return g.deny(ReasonInsufficientPermission)
}

// RequireRole allows when the effective role matches one of roles.
func (g *Guard) RequireRole(ctx context.Context, principal *authn.Principal, roles ...catalog.Role) Decision {
	resolution, denied := g.resolve(ctx, principal)
	if denied != nil {
		return *denied
	}
	for _, role := range roles {
		if resolution.Role == role {
			return allow()
		}
	}
	return g.deny(ReasonInsufficientPermission)
}

// RequireSuperAdmin allows only when the verification service confirms the
// principal. An unreachable service denies with VerificationUnavailable and
// logs a warning; it is never treated as a yes.
func (g *Guard) RequireSuperAdmin(ctx context.Context, principal *authn.Principal) Decision {
	if principal == nil || principal.ID == "" {
		return g.deny(ReasonNotAuthenticated)
	}
	ok, err := g.verifier.Verify(ctx, principal.ID)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("super admin verification unavailable",
				slog.String("user_id", principal.ID), slog.Any("error", err))
		}
		return g.deny(ReasonVerificationUnavailable)
	}
	if !ok {
		return g.deny(ReasonNotSuperAdmin)
	}
	return allow()
}
