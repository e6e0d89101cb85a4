package authz

import (
	"net/http"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
	"github.com/starlordamit/poponew-sub001/internal/platform/httpx"
)

// Middleware wires guard checks into HTTP handlers.
type Middleware struct {
	Guard *Guard
}

func respondDenial(w http.ResponseWriter, d Decision) {
	switch d.Reason {
	case ReasonNotAuthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Not Authenticated", "sign in to continue")
	case ReasonVerificationUnavailable, ReasonRoleLookupFailed:
		httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Unavailable", "try again shortly")
	default:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permission")
	}
}

// RequireAny blocks unless the principal holds at least one permission.
func (m Middleware) RequireAny(perms ...catalog.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authn.PrincipalFromContext(r.Context())
			if d := m.Guard.RequireAny(r.Context(), principal, perms...); !d.Allowed {
				respondDenial(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll blocks unless the principal holds every permission.
func (m Middleware) RequireAll(perms ...catalog.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authn.PrincipalFromContext(r.Context())
			if d := m.Guard.RequireAll(r.Context(), principal, perms...); !d.Allowed {
				respondDenial(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin blocks unless the verification boundary confirms the
// principal.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authn.PrincipalFromContext(r.Context())
			if d := m.Guard.RequireSuperAdmin(r.Context(), principal); !d.Allowed {
				respondDenial(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
