package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
	"github.com/starlordamit/poponew-sub001/internal/platform/httpx"
)

// Handler exposes role resolution and permission checks over HTTP.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
	guard    *Guard
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, guard *Guard) *Handler {
	return &Handler{logger: logger, resolver: resolver, guard: guard}
}

// MountRoutes registers authz routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/role", h.resolveRole)
	r.Get("/check", h.checkPermission)
	r.Get("/super-admin", h.superAdmin)
}

type resolutionResponse struct {
	Role        catalog.Role         `json:"role"`
	Permissions []catalog.Permission `json:"permissions"`
	Source      Source               `json:"source"`
}

func (h *Handler) resolveRole(w http.ResponseWriter, r *http.Request) {
	principal := authn.PrincipalFromContext(r.Context())
	resolution, err := h.resolver.Resolve(r.Context(), principal)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthenticated):
			httpx.Problem(w, http.StatusUnauthorized, "Not Authenticated", "sign in to continue")
		case errors.Is(err, ErrRoleLookupFailed):
			httpx.Problem(w, http.StatusServiceUnavailable, "Role Lookup Failed", "try again shortly")
		default:
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, resolutionResponse{
		Role:        resolution.Role,
		Permissions: resolution.Permissions.Slice(),
		Source:      resolution.Source,
	})
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("permission")
	if raw == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission query parameter required")
		return
	}
	principal := authn.PrincipalFromContext(r.Context())
	decision := h.guard.RequireAny(r.Context(), principal, catalog.Permission(raw))
	httpx.JSON(w, http.StatusOK, checkResponse{Allowed: decision.Allowed, Reason: decision.Reason})
}

type superAdminResponse struct {
	IsSuperAdmin bool `json:"is_super_admin"`
}

func (h *Handler) superAdmin(w http.ResponseWriter, r *http.Request) {
	principal := authn.PrincipalFromContext(r.Context())
	decision := h.guard.RequireSuperAdmin(r.Context(), principal)
	switch decision.Reason {
	case ReasonNotAuthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Not Authenticated", "sign in to continue")
	case ReasonVerificationUnavailable:
		// Callers must treat this as "not super admin" plus a visible
		// warning, never as a yes.
		httpx.Problem(w, http.StatusServiceUnavailable, "Verification Unavailable", "super admin status could not be confirmed")
	default:
		httpx.JSON(w, http.StatusOK, superAdminResponse{IsSuperAdmin: decision.Allowed})
	}
}
