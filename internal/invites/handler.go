package invites

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/authz"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
	"github.com/starlordamit/poponew-sub001/internal/platform/httpx"
)

// Handler wires HTTP endpoints for invitation flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers invitation routes on the provided router. Issue is
// restricted to user managers; validate is public so the acceptance form
// can render before sign-in; redeem needs the accepting principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(catalog.PermUserManagement))
		r.Post("/", h.issue)
	})
	r.Get("/{token}", h.validate)
	r.Post("/{token}/redeem", h.redeem)
}

type issueRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TTLHours int    `json:"ttl_hours"`
}

type invitationResponse struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      catalog.Role `json:"role"`
	Status    Status       `json:"status"`
	ExpiresAt time.Time    `json:"expires_at"`
	Token     string       `json:"token,omitempty"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	role, ok := catalog.ParseRole(req.Role)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Role", "unknown role "+req.Role)
		return
	}
	invitedBy := ""
	if principal := authn.PrincipalFromContext(r.Context()); principal != nil {
		invitedBy = principal.ID
	}

	invitation, token, err := h.service.Issue(r.Context(), req.Email, role, time.Duration(req.TTLHours)*time.Hour, invitedBy)
	if err != nil {
		if errors.Is(err, ErrInvalidRole) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Role", err.Error())
			return
		}
		h.logger.Error("issue invitation", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp := invitationResponse{
		ID:        invitation.ID,
		Email:     invitation.Email,
		Role:      invitation.Role,
		Status:    StatusPending,
		ExpiresAt: invitation.ExpiresAt,
		// The raw token appears exactly once, in this response.
		Token: token,
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) respondTokenError(w http.ResponseWriter, err error) {
	// Distinct titles so the UI can word "already used" apart from
	// "expired".
	switch {
	case errors.Is(err, ErrInvalidToken):
		httpx.Problem(w, http.StatusNotFound, "Invalid Invitation", "this invitation link is not valid")
	case errors.Is(err, ErrExpired):
		httpx.Problem(w, http.StatusGone, "Invitation Expired", "this invitation has expired")
	case errors.Is(err, ErrAlreadyUsed):
		httpx.Problem(w, http.StatusConflict, "Invitation Already Used", "this invitation was already used")
	case errors.Is(err, ErrConflictLost):
		httpx.Problem(w, http.StatusConflict, "Redemption Conflict", "another request redeemed this invitation first")
	case errors.Is(err, ErrPartialRedemption):
		h.logger.Error("partial redemption surfaced", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Redemption Incomplete", "the invitation was consumed but the role grant failed; contact support")
	default:
		h.logger.Error("invitation lookup", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	invitation, err := h.service.Validate(r.Context(), token)
	if err != nil {
		h.respondTokenError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invitationResponse{
		ID:        invitation.ID,
		Email:     invitation.Email,
		Role:      invitation.Role,
		Status:    StatusPending,
		ExpiresAt: invitation.ExpiresAt,
	})
}

type redeemResponse struct {
	UserID      string               `json:"user_id"`
	Role        catalog.Role         `json:"role"`
	Permissions []catalog.Permission `json:"permissions"`
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	principal := authn.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Not Authenticated", "sign in to accept the invitation")
		return
	}
	token := chi.URLParam(r, "token")
	record, err := h.service.Redeem(r.Context(), token, principal.ID)
	if err != nil {
		h.respondTokenError(w, err)
		return
	}
	perms := record.Permissions
	if len(perms) == 0 {
		// Stored grants with an empty set resolve to catalog defaults.
		perms = catalog.DefaultPermissions(record.Role)
	}
	httpx.JSON(w, http.StatusOK, redeemResponse{
		UserID:      record.UserID,
		Role:        record.Role,
		Permissions: perms.Slice(),
	})
}
