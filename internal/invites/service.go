package invites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/starlordamit/poponew-sub001/internal/audit"
	"github.com/starlordamit/poponew-sub001/internal/authz"
	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// RoleGranter creates the role record for a redeemed invitation.
type RoleGranter interface {
	Grant(ctx context.Context, userID string, role catalog.Role, perms catalog.Set) (*authz.RoleRecord, error)
}

// Mailer enqueues the invitation email for background delivery.
type Mailer interface {
	EnqueueInviteEmail(ctx context.Context, email, token string, role catalog.Role, expiresAt time.Time) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Metrics counts redemption anomalies.
type Metrics interface {
	RedeemConflict()
	PartialRedemption()
}

// Service wraps invitation business rules.
type Service struct {
	repo     Repository
	roles    RoleGranter
	clock    Clock
	logger   *slog.Logger
	mailer   Mailer
	auditor  AuditRecorder
	metrics  Metrics
	validate *validator.Validate
}

// NewService constructs a new Service. mailer, auditor and metrics may be
// nil; clock defaults to the system clock.
func NewService(repo Repository, roles RoleGranter, clock Clock, logger *slog.Logger, mailer Mailer, auditor AuditRecorder, metrics Metrics) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		repo:     repo,
		roles:    roles,
		clock:    clock,
		logger:   logger,
		mailer:   mailer,
		auditor:  auditor,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// Issue creates a pending invitation and returns it together with the raw
// token. The token is never stored or logged; this is the only place it is
// visible.
func (s *Service) Issue(ctx context.Context, email string, role catalog.Role, ttl time.Duration, invitedBy string) (*Invitation, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, "", fmt.Errorf("invites: invalid email %q", email)
	}
	if !catalog.IsInvitable(role) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token, err := NewToken()
	if err != nil {
		return nil, "", err
	}
	now := s.clock.Now()
	invitation := Invitation{
		ID:        uuid.NewString(),
		TokenHash: HashToken(token),
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.repo.Insert(ctx, invitation); err != nil {
		return nil, "", err
	}

	s.recordAudit(ctx, audit.Entry{
		ActorID:  invitedBy,
		Action:   audit.ActionInviteIssued,
		Entity:   "invitation",
		EntityID: invitation.ID,
		Meta:     map[string]any{"email": email, "role": string(role)},
		At:       now,
	})

	if s.mailer != nil {
		if err := s.mailer.EnqueueInviteEmail(ctx, email, token, role, invitation.ExpiresAt); err != nil {
			// Delivery is best-effort; the inviter can still hand the
			// token over out of band.
			if s.logger != nil {
				s.logger.Warn("enqueue invite email", slog.String("invitation_id", invitation.ID), slog.Any("error", err))
			}
		}
	}

	return &invitation, token, nil
}

// Validate performs the read-only consumability check used to render the
// acceptance form. It mutates nothing, so retries are safe.
func (s *Service) Validate(ctx context.Context, token string) (*Invitation, error) {
	invitation, err := s.repo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}
	if invitation.IsUsed() {
		return nil, ErrAlreadyUsed
	}
	if invitation.IsExpired(s.clock.Now()) {
		return nil, ErrExpired
	}
	return invitation, nil
}

// Redeem consumes the invitation for principalID and creates the role
// record. The consumption itself is a single conditional update in the
// store; losing that update is terminal for this call.
func (s *Service) Redeem(ctx context.Context, token, principalID string) (*authz.RoleRecord, error) {
	if strings.TrimSpace(principalID) == "" {
		return nil, errors.New("invites: principal id required")
	}
	tokenHash := HashToken(token)

	invitation, err := s.repo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if invitation.IsUsed() {
		return nil, ErrAlreadyUsed
	}
	if invitation.IsExpired(now) {
		return nil, ErrExpired
	}

	consumed, err := s.repo.Consume(ctx, tokenHash, now)
	if err != nil {
		if !errors.Is(err, errNotConsumed) {
			return nil, err
		}
		// The precondition held moments ago, so something changed under
		// us. Re-fetch for the message, but never retry the update.
		if s.metrics != nil {
			s.metrics.RedeemConflict()
		}
		current, fetchErr := s.repo.GetByTokenHash(ctx, tokenHash)
		if fetchErr == nil && !current.IsUsed() && current.IsExpired(now) {
			return nil, ErrExpired
		}
		return nil, ErrConflictLost
	}

	record, err := s.roles.Grant(ctx, principalID, consumed.Role, catalog.Set{})
	if err != nil {
		// The token is spent and must stay spent; an automatic retry here
		// could double-grant. Leave repair to an operator.
		if s.metrics != nil {
			s.metrics.PartialRedemption()
		}
		if s.logger != nil {
			s.logger.Error("partial redemption",
				slog.String("invitation_id", consumed.ID),
				slog.String("user_id", principalID),
				slog.Any("error", err))
		}
		return nil, fmt.Errorf("%w: invitation %s: %v", ErrPartialRedemption, consumed.ID, err)
	}

	s.recordAudit(ctx, audit.Entry{
		ActorID:  principalID,
		Action:   audit.ActionInviteRedeemed,
		Entity:   "invitation",
		EntityID: consumed.ID,
		Meta:     map[string]any{"role": string(consumed.Role)},
		At:       now,
	})

	return record, nil
}

// PruneExpired drops never-used invitations expired longer than retention
// ago. Used invitations are kept as an audit trail.
func (s *Service) PruneExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-retention)
	return s.repo.PruneExpired(ctx, cutoff)
}

func (s *Service) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("record audit entry", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
