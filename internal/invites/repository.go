package invites

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// errNotConsumed is the repository-internal signal that the conditional
// update matched zero rows. The service maps it onto the user-facing
// taxonomy after a re-fetch.
var errNotConsumed = errors.New("invites: no consumable invitation matched")

// Repository defines persistence operations for invitations.
type Repository interface {
	Insert(ctx context.Context, invitation Invitation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error)
	// Consume atomically marks the invitation used iff it is still pending
	// and unexpired at now. Exactly-one-winner semantics come from the
	// store's conditional write, not from any lock.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*Invitation, error)
	// PruneExpired removes invitations that expired before cutoff without
	// ever being used, returning the count removed. Used invitations are
	// retained as an audit trail.
	PruneExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const invitationColumns = `id, token_hash, email, role, invited_by, expires_at, used_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	var (
		inv  Invitation
		role string
	)
	err := row.Scan(&inv.ID, &inv.TokenHash, &inv.Email, &role, &inv.InvitedBy,
		&inv.ExpiresAt, &inv.UsedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = catalog.Role(role)
	return &inv, nil
}

// Insert persists a pending invitation.
func (r *PGRepository) Insert(ctx context.Context, invitation Invitation) error {
	const query = `
INSERT INTO invitations (id, token_hash, email, role, invited_by, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		invitation.ID, invitation.TokenHash, invitation.Email, string(invitation.Role),
		invitation.InvitedBy, invitation.ExpiresAt, invitation.CreatedAt)
	return err
}

// GetByTokenHash fetches an invitation without mutating it.
func (r *PGRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = $1`
	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return inv, nil
}

// Consume performs the compare-and-set: the WHERE clause is the
// precondition, and a returned row is the proof that this caller won.
func (r *PGRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*Invitation, error) {
	query := `
UPDATE invitations
SET used_at = $2
WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
RETURNING ` + invitationColumns
	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotConsumed
		}
		return nil, err
	}
	return inv, nil
}

// PruneExpired deletes never-used invitations that expired before cutoff.
func (r *PGRepository) PruneExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM invitations WHERE used_at IS NULL AND expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
