package authz

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

// Repository defines persistence operations for role records.
type Repository interface {
	GetRoleRecord(ctx context.Context, userID string) (*RoleRecord, error)
	UpsertRoleRecord(ctx context.Context, record RoleRecord) (*RoleRecord, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetRoleRecord fetches the grant for a user. Returns ErrNoRoleRecord when
// none exists.
func (r *PGRepository) GetRoleRecord(ctx context.Context, userID string) (*RoleRecord, error) {
	const query = `
SELECT user_id, role, permissions, is_super_admin, created_at, updated_at
FROM role_records
WHERE user_id = $1`
	var (
		record RoleRecord
		role   string
		perms  []string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.UserID, &role, &perms, &record.IsSuperAdmin,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRoleRecord
		}
		return nil, err
	}
	record.Role = catalog.Role(role)
	record.Permissions = permissionsFromStrings(perms)
	return &record, nil
}

// UpsertRoleRecord inserts or replaces the grant for record.UserID. user_id
// is the conflict key, keeping the one-record-per-user invariant in the
// store itself.
func (r *PGRepository) UpsertRoleRecord(ctx context.Context, record RoleRecord) (*RoleRecord, error) {
	const query = `
INSERT INTO role_records (user_id, role, permissions, is_super_admin, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (user_id) DO UPDATE
SET role = EXCLUDED.role,
    permissions = EXCLUDED.permissions,
    is_super_admin = EXCLUDED.is_super_admin,
    updated_at = EXCLUDED.updated_at
RETURNING user_id, role, permissions, is_super_admin, created_at, updated_at`
	now := time.Now().UTC()
	var (
		saved RoleRecord
		role  string
		perms []string
	)
	err := r.pool.QueryRow(ctx, query,
		record.UserID, string(record.Role), permissionsToStrings(record.Permissions),
		record.IsSuperAdmin, now,
	).Scan(&saved.UserID, &role, &perms, &saved.IsSuperAdmin, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, err
	}
	saved.Role = catalog.Role(role)
	saved.Permissions = permissionsFromStrings(perms)
	return &saved, nil
}

func permissionsFromStrings(values []string) catalog.Set {
	set := make(catalog.Set, len(values))
	for _, v := range values {
		set[catalog.Permission(v)] = struct{}{}
	}
	return set
}

func permissionsToStrings(set catalog.Set) []string {
	out := make([]string, 0, len(set))
	for _, p := range set.Slice() {
		out = append(out, string(p))
	}
	return out
}

var _ Repository = (*PGRepository)(nil)
