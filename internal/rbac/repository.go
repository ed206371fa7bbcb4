package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
)

// Repository defines the read and membership operations the matchers and
// admin screens need from the permission store.
type Repository interface {
	// UserRoleIDs returns the role identifiers the user belongs to.
	UserRoleIDs(ctx context.Context, userID string) ([]string, error)
	// RoleGrantIDs returns the distinct grant identifiers reachable from the
	// given roles.
	RoleGrantIDs(ctx context.Context, roleIDs []string) ([]string, error)

	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	RoleGrants(ctx context.Context, roleID string) ([]string, error)
	ReplaceGrants(ctx context.Context, roleID string, attach, detach []string) error
	RoleMembers(ctx context.Context, roleID string) ([]Member, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// UserRoleIDs returns the role identifiers the user belongs to.
func (r *PGRepository) UserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM role_memberships WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RoleGrantIDs returns the distinct grant identifiers attached to the roles.
func (r *PGRepository) RoleGrantIDs(ctx context.Context, roleIDs []string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT grant_id FROM role_grants WHERE role_id = ANY($1) ORDER BY grant_id`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignRole adds the user to the role. Repeated assignments are no-ops.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_memberships (role_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, userID)
	return err
}

// RemoveRole removes the user from the role.
func (r *PGRepository) RemoveRole(ctx context.Context, userID, roleID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_memberships WHERE role_id = $1 AND user_id = $2`, roleID, userID)
	return err
}

// RoleGrants returns the grant identifiers attached directly to one role.
func (r *PGRepository) RoleGrants(ctx context.Context, roleID string) ([]string, error) {
	return r.RoleGrantIDs(ctx, []string{roleID})
}

// ReplaceGrants applies a grant diff to a role in a single transaction, so a
// concurrent check never sees the role mid-rewrite.
func (r *PGRepository) ReplaceGrants(ctx context.Context, roleID string, attach, detach []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, grantID := range attach {
			if _, err := tx.Exec(ctx, `INSERT INTO role_grants (role_id, grant_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, grantID); err != nil {
				return err
			}
		}
		for _, grantID := range detach {
			if _, err := tx.Exec(ctx, `DELETE FROM role_grants WHERE role_id = $1 AND grant_id = $2`, roleID, grantID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoleMembers lists the users attached to a role.
func (r *PGRepository) RoleMembers(ctx context.Context, roleID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, rm.created_at
		FROM role_memberships rm
		JOIN users u ON u.id = rm.user_id
		WHERE rm.role_id = $1
		ORDER BY u.email`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Since); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
