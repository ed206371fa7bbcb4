package grants

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListGrants returns all grants ordered by identifier.
func (r *Repository) ListGrants(ctx context.Context) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, description, created_at, updated_at FROM grants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var grant Grant
		if err := rows.Scan(&grant.ID, &grant.Title, &grant.Description, &grant.CreatedAt, &grant.UpdatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// GetGrant fetches a grant by ID.
func (r *Repository) GetGrant(ctx context.Context, id string) (Grant, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, title, description, created_at, updated_at FROM grants WHERE id = $1`, id)
	var grant Grant
	if err := row.Scan(&grant.ID, &grant.Title, &grant.Description, &grant.CreatedAt, &grant.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, shared.ErrNotFound
		}
		return Grant{}, err
	}
	return grant, nil
}

// CreateGrant inserts a new grant.
func (r *Repository) CreateGrant(ctx context.Context, id, title, description string) (Grant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO grants (id, title, description)
		VALUES ($1, $2, $3)
		RETURNING id, title, description, created_at, updated_at`, id, title, description)
	var grant Grant
	if err := row.Scan(&grant.ID, &grant.Title, &grant.Description, &grant.CreatedAt, &grant.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Grant{}, httpx.ErrDuplicate
		}
		return Grant{}, err
	}
	return grant, nil
}

// DeleteGrant removes a grant by ID. Role attachments cascade.
func (r *Repository) DeleteGrant(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
