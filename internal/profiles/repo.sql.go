package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const profileColumns = `user_id, email, first_name, last_name, department, role, override, status, created_at, updated_at`

// Get fetches a profile by user ID.
func (r *PGRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// GetByEmail fetches a profile by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = lower($1)`, email)
	return scanProfile(row)
}

// List returns profiles matching the filter plus the unfiltered-page total.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Profile, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.Search != "" {
		where += fmt.Sprintf(` AND (first_name || ' ' || last_name ILIKE $%d OR email ILIKE $%d OR department ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	if filter.Role != nil {
		where += fmt.Sprintf(` AND role = $%d`, idx)
		args = append(args, string(*filter.Role))
		idx++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, string(*filter.Status))
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_profiles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + profileColumns + ` FROM user_profiles` + where +
		fmt.Sprintf(` ORDER BY first_name, last_name, email LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a new profile record.
func (r *PGRepository) Create(ctx context.Context, p Profile) (*Profile, error) {
	override, err := marshalOverride(p.Override)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (user_id, email, first_name, last_name, department, role, override, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+profileColumns,
		p.UserID, p.Email, p.FirstName, p.LastName, p.Department, string(p.Role), override, string(p.Status))
	created, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s", httpx.ErrDuplicate, p.Email)
		}
		return nil, err
	}
	return created, nil
}

// Update replaces the mutable profile fields wholesale.
func (r *PGRepository) Update(ctx context.Context, p Profile) (*Profile, error) {
	override, err := marshalOverride(p.Override)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE user_profiles
		SET first_name = $2, last_name = $3, department = $4, role = $5, override = $6, status = $7, updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+profileColumns,
		p.UserID, p.FirstName, p.LastName, p.Department, string(p.Role), override, string(p.Status))
	return scanProfile(row)
}

// Delete removes a profile record.
func (r *PGRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p           Profile
		role        string
		status      string
		overrideRaw []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(&p.UserID, &p.Email, &p.FirstName, &p.LastName, &p.Department, &role, &overrideRaw, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	p.Role = authz.Role(role)
	p.Status = Status(status)
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	if len(overrideRaw) > 0 {
		var stored map[string]bool
		if err := json.Unmarshal(overrideRaw, &stored); err != nil {
			return nil, fmt.Errorf("profiles: decode override: %w", err)
		}
		if len(stored) > 0 {
			p.Override = make(authz.Override, len(stored))
			for name, v := range stored {
				p.Override[authz.Capability(name)] = v
			}
		}
	}
	return &p, nil
}

func marshalOverride(override authz.Override) ([]byte, error) {
	if len(override) == 0 {
		return nil, nil
	}
	return json.Marshal(override)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
