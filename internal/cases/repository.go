package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseguardian/nexus/internal/platform/httpx"
)

// Repository defines persistence operations for cases.
type Repository interface {
	Create(ctx context.Context, c Case) (*Case, error)
	Get(ctx context.Context, id string) (*Case, error)
	GetByNumber(ctx context.Context, number string) (*Case, error)
	List(ctx context.Context, req ListCasesRequest) ([]Case, int, error)
	Update(ctx context.Context, c Case) (*Case, error)
	Delete(ctx context.Context, id string) error
	NextSequence(ctx context.Context, year int) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const caseColumns = `id, number, description, type, priority, status, location, incident_at, operator_name, created_by, created_at, updated_at`

// Create inserts a case and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, c Case) (*Case, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cases (id, number, description, type, priority, status, location, incident_at, operator_name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING `+caseColumns,
		c.ID, c.Number, c.Description, string(c.Type), string(c.Priority), string(c.Status),
		c.Location, c.IncidentAt, c.OperatorName, c.CreatedBy)
	created, err := scanCase(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: case number %s", httpx.ErrDuplicate, c.Number)
		}
		return nil, err
	}
	return created, nil
}

// Get fetches a case by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Case, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	return scanCase(row)
}

// GetByNumber fetches a case by its external number.
func (r *PGRepository) GetByNumber(ctx context.Context, number string) (*Case, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE number = $1`, number)
	return scanCase(row)
}

// List returns cases matching the filter plus the total match count.
func (r *PGRepository) List(ctx context.Context, req ListCasesRequest) ([]Case, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	if req.Search != nil && *req.Search != "" {
		where += fmt.Sprintf(` AND (number ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+*req.Search+"%")
		idx++
	}
	if req.Status != nil {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, string(*req.Status))
		idx++
	}
	if req.Priority != nil {
		where += fmt.Sprintf(` AND priority = $%d`, idx)
		args = append(args, string(*req.Priority))
		idx++
	}
	if req.Type != nil {
		where += fmt.Sprintf(` AND type = $%d`, idx)
		args = append(args, string(*req.Type))
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + caseColumns + ` FROM cases` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update replaces the mutable case fields wholesale.
func (r *PGRepository) Update(ctx context.Context, c Case) (*Case, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE cases
		SET description = $2, type = $3, priority = $4, status = $5, location = $6, incident_at = $7, operator_name = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		c.ID, c.Description, string(c.Type), string(c.Priority), string(c.Status), c.Location, c.IncidentAt, c.OperatorName)
	return scanCase(row)
}

// Delete removes a case.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// NextSequence reserves the next case number within a year.
func (r *PGRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO case_sequences (year, value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = case_sequences.value + 1
		RETURNING value`, year).Scan(&seq)
	return seq, err
}

func scanCase(row pgx.Row) (*Case, error) {
	var (
		c        Case
		typ      string
		priority string
		status   string
	)
	var incidentAt, createdAt, updatedAt time.Time
	err := row.Scan(&c.ID, &c.Number, &c.Description, &typ, &priority, &status,
		&c.Location, &incidentAt, &c.OperatorName, &c.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	c.Type = Type(typ)
	c.Priority = Priority(priority)
	c.Status = Status(status)
	c.IncidentAt = incidentAt
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return &c, nil
}

var _ Repository = (*PGRepository)(nil)
