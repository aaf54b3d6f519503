package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries the dashboard relies on.
type Repository interface {
	CountCases(ctx context.Context) (total int, open int, err error)
	BreakdownBy(ctx context.Context, column string) ([]BreakdownEntry, error)
	MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error)
}

// PGRepository runs the aggregates directly against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// breakdownColumns whitelists group-by targets; the column name is
// interpolated into SQL so it must never come from request input.
var breakdownColumns = map[string]bool{
	"status":   true,
	"type":     true,
	"priority": true,
}

// CountCases returns total and not-yet-closed case counts.
func (r *PGRepository) CountCases(ctx context.Context) (int, int, error) {
	var total, open int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status <> 'closed') FROM cases`).Scan(&total, &open)
	if err != nil {
		return 0, 0, fmt.Errorf("reports: count cases: %w", err)
	}
	return total, open, nil
}

// BreakdownBy groups cases by one of the whitelisted columns.
func (r *PGRepository) BreakdownBy(ctx context.Context, column string) ([]BreakdownEntry, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("reports: breakdown column %q not allowed", column)
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM cases GROUP BY %s ORDER BY COUNT(*) DESC`, column, column))
	if err != nil {
		return nil, fmt.Errorf("reports: breakdown %s: %w", column, err)
	}
	defer rows.Close()

	var out []BreakdownEntry
	for rows.Next() {
		var e BreakdownEntry
		if err := rows.Scan(&e.Label, &e.Count); err != nil {
			return nil, fmt.Errorf("reports: scan breakdown: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthlyTrend returns opened/closed counts per month for the window.
func (r *PGRepository) MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	rows, err := r.pool.Query(ctx, `
		WITH window_months AS (
			SELECT generate_series(
				date_trunc('month', NOW()) - ($1 - 1) * INTERVAL '1 month',
				date_trunc('month', NOW()),
				INTERVAL '1 month') AS month
		)
		SELECT to_char(m.month, 'YYYY-MM'),
			COUNT(c.id) FILTER (WHERE date_trunc('month', c.created_at) = m.month),
			COUNT(c.id) FILTER (WHERE c.status = 'closed' AND date_trunc('month', c.updated_at) = m.month)
		FROM window_months m
		LEFT JOIN cases c ON date_trunc('month', c.created_at) = m.month
			OR (c.status = 'closed' AND date_trunc('month', c.updated_at) = m.month)
		GROUP BY m.month
		ORDER BY m.month`, months)
	if err != nil {
		return nil, fmt.Errorf("reports: monthly trend: %w", err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Period, &p.Opened, &p.Closed); err != nil {
			return nil, fmt.Errorf("reports: scan trend: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
