package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseguardian/nexus/internal/shared"
)

// Settings holds the console-wide configuration row. A single row is
// kept per installation.
type Settings struct {
	OrgName          string    `json:"org_name"`
	RetentionDays    int       `json:"retention_days"`
	SessionHours     int       `json:"session_hours"`
	NotifyOnCase     bool      `json:"notify_on_case"`
	NotifyOnMessage  bool      `json:"notify_on_message"`
	MaintenanceNote  string    `json:"maintenance_note"`
	UpdatedBy        string    `json:"updated_by"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Defaults returns the installation defaults applied before the row exists.
func Defaults() Settings {
	return Settings{
		OrgName:         "Case Guardian Nexus",
		RetentionDays:   365,
		SessionHours:    12,
		NotifyOnCase:    true,
		NotifyOnMessage: true,
	}
}

// Repository defines persistence for the settings row.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Upsert(ctx context.Context, s Settings) (Settings, error)
}

// PGRepository stores settings in a single-row table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get loads the settings row, falling back to defaults when absent.
func (r *PGRepository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT org_name, retention_days, session_hours, notify_on_case, notify_on_message, maintenance_note, updated_by, updated_at
		FROM org_settings WHERE id = 1`).Scan(
		&s.OrgName, &s.RetentionDays, &s.SessionHours, &s.NotifyOnCase, &s.NotifyOnMessage,
		&s.MaintenanceNote, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: get: %w", err)
	}
	return s, nil
}

// Upsert writes the settings row and returns the stored state.
func (r *PGRepository) Upsert(ctx context.Context, s Settings) (Settings, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO org_settings (id, org_name, retention_days, session_hours, notify_on_case, notify_on_message, maintenance_note, updated_by, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			org_name = EXCLUDED.org_name,
			retention_days = EXCLUDED.retention_days,
			session_hours = EXCLUDED.session_hours,
			notify_on_case = EXCLUDED.notify_on_case,
			notify_on_message = EXCLUDED.notify_on_message,
			maintenance_note = EXCLUDED.maintenance_note,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING org_name, retention_days, session_hours, notify_on_case, notify_on_message, maintenance_note, updated_by, updated_at`,
		s.OrgName, s.RetentionDays, s.SessionHours, s.NotifyOnCase, s.NotifyOnMessage,
		s.MaintenanceNote, s.UpdatedBy)
	var stored Settings
	err := row.Scan(&stored.OrgName, &stored.RetentionDays, &stored.SessionHours,
		&stored.NotifyOnCase, &stored.NotifyOnMessage, &stored.MaintenanceNote,
		&stored.UpdatedBy, &stored.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: upsert: %w", err)
	}
	return stored, nil
}

var _ Repository = (*PGRepository)(nil)

// Service layers validation and audit over the repository.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Get loads the current settings.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

// Update persists new settings on behalf of the actor.
func (s *Service) Update(ctx context.Context, next Settings, actorID string) (Settings, error) {
	next.UpdatedBy = actorID
	stored, err := s.repo.Upsert(ctx, next)
	if err != nil {
		return Settings{}, err
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "settings.update",
			Entity:   "settings",
			EntityID: "1",
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("audit record", slog.Any("error", err))
		}
	}
	return stored, nil
}
