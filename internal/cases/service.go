package cases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caseguardian/nexus/internal/shared"
)

// Events receives committed case mutations. The app wires this to the
// report cache invalidator and the notification fan-out queue.
type Events interface {
	CaseChanged(ctx context.Context, action string, c Case, actorID string)
}

// Service owns case intake business rules. Mutations are two-phase:
// the repository confirms the write and the confirmed row is what
// callers, audit, and events observe.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	events Events
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, events Events, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, events: events, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for tests.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create registers a new case with a generated number.
func (s *Service) Create(ctx context.Context, req CreateCaseRequest, actorID string) (*Case, error) {
	year := s.now().UTC().Year()
	seq, err := s.repo.NextSequence(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("cases: reserve number: %w", err)
	}
	c := Case{
		ID:           uuid.NewString(),
		Number:       fmt.Sprintf("CGN-%d-%05d", year, seq),
		Description:  req.Description,
		Type:         Type(req.Type),
		Priority:     Priority(req.Priority),
		Status:       StatusNew,
		Location:     req.Location,
		IncidentAt:   req.IncidentAt,
		OperatorName: req.OperatorName,
		CreatedBy:    actorID,
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "case.create", created.ID, map[string]any{"number": created.Number})
	if s.events != nil {
		s.events.CaseChanged(ctx, "created", *created, actorID)
	}
	return created, nil
}

// Get fetches a case by ID.
func (s *Service) Get(ctx context.Context, id string) (*Case, error) {
	return s.repo.Get(ctx, id)
}

// List returns cases matching the filter and the total count.
func (s *Service) List(ctx context.Context, req ListCasesRequest) ([]Case, int, error) {
	return s.repo.List(ctx, req)
}

// Update applies the provided fields to an existing case.
func (s *Service) Update(ctx context.Context, id string, req UpdateCaseRequest, actorID string) (*Case, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Type != nil {
		current.Type = Type(*req.Type)
	}
	if req.Priority != nil {
		current.Priority = Priority(*req.Priority)
	}
	if req.Location != nil {
		current.Location = *req.Location
	}
	if req.IncidentAt != nil {
		current.IncidentAt = *req.IncidentAt
	}
	if req.OperatorName != nil {
		current.OperatorName = *req.OperatorName
	}
	updated, err := s.repo.Update(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "case.update", updated.ID, map[string]any{"number": updated.Number})
	if s.events != nil {
		s.events.CaseChanged(ctx, "updated", *updated, actorID)
	}
	return updated, nil
}

// Transition moves a case along the status workflow.
func (s *Service) Transition(ctx context.Context, id string, to Status, actorID string) (*Case, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if !CanTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}
	from := current.Status
	current.Status = to
	updated, err := s.repo.Update(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "case.transition", updated.ID, map[string]any{
		"number": updated.Number,
		"from":   string(from),
		"to":     string(to),
	})
	if s.events != nil {
		s.events.CaseChanged(ctx, "transitioned", *updated, actorID)
	}
	return updated, nil
}

// Delete removes a case.
func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "case.delete", id, map[string]any{"number": current.Number})
	if s.events != nil {
		s.events.CaseChanged(ctx, "deleted", *current, actorID)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "case",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
