package reports

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const trendMonths = 6

// Service coordinates aggregate query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Dashboard assembles the overview, running the aggregates in
// parallel and caching the assembled payload as one entry.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "dashboard")
	if err != nil {
		return Dashboard{}, err
	}
	var dash Dashboard
	err = s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (interface{}, error) {
		return s.buildDashboard(ctx)
	})
	return dash, err
}

func (s *Service) buildDashboard(ctx context.Context) (Dashboard, error) {
	dash := Dashboard{GeneratedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, open, err := s.repo.CountCases(gctx)
		dash.TotalCases, dash.OpenCases = total, open
		return err
	})
	g.Go(func() error {
		entries, err := s.repo.BreakdownBy(gctx, "status")
		dash.ByStatus = entries
		return err
	})
	g.Go(func() error {
		entries, err := s.repo.BreakdownBy(gctx, "type")
		dash.ByType = entries
		return err
	})
	g.Go(func() error {
		entries, err := s.repo.BreakdownBy(gctx, "priority")
		dash.ByPriority = entries
		return err
	})
	g.Go(func() error {
		points, err := s.repo.MonthlyTrend(gctx, trendMonths)
		dash.MonthlyTrend = points
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

// Breakdown returns one cached distribution.
func (s *Service) Breakdown(ctx context.Context, column string) ([]BreakdownEntry, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "breakdown", column)
	if err != nil {
		return nil, err
	}
	var entries []BreakdownEntry
	err = s.cache.FetchJSON(ctx, key, &entries, func(ctx context.Context) (interface{}, error) {
		return s.repo.BreakdownBy(ctx, column)
	})
	return entries, err
}

// Trend returns the cached monthly case volume window.
func (s *Service) Trend(ctx context.Context, months int) ([]TrendPoint, error) {
	if months <= 0 || months > 24 {
		months = trendMonths
	}
	key, err := s.cache.BuildKey(ctx, "reports", "trend", strconv.Itoa(months))
	if err != nil {
		return nil, err
	}
	var points []TrendPoint
	err = s.cache.FetchJSON(ctx, key, &points, func(ctx context.Context) (interface{}, error) {
		return s.repo.MonthlyTrend(ctx, months)
	})
	return points, err
}

// Invalidate bumps the cache version after case data changes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm pre-populates the dashboard entry. Run from the scheduler so
// the first morning request does not pay the aggregate cost.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Dashboard(ctx)
	return err
}
