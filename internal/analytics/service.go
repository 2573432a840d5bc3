package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Repository loads a user's analytics inputs.
type Repository interface {
	Invoices(ctx context.Context, userID string) ([]Invoice, error)
	Clients(ctx context.Context, userID string) ([]Client, error)
}

// Service coordinates loading, aggregation and the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithClock overrides the service clock for testing.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Report returns the full aggregation for the requested period token.
func (s *Service) Report(ctx context.Context, userID, rawPeriod string) (Report, error) {
	period, err := ParsePeriod(rawPeriod)
	if err != nil {
		return Report{}, err
	}
	now := s.now().UTC()
	key, err := s.cache.BuildKey(ctx, userID, "report", string(period), now.Format(dayLayout))
	if err != nil {
		return Report{}, err
	}
	var out Report
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		invoices, clients, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return Build(invoices, clients, period, now), nil
	})
	if err != nil {
		return Report{}, err
	}
	return out, nil
}

// Summary returns the compact dashboard figures.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	now := s.now().UTC()
	key, err := s.cache.BuildKey(ctx, userID, "summary", now.Format(dayLayout))
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		invoices, clients, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return BuildSummary(invoices, len(clients), now), nil
	})
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Warm precomputes the default report and summary for a user.
func (s *Service) Warm(ctx context.Context, userID string) error {
	if _, err := s.Report(ctx, userID, string(DefaultPeriod)); err != nil {
		return err
	}
	_, err := s.Summary(ctx, userID)
	return err
}

// Invalidate drops every cached report of a user.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Bump(ctx, userID)
}

// load fetches invoices and clients concurrently. Either failure fails the
// whole request; partial aggregates are never built.
func (s *Service) load(ctx context.Context, userID string) ([]Invoice, []Client, error) {
	var (
		invoices []Invoice
		clients  []Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.repo.Invoices(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.repo.Clients(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load analytics inputs", slog.String("user_id", userID), slog.Any("error", err))
		return nil, nil, err
	}
	return invoices, clients, nil
}
