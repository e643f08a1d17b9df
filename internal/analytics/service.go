package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atrium-crm/atrium/internal/shared"
)

// Service computes derived financial figures from persisted state. It is
// pure read-side: nothing here mutates.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	clock shared.Clock
}

// NewService wires a RepositoryPort with the cache helper.
func NewService(repo RepositoryPort, cache *Cache, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, cache: cache, clock: clock}
}

// TotalPaid sums paid installments for the project. Empty set yields 0.
func (s *Service) TotalPaid(ctx context.Context, projectID int64) (float64, error) {
	return s.repo.PaidTotalForProject(ctx, projectID)
}

// RemainingBudget returns budget minus total paid, or nil when the project
// has no budget set. "No budget set" is distinct from "budget exhausted".
func (s *Service) RemainingBudget(ctx context.Context, projectID int64) (*float64, error) {
	budget, err := s.repo.ProjectBudget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, nil
	}
	paid, err := s.repo.PaidTotalForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	remaining := *budget - paid
	return &remaining, nil
}

// CanAccept reports whether the project can take another installment of the
// proposed amount. A project without a budget accepts any amount.
func (s *Service) CanAccept(ctx context.Context, projectID int64, amount float64) (bool, *float64, error) {
	remaining, err := s.RemainingBudget(ctx, projectID)
	if err != nil {
		return false, nil, err
	}
	if remaining == nil {
		return true, nil, nil
	}
	return amount <= *remaining, remaining, nil
}

// ProjectFinancials bundles budget, paid and remaining for one project.
func (s *Service) ProjectFinancials(ctx context.Context, projectID int64) (*ProjectFinancials, error) {
	budget, err := s.repo.ProjectBudget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.PaidTotalForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	fin := &ProjectFinancials{ProjectID: projectID, Budget: budget, TotalPaid: paid}
	if budget != nil {
		remaining := *budget - paid
		fin.RemainingBudget = &remaining
	}
	return fin, nil
}

// DashboardSummary computes the snapshot as of the given date. A zero asOf
// means "today" per the injected clock. Independent aggregates are fetched
// concurrently.
func (s *Service) DashboardSummary(ctx context.Context, asOf time.Time) (DashboardSummary, error) {
	if asOf.IsZero() {
		asOf = shared.Today(s.clock)
	} else {
		asOf = shared.DateOf(asOf)
	}

	loader := func(ctx context.Context) (interface{}, error) {
		var summary DashboardSummary
		from := monthStart(asOf)
		to := from.AddDate(0, 1, 0)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			total, err := s.repo.PaidTotalAll(gctx)
			summary.TotalIncome = total
			return err
		})
		g.Go(func() error {
			monthly, err := s.repo.PaidTotalBetween(gctx, from, to)
			summary.MonthlyIncome = monthly
			return err
		})
		g.Go(func() error {
			pending, err := s.repo.PendingTotal(gctx)
			summary.PendingTotal = pending
			return err
		})
		g.Go(func() error {
			total, count, err := s.repo.OverdueTotals(gctx, asOf)
			summary.OverdueTotal = total
			summary.OverdueCount = count
			return err
		})
		g.Go(func() error {
			counts, err := s.repo.ProjectCounts(gctx)
			summary.TotalProjects = counts.Total
			summary.ActiveProjects = counts.Active
			summary.CompletedProjects = counts.Completed
			return err
		})
		g.Go(func() error {
			counts, err := s.repo.ClientCounts(gctx)
			summary.TotalClients = counts.Total
			summary.ActiveClients = counts.Active
			return err
		})
		if err := g.Wait(); err != nil {
			return DashboardSummary{}, err
		}
		return summary, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		return value.(DashboardSummary), nil
	}

	key, err := s.cache.BuildKey(ctx, keySummary(asOf))
	if err != nil {
		return DashboardSummary{}, err
	}
	var summary DashboardSummary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return DashboardSummary{}, err
	}
	return summary, nil
}

// MonthlyIncomeSeries returns exactly n (label, total) pairs for the trailing
// n calendar months ending at asOf's month, oldest first. Months without paid
// installments contribute 0 rather than being omitted.
func (s *Service) MonthlyIncomeSeries(ctx context.Context, n int, asOf time.Time) ([]MonthPoint, error) {
	if n <= 0 {
		n = 6
	}
	if asOf.IsZero() {
		asOf = shared.Today(s.clock)
	} else {
		asOf = shared.DateOf(asOf)
	}

	loader := func(ctx context.Context) (interface{}, error) {
		points := make([]MonthPoint, 0, n)
		start := monthStart(asOf).AddDate(0, -(n - 1), 0)
		for i := 0; i < n; i++ {
			from := start.AddDate(0, i, 0)
			to := from.AddDate(0, 1, 0)
			total, err := s.repo.PaidTotalBetween(ctx, from, to)
			if err != nil {
				return nil, fmt.Errorf("month %s: %w", from.Format("2006-01"), err)
			}
			points = append(points, MonthPoint{
				Label: from.Format("Jan"),
				Month: from.Format("2006-01"),
				Total: total,
			})
		}
		return points, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]MonthPoint), nil
	}

	key, err := s.cache.BuildKey(ctx, keyMonthly(n, asOf))
	if err != nil {
		return nil, err
	}
	var points []MonthPoint
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}
