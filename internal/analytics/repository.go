package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProjectNotFound indicates the referenced project does not exist.
var ErrProjectNotFound = errors.New("analytics: project not found")

// RepositoryPort exposes the aggregate queries the engine relies on.
type RepositoryPort interface {
	ProjectBudget(ctx context.Context, projectID int64) (*float64, error)
	PaidTotalForProject(ctx context.Context, projectID int64) (float64, error)
	PaidTotalAll(ctx context.Context) (float64, error)
	PaidTotalBetween(ctx context.Context, from, to time.Time) (float64, error)
	PendingTotal(ctx context.Context) (float64, error)
	OverdueTotals(ctx context.Context, before time.Time) (float64, int, error)
	ProjectCounts(ctx context.Context) (ProjectCounts, error)
	ClientCounts(ctx context.Context) (ClientCounts, error)
}

// Repository provides PostgreSQL backed aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProjectBudget returns the project's budget, nil when no budget is set.
func (r *Repository) ProjectBudget(ctx context.Context, projectID int64) (*float64, error) {
	var budget *float64
	err := r.pool.QueryRow(ctx, `SELECT budget FROM projects WHERE id = $1`, projectID).Scan(&budget)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return budget, nil
}

// PaidTotalForProject sums paid installment amounts for one project.
func (r *Repository) PaidTotalForProject(ctx context.Context, projectID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payment_installments
WHERE project_id = $1 AND status = 'paid'`, projectID).Scan(&total)
	return total, err
}

// PaidTotalAll sums paid installment amounts across all projects.
func (r *Repository) PaidTotalAll(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payment_installments
WHERE status = 'paid'`).Scan(&total)
	return total, err
}

// PaidTotalBetween sums paid installments whose paid_date falls in [from, to).
func (r *Repository) PaidTotalBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payment_installments
WHERE status = 'paid' AND paid_date >= $1 AND paid_date < $2`, from, to).Scan(&total)
	return total, err
}

// PendingTotal sums amounts over pending installments.
func (r *Repository) PendingTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payment_installments
WHERE status = 'pending'`).Scan(&total)
	return total, err
}

// OverdueTotals sums and counts pending installments due before the given date.
func (r *Repository) OverdueTotals(ctx context.Context, before time.Time) (float64, int, error) {
	var total float64
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM payment_installments
WHERE status = 'pending' AND due_date < $1`, before).Scan(&total, &count)
	return total, count, err
}

// ProjectCounts returns total, active and completed project counts.
func (r *Repository) ProjectCounts(ctx context.Context) (ProjectCounts, error) {
	var counts ProjectCounts
	err := r.pool.QueryRow(ctx, `SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE status IN ('in_progress', 'on_hold')),
  COUNT(*) FILTER (WHERE status = 'completed')
FROM projects`).Scan(&counts.Total, &counts.Active, &counts.Completed)
	return counts, err
}

// ClientCounts returns total clients and clients with at least one project
// in progress or on hold.
func (r *Repository) ClientCounts(ctx context.Context) (ClientCounts, error) {
	var counts ClientCounts
	err := r.pool.QueryRow(ctx, `SELECT
  (SELECT COUNT(*) FROM clients),
  (SELECT COUNT(DISTINCT client_id) FROM projects WHERE status IN ('in_progress', 'on_hold'))`).
		Scan(&counts.Total, &counts.Active)
	return counts, err
}
