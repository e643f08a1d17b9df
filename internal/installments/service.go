package installments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

// ErrNotFound indicates the referenced installment does not exist.
var ErrNotFound = errors.New("installment not found")

// ListFilter narrows installment listings.
type ListFilter struct {
	ProjectID int64
	Status    Status
	DueBefore time.Time
	DueAfter  time.Time
}

// RepositoryPort defines data access methods for installments.
type RepositoryPort interface {
	Create(ctx context.Context, inst Installment) (*Installment, error)
	Get(ctx context.Context, id int64) (*Installment, error)
	Update(ctx context.Context, inst Installment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]Installment, error)
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

// BudgetPolicy answers whether a project can accept another installment of
// the proposed amount. A nil remaining figure means the project has no budget
// set and accepts any amount.
type BudgetPolicy interface {
	CanAccept(ctx context.Context, projectID int64, amount float64) (bool, *float64, error)
}

// CacheInvalidator bumps derived-figure caches after a write.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// CreateInput carries fields for a new installment.
type CreateInput struct {
	ProjectID   int64
	Title       string
	Amount      float64
	PaymentType PaymentType
	DueDate     time.Time
	Notes       string
	CreatedBy   int64
}

// UpdateInput carries optional field mutations for an installment.
type UpdateInput struct {
	ProjectID   *int64
	Title       *string
	Amount      *float64
	PaymentType *PaymentType
	DueDate     *time.Time
	Status      *Status
	Notes       *string
}

// Service owns the installment lifecycle: every write path re-derives the
// status/due_date/paid_date triple before persistence.
type Service struct {
	repo   RepositoryPort
	budget BudgetPolicy
	cache  CacheInvalidator
	clock  shared.Clock
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, budget BudgetPolicy, cache CacheInvalidator, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, budget: budget, cache: cache, clock: clock}
}

// Create validates and persists a new installment. The amount must be
// positive and fit the project's remaining budget at creation time.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Installment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if s.budget != nil {
		ok, remaining, err := s.budget.CanAccept(ctx, input.ProjectID, input.Amount)
		if err != nil {
			return nil, fmt.Errorf("check budget: %w", err)
		}
		if !ok {
			var rem float64
			if remaining != nil {
				rem = *remaining
			}
			return nil, &BudgetExceededError{Attempted: input.Amount, Remaining: rem}
		}
	}

	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = TypeInstallment
	}
	inst := Installment{
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Amount:      input.Amount,
		PaymentType: paymentType,
		DueDate:     shared.DateOf(input.DueDate),
		Status:      StatusPending,
		Notes:       input.Notes,
		CreatedBy:   input.CreatedBy,
	}
	Normalize(&inst, shared.Today(s.clock))

	created, err := s.repo.Create(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("create installment: %w", err)
	}
	s.bump(ctx)
	return created, nil
}

// Get returns a single installment.
func (s *Service) Get(ctx context.Context, id int64) (*Installment, error) {
	return s.repo.Get(ctx, id)
}

// List returns installments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Installment, error) {
	return s.repo.List(ctx, filter)
}

// Edit applies field mutations and re-derives the status before persisting.
// An edit with no field changes still normalizes: a pending installment whose
// due date has passed comes back overdue.
func (s *Service) Edit(ctx context.Context, id int64, input UpdateInput) (*Installment, error) {
	inst, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ProjectID != nil {
		inst.ProjectID = *input.ProjectID
	}
	if input.Title != nil {
		inst.Title = *input.Title
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
		}
		inst.Amount = *input.Amount
	}
	if input.PaymentType != nil {
		inst.PaymentType = *input.PaymentType
	}
	if input.DueDate != nil {
		inst.DueDate = shared.DateOf(*input.DueDate)
	}
	if input.Status != nil {
		inst.Status = *input.Status
	}
	if input.Notes != nil {
		inst.Notes = *input.Notes
	}

	Normalize(inst, shared.Today(s.clock))

	if err := s.repo.Update(ctx, *inst); err != nil {
		return nil, fmt.Errorf("update installment: %w", err)
	}
	s.bump(ctx)
	return inst, nil
}

// MarkPaid sets the installment to paid. Without an explicit paid date the
// call is idempotent and preserves an earlier paid_date; an explicit date
// always overwrites.
func (s *Service) MarkPaid(ctx context.Context, id int64, paidDate *time.Time) (*Installment, error) {
	inst, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inst.Status == StatusPaid && paidDate == nil {
		return inst, nil
	}

	inst.Status = StatusPaid
	if paidDate != nil {
		d := shared.DateOf(*paidDate)
		inst.PaidDate = &d
	}
	Normalize(inst, shared.Today(s.clock))

	if err := s.repo.Update(ctx, *inst); err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	s.bump(ctx)
	return inst, nil
}

// Delete removes the installment permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// SweepOverdue flips every pending installment past its due date to overdue
// and returns the number touched. Re-running is a no-op for rows already
// overdue.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkOverdue(ctx, shared.Today(s.clock))
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	if count > 0 {
		s.bump(ctx)
	}
	return count, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
