package installments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

type memoryRepo struct {
	items  map[int64]*Installment
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]*Installment)}
}

func (r *memoryRepo) Create(_ context.Context, inst Installment) (*Installment, error) {
	r.nextID++
	inst.ID = r.nextID
	inst.CreatedAt = time.Now()
	inst.UpdatedAt = inst.CreatedAt
	r.items[inst.ID] = &inst
	copied := inst
	return &copied, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Installment, error) {
	inst, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inst
	return &copied, nil
}

func (r *memoryRepo) Update(_ context.Context, inst Installment) error {
	if _, ok := r.items[inst.ID]; !ok {
		return ErrNotFound
	}
	inst.UpdatedAt = time.Now()
	r.items[inst.ID] = &inst
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Installment, error) {
	var out []Installment
	for _, inst := range r.items {
		if filter.ProjectID != 0 && inst.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && inst.Status != filter.Status {
			continue
		}
		out = append(out, *inst)
	}
	return out, nil
}

func (r *memoryRepo) MarkOverdue(_ context.Context, before time.Time) (int64, error) {
	var count int64
	for _, inst := range r.items {
		if inst.Status == StatusPending && inst.DueDate.Before(before) {
			inst.Status = StatusOverdue
			count++
		}
	}
	return count, nil
}

type fixedBudget struct {
	remaining *float64
}

func (b fixedBudget) CanAccept(_ context.Context, _ int64, amount float64) (bool, *float64, error) {
	if b.remaining == nil {
		return true, nil, nil
	}
	return amount <= *b.remaining, b.remaining, nil
}

type countingBump struct {
	calls int
}

func (c *countingBump) Bump(_ context.Context) error {
	c.calls++
	return nil
}

func fptr(f float64) *float64 { return &f }

func newTestService(repo *memoryRepo, budget BudgetPolicy, today time.Time) (*Service, *countingBump) {
	bump := &countingBump{}
	return NewService(repo, budget, bump, shared.FixedClock{At: today}), bump
}

func TestCreateWithinBudget(t *testing.T) {
	// Budget 1000 with 800 already scheduled leaves 200.
	repo := newMemoryRepo()
	svc, bump := newTestService(repo, fixedBudget{remaining: fptr(200)}, date(2024, 3, 15))

	_, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Extra", Amount: 250, DueDate: date(2024, 4, 1),
	})
	var budgetErr *BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	require.Equal(t, 250.0, budgetErr.Attempted)
	require.Equal(t, 200.0, budgetErr.Remaining)
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Fits", Amount: 200, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, TypeInstallment, created.PaymentType)
	require.Equal(t, 1, bump.calls)
}

func TestCreateUnconstrainedWithoutBudget(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, fixedBudget{remaining: nil}, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Large", Amount: 1e6, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, date(2024, 3, 15))

	_, err := svc.Create(context.Background(), CreateInput{ProjectID: 1, Amount: 0, DueDate: date(2024, 4, 1)})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{ProjectID: 1, Amount: -5, DueDate: date(2024, 4, 1)})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreatePastDueStartsOverdue(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Late already", Amount: 100, DueDate: date(2024, 3, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, created.Status)
}

func TestEditReDerivesStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Milestone", Amount: 100, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)

	// Pulling the due date into the past flips it to overdue.
	past := date(2024, 3, 1)
	edited, err := svc.Edit(context.Background(), created.ID, UpdateInput{DueDate: &past})
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, edited.Status)

	// Pushing it back out flips it back to pending.
	future := date(2024, 5, 1)
	edited, err = svc.Edit(context.Background(), created.ID, UpdateInput{DueDate: &future})
	require.NoError(t, err)
	require.Equal(t, StatusPending, edited.Status)
}

func TestEditCancelIsSticky(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Dropped", Amount: 100, DueDate: date(2024, 2, 1),
	})
	require.NoError(t, err)

	cancelled := StatusCancelled
	edited, err := svc.Edit(context.Background(), created.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, edited.Status)

	// A later no-op edit must not resurrect it to overdue.
	edited, err = svc.Edit(context.Background(), created.ID, UpdateInput{})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, edited.Status)
}

func TestMarkPaidIdempotent(t *testing.T) {
	today := date(2024, 3, 15)
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, today)

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, Title: "Advance", Amount: 500, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	require.Equal(t, today, *paid.PaidDate)

	// Second call without a date preserves the original paid date.
	again, err := svc.MarkPaid(context.Background(), created.ID, nil)
	require.NoError(t, err)
	require.Equal(t, today, *again.PaidDate)

	// An explicit date always overwrites.
	explicit := date(2024, 3, 1)
	redated, err := svc.MarkPaid(context.Background(), created.ID, &explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, *redated.PaidDate)
}

func TestMarkPaidMissing(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, nil, date(2024, 3, 15))

	_, err := svc.MarkPaid(context.Background(), 99, nil)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestSweepOverdueIdempotent(t *testing.T) {
	today := date(2024, 3, 15)
	repo := newMemoryRepo()
	svc, bump := newTestService(repo, nil, today)

	for _, due := range []time.Time{date(2024, 3, 1), date(2024, 3, 10), date(2024, 4, 1)} {
		_, err := svc.Create(context.Background(), CreateInput{
			ProjectID: 1, Title: "Inst", Amount: 100, DueDate: due,
		})
		require.NoError(t, err)
	}
	// The two past-due creates already normalized to overdue, so the
	// sweep itself has nothing left to touch.
	bumpsBefore := bump.calls
	count, err := svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Equal(t, bumpsBefore, bump.calls)

	// Force a pending row past due, as if the clock advanced.
	repo.items[3].DueDate = date(2024, 3, 14)

	count, err = svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, bumpsBefore+1, bump.calls)

	count, err = svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}
