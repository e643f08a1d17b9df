package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

type memoryPaymentRepo struct {
	payments      map[int64]*Payment
	invoices      map[int64]*Invoice
	nextID        int64
	nextInvoiceID int64
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{
		payments: make(map[int64]*Payment),
		invoices: make(map[int64]*Invoice),
	}
}

func (r *memoryPaymentRepo) Create(_ context.Context, p Payment) (*Payment, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.payments[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memoryPaymentRepo) Get(_ context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryPaymentRepo) Update(_ context.Context, p Payment) error {
	if _, ok := r.payments[p.ID]; !ok {
		return ErrNotFound
	}
	r.payments[p.ID] = &p
	return nil
}

func (r *memoryPaymentRepo) Apply(_ context.Context, id int64, fn func(*Payment) error) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	work := *p
	if err := fn(&work); err != nil {
		return nil, err
	}
	r.payments[id] = &work
	copied := work
	return &copied, nil
}

func (r *memoryPaymentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.payments[id]; !ok {
		return ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memoryPaymentRepo) List(_ context.Context, req ListRequest) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.payments {
		if req.Status != "" && p.Status != req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryPaymentRepo) CreateInvoice(_ context.Context, inv Invoice) (*Invoice, error) {
	r.nextInvoiceID++
	inv.ID = r.nextInvoiceID
	inv.CreatedAt = time.Now()
	r.invoices[inv.ID] = &inv
	copied := inv
	return &copied, nil
}

func (r *memoryPaymentRepo) GetInvoice(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryPaymentRepo) InvoiceForPayment(_ context.Context, paymentID int64) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.PaymentID == paymentID {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (r *memoryPaymentRepo) ListInvoices(_ context.Context, _, _ int) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPaymentService(repo *memoryPaymentRepo, today time.Time) *Service {
	return NewService(repo, shared.FixedClock{At: today})
}

func TestCreateDerivesStatusAndInvoiceNumber(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, MethodBankTransfer, created.PaymentMethod)
	require.True(t, strings.HasPrefix(created.InvoiceNumber, "INV-2024-"))
	require.Equal(t, 1000.0, created.RemainingAmount())

	// Past due on creation starts overdue.
	late, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 500, DueDate: date(2024, 3, 1),
	})
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, late.Status)
}

func TestRecordPaymentProgression(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	partial, err := svc.RecordPayment(context.Background(), created.ID, 400, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, partial.Status)
	require.Equal(t, 600.0, partial.RemainingAmount())
	require.NotNil(t, partial.PaymentDate)

	// Overpaying the remainder is rejected.
	_, err = svc.RecordPayment(context.Background(), created.ID, 700, nil)
	require.ErrorIs(t, err, httpx.ErrValidation)

	full, err := svc.RecordPayment(context.Background(), created.ID, 600, nil)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, full.Status)
	require.Zero(t, full.RemainingAmount())
}

func TestRecordPaymentCancelledRejected(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	cancelled := StatusCancelled
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), created.ID, 100, nil)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordPaymentRejectionLeavesRowUntouched(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), created.ID, 1500, nil)
	require.ErrorIs(t, err, httpx.ErrValidation)

	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Zero(t, stored.AmountPaid)
	require.Equal(t, StatusPending, stored.Status)
	require.Nil(t, stored.PaymentDate)
}

func TestUpdateUncancelRederives(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	cancelled := StatusCancelled
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)

	pending := StatusPending
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Status: &pending})
	require.NoError(t, err)
	require.Equal(t, StatusPending, updated.Status)

	// Without an explicit status a cancelled payment stays cancelled.
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	note := "still off"
	updated, err = svc.Update(context.Background(), created.ID, UpdateInput{Notes: &note})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)
}

func TestIsOverdue(t *testing.T) {
	today := date(2024, 3, 15)

	p := Payment{DueDate: date(2024, 3, 10), Status: StatusPartial}
	require.True(t, p.IsOverdue(today))

	p.Status = StatusCompleted
	require.False(t, p.IsOverdue(today))

	p.Status = StatusCancelled
	require.False(t, p.IsOverdue(today))
}

func TestIssueInvoiceOncePerPayment(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newPaymentService(repo, date(2024, 3, 15))

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	inv, err := svc.IssueInvoice(context.Background(), created.ID, 100, 50, "")
	require.NoError(t, err)
	require.Equal(t, created.InvoiceNumber, inv.InvoiceNumber)
	require.Equal(t, 1050.0, inv.GrandTotal())

	// A second issue returns the existing invoice.
	again, err := svc.IssueInvoice(context.Background(), created.ID, 0, 0, "")
	require.NoError(t, err)
	require.Equal(t, inv.ID, again.ID)
	require.Len(t, repo.invoices, 1)
}

type invoiceLookupFailRepo struct {
	*memoryPaymentRepo
	err error
}

func (r *invoiceLookupFailRepo) InvoiceForPayment(context.Context, int64) (*Invoice, error) {
	return nil, r.err
}

func TestIssueInvoicePropagatesLookupError(t *testing.T) {
	inner := newMemoryPaymentRepo()
	boom := errors.New("connection reset")
	repo := &invoiceLookupFailRepo{memoryPaymentRepo: inner, err: boom}
	svc := NewService(repo, shared.FixedClock{At: date(2024, 3, 15)})

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: 1, ClientID: 1, Amount: 1000, DueDate: date(2024, 4, 1),
	})
	require.NoError(t, err)

	_, err = svc.IssueInvoice(context.Background(), created.ID, 0, 0, "")
	require.ErrorIs(t, err, boom)
	require.Empty(t, inner.invoices)
}
