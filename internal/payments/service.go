package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

// Service implements payment and invoice use cases.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

// NewService constructs the service.
func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateInput captures the fields accepted on payment creation.
type CreateInput struct {
	ProjectID     int64
	ClientID      int64
	Amount        float64
	DueDate       time.Time
	PaymentMethod Method
	Description   string
	Notes         string
	CreatedBy     int64
}

// UpdateInput carries optional updates; nil fields are untouched.
type UpdateInput struct {
	Amount        *float64
	DueDate       *time.Time
	Status        *Status
	PaymentMethod *Method
	Description   *string
	Notes         *string
}

// deriveStatus recomputes a payment's status from its amounts and due date.
// Cancelled is terminal and only changes through an explicit update.
func deriveStatus(p *Payment, today time.Time) {
	if p.Status == StatusCancelled {
		return
	}
	switch {
	case p.AmountPaid >= p.Amount:
		p.Status = StatusCompleted
	case p.AmountPaid > 0:
		p.Status = StatusPartial
	default:
		p.Status = StatusPending
	}
	if p.Status != StatusCompleted && p.DueDate.Before(today) {
		p.Status = StatusOverdue
	}
}

// newInvoiceNumber builds a unique invoice number like INV-2026-3F2A9C1B.
func newInvoiceNumber(today time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%d-%s", today.Year(), suffix)
}

// Create validates and stores a new payment with a generated invoice number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Payment, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if in.ProjectID == 0 || in.ClientID == 0 {
		return nil, fmt.Errorf("%w: project_id and client_id are required", httpx.ErrValidation)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = MethodBankTransfer
	}

	today := shared.Today(s.clock)
	payment := Payment{
		ProjectID:     in.ProjectID,
		ClientID:      in.ClientID,
		Amount:        in.Amount,
		DueDate:       shared.DateOf(in.DueDate),
		PaymentMethod: in.PaymentMethod,
		InvoiceNumber: newInvoiceNumber(today),
		Description:   in.Description,
		Notes:         in.Notes,
		CreatedBy:     in.CreatedBy,
	}
	deriveStatus(&payment, today)
	return s.repo.Create(ctx, payment)
}

// Get fetches one payment.
func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

// Update applies the provided changes and re-derives the status.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Payment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
		}
		current.Amount = *in.Amount
	}
	if in.DueDate != nil {
		current.DueDate = shared.DateOf(*in.DueDate)
	}
	if in.Status != nil {
		current.Status = *in.Status
	}
	if in.PaymentMethod != nil {
		current.PaymentMethod = *in.PaymentMethod
	}
	if in.Description != nil {
		current.Description = *in.Description
	}
	if in.Notes != nil {
		current.Notes = *in.Notes
	}

	// An explicit cancel sticks; every other outcome is recomputed.
	if in.Status == nil || *in.Status != StatusCancelled {
		deriveStatus(current, shared.Today(s.clock))
	}

	if err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// RecordPayment applies a received amount against the payment.
func (s *Service) RecordPayment(ctx context.Context, id int64, amount float64, receivedAt *time.Time) (*Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	today := shared.Today(s.clock)
	return s.repo.Apply(ctx, id, func(current *Payment) error {
		if current.Status == StatusCancelled {
			return fmt.Errorf("%w: payment is cancelled", httpx.ErrValidation)
		}
		if amount > current.RemainingAmount() {
			return fmt.Errorf("%w: amount %.2f exceeds remaining %.2f", httpx.ErrValidation, amount, current.RemainingAmount())
		}

		current.AmountPaid += amount
		when := today
		if receivedAt != nil {
			when = shared.DateOf(*receivedAt)
		}
		current.PaymentDate = &when
		deriveStatus(current, today)
		return nil
	})
}

// Delete removes a payment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns a filtered page of payments.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Payment, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// IssueInvoice creates the invoice document for a payment. A payment
// carries at most one invoice.
func (s *Service) IssueInvoice(ctx context.Context, paymentID int64, taxAmount, discountAmount float64, notes string) (*Invoice, error) {
	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if taxAmount < 0 || discountAmount < 0 {
		return nil, fmt.Errorf("%w: tax and discount cannot be negative", httpx.ErrValidation)
	}
	existing, err := s.repo.InvoiceForPayment(ctx, paymentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrInvoiceNotFound) {
		return nil, err
	}

	return s.repo.CreateInvoice(ctx, Invoice{
		PaymentID:      payment.ID,
		InvoiceNumber:  payment.InvoiceNumber,
		IssueDate:      shared.Today(s.clock),
		DueDate:        payment.DueDate,
		TotalAmount:    payment.Amount,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		Notes:          notes,
	})
}

// Invoice fetches an invoice by id.
func (s *Service) Invoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// Invoices returns a page of invoices.
func (s *Service) Invoices(ctx context.Context, page, perPage int) ([]Invoice, shared.Pagination, error) {
	items, total, err := s.repo.ListInvoices(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}
