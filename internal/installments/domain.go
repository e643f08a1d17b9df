package installments

import (
	"fmt"
	"time"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

// Status enumerates installment lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// PaymentType enumerates the kinds of scheduled payments.
type PaymentType string

const (
	TypeAdvance     PaymentType = "advance"
	TypeMilestone   PaymentType = "milestone"
	TypeFinal       PaymentType = "final"
	TypeInstallment PaymentType = "installment"
)

// Installment is a single scheduled partial payment against a project's budget.
type Installment struct {
	ID          int64       `json:"id"`
	ProjectID   int64       `json:"project_id"`
	Title       string      `json:"title"`
	Amount      float64     `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
	DueDate     time.Time   `json:"due_date"`
	PaidDate    *time.Time  `json:"paid_date,omitempty"`
	Status      Status      `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	CreatedBy   int64       `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// DeriveStatus computes the status an installment must carry given its due
// date relative to today. Paid and cancelled are terminal here: only explicit
// actions move an installment in or out of them.
func DeriveStatus(current Status, dueDate time.Time, today time.Time) Status {
	switch current {
	case StatusPending:
		if dueDate.Before(today) {
			return StatusOverdue
		}
		return StatusPending
	case StatusOverdue:
		if !dueDate.Before(today) {
			return StatusPending
		}
		return StatusOverdue
	default:
		return current
	}
}

// Normalize makes the status/due_date/paid_date triple self-consistent.
// Every mutator calls this before persisting; nothing happens implicitly on
// the storage layer's write path.
func Normalize(inst *Installment, today time.Time) {
	if inst.Status == StatusPaid && inst.PaidDate == nil {
		d := today
		inst.PaidDate = &d
	}
	inst.Status = DeriveStatus(inst.Status, inst.DueDate, today)
}

// IsOverdue reports whether the installment is pending past its due date.
func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Status == StatusPending && i.DueDate.Before(today)
}

// DaysOverdue returns how many days past due a pending installment is.
func (i *Installment) DaysOverdue(today time.Time) int {
	if !i.IsOverdue(today) {
		return 0
	}
	return int(today.Sub(i.DueDate).Hours() / 24)
}

// BudgetExceededError rejects a created amount that does not fit the
// project's remaining budget. It carries the attempted amount and the
// remaining figure at rejection time so callers can explain the rejection.
type BudgetExceededError struct {
	Attempted float64 `json:"attempted"`
	Remaining float64 `json:"remaining"`
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("amount %.2f exceeds remaining budget %.2f", e.Attempted, e.Remaining)
}

// Unwrap maps the rejection onto the shared validation sentinel.
func (e *BudgetExceededError) Unwrap() error { return httpx.ErrValidation }
