package payments

import "time"

// Status tracks how much of a payment has been collected.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Method is the channel a payment arrives through.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
	MethodPayPal       Method = "paypal"
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodOther        Method = "other"
)

// Payment is a coarse receivable tied to a project and client.
type Payment struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	ClientID      int64      `json:"client_id"`
	Amount        float64    `json:"amount"`
	AmountPaid    float64    `json:"amount_paid"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	Status        Status     `json:"status"`
	PaymentMethod Method     `json:"payment_method"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Description   string     `json:"description,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedBy     int64      `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RemainingAmount is the uncollected portion.
func (p Payment) RemainingAmount() float64 {
	return p.Amount - p.AmountPaid
}

// IsOverdue reports whether the payment is past due and not settled.
func (p Payment) IsOverdue(today time.Time) bool {
	if p.Status == StatusCompleted || p.Status == StatusCancelled {
		return false
	}
	return p.DueDate.Before(today)
}

// Invoice is the billing document issued for a payment.
type Invoice struct {
	ID             int64     `json:"id"`
	PaymentID      int64     `json:"payment_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	IssueDate      time.Time `json:"issue_date"`
	DueDate        time.Time `json:"due_date"`
	TotalAmount    float64   `json:"total_amount"`
	TaxAmount      float64   `json:"tax_amount"`
	DiscountAmount float64   `json:"discount_amount"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GrandTotal is the amount owed after tax and discount.
func (i Invoice) GrandTotal() float64 {
	return i.TotalAmount + i.TaxAmount - i.DiscountAmount
}
