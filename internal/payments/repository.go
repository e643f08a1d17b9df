package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/platform/db"
	"github.com/atrium-crm/atrium/internal/shared"
)

// ErrNotFound indicates the payment does not exist.
var ErrNotFound = errors.New("payment not found")

// ErrInvoiceNotFound indicates the invoice does not exist.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ListRequest narrows and paginates payment listings.
type ListRequest struct {
	ProjectID int64
	ClientID  int64
	Status    Status
	Page      int
	PerPage   int
}

// RepositoryPort defines data access methods for payments and invoices.
type RepositoryPort interface {
	Create(ctx context.Context, p Payment) (*Payment, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	Update(ctx context.Context, p Payment) error
	Apply(ctx context.Context, id int64, fn func(*Payment) error) (*Payment, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req ListRequest) ([]Payment, int, error)
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	InvoiceForPayment(ctx context.Context, paymentID int64) (*Invoice, error)
	ListInvoices(ctx context.Context, page, perPage int) ([]Invoice, int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, project_id, client_id, amount, amount_paid, payment_date, due_date, status, payment_method, invoice_number, description, notes, created_by, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.ProjectID, &p.ClientID, &p.Amount, &p.AmountPaid,
		&p.PaymentDate, &p.DueDate, &p.Status, &p.PaymentMethod,
		&p.InvoiceNumber, &p.Description, &p.Notes, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new payment.
func (r *Repository) Create(ctx context.Context, p Payment) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO payments (project_id, client_id, amount, amount_paid, payment_date, due_date, status, payment_method, invoice_number, description, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
RETURNING `+paymentColumns,
		p.ProjectID, p.ClientID, p.Amount, p.AmountPaid, p.PaymentDate,
		p.DueDate, p.Status, p.PaymentMethod, p.InvoiceNumber, p.Description,
		p.Notes, p.CreatedBy)
	return scanPayment(row)
}

// Get returns a payment by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// Update overwrites the mutable fields of a payment.
func (r *Repository) Update(ctx context.Context, p Payment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments
SET project_id = $1, client_id = $2, amount = $3, amount_paid = $4,
    payment_date = $5, due_date = $6, status = $7, payment_method = $8,
    invoice_number = $9, description = $10, notes = $11, updated_at = NOW()
WHERE id = $12`,
		p.ProjectID, p.ClientID, p.Amount, p.AmountPaid, p.PaymentDate,
		p.DueDate, p.Status, p.PaymentMethod, p.InvoiceNumber, p.Description,
		p.Notes, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Apply mutates one payment inside a repeatable read transaction. The row
// is locked for the duration so concurrent applications cannot lose writes.
func (r *Repository) Apply(ctx context.Context, id int64, fn func(*Payment) error) (*Payment, error) {
	var applied *Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
		p, err := scanPayment(row)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE payments
SET amount_paid = $1, payment_date = $2, status = $3, updated_at = NOW()
WHERE id = $4`,
			p.AmountPaid, p.PaymentDate, p.Status, p.ID); err != nil {
			return err
		}
		applied = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// Delete removes a payment permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns payments matching the request plus the unpaginated total.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ProjectID != 0 {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, req.ProjectID)
		argPos++
	}
	if req.ClientID != 0 {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, req.ClientID)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM payments %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY due_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.ProjectID, &p.ClientID, &p.Amount, &p.AmountPaid,
			&p.PaymentDate, &p.DueDate, &p.Status, &p.PaymentMethod,
			&p.InvoiceNumber, &p.Description, &p.Notes, &p.CreatedBy,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

const invoiceColumns = `id, payment_id, invoice_number, issue_date, due_date, total_amount, tax_amount, discount_amount, notes, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.PaymentID, &inv.InvoiceNumber, &inv.IssueDate,
		&inv.DueDate, &inv.TotalAmount, &inv.TaxAmount, &inv.DiscountAmount,
		&inv.Notes, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice inserts the invoice issued for a payment.
func (r *Repository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO invoices (payment_id, invoice_number, issue_date, due_date, total_amount, tax_amount, discount_amount, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
RETURNING `+invoiceColumns,
		inv.PaymentID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		inv.TotalAmount, inv.TaxAmount, inv.DiscountAmount, inv.Notes)
	return scanInvoice(row)
}

// GetInvoice returns an invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// InvoiceForPayment returns the invoice attached to a payment.
func (r *Repository) InvoiceForPayment(ctx context.Context, paymentID int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE payment_id = $1`, paymentID)
	return scanInvoice(row)
}

// ListInvoices returns a page of invoices, newest first.
func (r *Repository) ListInvoices(ctx context.Context, page, perPage int) ([]Invoice, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY issue_date DESC, id DESC LIMIT $1 OFFSET $2`,
		pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.PaymentID, &inv.InvoiceNumber, &inv.IssueDate,
			&inv.DueDate, &inv.TotalAmount, &inv.TaxAmount, &inv.DiscountAmount,
			&inv.Notes, &inv.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}
