package installments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const installmentColumns = `id, project_id, title, amount, payment_type, due_date, paid_date, status, notes, created_by, created_at, updated_at`

func scanInstallment(row pgx.Row) (*Installment, error) {
	var inst Installment
	err := row.Scan(
		&inst.ID, &inst.ProjectID, &inst.Title, &inst.Amount, &inst.PaymentType,
		&inst.DueDate, &inst.PaidDate, &inst.Status, &inst.Notes,
		&inst.CreatedBy, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// Create inserts a new installment.
func (r *Repository) Create(ctx context.Context, inst Installment) (*Installment, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO payment_installments (project_id, title, amount, payment_type, due_date, paid_date, status, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING `+installmentColumns,
		inst.ProjectID, inst.Title, inst.Amount, inst.PaymentType, inst.DueDate,
		inst.PaidDate, inst.Status, inst.Notes, inst.CreatedBy)
	return scanInstallment(row)
}

// Get returns a single installment by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Installment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+installmentColumns+` FROM payment_installments WHERE id = $1`, id)
	return scanInstallment(row)
}

// Update overwrites the mutable fields of an installment.
func (r *Repository) Update(ctx context.Context, inst Installment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payment_installments
SET project_id = $1, title = $2, amount = $3, payment_type = $4, due_date = $5,
    paid_date = $6, status = $7, notes = $8, updated_at = NOW()
WHERE id = $9`,
		inst.ProjectID, inst.Title, inst.Amount, inst.PaymentType, inst.DueDate,
		inst.PaidDate, inst.Status, inst.Notes, inst.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the installment row. Deletion is permanent.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payment_installments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns installments matching the filter, most recently due first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM payment_installments`
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.ProjectID != 0 {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, filter.ProjectID)
		argPos++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if !filter.DueBefore.IsZero() {
		conditions = append(conditions, fmt.Sprintf("due_date < $%d", argPos))
		args = append(args, filter.DueBefore)
		argPos++
	}
	if !filter.DueAfter.IsZero() {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", argPos))
		args = append(args, filter.DueAfter)
		argPos++
	}

	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}
	query += " ORDER BY due_date DESC, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		var inst Installment
		if err := rows.Scan(
			&inst.ID, &inst.ProjectID, &inst.Title, &inst.Amount, &inst.PaymentType,
			&inst.DueDate, &inst.PaidDate, &inst.Status, &inst.Notes,
			&inst.CreatedBy, &inst.CreatedAt, &inst.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// MarkOverdue flips pending installments due before the given date to
// overdue in a single statement and reports how many rows changed.
func (r *Repository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE payment_installments
SET status = $1, updated_at = NOW()
WHERE status = $2 AND due_date < $3`, StatusOverdue, StatusPending, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
