package mailer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/shared"
)

// ErrConfigNotFound indicates the SMTP config does not exist.
var ErrConfigNotFound = errors.New("smtp config not found")

// RepositoryPort defines persistence for SMTP configs and email logs.
type RepositoryPort interface {
	CreateConfig(ctx context.Context, c SMTPConfig) (*SMTPConfig, error)
	GetConfig(ctx context.Context, id int64) (*SMTPConfig, error)
	ActiveConfig(ctx context.Context, ownerID int64) (*SMTPConfig, error)
	UpdateConfig(ctx context.Context, c SMTPConfig) error
	DeleteConfig(ctx context.Context, id int64) error
	ListConfigs(ctx context.Context, ownerID int64) ([]SMTPConfig, error)
	CreateLog(ctx context.Context, l EmailLog) (*EmailLog, error)
	UpdateLogStatus(ctx context.Context, id int64, status SendStatus, errMsg string) error
	ListLogs(ctx context.Context, page, perPage int) ([]EmailLog, int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `id, name, host, port, username, password, use_tls, use_ssl, from_email, is_active, created_by, created_at, updated_at`

func scanConfig(row pgx.Row) (*SMTPConfig, error) {
	var c SMTPConfig
	err := row.Scan(
		&c.ID, &c.Name, &c.Host, &c.Port, &c.Username, &c.Password,
		&c.UseTLS, &c.UseSSL, &c.FromEmail, &c.IsActive, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateConfig inserts an SMTP configuration.
func (r *Repository) CreateConfig(ctx context.Context, c SMTPConfig) (*SMTPConfig, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO smtp_configs (name, host, port, username, password, use_tls, use_ssl, from_email, is_active, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING `+configColumns,
		c.Name, c.Host, c.Port, c.Username, c.Password, c.UseTLS, c.UseSSL,
		c.FromEmail, c.IsActive, c.CreatedBy)
	return scanConfig(row)
}

// GetConfig returns one SMTP configuration.
func (r *Repository) GetConfig(ctx context.Context, id int64) (*SMTPConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+configColumns+` FROM smtp_configs WHERE id = $1`, id)
	return scanConfig(row)
}

// ActiveConfig returns the owner's active configuration, newest first.
func (r *Repository) ActiveConfig(ctx context.Context, ownerID int64) (*SMTPConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+configColumns+` FROM smtp_configs
WHERE created_by = $1 AND is_active ORDER BY updated_at DESC LIMIT 1`, ownerID)
	return scanConfig(row)
}

// UpdateConfig overwrites a configuration.
func (r *Repository) UpdateConfig(ctx context.Context, c SMTPConfig) error {
	tag, err := r.pool.Exec(ctx, `UPDATE smtp_configs
SET name = $1, host = $2, port = $3, username = $4, password = $5,
    use_tls = $6, use_ssl = $7, from_email = $8, is_active = $9, updated_at = NOW()
WHERE id = $10`,
		c.Name, c.Host, c.Port, c.Username, c.Password, c.UseTLS, c.UseSSL,
		c.FromEmail, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// DeleteConfig removes a configuration.
func (r *Repository) DeleteConfig(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM smtp_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// ListConfigs returns all configurations owned by a user.
func (r *Repository) ListConfigs(ctx context.Context, ownerID int64) ([]SMTPConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+configColumns+` FROM smtp_configs WHERE created_by = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SMTPConfig
	for rows.Next() {
		var c SMTPConfig
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Host, &c.Port, &c.Username, &c.Password,
			&c.UseTLS, &c.UseSSL, &c.FromEmail, &c.IsActive, &c.CreatedBy,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const logColumns = `id, recipient, subject, body, status, error_message, smtp_config_id, sent_by, created_at`

// CreateLog inserts a delivery attempt record.
func (r *Repository) CreateLog(ctx context.Context, l EmailLog) (*EmailLog, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO email_logs (recipient, subject, body, status, error_message, smtp_config_id, sent_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
RETURNING `+logColumns,
		l.Recipient, l.Subject, l.Body, l.Status, l.ErrorMessage, l.SMTPConfigID, l.SentBy)
	var out EmailLog
	if err := row.Scan(&out.ID, &out.Recipient, &out.Subject, &out.Body, &out.Status, &out.ErrorMessage, &out.SMTPConfigID, &out.SentBy, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLogStatus records the final outcome of a delivery attempt.
func (r *Repository) UpdateLogStatus(ctx context.Context, id int64, status SendStatus, errMsg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = $1, error_message = $2 WHERE id = $3`, status, errMsg, id)
	return err
}

// ListLogs returns a page of email logs, newest first.
func (r *Repository) ListLogs(ctx context.Context, page, perPage int) ([]EmailLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `SELECT `+logColumns+` FROM email_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []EmailLog
	for rows.Next() {
		var l EmailLog
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Subject, &l.Body, &l.Status, &l.ErrorMessage, &l.SMTPConfigID, &l.SentBy, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
