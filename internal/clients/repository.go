package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/shared"
)

// ErrNotFound indicates the client does not exist.
var ErrNotFound = errors.New("client not found")

// ListRequest narrows and paginates client listings.
type ListRequest struct {
	Search  string
	Status  Status
	Page    int
	PerPage int
}

// RepositoryPort defines data access methods for clients.
type RepositoryPort interface {
	Create(ctx context.Context, c Client) (*Client, error)
	Get(ctx context.Context, id int64) (*Client, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req ListRequest) ([]Client, int, error)
	CreateContact(ctx context.Context, contact Contact) (*Contact, error)
	ListContacts(ctx context.Context, clientID int64) ([]Contact, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, name, company_name, client_type, status, email, phone, address, city, country, industry, website, notes, source, assigned_to, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.Name, &c.CompanyName, &c.ClientType, &c.Status, &c.Email,
		&c.Phone, &c.Address, &c.City, &c.Country, &c.Industry, &c.Website,
		&c.Notes, &c.Source, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new client.
func (r *Repository) Create(ctx context.Context, c Client) (*Client, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO clients (name, company_name, client_type, status, email, phone, address, city, country, industry, website, notes, source, assigned_to, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
RETURNING `+clientColumns,
		c.Name, c.CompanyName, c.ClientType, c.Status, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.Industry, c.Website, c.Notes, c.Source, c.AssignedTo)
	return scanClient(row)
}

// Get returns a client by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

// Update overwrites the mutable fields of a client.
func (r *Repository) Update(ctx context.Context, c Client) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients
SET name = $1, company_name = $2, client_type = $3, status = $4, email = $5,
    phone = $6, address = $7, city = $8, country = $9, industry = $10,
    website = $11, notes = $12, source = $13, assigned_to = $14, updated_at = NOW()
WHERE id = $15`,
		c.Name, c.CompanyName, c.ClientType, c.Status, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.Industry, c.Website, c.Notes, c.Source,
		c.AssignedTo, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a client permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns clients matching the request plus the unpaginated total.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR company_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, pattern)
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

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.CompanyName, &c.ClientType, &c.Status, &c.Email,
			&c.Phone, &c.Address, &c.City, &c.Country, &c.Industry, &c.Website,
			&c.Notes, &c.Source, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CreateContact inserts a contact row for a client.
func (r *Repository) CreateContact(ctx context.Context, contact Contact) (*Contact, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO client_contacts (client_id, name, position, email, phone, is_primary, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, client_id, name, position, email, phone, is_primary, notes`,
		contact.ClientID, contact.Name, contact.Position, contact.Email,
		contact.Phone, contact.IsPrimary, contact.Notes)
	var out Contact
	if err := row.Scan(&out.ID, &out.ClientID, &out.Name, &out.Position, &out.Email, &out.Phone, &out.IsPrimary, &out.Notes); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContacts returns a client's contacts, primary first.
func (r *Repository) ListContacts(ctx context.Context, clientID int64) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, client_id, name, position, email, phone, is_primary, notes
FROM client_contacts WHERE client_id = $1 ORDER BY is_primary DESC, name`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Position, &c.Email, &c.Phone, &c.IsPrimary, &c.Notes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
