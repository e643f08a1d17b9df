package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/shared"
)

// ErrNotFound indicates the project does not exist.
var ErrNotFound = errors.New("project not found")

// ListRequest narrows and paginates project listings.
type ListRequest struct {
	Search   string
	Status   Status
	ClientID int64
	Page     int
	PerPage  int
}

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p Project) (*Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	Update(ctx context.Context, p Project) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req ListRequest) ([]Project, int, error)
	CreateRequirement(ctx context.Context, req Requirement) (*Requirement, error)
	ListRequirements(ctx context.Context, projectID int64) ([]Requirement, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, title, description, client_id, assigned_to, status, priority, start_date, due_date, budget, progress, requirements, notes, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.ClientID, &p.AssignedTo, &p.Status,
		&p.Priority, &p.StartDate, &p.DueDate, &p.Budget, &p.Progress,
		&p.Requirements, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, p Project) (*Project, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO projects (title, description, client_id, assigned_to, status, priority, start_date, due_date, budget, progress, requirements, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
RETURNING `+projectColumns,
		p.Title, p.Description, p.ClientID, p.AssignedTo, p.Status, p.Priority,
		p.StartDate, p.DueDate, p.Budget, p.Progress, p.Requirements, p.Notes)
	return scanProject(row)
}

// Get returns a project by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// Update overwrites the mutable fields of a project.
func (r *Repository) Update(ctx context.Context, p Project) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects
SET title = $1, description = $2, client_id = $3, assigned_to = $4, status = $5,
    priority = $6, start_date = $7, due_date = $8, budget = $9, progress = $10,
    requirements = $11, notes = $12, updated_at = NOW()
WHERE id = $13`,
		p.Title, p.Description, p.ClientID, p.AssignedTo, p.Status, p.Priority,
		p.StartDate, p.DueDate, p.Budget, p.Progress, p.Requirements, p.Notes, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project and, via foreign keys, its installments.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns projects matching the request plus the unpaginated total.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Project, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		conditions = append(conditions, fmt.Sprintf(`(p.title ILIKE $%d OR p.description ILIKE $%d OR c.name ILIKE $%d)`, argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.ClientID != 0 {
		conditions = append(conditions, fmt.Sprintf("p.client_id = $%d", argPos))
		args = append(args, req.ClientID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM projects p JOIN clients c ON c.id = p.client_id %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT p.id, p.title, p.description, p.client_id, p.assigned_to, p.status, p.priority,
       p.start_date, p.due_date, p.budget, p.progress, p.requirements, p.notes, p.created_at, p.updated_at
FROM projects p JOIN clients c ON c.id = p.client_id
%s
ORDER BY p.created_at DESC
LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.ClientID, &p.AssignedTo, &p.Status,
			&p.Priority, &p.StartDate, &p.DueDate, &p.Budget, &p.Progress,
			&p.Requirements, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// CreateRequirement inserts a requirement row for a project.
func (r *Repository) CreateRequirement(ctx context.Context, req Requirement) (*Requirement, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO project_requirements (project_id, title, description, is_completed, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, project_id, title, description, is_completed, created_at`,
		req.ProjectID, req.Title, req.Description, req.IsCompleted)
	var out Requirement
	if err := row.Scan(&out.ID, &out.ProjectID, &out.Title, &out.Description, &out.IsCompleted, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequirements returns all requirements for a project.
func (r *Repository) ListRequirements(ctx context.Context, projectID int64) ([]Requirement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, project_id, title, description, is_completed, created_at
FROM project_requirements WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Requirement
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.ID, &req.ProjectID, &req.Title, &req.Description, &req.IsCompleted, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
