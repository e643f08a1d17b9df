package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

// CreateInput carries fields for a new project.
type CreateInput struct {
	Title        string
	Description  string
	ClientID     int64
	AssignedTo   *int64
	Status       Status
	Priority     Priority
	StartDate    time.Time
	DueDate      time.Time
	Budget       *float64
	Requirements string
	Notes        string
}

// UpdateInput carries optional field mutations for a project.
type UpdateInput struct {
	Title        *string
	Description  *string
	ClientID     *int64
	AssignedTo   *int64
	Status       *Status
	Priority     *Priority
	StartDate    *time.Time
	DueDate      *time.Time
	Budget       *float64
	ClearBudget  bool
	Progress     *int
	Requirements *string
	Notes        *string
}

// Service handles project business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new project.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Project, error) {
	if input.ClientID == 0 {
		return nil, fmt.Errorf("%w: client is required", httpx.ErrValidation)
	}
	if input.Budget != nil && *input.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", httpx.ErrValidation)
	}

	status := input.Status
	if status == "" {
		status = StatusPlanning
	}
	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	project := Project{
		Title:        input.Title,
		Description:  input.Description,
		ClientID:     input.ClientID,
		AssignedTo:   input.AssignedTo,
		Status:       status,
		Priority:     priority,
		StartDate:    input.StartDate,
		DueDate:      input.DueDate,
		Budget:       input.Budget,
		Requirements: input.Requirements,
		Notes:        input.Notes,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// Get returns a single project.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns projects matching the request plus the unpaginated total.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Project, int, error) {
	return s.repo.List(ctx, req)
}

// Update applies field mutations to a project.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.ClientID != nil {
		project.ClientID = *input.ClientID
	}
	if input.AssignedTo != nil {
		project.AssignedTo = input.AssignedTo
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if input.DueDate != nil {
		project.DueDate = *input.DueDate
	}
	if input.ClearBudget {
		project.Budget = nil
	} else if input.Budget != nil {
		if *input.Budget < 0 {
			return nil, fmt.Errorf("%w: budget must not be negative", httpx.ErrValidation)
		}
		project.Budget = input.Budget
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return nil, fmt.Errorf("%w: progress must be between 0 and 100", httpx.ErrValidation)
		}
		project.Progress = *input.Progress
	}
	if input.Requirements != nil {
		project.Requirements = *input.Requirements
	}
	if input.Notes != nil {
		project.Notes = *input.Notes
	}

	if err := s.repo.Update(ctx, *project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Complete marks a project as completed with full progress.
func (s *Service) Complete(ctx context.Context, id int64) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Status = StatusCompleted
	project.Progress = 100
	if err := s.repo.Update(ctx, *project); err != nil {
		return nil, fmt.Errorf("complete project: %w", err)
	}
	return project, nil
}

// Delete removes a project permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AddRequirement attaches a requirement to the project.
func (s *Service) AddRequirement(ctx context.Context, projectID int64, title, description string, isCompleted bool) (*Requirement, error) {
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return nil, err
	}
	req := Requirement{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		IsCompleted: isCompleted,
	}
	created, err := s.repo.CreateRequirement(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("add requirement: %w", err)
	}
	return created, nil
}

// Requirements lists all requirements for a project.
func (s *Service) Requirements(ctx context.Context, projectID int64) ([]Requirement, error) {
	return s.repo.ListRequirements(ctx, projectID)
}
