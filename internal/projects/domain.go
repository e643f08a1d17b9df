package projects

import "time"

// Status enumerates project states.
type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Priority enumerates project priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Project model.
type Project struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ClientID     int64     `json:"client_id"`
	AssignedTo   *int64    `json:"assigned_to,omitempty"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	StartDate    time.Time `json:"start_date"`
	DueDate      time.Time `json:"due_date"`
	Budget       *float64  `json:"budget,omitempty"`
	Progress     int       `json:"progress"`
	Requirements string    `json:"requirements,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Requirement is a single deliverable item tracked against a project.
type Requirement struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
