package analytics

import "time"

// DashboardSummary is the snapshot of derived financial figures surfaced on
// the dashboard.
type DashboardSummary struct {
	TotalIncome       float64 `json:"total_income"`
	MonthlyIncome     float64 `json:"monthly_income"`
	PendingTotal      float64 `json:"pending_total"`
	OverdueTotal      float64 `json:"overdue_total"`
	OverdueCount      int     `json:"overdue_count"`
	TotalProjects     int     `json:"total_projects"`
	ActiveProjects    int     `json:"active_projects"`
	CompletedProjects int     `json:"completed_projects"`
	TotalClients      int     `json:"total_clients"`
	ActiveClients     int     `json:"active_clients"`
}

// MonthPoint is one entry of the monthly income series.
type MonthPoint struct {
	Label string  `json:"label"`
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// ProjectFinancials summarises a single project's budget position.
type ProjectFinancials struct {
	ProjectID       int64    `json:"project_id"`
	Budget          *float64 `json:"budget"`
	TotalPaid       float64  `json:"total_paid"`
	RemainingBudget *float64 `json:"remaining_budget"`
}

// ProjectCounts aggregates projects by status groups.
type ProjectCounts struct {
	Total     int
	Active    int
	Completed int
}

// ClientCounts aggregates clients; active means the client has at least one
// project currently in progress or on hold.
type ClientCounts struct {
	Total  int
	Active int
}

// monthStart returns the first day of t's calendar month in UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
