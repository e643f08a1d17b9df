package clients

import "time"

// ClientType enumerates the kinds of clients.
type ClientType string

const (
	TypeIndividual ClientType = "individual"
	TypeCompany    ClientType = "company"
	TypeStartup    ClientType = "startup"
	TypeEnterprise ClientType = "enterprise"
)

// Status enumerates client relationship states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusProspect Status = "prospect"
	StatusFormer   Status = "former"
)

// Client model.
type Client struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CompanyName string     `json:"company_name,omitempty"`
	ClientType  ClientType `json:"client_type"`
	Status      Status     `json:"status"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	Country     string     `json:"country,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Website     string     `json:"website,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Source      string     `json:"source,omitempty"`
	AssignedTo  *int64     `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Contact is a named person reachable at a client.
type Contact struct {
	ID        int64  `json:"id"`
	ClientID  int64  `json:"client_id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	Notes     string `json:"notes,omitempty"`
}
