package clients

import (
	"context"
	"fmt"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

// Service implements client management use cases.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the fields accepted on client creation.
type CreateInput struct {
	Name        string
	CompanyName string
	ClientType  ClientType
	Status      Status
	Email       string
	Phone       string
	Address     string
	City        string
	Country     string
	Industry    string
	Website     string
	Notes       string
	Source      string
	AssignedTo  *int64
}

// UpdateInput carries optional updates; nil fields are untouched.
type UpdateInput struct {
	Name        *string
	CompanyName *string
	ClientType  *ClientType
	Status      *Status
	Email       *string
	Phone       *string
	Address     *string
	City        *string
	Country     *string
	Industry    *string
	Website     *string
	Notes       *string
	Source      *string
	AssignedTo  *int64
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Client, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if in.ClientType == "" {
		in.ClientType = TypeIndividual
	}
	if in.Status == "" {
		in.Status = StatusProspect
	}
	return s.repo.Create(ctx, Client{
		Name:        in.Name,
		CompanyName: in.CompanyName,
		ClientType:  in.ClientType,
		Status:      in.Status,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		Country:     in.Country,
		Industry:    in.Industry,
		Website:     in.Website,
		Notes:       in.Notes,
		Source:      in.Source,
		AssignedTo:  in.AssignedTo,
	})
}

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// Update applies the provided changes to an existing client.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Client, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", httpx.ErrValidation)
		}
		current.Name = *in.Name
	}
	if in.CompanyName != nil {
		current.CompanyName = *in.CompanyName
	}
	if in.ClientType != nil {
		current.ClientType = *in.ClientType
	}
	if in.Status != nil {
		current.Status = *in.Status
	}
	if in.Email != nil {
		current.Email = *in.Email
	}
	if in.Phone != nil {
		current.Phone = *in.Phone
	}
	if in.Address != nil {
		current.Address = *in.Address
	}
	if in.City != nil {
		current.City = *in.City
	}
	if in.Country != nil {
		current.Country = *in.Country
	}
	if in.Industry != nil {
		current.Industry = *in.Industry
	}
	if in.Website != nil {
		current.Website = *in.Website
	}
	if in.Notes != nil {
		current.Notes = *in.Notes
	}
	if in.Source != nil {
		current.Source = *in.Source
	}
	if in.AssignedTo != nil {
		current.AssignedTo = in.AssignedTo
	}

	if err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns a filtered page of clients.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Client, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// AddContact attaches a contact to an existing client.
func (s *Service) AddContact(ctx context.Context, clientID int64, contact Contact) (*Contact, error) {
	if contact.Name == "" {
		return nil, fmt.Errorf("%w: contact name is required", httpx.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	contact.ClientID = clientID
	return s.repo.CreateContact(ctx, contact)
}

// Contacts lists a client's contacts.
func (s *Service) Contacts(ctx context.Context, clientID int64) ([]Contact, error) {
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListContacts(ctx, clientID)
}
