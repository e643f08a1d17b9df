package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

type memoryClientRepo struct {
	clients       map[int64]*Client
	contacts      map[int64][]Contact
	nextID        int64
	nextContactID int64
}

func newMemoryClientRepo() *memoryClientRepo {
	return &memoryClientRepo{
		clients:  make(map[int64]*Client),
		contacts: make(map[int64][]Contact),
	}
}

func (r *memoryClientRepo) Create(_ context.Context, c Client) (*Client, error) {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.clients[c.ID] = &c
	copied := c
	return &copied, nil
}

func (r *memoryClientRepo) Get(_ context.Context, id int64) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryClientRepo) Update(_ context.Context, c Client) error {
	if _, ok := r.clients[c.ID]; !ok {
		return ErrNotFound
	}
	r.clients[c.ID] = &c
	return nil
}

func (r *memoryClientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *memoryClientRepo) List(_ context.Context, req ListRequest) ([]Client, int, error) {
	var out []Client
	for _, c := range r.clients {
		if req.Status != "" && c.Status != req.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryClientRepo) CreateContact(_ context.Context, contact Contact) (*Contact, error) {
	r.nextContactID++
	contact.ID = r.nextContactID
	r.contacts[contact.ClientID] = append(r.contacts[contact.ClientID], contact)
	return &contact, nil
}

func (r *memoryClientRepo) ListContacts(_ context.Context, clientID int64) ([]Contact, error) {
	return r.contacts[clientID], nil
}

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newMemoryClientRepo())

	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, TypeIndividual, created.ClientType)
	require.Equal(t, StatusProspect, created.Status)

	_, err = svc.Create(context.Background(), CreateInput{})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdatePartial(t *testing.T) {
	svc := NewService(newMemoryClientRepo())

	created, err := svc.Create(context.Background(), CreateInput{
		Name: "Acme", Email: "hello@acme.test", City: "Milan",
	})
	require.NoError(t, err)

	active := StatusActive
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Status: &active})
	require.NoError(t, err)
	require.Equal(t, StatusActive, updated.Status)
	require.Equal(t, "hello@acme.test", updated.Email)
	require.Equal(t, "Milan", updated.City)

	empty := ""
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Name: &empty})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), 99, UpdateInput{Status: &active})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestContactsRequireExistingClient(t *testing.T) {
	svc := NewService(newMemoryClientRepo())

	created, err := svc.Create(context.Background(), CreateInput{Name: "Acme"})
	require.NoError(t, err)

	contact, err := svc.AddContact(context.Background(), created.ID, Contact{Name: "Ada", IsPrimary: true})
	require.NoError(t, err)
	require.Equal(t, created.ID, contact.ClientID)

	_, err = svc.AddContact(context.Background(), created.ID, Contact{})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.AddContact(context.Background(), 99, Contact{Name: "Ada"})
	require.ErrorIs(t, err, ErrNotFound)

	listed, err := svc.Contacts(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.Contacts(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}
