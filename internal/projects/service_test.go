package projects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

type memoryProjectRepo struct {
	projects     map[int64]*Project
	requirements map[int64][]Requirement
	nextID       int64
	nextReqID    int64
}

func newMemoryProjectRepo() *memoryProjectRepo {
	return &memoryProjectRepo{
		projects:     make(map[int64]*Project),
		requirements: make(map[int64][]Requirement),
	}
}

func (r *memoryProjectRepo) Create(_ context.Context, p Project) (*Project, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.projects[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memoryProjectRepo) Get(_ context.Context, id int64) (*Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryProjectRepo) Update(_ context.Context, p Project) error {
	if _, ok := r.projects[p.ID]; !ok {
		return ErrNotFound
	}
	r.projects[p.ID] = &p
	return nil
}

func (r *memoryProjectRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *memoryProjectRepo) List(_ context.Context, req ListRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range r.projects {
		if req.Status != "" && p.Status != req.Status {
			continue
		}
		if req.ClientID != 0 && p.ClientID != req.ClientID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryProjectRepo) CreateRequirement(_ context.Context, req Requirement) (*Requirement, error) {
	r.nextReqID++
	req.ID = r.nextReqID
	req.CreatedAt = time.Now()
	r.requirements[req.ProjectID] = append(r.requirements[req.ProjectID], req)
	copied := req
	return &copied, nil
}

func (r *memoryProjectRepo) ListRequirements(_ context.Context, projectID int64) ([]Requirement, error) {
	return r.requirements[projectID], nil
}

func fptr(f float64) *float64 { return &f }

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newMemoryProjectRepo())

	created, err := svc.Create(context.Background(), CreateInput{
		Title:    "Relaunch",
		ClientID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPlanning, created.Status)
	require.Equal(t, PriorityMedium, created.Priority)
	require.Nil(t, created.Budget)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryProjectRepo())

	_, err := svc.Create(context.Background(), CreateInput{Title: "No client"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{Title: "Bad budget", ClientID: 1, Budget: fptr(-1)})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateBudgetAndProgress(t *testing.T) {
	repo := newMemoryProjectRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Title: "P", ClientID: 1, Budget: fptr(5000)})
	require.NoError(t, err)

	progress := 55
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Progress: &progress})
	require.NoError(t, err)
	require.Equal(t, 55, updated.Progress)
	require.Equal(t, 5000.0, *updated.Budget)

	bad := 120
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Progress: &bad})
	require.ErrorIs(t, err, httpx.ErrValidation)

	// Clearing the budget is distinct from setting it to zero.
	updated, err = svc.Update(context.Background(), created.ID, UpdateInput{ClearBudget: true})
	require.NoError(t, err)
	require.Nil(t, updated.Budget)
}

func TestComplete(t *testing.T) {
	repo := newMemoryProjectRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Title: "P", ClientID: 1})
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, 100, done.Progress)
}

func TestRequirements(t *testing.T) {
	repo := newMemoryProjectRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Title: "P", ClientID: 1})
	require.NoError(t, err)

	_, err = svc.AddRequirement(context.Background(), created.ID, "Checkout flow", "", false)
	require.NoError(t, err)

	_, err = svc.AddRequirement(context.Background(), 99, "Ghost", "", false)
	require.ErrorIs(t, err, ErrNotFound)

	reqs, err := svc.Requirements(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.Equal(t, "Checkout flow", reqs[0].Title)
}
