package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*User)}
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepo) FindByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) Create(_ context.Context, u User) (*User, error) {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = &u
	copied := u
	return &copied, nil
}

func newTestAuth(t *testing.T) (*Service, *memoryUserRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryUserRepo()
	return NewService(repo, NewTokenStore(client, time.Hour)), repo
}

func TestLoginAndResolve(t *testing.T) {
	svc, _ := newTestAuth(t)

	user, err := svc.Register(context.Background(), "ada@atrium.test", "Ada", "supersecret")
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.NotEqual(t, "supersecret", user.PasswordHash)

	token, logged, err := svc.Login(context.Background(), "ada@atrium.test", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, user.ID, logged.ID)

	userID, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestLoginFailures(t *testing.T) {
	svc, repo := newTestAuth(t)

	user, err := svc.Register(context.Background(), "ada@atrium.test", "Ada", "supersecret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ada@atrium.test", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@atrium.test", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users[user.ID].IsActive = false
	_, _, err = svc.Login(context.Background(), "ada@atrium.test", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestAuth(t)

	_, err := svc.Register(context.Background(), "ada@atrium.test", "Ada", "supersecret")
	require.NoError(t, err)

	token, _, err := svc.Login(context.Background(), "ada@atrium.test", "supersecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.ResolveToken(context.Background(), token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
