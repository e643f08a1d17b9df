package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/shared"
)

func TestRequireToken(t *testing.T) {
	svc, _ := newTestAuth(t)

	user, err := svc.Register(context.Background(), "ada@atrium.test", "Ada", "supersecret")
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "ada@atrium.test", "supersecret")
	require.NoError(t, err)

	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	protected := RequireToken(svc)(next)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, user.ID, seen)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
