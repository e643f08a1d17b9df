package installments

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/shared"
)

func TestCreateAttributesContextUser(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, fixedBudget{}, date(2024, 3, 15))
	handler := NewHandler(slog.Default(), svc)

	r := chi.NewRouter()
	handler.MountRoutes(r)

	// created_by in the body must be ignored; the authenticated user wins.
	body := `{"project_id": 1, "title": "Advance", "amount": 500, "due_date": "2024-04-01", "created_by": 999}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(shared.ContextWithUserID(req.Context(), 42))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var created Installment
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.Equal(t, int64(42), created.CreatedBy)
	require.Equal(t, int64(42), repo.items[created.ID].CreatedBy)
}
