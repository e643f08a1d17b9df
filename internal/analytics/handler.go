package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

// Handler wires HTTP endpoints for dashboard figures.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/monthly-income", h.monthlyIncome)
}

// MountProjectRoutes registers the per-project financials endpoint.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Get("/{id}/financials", h.projectFinancials)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	asOf := parseAsOf(r.URL.Query().Get("as_of"))
	summary, err := h.service.DashboardSummary(r.Context(), asOf)
	if err != nil {
		h.logger.Error("dashboard summary failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) monthlyIncome(w http.ResponseWriter, r *http.Request) {
	months := 6
	if m := r.URL.Query().Get("months"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil && parsed > 0 && parsed <= 36 {
			months = parsed
		}
	}
	asOf := parseAsOf(r.URL.Query().Get("as_of"))

	points, err := h.service.MonthlyIncomeSeries(r.Context(), months, asOf)
	if err != nil {
		h.logger.Error("monthly income series failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"months": points})
}

func (h *Handler) projectFinancials(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid project id")
		return
	}
	fin, err := h.service.ProjectFinancials(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("project financials failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fin)
}

func parseAsOf(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return t
}
