package installments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

// Handler wires HTTP endpoints for payment installments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers installment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/mark-paid", h.markPaid)
	r.Post("/sweep-overdue", h.sweep)
}

type createRequest struct {
	ProjectID   int64   `json:"project_id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=200"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PaymentType string  `json:"payment_type" validate:"omitempty,oneof=advance milestone final installment"`
	DueDate     string  `json:"due_date" validate:"required"`
	Notes       string  `json:"notes"`
}

type updateRequest struct {
	ProjectID   *int64   `json:"project_id"`
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Amount      *float64 `json:"amount" validate:"omitempty,gt=0"`
	PaymentType *string  `json:"payment_type" validate:"omitempty,oneof=advance milestone final installment"`
	DueDate     *string  `json:"due_date"`
	Status      *string  `json:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	Notes       *string  `json:"notes"`
}

type markPaidRequest struct {
	PaidDate *string `json:"paid_date"`
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if p := r.URL.Query().Get("project"); p != "" {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			filter.ProjectID = id
		}
	}

	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list installments failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": items})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	inst, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
		return
	}

	inst, err := h.service.Create(r.Context(), CreateInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Amount:      req.Amount,
		PaymentType: PaymentType(req.PaymentType),
		DueDate:     dueDate,
		Notes:       req.Notes,
		CreatedBy:   shared.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inst)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := UpdateInput{
		ProjectID: req.ProjectID,
		Title:     req.Title,
		Amount:    req.Amount,
		Notes:     req.Notes,
	}
	if req.PaymentType != nil {
		pt := PaymentType(*req.PaymentType)
		input.PaymentType = &pt
	}
	if req.Status != nil {
		st := Status(*req.Status)
		input.Status = &st
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
			return
		}
		input.DueDate = &due
	}

	inst, err := h.service.Edit(r.Context(), id, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	var req markPaidRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}

	var paidDate *time.Time
	if req.PaidDate != nil {
		d, err := parseDate(*req.PaidDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paid_date must be YYYY-MM-DD")
			return
		}
		paidDate = &d
	}

	inst, err := h.service.MarkPaid(r.Context(), id, paidDate)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.SweepOverdue(r.Context())
	if err != nil {
		h.logger.Error("sweep overdue failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"updated": count})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var budgetErr *BudgetExceededError
	switch {
	case errors.As(err, &budgetErr):
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"title":     "Validation Failed",
			"status":    http.StatusBadRequest,
			"detail":    budgetErr.Error(),
			"attempted": budgetErr.Attempted,
			"remaining": budgetErr.Remaining,
		})
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("installment request failed", "error", err)
		httpx.RespondError(w, err)
	}
}
