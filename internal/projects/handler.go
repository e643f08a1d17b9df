package projects

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

// Handler wires HTTP endpoints for projects.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers project routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/complete", h.complete)
	r.Get("/{id}/requirements", h.listRequirements)
	r.Post("/{id}/requirements", h.addRequirement)
}

type createRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description"`
	ClientID     int64    `json:"client_id" validate:"required"`
	AssignedTo   *int64   `json:"assigned_to"`
	Status       string   `json:"status" validate:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Priority     string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	StartDate    string   `json:"start_date" validate:"required"`
	DueDate      string   `json:"due_date" validate:"required"`
	Budget       *float64 `json:"budget" validate:"omitempty,gte=0"`
	Requirements string   `json:"requirements"`
	Notes        string   `json:"notes"`
}

type updateRequest struct {
	Title        *string   `json:"title" validate:"omitempty,max=200"`
	Description  *string   `json:"description"`
	ClientID     *int64    `json:"client_id"`
	AssignedTo   *int64    `json:"assigned_to"`
	Status       *string   `json:"status" validate:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Priority     *string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	StartDate    *string   `json:"start_date"`
	DueDate      *string   `json:"due_date"`
	Budget       *float64  `json:"budget" validate:"omitempty,gte=0"`
	ClearBudget  bool      `json:"clear_budget"`
	Progress     *int      `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Requirements *string   `json:"requirements"`
	Notes        *string   `json:"notes"`
}

type requirementRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{
		Search: r.URL.Query().Get("search"),
		Status: Status(r.URL.Query().Get("status")),
	}
	if c := r.URL.Query().Get("client"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			req.ClientID = id
		}
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list projects failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"projects":   items,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
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
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
		return
	}

	project, err := h.service.Create(r.Context(), CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		ClientID:     req.ClientID,
		AssignedTo:   req.AssignedTo,
		Status:       Status(req.Status),
		Priority:     Priority(req.Priority),
		StartDate:    startDate,
		DueDate:      dueDate,
		Budget:       req.Budget,
		Requirements: req.Requirements,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
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
		Title:        req.Title,
		Description:  req.Description,
		ClientID:     req.ClientID,
		AssignedTo:   req.AssignedTo,
		Budget:       req.Budget,
		ClearBudget:  req.ClearBudget,
		Progress:     req.Progress,
		Requirements: req.Requirements,
		Notes:        req.Notes,
	}
	if req.Status != nil {
		st := Status(*req.Status)
		input.Status = &st
	}
	if req.Priority != nil {
		pr := Priority(*req.Priority)
		input.Priority = &pr
	}
	if req.StartDate != nil {
		start, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
			return
		}
		input.StartDate = &start
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
			return
		}
		input.DueDate = &due
	}

	project, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	project, err := h.service.Complete(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRequirements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	reqs, err := h.service.Requirements(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requirements": reqs})
}

func (h *Handler) addRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req requirementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.AddRequirement(r.Context(), id, req.Title, req.Description, req.IsCompleted)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid project id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("project request failed", "error", err)
	httpx.RespondError(w, err)
}
