package mailer

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
	"github.com/atrium-crm/atrium/internal/shared"
)

// Handler wires HTTP endpoints for SMTP configs and email logs.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers mail routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/configs", h.listConfigs)
	r.Post("/configs", h.createConfig)
	r.Put("/configs/{id}", h.updateConfig)
	r.Delete("/configs/{id}", h.removeConfig)
	r.Get("/logs", h.listLogs)
	r.Post("/test", h.sendTest)
}

type configRequest struct {
	Name      string `json:"name" validate:"max=100"`
	Host      string `json:"host" validate:"required,max=200"`
	Port      int    `json:"port" validate:"omitempty,gte=1,lte=65535"`
	Username  string `json:"username" validate:"max=200"`
	Password  string `json:"password" validate:"max=200"`
	UseTLS    bool   `json:"use_tls"`
	UseSSL    bool   `json:"use_ssl"`
	FromEmail string `json:"from_email" validate:"required,email"`
	IsActive  bool   `json:"is_active"`
}

type testSendRequest struct {
	To string `json:"to" validate:"required,email"`
}

func (h *Handler) listConfigs(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserIDFromContext(r.Context())
	configs, err := h.service.Configs(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("list smtp configs failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"configs": configs})
}

func (h *Handler) createConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ownerID := shared.UserIDFromContext(r.Context())
	cfg, err := h.service.CreateConfig(r.Context(), ownerID, ConfigInput{
		Name:      req.Name,
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Password:  req.Password,
		UseTLS:    req.UseTLS,
		UseSSL:    req.UseSSL,
		FromEmail: req.FromEmail,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cfg)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req configRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ownerID := shared.UserIDFromContext(r.Context())
	cfg, err := h.service.UpdateConfig(r.Context(), ownerID, id, ConfigInput{
		Name:      req.Name,
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Password:  req.Password,
		UseTLS:    req.UseTLS,
		UseSSL:    req.UseSSL,
		FromEmail: req.FromEmail,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) removeConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	ownerID := shared.UserIDFromContext(r.Context())
	if err := h.service.DeleteConfig(r.Context(), ownerID, id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	logs, total, err := h.service.Logs(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list email logs failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"logs":       logs,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) sendTest(w http.ResponseWriter, r *http.Request) {
	var req testSendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	senderID := shared.UserIDFromContext(r.Context())
	entry, err := h.service.Send(r.Context(), senderID, Message{
		To:      req.To,
		Subject: "Atrium test email",
		Body:    "Your SMTP configuration works.",
	})
	if err != nil {
		// The attempt is logged either way; surface the failure detail.
		if entry != nil {
			httpx.JSON(w, http.StatusBadGateway, entry)
			return
		}
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid config id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrConfigNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("mail request failed", "error", err)
	httpx.RespondError(w, err)
}
