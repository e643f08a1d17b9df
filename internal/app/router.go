package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atrium-crm/atrium/internal/analytics"
	"github.com/atrium-crm/atrium/internal/auth"
	"github.com/atrium-crm/atrium/internal/clients"
	"github.com/atrium-crm/atrium/internal/installments"
	"github.com/atrium-crm/atrium/internal/mailer"
	"github.com/atrium-crm/atrium/internal/payments"
	"github.com/atrium-crm/atrium/internal/projects"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthService         *auth.Service
	AuthHandler         *auth.Handler
	ClientsHandler      *clients.Handler
	ProjectsHandler     *projects.Handler
	InstallmentsHandler *installments.Handler
	PaymentsHandler     *payments.Handler
	AnalyticsHandler    *analytics.Handler
	MailHandler         *mailer.Handler
}

// NewRouter constructs the chi.Router with default middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken(params.AuthService))
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(params.AuthService))

		r.Route("/clients", params.ClientsHandler.MountRoutes)
		r.Route("/projects", func(r chi.Router) {
			params.ProjectsHandler.MountRoutes(r)
			params.AnalyticsHandler.MountProjectRoutes(r)
		})
		r.Route("/installments", params.InstallmentsHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
		r.Route("/invoices", params.PaymentsHandler.MountInvoiceRoutes)
		r.Route("/dashboard", params.AnalyticsHandler.MountRoutes)
		r.Route("/mail", params.MailHandler.MountRoutes)
	})

	return r
}
