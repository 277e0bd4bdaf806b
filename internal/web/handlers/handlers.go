// Package handlers exposes the coordination services over a JSON API.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Edw01/Taller-integro/config"
	"github.com/Edw01/Taller-integro/internal/actions"
	"github.com/Edw01/Taller-integro/internal/auth"
	"github.com/Edw01/Taller-integro/internal/capacity"
	"github.com/Edw01/Taller-integro/internal/chat"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/lifecycle"
	"github.com/Edw01/Taller-integro/internal/matching"
	"github.com/Edw01/Taller-integro/internal/registry"
	"github.com/Edw01/Taller-integro/internal/token"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	cfg       *config.Config
	db        *database.DB
	auth      *auth.Service
	tokens    *token.Service
	registry  *registry.Service
	lifecycle *lifecycle.Service
	matching  *matching.Service
	chat      *chat.Service
	capacity  *capacity.Service
	actions   *actions.Registry
}

// Deps bundles everything a Handler needs.
type Deps struct {
	Cfg       *config.Config
	DB        *database.DB
	Auth      *auth.Service
	Tokens    *token.Service
	Registry  *registry.Service
	Lifecycle *lifecycle.Service
	Matching  *matching.Service
	Chat      *chat.Service
	Capacity  *capacity.Service
	Actions   *actions.Registry
}

// New creates a new Handler.
func New(d Deps) *Handler {
	return &Handler{
		cfg:       d.Cfg,
		db:        d.DB,
		auth:      d.Auth,
		tokens:    d.Tokens,
		registry:  d.Registry,
		lifecycle: d.Lifecycle,
		matching:  d.Matching,
		chat:      d.Chat,
		capacity:  d.Capacity,
		actions:   d.Actions,
	}
}

// Routes wires the full API surface onto a chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public.
	r.Post("/api/signup", h.Signup)
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/actions", h.SearchActions)

	// Authenticated.
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/api/me", h.Me)
		r.Post("/api/token", h.IssueToken)

		r.Route("/api/beneficiaries", func(r chi.Router) {
			r.Post("/", h.CreateBeneficiary)
			r.Get("/", h.ListBeneficiaries)
			r.Get("/{id}", h.GetBeneficiary)
			r.Put("/{id}", h.UpdateBeneficiary)
			r.Delete("/{id}", h.DeactivateBeneficiary)
		})

		r.Route("/api/requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/", h.ListRequests)
			r.Get("/{id}", h.GetRequest)
			r.Put("/{id}", h.UpdateRequest)
			r.Delete("/{id}", h.DeleteRequest)
			r.Post("/{id}/assign", h.AssignRequest)
			r.Post("/{id}/finalize", h.FinalizeRequest)
			r.Post("/{id}/reset", h.ResetRequest)

			r.Post("/{id}/applications", h.Apply)
			r.Get("/{id}/applications", h.ListApplications)

			r.Post("/{id}/messages", h.SendMessage)
			r.Get("/{id}/messages", h.MessageHistory)
			r.Get("/{id}/messages/unread", h.UnreadCount)
		})

		r.Route("/api/applications", func(r chi.Router) {
			r.Get("/mine", h.MyApplications)
			r.Post("/{id}/accept", h.AcceptApplication)
			r.Post("/{id}/reject", h.RejectApplication)
		})

		r.Post("/api/messages/{id}/read", h.MarkMessageRead)

		r.Route("/api/capacity-requests", func(r chi.Router) {
			r.Post("/", h.CreateCapacityRequest)
			r.Get("/", h.ListCapacityRequests)
			r.Get("/{id}", h.GetCapacityRequest)
			r.Get("/{id}/roster", h.CapacityRoster)
			r.Post("/{id}/volunteers", h.EnrollVolunteer)
			r.Post("/{id}/beneficiaries", h.EnrollBeneficiary)
			r.Post("/{id}/finalize", h.FinalizeCapacityRequest)
		})

		// Admin only.
		r.Group(func(r chi.Router) {
			r.Use(AdminMiddleware)
			r.Get("/api/reports/assigned", h.AssignedReport)
			r.Get("/api/reports/demand", h.DemandReport)
			r.Get("/api/reports/volunteers", h.TopVolunteersReport)
			r.Get("/api/reports/dashboard", h.DashboardReport)
		})
	})

	return r
}
