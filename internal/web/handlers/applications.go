package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Edw01/Taller-integro/pkg/models"
)

type applyReq struct {
	Message string `json:"message"`
}

// Apply submits a volunteer's application to a request.
// POST /api/requests/{id}/applications
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req applyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.matching.Apply(actor, chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, a)
}

// ListApplications returns a request's applications to its creator.
// GET /api/requests/{id}/applications
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	apps, err := h.matching.ListByRequest(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	jsonOK(w, http.StatusOK, apps)
}

// MyApplications returns the actor's own applications.
// GET /api/applications/mine
func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	apps, err := h.matching.ListMine(actor)
	if err != nil {
		writeFault(w, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	jsonOK(w, http.StatusOK, apps)
}

type respondReq struct {
	Comment string `json:"comment"`
}

type acceptResp struct {
	Application *models.Application `json:"application"`
	Request     *models.Request     `json:"request"`
}

// AcceptApplication selects an application, assigning the request and
// rejecting every competitor.
// POST /api/applications/{id}/accept
func (h *Handler) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req respondReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	app, request, err := h.matching.Accept(r.Context(), actor, chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, acceptResp{Application: app, Request: request})
}

// RejectApplication declines a single application.
// POST /api/applications/{id}/reject
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req respondReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	app, err := h.matching.Reject(r.Context(), actor, chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, app)
}
