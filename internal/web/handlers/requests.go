package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/lifecycle"
	"github.com/Edw01/Taller-integro/pkg/models"
)

type requestReq struct {
	BeneficiaryID string  `json:"beneficiary_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	HelpType      string  `json:"help_type"`
	Priority      string  `json:"priority"`
	Deadline      *string `json:"deadline"` // RFC 3339, optional
}

func parseDeadline(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// CreateRequest opens a new help request.
// POST /api/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req requestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	deadline, ok := parseDeadline(req.Deadline)
	if !ok {
		jsonError(w, "deadline must be RFC 3339 format", http.StatusBadRequest)
		return
	}
	priority := models.Priority(req.Priority)
	if req.Priority == "" {
		priority = models.PriorityMedium
	}

	created, err := h.lifecycle.Create(actor, lifecycle.CreateInput{
		BeneficiaryID: req.BeneficiaryID,
		Title:         req.Title,
		Description:   req.Description,
		HelpType:      req.HelpType,
		Priority:      priority,
		Deadline:      deadline,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, created)
}

// ListRequests returns requests matching the query filters.
// GET /api/requests?status=&priority=&creator=&volunteer=&q=
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.lifecycle.List(database.RequestFilter{
		Status:      models.RequestStatus(q.Get("status")),
		Priority:    models.Priority(q.Get("priority")),
		CreatorID:   q.Get("creator"),
		VolunteerID: q.Get("volunteer"),
		Search:      q.Get("q"),
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	if list == nil {
		list = []models.Request{}
	}
	jsonOK(w, http.StatusOK, list)
}

// GetRequest returns one request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.lifecycle.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, req)
}

// UpdateRequest edits a pending request.
// PUT /api/requests/{id}
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req requestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	deadline, ok := parseDeadline(req.Deadline)
	if !ok {
		jsonError(w, "deadline must be RFC 3339 format", http.StatusBadRequest)
		return
	}

	updated, err := h.lifecycle.Update(actor, chi.URLParam(r, "id"), lifecycle.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		HelpType:    req.HelpType,
		Priority:    models.Priority(req.Priority),
		Deadline:    deadline,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, updated)
}

// DeleteRequest removes a pending request.
// DELETE /api/requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	if err := h.lifecycle.Delete(actor, chi.URLParam(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignReq struct {
	VolunteerID string `json:"volunteer_id"`
}

// AssignRequest puts a volunteer directly on a pending request.
// POST /api/requests/{id}/assign
func (h *Handler) AssignRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	assigned, err := h.lifecycle.Assign(r.Context(), actor, chi.URLParam(r, "id"), req.VolunteerID)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, assigned)
}

type finalizeReq struct {
	Comments string `json:"comments"`
}

// FinalizeRequest closes an assigned request.
// POST /api/requests/{id}/finalize
func (h *Handler) FinalizeRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req finalizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	finalized, err := h.lifecycle.Finalize(r.Context(), actor, chi.URLParam(r, "id"), req.Comments)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, finalized)
}

// ResetRequest returns a request to pending.
// POST /api/requests/{id}/reset
func (h *Handler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	reset, err := h.lifecycle.Reset(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, reset)
}
