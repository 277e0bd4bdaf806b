package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Edw01/Taller-integro/internal/capacity"
	"github.com/Edw01/Taller-integro/pkg/models"
)

type capacityReq struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	HelpType       string `json:"help_type"`
	VolunteerCap   int    `json:"volunteer_cap"`
	BeneficiaryCap int    `json:"beneficiary_cap"`
}

// CreateCapacityRequest opens a new capacity-counted request.
// POST /api/capacity-requests
func (h *Handler) CreateCapacityRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req capacityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.capacity.Create(actor, capacity.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		HelpType:       req.HelpType,
		VolunteerCap:   req.VolunteerCap,
		BeneficiaryCap: req.BeneficiaryCap,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, c)
}

// ListCapacityRequests returns capacity requests, optionally by status.
// GET /api/capacity-requests?status=
func (h *Handler) ListCapacityRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.capacity.List(models.RequestStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeFault(w, err)
		return
	}
	if list == nil {
		list = []models.CapacityRequest{}
	}
	jsonOK(w, http.StatusOK, list)
}

// GetCapacityRequest returns one capacity request.
// GET /api/capacity-requests/{id}
func (h *Handler) GetCapacityRequest(w http.ResponseWriter, r *http.Request) {
	c, err := h.capacity.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// CapacityRoster returns the enrollments on a capacity request.
// GET /api/capacity-requests/{id}/roster
func (h *Handler) CapacityRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.capacity.Roster(chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if roster == nil {
		roster = []models.Enrollment{}
	}
	jsonOK(w, http.StatusOK, roster)
}

// EnrollVolunteer signs the acting volunteer up.
// POST /api/capacity-requests/{id}/volunteers
func (h *Handler) EnrollVolunteer(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	c, err := h.capacity.EnrollVolunteer(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

type enrollBeneficiaryReq struct {
	BeneficiaryID string `json:"beneficiary_id"`
}

// EnrollBeneficiary signs a beneficiary up on their behalf.
// POST /api/capacity-requests/{id}/beneficiaries
func (h *Handler) EnrollBeneficiary(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req enrollBeneficiaryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.capacity.EnrollBeneficiary(actor, chi.URLParam(r, "id"), req.BeneficiaryID)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, c)
}

// FinalizeCapacityRequest closes an assigned capacity request.
// POST /api/capacity-requests/{id}/finalize
func (h *Handler) FinalizeCapacityRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	c, err := h.capacity.Finalize(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, c)
}
