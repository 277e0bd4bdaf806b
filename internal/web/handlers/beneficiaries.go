package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Edw01/Taller-integro/internal/registry"
)

type beneficiaryReq struct {
	RUT              string `json:"rut"`
	FirstNames       string `json:"first_names"`
	LastNames        string `json:"last_names"`
	BirthDate        string `json:"birth_date"` // "2006-01-02"
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalNotes     string `json:"medical_notes"`
}

// CreateBeneficiary registers a new beneficiary.
// POST /api/beneficiaries
func (h *Handler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req beneficiaryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		jsonError(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	b, err := h.registry.Register(actor, registry.RegisterInput{
		RUT:              req.RUT,
		FirstNames:       req.FirstNames,
		LastNames:        req.LastNames,
		BirthDate:        birthDate,
		Address:          req.Address,
		Phone:            req.Phone,
		EmergencyContact: req.EmergencyContact,
		MedicalNotes:     req.MedicalNotes,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, b)
}

// ListBeneficiaries returns the roster.
// GET /api/beneficiaries?include_inactive=1
func (h *Handler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") != ""
	list, err := h.registry.List(includeInactive)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, list)
}

// GetBeneficiary returns one beneficiary.
// GET /api/beneficiaries/{id}
func (h *Handler) GetBeneficiary(w http.ResponseWriter, r *http.Request) {
	b, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, b)
}

// UpdateBeneficiary edits a beneficiary's contact details and notes.
// PUT /api/beneficiaries/{id}
func (h *Handler) UpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req beneficiaryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.registry.Update(actor, chi.URLParam(r, "id"), registry.UpdateInput{
		Address:          req.Address,
		Phone:            req.Phone,
		EmergencyContact: req.EmergencyContact,
		MedicalNotes:     req.MedicalNotes,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, b)
}

// DeactivateBeneficiary retires a beneficiary from the active roster.
// DELETE /api/beneficiaries/{id}
func (h *Handler) DeactivateBeneficiary(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	if err := h.registry.Deactivate(actor, chi.URLParam(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
