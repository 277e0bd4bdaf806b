// Package registry manages the roster of elderly beneficiaries that help
// requests are opened for.
package registry

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Edw01/Taller-integro/internal/authz"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
	"github.com/Edw01/Taller-integro/pkg/rut"
)

// The program serves adults aged 60 and over; an upper bound catches
// mistyped birth dates.
const (
	minAge = 60
	maxAge = 120
)

// Service exposes beneficiary registry operations.
type Service struct {
	db  *database.DB
	now func() time.Time
}

// New creates a registry service.
func New(db *database.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// RegisterInput carries the fields for a new beneficiary.
type RegisterInput struct {
	RUT              string
	FirstNames       string
	LastNames        string
	BirthDate        time.Time
	Address          string
	Phone            string
	EmergencyContact string
	MedicalNotes     string
}

// Register validates and stores a new beneficiary.
func (s *Service) Register(actor *models.User, in RegisterInput) (*models.Beneficiary, error) {
	if err := authz.CanManageBeneficiaries(actor); err != nil {
		return nil, err
	}

	normalized := rut.Normalize(in.RUT)
	if !rut.Valid(normalized) {
		return nil, faults.Validation("invalid RUT %q", in.RUT)
	}
	if strings.TrimSpace(in.FirstNames) == "" || strings.TrimSpace(in.LastNames) == "" {
		return nil, faults.Validation("first and last names are required")
	}

	now := s.now()
	age := (&models.Beneficiary{BirthDate: in.BirthDate}).AgeAt(now)
	if age < minAge || age > maxAge {
		return nil, faults.Validation("beneficiary must be between %d and %d years old, got %d", minAge, maxAge, age)
	}

	if existing, err := s.db.GetBeneficiaryByRUT(normalized); err != nil {
		return nil, fmt.Errorf("lookup rut: %w", err)
	} else if existing != nil {
		return nil, faults.Duplicate("a beneficiary with RUT %s already exists", normalized)
	}

	b := &models.Beneficiary{
		ID:               uuid.New().String(),
		RUT:              normalized,
		FirstNames:       strings.TrimSpace(in.FirstNames),
		LastNames:        strings.TrimSpace(in.LastNames),
		BirthDate:        in.BirthDate,
		Address:          strings.TrimSpace(in.Address),
		Phone:            strings.TrimSpace(in.Phone),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		MedicalNotes:     strings.TrimSpace(in.MedicalNotes),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.CreateBeneficiary(b); err != nil {
		return nil, fmt.Errorf("create beneficiary: %w", err)
	}
	// RUTs are confidential; logs carry the hash.
	log.Printf("registry: beneficiary %s registered (rut=%s)", b.ID, rut.Hash(normalized))
	return b, nil
}

// UpdateInput carries the mutable beneficiary fields. RUT, names and birth
// date are fixed at registration.
type UpdateInput struct {
	Address          string
	Phone            string
	EmergencyContact string
	MedicalNotes     string
}

// Update changes a beneficiary's contact details and notes.
func (s *Service) Update(actor *models.User, id string, in UpdateInput) (*models.Beneficiary, error) {
	if err := authz.CanManageBeneficiaries(actor); err != nil {
		return nil, err
	}

	b, err := s.db.GetBeneficiary(id)
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	if b == nil {
		return nil, faults.NotFound("beneficiary %s not found", id)
	}

	b.Address = strings.TrimSpace(in.Address)
	b.Phone = strings.TrimSpace(in.Phone)
	b.EmergencyContact = strings.TrimSpace(in.EmergencyContact)
	b.MedicalNotes = strings.TrimSpace(in.MedicalNotes)
	if err := s.db.UpdateBeneficiary(b); err != nil {
		return nil, fmt.Errorf("update beneficiary: %w", err)
	}
	return s.db.GetBeneficiary(id)
}

// Deactivate retires a beneficiary from the active roster. Their history
// stays intact.
func (s *Service) Deactivate(actor *models.User, id string) error {
	if err := authz.CanManageBeneficiaries(actor); err != nil {
		return err
	}

	b, err := s.db.GetBeneficiary(id)
	if err != nil {
		return fmt.Errorf("get beneficiary: %w", err)
	}
	if b == nil {
		return faults.NotFound("beneficiary %s not found", id)
	}
	if !b.Active {
		return faults.InvalidState("beneficiary %s is already inactive", id)
	}

	b.Active = false
	if err := s.db.UpdateBeneficiary(b); err != nil {
		return fmt.Errorf("deactivate beneficiary: %w", err)
	}
	log.Printf("registry: beneficiary %s deactivated (rut=%s)", b.ID, rut.Hash(b.RUT))
	return nil
}

// Get returns a beneficiary by ID.
func (s *Service) Get(id string) (*models.Beneficiary, error) {
	b, err := s.db.GetBeneficiary(id)
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	if b == nil {
		return nil, faults.NotFound("beneficiary %s not found", id)
	}
	return b, nil
}

// List returns beneficiaries, active-only unless includeInactive is set.
func (s *Service) List(includeInactive bool) ([]models.Beneficiary, error) {
	return s.db.ListBeneficiaries(!includeInactive)
}
