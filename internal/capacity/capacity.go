// Package capacity implements the group-activity variant of requests: instead
// of one volunteer matched through applications, a capacity request carries
// explicit volunteer and beneficiary caps and fills up through enrollments.
// It is deliberately kept apart from the single-volunteer flow; the two have
// different state rules and are stored separately.
package capacity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Edw01/Taller-integro/internal/authz"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

const minDescriptionLength = 20

// Service exposes capacity request operations.
type Service struct {
	db  *database.DB
	now func() time.Time
}

// New creates a capacity service.
func New(db *database.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// CreateInput carries the fields for a new capacity request.
type CreateInput struct {
	Title          string
	Description    string
	HelpType       string
	VolunteerCap   int
	BeneficiaryCap int
}

// Create validates and stores a new capacity request.
func (s *Service) Create(actor *models.User, in CreateInput) (*models.CapacityRequest, error) {
	if err := authz.CanCreateRequest(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, faults.Validation("title is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < minDescriptionLength {
		return nil, faults.Validation("description must be at least %d characters", minDescriptionLength)
	}
	if in.VolunteerCap < 1 || in.BeneficiaryCap < 1 {
		return nil, faults.Validation("volunteer and beneficiary caps must be at least 1")
	}

	now := s.now()
	c := &models.CapacityRequest{
		ID:             uuid.New().String(),
		CreatorID:      actor.ID,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		HelpType:       strings.TrimSpace(in.HelpType),
		VolunteerCap:   in.VolunteerCap,
		BeneficiaryCap: in.BeneficiaryCap,
		Status:         models.RequestPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.CreateCapacityRequest(c); err != nil {
		return nil, fmt.Errorf("create capacity request: %w", err)
	}
	return c, nil
}

// EnrollVolunteer signs the acting volunteer up. When both caps are met the
// request advances to assigned.
func (s *Service) EnrollVolunteer(actor *models.User, requestID string) (*models.CapacityRequest, error) {
	if !actor.IsVolunteer() {
		return nil, faults.Permission("only volunteers enroll themselves")
	}
	return s.enroll(requestID, models.EnrollVolunteer, actor.ID)
}

// EnrollBeneficiary signs a beneficiary up on their behalf. Requesters and
// admins run the roster, so they do the enrolling.
func (s *Service) EnrollBeneficiary(actor *models.User, requestID, beneficiaryID string) (*models.CapacityRequest, error) {
	if err := authz.CanManageBeneficiaries(actor); err != nil {
		return nil, err
	}

	b, err := s.db.GetBeneficiary(beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	if b == nil {
		return nil, faults.NotFound("beneficiary %s not found", beneficiaryID)
	}
	if !b.Active {
		return nil, faults.InvalidState("beneficiary %s is inactive", beneficiaryID)
	}
	return s.enroll(requestID, models.EnrollBeneficiary, beneficiaryID)
}

func (s *Service) enroll(requestID string, kind models.EnrollmentKind, subjectID string) (*models.CapacityRequest, error) {
	return s.db.Enroll(&models.Enrollment{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Kind:      kind,
		SubjectID: subjectID,
		CreatedAt: s.now(),
	}, s.now())
}

// Finalize closes an assigned capacity request.
func (s *Service) Finalize(actor *models.User, requestID string) (*models.CapacityRequest, error) {
	c, err := s.Get(requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && c.CreatorID != actor.ID {
		return nil, faults.Permission("only the creator or an admin finalizes a capacity request")
	}

	if err := s.db.FinalizeCapacityRequest(requestID, s.now()); err != nil {
		return nil, err
	}
	return s.db.GetCapacityRequest(requestID)
}

// Get returns a capacity request by ID.
func (s *Service) Get(id string) (*models.CapacityRequest, error) {
	c, err := s.db.GetCapacityRequest(id)
	if err != nil {
		return nil, fmt.Errorf("get capacity request: %w", err)
	}
	if c == nil {
		return nil, faults.NotFound("capacity request %s not found", id)
	}
	return c, nil
}

// List returns capacity requests, optionally filtered by status.
func (s *Service) List(status models.RequestStatus) ([]models.CapacityRequest, error) {
	return s.db.ListCapacityRequests(status)
}

// Roster returns the enrollments on a capacity request.
func (s *Service) Roster(requestID string) ([]models.Enrollment, error) {
	if _, err := s.Get(requestID); err != nil {
		return nil, err
	}
	return s.db.ListEnrollments(requestID)
}
