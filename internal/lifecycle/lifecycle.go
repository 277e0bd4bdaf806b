// Package lifecycle drives help requests through their states: pending at
// creation, assigned once a volunteer is matched, finalized when the work is
// done. Terminal is finalized; reset returns an assigned or finalized
// request to pending.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Edw01/Taller-integro/internal/authz"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/internal/notify"
	"github.com/Edw01/Taller-integro/pkg/models"
)

// minDescriptionLength keeps requests informative enough for volunteers to
// judge whether they can help.
const minDescriptionLength = 20

// Service exposes request lifecycle operations.
type Service struct {
	db        *database.DB
	publisher notify.Publisher
	now       func() time.Time
}

// New creates a lifecycle service.
func New(db *database.DB, publisher notify.Publisher) *Service {
	return &Service{db: db, publisher: publisher, now: time.Now}
}

// CreateInput carries the fields for a new help request.
type CreateInput struct {
	BeneficiaryID string
	Title         string
	Description   string
	HelpType      string
	Priority      models.Priority
	Deadline      *time.Time
}

// Create validates and stores a new pending request.
func (s *Service) Create(actor *models.User, in CreateInput) (*models.Request, error) {
	if err := authz.CanCreateRequest(actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, faults.Validation("title is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < minDescriptionLength {
		return nil, faults.Validation("description must be at least %d characters", minDescriptionLength)
	}
	if !models.ValidPriority(in.Priority) {
		return nil, faults.Validation("unknown priority %q", in.Priority)
	}

	now := s.now()
	if in.Deadline != nil && in.Deadline.Before(now) {
		return nil, faults.Validation("deadline cannot be in the past")
	}

	ben, err := s.db.GetBeneficiary(in.BeneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	if ben == nil {
		return nil, faults.NotFound("beneficiary %s not found", in.BeneficiaryID)
	}
	if !ben.Active {
		return nil, faults.InvalidState("beneficiary %s is inactive", in.BeneficiaryID)
	}

	r := &models.Request{
		ID:            uuid.New().String(),
		CreatorID:     actor.ID,
		BeneficiaryID: in.BeneficiaryID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		HelpType:      strings.TrimSpace(in.HelpType),
		Priority:      in.Priority,
		Status:        models.RequestPending,
		Deadline:      in.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.CreateRequest(r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

// UpdateInput carries the editable fields of a pending request.
type UpdateInput struct {
	Title       string
	Description string
	HelpType    string
	Priority    models.Priority
	Deadline    *time.Time
}

// Update edits a request while it is still pending.
func (s *Service) Update(actor *models.User, id string, in UpdateInput) (*models.Request, error) {
	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanEditRequest(actor, r); err != nil {
		return nil, err
	}
	if r.Status != models.RequestPending {
		return nil, faults.InvalidState("request %s is %s, only pending requests can be edited", id, r.Status)
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, faults.Validation("title is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < minDescriptionLength {
		return nil, faults.Validation("description must be at least %d characters", minDescriptionLength)
	}
	if !models.ValidPriority(in.Priority) {
		return nil, faults.Validation("unknown priority %q", in.Priority)
	}
	if in.Deadline != nil && in.Deadline.Before(s.now()) {
		return nil, faults.Validation("deadline cannot be in the past")
	}

	r.Title = strings.TrimSpace(in.Title)
	r.Description = strings.TrimSpace(in.Description)
	r.HelpType = strings.TrimSpace(in.HelpType)
	r.Priority = in.Priority
	r.Deadline = in.Deadline
	if err := s.db.UpdateRequestContent(r); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	return s.db.GetRequest(id)
}

// Assign puts a volunteer directly on a pending request, bypassing the
// application flow. The store-level guard keeps a concurrent assign from
// overwriting an existing one.
func (s *Service) Assign(ctx context.Context, actor *models.User, requestID, volunteerID string) (*models.Request, error) {
	r, err := s.get(requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanRespondToApplications(actor, r); err != nil {
		return nil, err
	}

	vol, err := s.db.GetUserByID(volunteerID)
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	if vol == nil {
		return nil, faults.NotFound("volunteer %s not found", volunteerID)
	}
	if !vol.IsVolunteer() {
		return nil, faults.Validation("user %s is not a volunteer", volunteerID)
	}

	if err := s.db.AssignRequest(requestID, volunteerID, s.now()); err != nil {
		return nil, err
	}

	assigned, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	s.notifyUser(ctx, vol, notify.KindRequestAssigned, requestID,
		fmt.Sprintf("You were assigned to %q.", assigned.Title))
	return assigned, nil
}

// Finalize closes an assigned request with optional closing comments.
func (s *Service) Finalize(ctx context.Context, actor *models.User, requestID, comments string) (*models.Request, error) {
	r, err := s.get(requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanFinalize(actor, r); err != nil {
		return nil, err
	}

	if err := s.db.FinalizeRequest(requestID, strings.TrimSpace(comments), s.now()); err != nil {
		return nil, err
	}

	finalized, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	// Tell the other participant.
	if actor.ID != finalized.CreatorID {
		s.notifyByID(ctx, finalized.CreatorID, notify.KindRequestFinalized, requestID,
			fmt.Sprintf("%q was marked as completed.", finalized.Title))
	} else if finalized.VolunteerID != "" && finalized.VolunteerID != actor.ID {
		s.notifyByID(ctx, finalized.VolunteerID, notify.KindRequestFinalized, requestID,
			fmt.Sprintf("%q was marked as completed.", finalized.Title))
	}
	return finalized, nil
}

// Reset returns a request to pending, dropping the assignment. Pending
// applications stay as they are; already-rejected ones are not revived.
func (s *Service) Reset(actor *models.User, requestID string) (*models.Request, error) {
	r, err := s.get(requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanReset(actor, r); err != nil {
		return nil, err
	}
	if r.Status == models.RequestPending {
		return nil, faults.InvalidState("request %s is already pending", requestID)
	}

	if err := s.db.ResetRequest(requestID, s.now()); err != nil {
		return nil, fmt.Errorf("reset request: %w", err)
	}
	return s.db.GetRequest(requestID)
}

// Delete removes a request while it is still pending. Applications and
// messages go with it.
func (s *Service) Delete(actor *models.User, requestID string) error {
	r, err := s.get(requestID)
	if err != nil {
		return err
	}
	if err := authz.CanEditRequest(actor, r); err != nil {
		return err
	}
	if r.Status != models.RequestPending {
		return faults.InvalidState("request %s is %s, only pending requests can be deleted", requestID, r.Status)
	}
	return s.db.DeleteRequest(requestID)
}

// Get returns a request by ID.
func (s *Service) Get(id string) (*models.Request, error) {
	return s.get(id)
}

// List returns requests matching the filter.
func (s *Service) List(f database.RequestFilter) ([]models.Request, error) {
	return s.db.ListRequests(f)
}

func (s *Service) get(id string) (*models.Request, error) {
	r, err := s.db.GetRequest(id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, faults.NotFound("request %s not found", id)
	}
	return r, nil
}

func (s *Service) notifyByID(ctx context.Context, userID, kind, requestID, body string) {
	u, err := s.db.GetUserByID(userID)
	if err != nil || u == nil {
		return
	}
	s.notifyUser(ctx, u, kind, requestID, body)
}

func (s *Service) notifyUser(ctx context.Context, u *models.User, kind, requestID, body string) {
	if u.PhoneNumber == "" {
		return
	}
	s.publisher.Publish(ctx, notify.Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		To:        u.PhoneNumber,
		Body:      body,
		RequestID: requestID,
	})
}
