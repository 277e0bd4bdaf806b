// Package matching connects volunteers to pending help requests through
// applications. Accepting one application assigns the request and rejects
// every competing application in the same store transaction.
package matching

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

// minMessageLength forces applicants to say something substantive about why
// they can take the request.
const minMessageLength = 30

// Service exposes application operations.
type Service struct {
	db        *database.DB
	publisher notify.Publisher
	now       func() time.Time
}

// New creates a matching service.
func New(db *database.DB, publisher notify.Publisher) *Service {
	return &Service{db: db, publisher: publisher, now: time.Now}
}

// Apply submits a volunteer's application to a pending request.
func (s *Service) Apply(actor *models.User, requestID, message string) (*models.Application, error) {
	r, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, faults.NotFound("request %s not found", requestID)
	}
	if err := authz.CanApply(actor, r); err != nil {
		return nil, err
	}
	if r.Status != models.RequestPending {
		return nil, faults.InvalidState("request %s is %s, applications are closed", requestID, r.Status)
	}

	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) < minMessageLength {
		return nil, faults.Validation("application message must be at least %d characters", minMessageLength)
	}

	if existing, err := s.db.GetApplicationByVolunteerAndRequest(actor.ID, requestID); err != nil {
		return nil, fmt.Errorf("lookup application: %w", err)
	} else if existing != nil {
		return nil, faults.Duplicate("you already applied to request %s", requestID)
	}

	a := &models.Application{
		ID:          uuid.New().String(),
		RequestID:   requestID,
		VolunteerID: actor.ID,
		Message:     message,
		Status:      models.ApplicationPending,
		SubmittedAt: s.now(),
	}
	if err := s.db.CreateApplication(a); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return a, nil
}

// Accept selects one application: the request is assigned to its volunteer
// and every other pending application is rejected, all in one transaction.
func (s *Service) Accept(ctx context.Context, actor *models.User, applicationID, comment string) (*models.Application, *models.Request, error) {
	app, err := s.getApplication(applicationID)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.db.GetRequest(app.RequestID)
	if err != nil {
		return nil, nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, nil, faults.NotFound("request %s not found", app.RequestID)
	}
	if err := authz.CanRespondToApplications(actor, r); err != nil {
		return nil, nil, err
	}

	// Who loses is known only after the commit, so snapshot the field first.
	competitors, err := s.db.ListApplicationsByRequest(r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list applications: %w", err)
	}

	accepted, assigned, err := s.db.AcceptApplication(applicationID, strings.TrimSpace(comment), s.now())
	if err != nil {
		return nil, nil, err
	}

	s.notifyVolunteer(ctx, accepted.VolunteerID, notify.KindApplicationAccepted, assigned.ID,
		fmt.Sprintf("Your application for %q was accepted.", assigned.Title))
	for _, c := range competitors {
		if c.ID == accepted.ID || c.Status != models.ApplicationPending {
			continue
		}
		s.notifyVolunteer(ctx, c.VolunteerID, notify.KindApplicationRejected, assigned.ID,
			fmt.Sprintf("Your application for %q was not selected.", assigned.Title))
	}
	return accepted, assigned, nil
}

// Reject declines a single pending application without touching the request.
func (s *Service) Reject(ctx context.Context, actor *models.User, applicationID, comment string) (*models.Application, error) {
	app, err := s.getApplication(applicationID)
	if err != nil {
		return nil, err
	}
	r, err := s.db.GetRequest(app.RequestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, faults.NotFound("request %s not found", app.RequestID)
	}
	if err := authz.CanRespondToApplications(actor, r); err != nil {
		return nil, err
	}

	if err := s.db.RejectApplication(applicationID, strings.TrimSpace(comment), s.now()); err != nil {
		return nil, err
	}

	rejected, err := s.db.GetApplication(applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	s.notifyVolunteer(ctx, rejected.VolunteerID, notify.KindApplicationRejected, r.ID,
		fmt.Sprintf("Your application for %q was declined.", r.Title))
	return rejected, nil
}

// ListByRequest returns a request's applications to its creator or an admin.
func (s *Service) ListByRequest(actor *models.User, requestID string) ([]models.Application, error) {
	r, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, faults.NotFound("request %s not found", requestID)
	}
	if err := authz.CanRespondToApplications(actor, r); err != nil {
		return nil, err
	}
	return s.db.ListApplicationsByRequest(requestID)
}

// ListMine returns the actor's own applications.
func (s *Service) ListMine(actor *models.User) ([]models.Application, error) {
	return s.db.ListApplicationsByVolunteer(actor.ID)
}

func (s *Service) getApplication(id string) (*models.Application, error) {
	a, err := s.db.GetApplication(id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if a == nil {
		return nil, faults.NotFound("application %s not found", id)
	}
	return a, nil
}

func (s *Service) notifyVolunteer(ctx context.Context, volunteerID, kind, requestID, body string) {
	u, err := s.db.GetUserByID(volunteerID)
	if err != nil || u == nil || u.PhoneNumber == "" {
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
