// Package chat carries the per-request conversation between the creator and
// the assigned volunteer. There is no conversation before assignment; a
// pending request has nobody to talk to.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/Edw01/Taller-integro/internal/authz"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/internal/notify"
	"github.com/Edw01/Taller-integro/pkg/models"
)

// maxContentLength bounds a single message.
const maxContentLength = 2000

// Service exposes messaging operations.
type Service struct {
	db        *database.DB
	publisher notify.Publisher
	now       func() time.Time
}

// New creates a chat service.
func New(db *database.DB, publisher notify.Publisher) *Service {
	return &Service{db: db, publisher: publisher, now: time.Now}
}

// Send posts a message on an assigned or finalized request. Content is
// NFC-normalized so accented names compare and render consistently no matter
// which keyboard produced them.
func (s *Service) Send(ctx context.Context, actor *models.User, requestID, content string) (*models.Message, error) {
	r, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanChat(actor, r); err != nil {
		return nil, err
	}
	if r.Status == models.RequestPending {
		return nil, faults.InvalidState("request %s has no assigned volunteer to talk to", requestID)
	}

	content = norm.NFC.String(strings.TrimSpace(content))
	if content == "" {
		return nil, faults.Validation("message content is required")
	}
	if len(content) > maxContentLength {
		return nil, faults.Validation("message exceeds %d characters", maxContentLength)
	}

	m := &models.Message{
		ID:        uuid.New().String(),
		RequestID: requestID,
		SenderID:  actor.ID,
		Content:   content,
		SentAt:    s.now(),
	}
	if err := s.db.CreateMessage(m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.notifyCounterpart(ctx, actor, r, content)
	return m, nil
}

// History returns the conversation on a request to its participants.
func (s *Service) History(actor *models.User, requestID string) ([]models.Message, error) {
	r, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanChat(actor, r); err != nil {
		return nil, err
	}
	return s.db.ListMessagesByRequest(requestID)
}

// MarkRead marks a message read. Only the recipient can do this; reading
// your own message is a no-op refused outright.
func (s *Service) MarkRead(actor *models.User, messageID string) error {
	m, err := s.db.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if m == nil {
		return faults.NotFound("message %s not found", messageID)
	}
	if m.SenderID == actor.ID {
		return faults.Permission("cannot mark your own message as read")
	}

	r, err := s.getRequest(m.RequestID)
	if err != nil {
		return err
	}
	if err := authz.CanChat(actor, r); err != nil {
		return err
	}
	return s.db.MarkMessageRead(messageID, s.now())
}

// UnreadCount reports how many messages on a request the actor has not read.
func (s *Service) UnreadCount(actor *models.User, requestID string) (int, error) {
	r, err := s.getRequest(requestID)
	if err != nil {
		return 0, err
	}
	if err := authz.CanChat(actor, r); err != nil {
		return 0, err
	}
	return s.db.CountUnreadMessages(requestID, actor.ID)
}

func (s *Service) getRequest(id string) (*models.Request, error) {
	r, err := s.db.GetRequest(id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, faults.NotFound("request %s not found", id)
	}
	return r, nil
}

func (s *Service) notifyCounterpart(ctx context.Context, sender *models.User, r *models.Request, content string) {
	counterpartID := r.CreatorID
	if sender.ID == r.CreatorID {
		counterpartID = r.VolunteerID
	}
	if counterpartID == "" || counterpartID == sender.ID {
		return
	}

	u, err := s.db.GetUserByID(counterpartID)
	if err != nil || u == nil || u.PhoneNumber == "" {
		return
	}

	preview := content
	if len(preview) > 80 {
		cut := 80
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	s.publisher.Publish(ctx, notify.Event{
		ID:        uuid.New().String(),
		Kind:      notify.KindNewMessage,
		To:        u.PhoneNumber,
		Body:      fmt.Sprintf("New message on %q: %s", r.Title, preview),
		RequestID: r.ID,
	})
}
