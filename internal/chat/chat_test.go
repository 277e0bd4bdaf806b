package chat

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/internal/notify"
	"github.com/Edw01/Taller-integro/pkg/models"
)

type fixture struct {
	svc      *Service
	db       *database.DB
	recorder *notify.Recorder
	creator  *models.User
	vol      *models.User
	req      *models.Request
}

func setup(t *testing.T) *fixture {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "chat-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := database.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now().Truncate(time.Second)
	creator := &models.User{
		ID: "creator-1", Username: "creator", Email: "c@example.com",
		PhoneNumber: "+56911110000",
		Role:        models.RoleRequester, PasswordHash: "x", Active: true,
		CreatedAt: now, UpdatedAt: now, LastLoginAt: now,
	}
	vol := &models.User{
		ID: "vol-1", Username: "vol", Email: "v@example.com",
		PhoneNumber: "+56911112222",
		Role:        models.RoleVolunteer, PasswordHash: "x", Active: true,
		CreatedAt: now, UpdatedAt: now, LastLoginAt: now,
	}
	for _, u := range []*models.User{creator, vol} {
		if err := db.CreateUser(u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	ben := &models.Beneficiary{
		ID: "ben-1", RUT: "12345678-5", FirstNames: "Rosa", LastNames: "Vergara",
		BirthDate: now.AddDate(-72, 0, 0), Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateBeneficiary(ben); err != nil {
		t.Fatalf("CreateBeneficiary: %v", err)
	}

	assignedAt := now
	req := &models.Request{
		ID: "req-1", CreatorID: creator.ID, BeneficiaryID: ben.ID,
		Title:       "Weekly grocery run",
		Description: "Groceries and pharmacy pickup for a beneficiary who cannot leave home",
		Priority:    models.PriorityMedium, Status: models.RequestAssigned,
		VolunteerID: vol.ID, AssignedAt: &assignedAt,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateRequest(req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	recorder := &notify.Recorder{}
	return &fixture{
		svc: New(db, recorder), db: db, recorder: recorder,
		creator: creator, vol: vol, req: req,
	}
}

func TestService_SendAndHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m1, err := f.svc.Send(ctx, f.creator, f.req.ID, "¿puedes venir el martes?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m1.SenderID != f.creator.ID {
		t.Errorf("sender = %s", m1.SenderID)
	}

	if _, err := f.svc.Send(ctx, f.vol, f.req.ID, "el martes me queda bien"); err != nil {
		t.Fatalf("Send reply: %v", err)
	}

	history, err := f.svc.History(f.vol, f.req.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}

	// Each send notifies the counterpart.
	if len(f.recorder.Events) != 2 {
		t.Fatalf("events = %+v, want 2", f.recorder.Events)
	}
	if f.recorder.Events[0].To != f.vol.PhoneNumber || f.recorder.Events[1].To != f.creator.PhoneNumber {
		t.Errorf("notification targets = %s, %s", f.recorder.Events[0].To, f.recorder.Events[1].To)
	}
}

func TestService_SendGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	outsider := &models.User{ID: "stranger", Role: models.RoleVolunteer}
	if _, err := f.svc.Send(ctx, outsider, f.req.ID, "hello there friend"); !faults.Is(err, faults.KindPermission) {
		t.Errorf("outsider send = %v, want permission fault", err)
	}

	if _, err := f.svc.Send(ctx, f.creator, f.req.ID, "   "); !faults.Is(err, faults.KindValidation) {
		t.Errorf("blank send = %v, want validation fault", err)
	}

	// No chat before assignment.
	now := time.Now().Truncate(time.Second)
	pending := &models.Request{
		ID: "req-2", CreatorID: f.creator.ID, BeneficiaryID: "ben-1",
		Title:       "Another errand",
		Description: "An errand that has not been assigned to anybody yet",
		Priority:    models.PriorityLow, Status: models.RequestPending,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := f.db.CreateRequest(pending); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := f.svc.Send(ctx, f.creator, pending.ID, "is anyone out there?"); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("pending send = %v, want invalid_state", err)
	}
}

func TestService_ReadTracking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.svc.Send(ctx, f.vol, f.req.ID, "ya compré todo lo de la lista")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	unread, err := f.svc.UnreadCount(f.creator, f.req.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	// The sender cannot mark their own message.
	if err := f.svc.MarkRead(f.vol, m.ID); !faults.Is(err, faults.KindPermission) {
		t.Errorf("self MarkRead = %v, want permission fault", err)
	}

	if err := f.svc.MarkRead(f.creator, m.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, err = f.svc.UnreadCount(f.creator, f.req.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread after read = %d, want 0", unread)
	}

	// The sender's own unread count ignores their messages.
	own, err := f.svc.UnreadCount(f.vol, f.req.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if own != 0 {
		t.Errorf("sender unread = %d, want 0", own)
	}
}
