package database

import (
	"os"
	"testing"
	"time"

	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "coordination-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := New(tmpFile.Name())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func seedUser(t *testing.T, db *DB, id string, role models.Role) *models.User {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	u := &models.User{
		ID:           id,
		Username:     id,
		Email:        id + "@example.com",
		Name:         "User " + id,
		Role:         role,
		PasswordHash: "x",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
	return u
}

func seedBeneficiary(t *testing.T, db *DB, id, rut string) *models.Beneficiary {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	b := &models.Beneficiary{
		ID:         id,
		RUT:        rut,
		FirstNames: "Rosa",
		LastNames:  "Vergara",
		BirthDate:  now.AddDate(-72, 0, 0),
		Address:    "Calle Larga 42",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.CreateBeneficiary(b); err != nil {
		t.Fatalf("CreateBeneficiary(%s): %v", id, err)
	}
	return b
}

func seedRequest(t *testing.T, db *DB, id, creatorID, beneficiaryID string) *models.Request {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	r := &models.Request{
		ID:            id,
		CreatorID:     creatorID,
		BeneficiaryID: beneficiaryID,
		Title:         "Weekly grocery run",
		Description:   "Groceries and pharmacy pickup for a beneficiary who cannot leave home",
		HelpType:      "errands",
		Priority:      models.PriorityMedium,
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.CreateRequest(r); err != nil {
		t.Fatalf("CreateRequest(%s): %v", id, err)
	}
	return r
}

func seedApplication(t *testing.T, db *DB, id, requestID, volunteerID string) *models.Application {
	t.Helper()
	a := &models.Application{
		ID:          id,
		RequestID:   requestID,
		VolunteerID: volunteerID,
		Message:     "I live two blocks away and can help every week without fail",
		Status:      models.ApplicationPending,
		SubmittedAt: time.Now().Truncate(time.Second),
	}
	if err := db.CreateApplication(a); err != nil {
		t.Fatalf("CreateApplication(%s): %v", id, err)
	}
	return a
}

func TestDB_BeneficiaryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	seedBeneficiary(t, db, "ben-1", "12345678-5")

	got, err := db.GetBeneficiaryByRUT("12345678-5")
	if err != nil {
		t.Fatalf("GetBeneficiaryByRUT: %v", err)
	}
	if got == nil {
		t.Fatal("GetBeneficiaryByRUT returned nil")
	}
	if got.FullName() != "Rosa Vergara" {
		t.Errorf("FullName = %q, want %q", got.FullName(), "Rosa Vergara")
	}

	missing, err := db.GetBeneficiary("nope")
	if err != nil {
		t.Fatalf("GetBeneficiary: %v", err)
	}
	if missing != nil {
		t.Errorf("GetBeneficiary(nope) = %+v, want nil", missing)
	}
}

func TestDB_BeneficiaryRUTUnique(t *testing.T) {
	db := setupTestDB(t)
	seedBeneficiary(t, db, "ben-1", "12345678-5")

	now := time.Now()
	err := db.CreateBeneficiary(&models.Beneficiary{
		ID: "ben-2", RUT: "12345678-5", FirstNames: "X", LastNames: "Y",
		BirthDate: now.AddDate(-70, 0, 0), Active: true,
		CreatedAt: now, UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("expected an error inserting duplicate RUT, got none")
	}
}

func TestDB_ListBeneficiariesActiveOnly(t *testing.T) {
	db := setupTestDB(t)
	b1 := seedBeneficiary(t, db, "ben-1", "12345678-5")
	seedBeneficiary(t, db, "ben-2", "11111111-1")

	b1.Active = false
	if err := db.UpdateBeneficiary(b1); err != nil {
		t.Fatalf("UpdateBeneficiary: %v", err)
	}

	active, err := db.ListBeneficiaries(true)
	if err != nil {
		t.Fatalf("ListBeneficiaries: %v", err)
	}
	if len(active) != 1 || active[0].ID != "ben-2" {
		t.Errorf("active list = %+v, want just ben-2", active)
	}

	all, err := db.ListBeneficiaries(false)
	if err != nil {
		t.Fatalf("ListBeneficiaries: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full list has %d entries, want 2", len(all))
	}
}

func TestDB_ListRequestsFilters(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	other := seedUser(t, db, "creator-2", models.RoleRequester)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")

	seedRequest(t, db, "req-1", creator.ID, ben.ID)
	r2 := seedRequest(t, db, "req-2", other.ID, ben.ID)
	r2.Priority = models.PriorityUrgent
	r2.Title = "Urgent plumbing repair"
	if err := db.UpdateRequestContent(r2); err != nil {
		t.Fatalf("UpdateRequestContent: %v", err)
	}

	byCreator, err := db.ListRequests(RequestFilter{CreatorID: creator.ID})
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(byCreator) != 1 || byCreator[0].ID != "req-1" {
		t.Errorf("byCreator = %+v, want just req-1", byCreator)
	}

	urgent, err := db.ListRequests(RequestFilter{Priority: models.PriorityUrgent})
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(urgent) != 1 || urgent[0].ID != "req-2" {
		t.Errorf("urgent = %+v, want just req-2", urgent)
	}

	search, err := db.ListRequests(RequestFilter{Search: "plumbing"})
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(search) != 1 || search[0].ID != "req-2" {
		t.Errorf("search = %+v, want just req-2", search)
	}
}

func TestDB_AcceptApplication_Cascade(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	v2 := seedUser(t, db, "vol-2", models.RoleVolunteer)
	v3 := seedUser(t, db, "vol-3", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)

	winner := seedApplication(t, db, "app-1", req.ID, v1.ID)
	seedApplication(t, db, "app-2", req.ID, v2.ID)
	seedApplication(t, db, "app-3", req.ID, v3.ID)

	now := time.Now().Truncate(time.Second)
	accepted, assigned, err := db.AcceptApplication(winner.ID, "welcome aboard", now)
	if err != nil {
		t.Fatalf("AcceptApplication: %v", err)
	}
	if accepted.Status != models.ApplicationAccepted {
		t.Errorf("accepted status = %s, want accepted", accepted.Status)
	}
	if accepted.ResponseComment != "welcome aboard" {
		t.Errorf("response comment = %q", accepted.ResponseComment)
	}
	if assigned.Status != models.RequestAssigned {
		t.Errorf("request status = %s, want assigned", assigned.Status)
	}
	if assigned.VolunteerID != v1.ID {
		t.Errorf("volunteer = %s, want %s", assigned.VolunteerID, v1.ID)
	}
	if assigned.AssignedAt == nil {
		t.Error("assigned_at not set")
	}

	for _, id := range []string{"app-2", "app-3"} {
		a, err := db.GetApplication(id)
		if err != nil {
			t.Fatalf("GetApplication(%s): %v", id, err)
		}
		if a.Status != models.ApplicationRejected {
			t.Errorf("%s status = %s, want rejected", id, a.Status)
		}
		if a.ResponseComment != AutoRejectComment {
			t.Errorf("%s comment = %q, want %q", id, a.ResponseComment, AutoRejectComment)
		}
		if a.RespondedAt == nil {
			t.Errorf("%s responded_at not set", id)
		}
	}
}

func TestDB_AcceptApplication_SecondAcceptFails(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	v2 := seedUser(t, db, "vol-2", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)

	a1 := seedApplication(t, db, "app-1", req.ID, v1.ID)
	a2 := seedApplication(t, db, "app-2", req.ID, v2.ID)

	now := time.Now()
	if _, _, err := db.AcceptApplication(a1.ID, "", now); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	_, _, err := db.AcceptApplication(a2.ID, "", now)
	if !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("second accept error = %v, want invalid_state", err)
	}

	// The losing application was already auto-rejected, so nothing changed.
	got, err := db.GetApplication(a2.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if got.Status != models.ApplicationRejected {
		t.Errorf("app-2 status = %s, want rejected", got.Status)
	}
}

func TestDB_DuplicateApplicationRejected(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)

	seedApplication(t, db, "app-1", req.ID, v1.ID)

	err := db.CreateApplication(&models.Application{
		ID: "app-dup", RequestID: req.ID, VolunteerID: v1.ID,
		Message: "second attempt", Status: models.ApplicationPending,
		SubmittedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected unique constraint error on duplicate application")
	}
}

func TestDB_DeleteRequestCascades(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)
	seedApplication(t, db, "app-1", req.ID, v1.ID)

	now := time.Now().Truncate(time.Second)
	if err := db.CreateMessage(&models.Message{
		ID: "msg-1", RequestID: req.ID, SenderID: creator.ID,
		Content: "hola", SentAt: now,
	}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if err := db.DeleteRequest(req.ID); err != nil {
		t.Fatalf("DeleteRequest: %v", err)
	}

	app, err := db.GetApplication("app-1")
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if app != nil {
		t.Errorf("application survived request delete: %+v", app)
	}

	msg, err := db.GetMessage("msg-1")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if msg != nil {
		t.Errorf("message survived request delete: %+v", msg)
	}
}

func TestDB_FinalizeAndResetRequest(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)

	now := time.Now().Truncate(time.Second)

	// Finalize requires assigned.
	if err := db.FinalizeRequest(req.ID, "done", now); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("finalize pending = %v, want invalid_state", err)
	}

	if err := db.AssignRequest(req.ID, v1.ID, now); err != nil {
		t.Fatalf("AssignRequest: %v", err)
	}
	// Assign is guarded against already-assigned requests.
	if err := db.AssignRequest(req.ID, v1.ID, now); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("double assign = %v, want invalid_state", err)
	}

	if err := db.FinalizeRequest(req.ID, "all done", now); err != nil {
		t.Fatalf("FinalizeRequest: %v", err)
	}
	got, err := db.GetRequest(req.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != models.RequestFinalized || got.FinalComments != "all done" {
		t.Errorf("finalized request = %+v", got)
	}

	if err := db.ResetRequest(req.ID, now); err != nil {
		t.Fatalf("ResetRequest: %v", err)
	}
	got, err = db.GetRequest(req.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != models.RequestPending || got.VolunteerID != "" || got.AssignedAt != nil || got.FinalizedAt != nil {
		t.Errorf("reset request = %+v, want clean pending", got)
	}
}

func TestDB_MessagesReadTracking(t *testing.T) {
	db := setupTestDB(t)
	creator := seedUser(t, db, "creator-1", models.RoleRequester)
	v1 := seedUser(t, db, "vol-1", models.RoleVolunteer)
	ben := seedBeneficiary(t, db, "ben-1", "12345678-5")
	req := seedRequest(t, db, "req-1", creator.ID, ben.ID)

	base := time.Now().Truncate(time.Second)
	for i, m := range []struct {
		id, sender, content string
	}{
		{"msg-1", creator.ID, "can you come tuesday?"},
		{"msg-2", v1.ID, "tuesday works"},
		{"msg-3", v1.ID, "around 10am"},
	} {
		if err := db.CreateMessage(&models.Message{
			ID: m.id, RequestID: req.ID, SenderID: m.sender,
			Content: m.content, SentAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateMessage(%s): %v", m.id, err)
		}
	}

	history, err := db.ListMessagesByRequest(req.ID)
	if err != nil {
		t.Fatalf("ListMessagesByRequest: %v", err)
	}
	if len(history) != 3 || history[0].ID != "msg-1" || history[2].ID != "msg-3" {
		t.Errorf("history out of order: %+v", history)
	}

	unread, err := db.CountUnreadMessages(req.ID, creator.ID)
	if err != nil {
		t.Fatalf("CountUnreadMessages: %v", err)
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}

	if err := db.MarkMessageRead("msg-2", base.Add(5*time.Minute)); err != nil {
		t.Fatalf("MarkMessageRead: %v", err)
	}
	unread, err = db.CountUnreadMessages(req.ID, creator.ID)
	if err != nil {
		t.Fatalf("CountUnreadMessages: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread after read = %d, want 1", unread)
	}

	got, err := db.GetMessage("msg-2")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if !got.Read || got.ReadAt == nil {
		t.Errorf("msg-2 read flags = %+v", got)
	}
}
