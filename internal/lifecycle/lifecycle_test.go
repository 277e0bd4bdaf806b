package lifecycle

import (
	"context"
	"os"
	"strings"
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
	ben      *models.Beneficiary
}

func setup(t *testing.T) *fixture {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "lifecycle-test-*.db")
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
		Role: models.RoleRequester, PasswordHash: "x", Active: true,
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

	recorder := &notify.Recorder{}
	return &fixture{
		svc:      New(db, recorder),
		db:       db,
		recorder: recorder,
		creator:  creator,
		vol:      vol,
		ben:      ben,
	}
}

func validCreate(benID string) CreateInput {
	return CreateInput{
		BeneficiaryID: benID,
		Title:         "Weekly grocery run",
		Description:   "Groceries and pharmacy pickup for a beneficiary who cannot leave home",
		HelpType:      "errands",
		Priority:      models.PriorityMedium,
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)

	r, err := f.svc.Create(f.creator, validCreate(f.ben.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != models.RequestPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if r.CreatorID != f.creator.ID {
		t.Errorf("creator = %s", r.CreatorID)
	}
}

func TestService_CreateValidation(t *testing.T) {
	f := setup(t)

	t.Run("short description", func(t *testing.T) {
		in := validCreate(f.ben.ID)
		in.Description = "too short"
		if _, err := f.svc.Create(f.creator, in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Create = %v, want validation fault", err)
		}
	})

	t.Run("accented short description", func(t *testing.T) {
		in := validCreate(f.ben.ID)
		// 15 characters but 30 bytes; the minimum counts characters.
		in.Description = strings.Repeat("á", 15)
		if _, err := f.svc.Create(f.creator, in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Create = %v, want validation fault", err)
		}
	})

	t.Run("past deadline", func(t *testing.T) {
		in := validCreate(f.ben.ID)
		past := time.Now().Add(-24 * time.Hour)
		in.Deadline = &past
		if _, err := f.svc.Create(f.creator, in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Create = %v, want validation fault", err)
		}
	})

	t.Run("unknown priority", func(t *testing.T) {
		in := validCreate(f.ben.ID)
		in.Priority = models.Priority("whenever")
		if _, err := f.svc.Create(f.creator, in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Create = %v, want validation fault", err)
		}
	})

	t.Run("missing beneficiary", func(t *testing.T) {
		in := validCreate("ghost")
		if _, err := f.svc.Create(f.creator, in); !faults.Is(err, faults.KindNotFound) {
			t.Errorf("Create = %v, want not_found", err)
		}
	})

	t.Run("volunteer cannot create", func(t *testing.T) {
		if _, err := f.svc.Create(f.vol, validCreate(f.ben.ID)); !faults.Is(err, faults.KindPermission) {
			t.Errorf("Create = %v, want permission fault", err)
		}
	})

	t.Run("inactive beneficiary", func(t *testing.T) {
		f.ben.Active = false
		if err := f.db.UpdateBeneficiary(f.ben); err != nil {
			t.Fatalf("UpdateBeneficiary: %v", err)
		}
		t.Cleanup(func() {
			f.ben.Active = true
			f.db.UpdateBeneficiary(f.ben)
		})
		if _, err := f.svc.Create(f.creator, validCreate(f.ben.ID)); !faults.Is(err, faults.KindInvalidState) {
			t.Errorf("Create = %v, want invalid_state", err)
		}
	})
}

func TestService_AssignFinalize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(f.creator, validCreate(f.ben.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	assigned, err := f.svc.Assign(ctx, f.creator, r.ID, f.vol.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Status != models.RequestAssigned || assigned.VolunteerID != f.vol.ID {
		t.Errorf("assigned = %+v", assigned)
	}
	if len(f.recorder.Events) != 1 || f.recorder.Events[0].Kind != notify.KindRequestAssigned {
		t.Errorf("events = %+v, want one request_assigned", f.recorder.Events)
	}
	if f.recorder.Events[0].To != f.vol.PhoneNumber {
		t.Errorf("notified %s, want volunteer", f.recorder.Events[0].To)
	}

	// Assign on an already-assigned request fails without overwriting.
	if _, err := f.svc.Assign(ctx, f.creator, r.ID, f.vol.ID); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("double assign = %v, want invalid_state", err)
	}

	// The assigned volunteer may finalize.
	finalized, err := f.svc.Finalize(ctx, f.vol, r.ID, "delivered everything")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if finalized.Status != models.RequestFinalized || finalized.FinalComments != "delivered everything" {
		t.Errorf("finalized = %+v", finalized)
	}
	if finalized.FinalizedAt == nil {
		t.Error("finalized_at not set")
	}
}

func TestService_FinalizeGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(f.creator, validCreate(f.ben.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Cannot finalize straight from pending.
	if _, err := f.svc.Finalize(ctx, f.creator, r.ID, ""); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("finalize pending = %v, want invalid_state", err)
	}

	if _, err := f.svc.Assign(ctx, f.creator, r.ID, f.vol.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	outsider := &models.User{ID: "stranger", Role: models.RoleVolunteer}
	if _, err := f.svc.Finalize(ctx, outsider, r.ID, ""); !faults.Is(err, faults.KindPermission) {
		t.Errorf("outsider finalize = %v, want permission fault", err)
	}
}

func TestService_ResetAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(f.creator, validCreate(f.ben.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Reset of a pending request is refused.
	if _, err := f.svc.Reset(f.creator, r.ID); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("reset pending = %v, want invalid_state", err)
	}

	if _, err := f.svc.Assign(ctx, f.creator, r.ID, f.vol.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Delete is refused once assigned.
	if err := f.svc.Delete(f.creator, r.ID); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("delete assigned = %v, want invalid_state", err)
	}

	// The volunteer cannot reset, the creator can.
	if _, err := f.svc.Reset(f.vol, r.ID); !faults.Is(err, faults.KindPermission) {
		t.Errorf("volunteer reset = %v, want permission fault", err)
	}
	back, err := f.svc.Reset(f.creator, r.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if back.Status != models.RequestPending || back.VolunteerID != "" {
		t.Errorf("reset request = %+v", back)
	}

	// Pending again, so delete works.
	if err := f.svc.Delete(f.creator, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(r.ID); !faults.Is(err, faults.KindNotFound) {
		t.Errorf("Get after delete = %v, want not_found", err)
	}
}

func TestService_UpdatePendingOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r, err := f.svc.Create(f.creator, validCreate(f.ben.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.svc.Update(f.creator, r.ID, UpdateInput{
		Title:       "Grocery and pharmacy run",
		Description: "Now also includes a pharmacy stop for the monthly prescriptions",
		Priority:    models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Priority != models.PriorityHigh {
		t.Errorf("priority = %s, want high", updated.Priority)
	}

	if _, err := f.svc.Assign(ctx, f.creator, r.ID, f.vol.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	_, err = f.svc.Update(f.creator, r.ID, UpdateInput{
		Title:       "x",
		Description: "some other long enough description here",
		Priority:    models.PriorityLow,
	})
	if !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("update assigned = %v, want invalid_state", err)
	}
}
