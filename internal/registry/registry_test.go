package registry

import (
	"os"
	"testing"
	"time"

	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "registry-test-*.db")
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

	return New(db)
}

func requester() *models.User {
	return &models.User{ID: "req-user", Role: models.RoleRequester}
}

func volunteer() *models.User {
	return &models.User{ID: "vol-user", Role: models.RoleVolunteer}
}

func validInput() RegisterInput {
	return RegisterInput{
		RUT:        "12.345.678-5",
		FirstNames: "Rosa Elena",
		LastNames:  "Vergara Díaz",
		BirthDate:  time.Now().AddDate(-72, 0, 0),
		Address:    "Calle Larga 42",
		Phone:      "+56922223333",
	}
}

func TestService_Register(t *testing.T) {
	svc := setupService(t)

	b, err := svc.Register(requester(), validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if b.RUT != "12345678-5" {
		t.Errorf("RUT = %q, want normalized 12345678-5", b.RUT)
	}
	if !b.Active {
		t.Error("new beneficiary not active")
	}
	if b.FullName() != "Rosa Elena Vergara Díaz" {
		t.Errorf("FullName = %q", b.FullName())
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc := setupService(t)

	t.Run("bad rut", func(t *testing.T) {
		in := validInput()
		in.RUT = "12345678-9" // wrong check digit
		if _, err := svc.Register(requester(), in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Register = %v, want validation fault", err)
		}
	})

	t.Run("too young", func(t *testing.T) {
		in := validInput()
		in.BirthDate = time.Now().AddDate(-45, 0, 0)
		if _, err := svc.Register(requester(), in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Register = %v, want validation fault", err)
		}
	})

	t.Run("implausibly old", func(t *testing.T) {
		in := validInput()
		in.BirthDate = time.Now().AddDate(-130, 0, 0)
		if _, err := svc.Register(requester(), in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Register = %v, want validation fault", err)
		}
	})

	t.Run("missing names", func(t *testing.T) {
		in := validInput()
		in.LastNames = "   "
		if _, err := svc.Register(requester(), in); !faults.Is(err, faults.KindValidation) {
			t.Errorf("Register = %v, want validation fault", err)
		}
	})

	t.Run("volunteer forbidden", func(t *testing.T) {
		if _, err := svc.Register(volunteer(), validInput()); !faults.Is(err, faults.KindPermission) {
			t.Errorf("Register = %v, want permission fault", err)
		}
	})
}

func TestService_RegisterDuplicateRUT(t *testing.T) {
	svc := setupService(t)

	if _, err := svc.Register(requester(), validInput()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	in := validInput()
	in.RUT = "12345678-5" // same RUT, different formatting already covered
	if _, err := svc.Register(requester(), in); !faults.Is(err, faults.KindDuplicate) {
		t.Errorf("duplicate Register = %v, want duplicate fault", err)
	}
}

func TestService_UpdateAndDeactivate(t *testing.T) {
	svc := setupService(t)

	b, err := svc.Register(requester(), validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := svc.Update(requester(), b.ID, UpdateInput{
		Address:      "Nueva Dirección 7",
		Phone:        "+56933334444",
		MedicalNotes: "diabetes, needs reminders",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Address != "Nueva Dirección 7" || updated.MedicalNotes != "diabetes, needs reminders" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.RUT != b.RUT {
		t.Error("RUT changed on update")
	}

	if err := svc.Deactivate(requester(), b.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := svc.Deactivate(requester(), b.ID); !faults.Is(err, faults.KindInvalidState) {
		t.Errorf("second Deactivate = %v, want invalid_state", err)
	}

	active, err := svc.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active roster = %+v, want empty", active)
	}
	all, err := svc.List(true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("full roster has %d entries, want 1", len(all))
	}
}

func TestService_GetNotFound(t *testing.T) {
	svc := setupService(t)
	if _, err := svc.Get("ghost"); !faults.Is(err, faults.KindNotFound) {
		t.Errorf("Get = %v, want not_found", err)
	}
}
