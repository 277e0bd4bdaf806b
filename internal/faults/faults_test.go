package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Validation("message too short: %d chars", 10)
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindValidation)
	}
	if err.Error() != "validation: message too short: 10 chars" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("accept application: %w", InvalidState("request is %s", "assigned"))
	if !Is(err, KindInvalidState) {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
	if Is(err, KindPermission) {
		t.Error("Is matched the wrong kind")
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain error should have no kind")
	}
	if KindOf(nil) != "" {
		t.Error("nil error should have no kind")
	}
}
