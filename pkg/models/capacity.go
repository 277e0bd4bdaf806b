package models

import "time"

// CapacityRequest is the multi-party variant of a help request: instead of one
// beneficiary and one volunteer it declares how many of each it needs, and is
// assigned automatically once both counts are met. It is kept separate from
// Request on purpose; the two shapes never mix.
type CapacityRequest struct {
	ID             string        `json:"id"`
	CreatorID      string        `json:"creator_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	HelpType       string        `json:"help_type"`
	VolunteerCap   int           `json:"volunteer_cap"`
	BeneficiaryCap int           `json:"beneficiary_cap"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	AssignedAt     *time.Time    `json:"assigned_at,omitempty"`
	FinalizedAt    *time.Time    `json:"finalized_at,omitempty"`
}

// EnrollmentKind distinguishes the two sides of a capacity request.
type EnrollmentKind string

const (
	EnrollVolunteer   EnrollmentKind = "volunteer"
	EnrollBeneficiary EnrollmentKind = "beneficiary"
)

// Enrollment links one volunteer or beneficiary to a capacity request.
type Enrollment struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	Kind      EnrollmentKind `json:"kind"`
	SubjectID string         `json:"subject_id"`
	CreatedAt time.Time      `json:"created_at"`
}
