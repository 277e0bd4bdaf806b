package models

import "time"

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAssigned  RequestStatus = "assigned"
	RequestFinalized RequestStatus = "finalized"
)

// Priority ranks how urgently a request needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the four known levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Beneficiary is the elderly person a request is meant to help.
// The RUT is stored normalized (no dots, uppercase check digit).
type Beneficiary struct {
	ID               string    `json:"id"`
	RUT              string    `json:"rut"`
	FirstNames       string    `json:"first_names"`
	LastNames        string    `json:"last_names"`
	BirthDate        time.Time `json:"birth_date"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	EmergencyContact string    `json:"emergency_contact"`
	MedicalNotes     string    `json:"medical_notes"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FullName returns the beneficiary's display name.
func (b *Beneficiary) FullName() string {
	return b.FirstNames + " " + b.LastNames
}

// AgeAt returns the beneficiary's age in whole years at the given date.
func (b *Beneficiary) AgeAt(at time.Time) int {
	age := at.Year() - b.BirthDate.Year()
	if at.Month() < b.BirthDate.Month() ||
		(at.Month() == b.BirthDate.Month() && at.Day() < b.BirthDate.Day()) {
		age--
	}
	return age
}

// Request is a help petition tied to one beneficiary, moving through
// pending → assigned → finalized.
type Request struct {
	ID            string        `json:"id"`
	CreatorID     string        `json:"creator_id"`
	BeneficiaryID string        `json:"beneficiary_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	HelpType      string        `json:"help_type"`
	Priority      Priority      `json:"priority"`
	Status        RequestStatus `json:"status"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	VolunteerID   string        `json:"volunteer_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	AssignedAt    *time.Time    `json:"assigned_at,omitempty"`
	FinalizedAt   *time.Time    `json:"finalized_at,omitempty"`
	FinalComments string        `json:"final_comments,omitempty"`
}

// IsParticipant reports whether userID is the creator or the assigned volunteer.
func (r *Request) IsParticipant(userID string) bool {
	return userID == r.CreatorID || (r.VolunteerID != "" && userID == r.VolunteerID)
}

// ApplicationStatus is the lifecycle state of a volunteer's application.
// Both accepted and rejected are terminal.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a volunteer's offer to fulfill a request.
type Application struct {
	ID              string            `json:"id"`
	RequestID       string            `json:"request_id"`
	VolunteerID     string            `json:"volunteer_id"`
	Message         string            `json:"message"`
	Status          ApplicationStatus `json:"status"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	RespondedAt     *time.Time        `json:"responded_at,omitempty"`
	ResponseComment string            `json:"response_comment,omitempty"`
}

// Message is one entry in a request's conversation log.
type Message struct {
	ID        string     `json:"id"`
	RequestID string     `json:"request_id"`
	SenderID  string     `json:"sender_id"`
	Content   string     `json:"content"`
	SentAt    time.Time  `json:"sent_at"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
