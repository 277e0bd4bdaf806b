package models

import "time"

// Role determines what a user may do in the coordination workflow.
type Role string

const (
	// RoleRequester is a neighborhood-association president who registers
	// beneficiaries, creates help requests and adjudicates applications.
	RoleRequester Role = "requester"
	// RoleVolunteer applies to pending requests and carries out assigned ones.
	RoleVolunteer Role = "volunteer"
	// RoleAdmin is the municipal coordinator account seeded at startup.
	RoleAdmin Role = "admin"
)

// User represents a registered user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsRequester reports whether the user holds the requester role.
func (u *User) IsRequester() bool { return u.Role == RoleRequester }

// IsVolunteer reports whether the user holds the volunteer role.
func (u *User) IsVolunteer() bool { return u.Role == RoleVolunteer }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Session represents an active user session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}
