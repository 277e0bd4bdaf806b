package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Edw01/Taller-integro/config"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

const bcryptCost = 12

const minPasswordLength = 8

// Service handles authentication operations.
type Service struct {
	db  *database.DB
	cfg *config.Config
}

// New creates a new auth service.
func New(db *database.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Register creates an account carrying one of the coordination roles. The
// admin role cannot be self-assigned; admins are seeded or promoted.
func (s *Service) Register(username, email, password, name, phone string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, faults.Validation("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, faults.Validation("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, faults.Validation("password must be at least %d characters", minPasswordLength)
	}
	if role != models.RoleRequester && role != models.RoleVolunteer {
		return nil, faults.Validation("role must be requester or volunteer")
	}

	if existing, err := s.db.GetUserByEmail(email); err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.db.GetUserByUsername(username); err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PhoneNumber:  strings.TrimSpace(phone),
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and creates a new session.
// Returns the session ID (used as cookie value).
func (s *Service) Login(email, password, ipAddress, userAgent string) (string, error) {
	user, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if !user.Active {
		return "", ErrAccountDisabled
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Duration(s.cfg.Session.MaxAge) * time.Second),
		CreatedAt: now,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := s.db.CreateSession(session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	if err := s.db.UpdateLastLogin(user.ID, now); err != nil {
		return "", fmt.Errorf("update last login: %w", err)
	}

	return session.ID, nil
}

// ValidateSession looks up a session by ID and returns the associated user.
// Returns (nil, nil) if the session does not exist or has expired.
func (s *Service) ValidateSession(sessionID string) (*models.User, *models.Session, error) {
	session, err := s.db.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	user, err := s.db.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.Active {
		// Orphaned or disabled, clean it up.
		_ = s.db.DeleteSession(sessionID)
		return nil, nil, nil
	}

	return user, session, nil
}

// Logout deletes a session.
func (s *Service) Logout(sessionID string) error {
	return s.db.DeleteSession(sessionID)
}

// SeedAdmin creates the configured admin account when no active admin
// exists. Safe to call on every boot.
func (s *Service) SeedAdmin() (*models.User, error) {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		return nil, nil
	}

	n, err := s.db.CountUsersByRole(models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	hash, err := HashPassword(s.cfg.Admin.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin := &models.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Email:        strings.ToLower(s.cfg.Admin.Email),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}
	if err := s.db.CreateUser(admin); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return admin, nil
}

// GetSessionsByUserID returns all active sessions for a user.
func (s *Service) GetSessionsByUserID(userID string) ([]models.Session, error) {
	return s.db.GetSessionsByUserID(userID)
}

// CleanExpiredSessions removes all expired sessions from the database.
func (s *Service) CleanExpiredSessions() error {
	return s.db.DeleteExpiredSessions()
}
