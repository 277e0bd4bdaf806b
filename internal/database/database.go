package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Edw01/Taller-integro/pkg/models"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they do not exist.
func migrate(conn *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT UNIQUE NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		phone_number  TEXT NOT NULL DEFAULT '',
		name          TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		active        INTEGER NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

	CREATE TABLE IF NOT EXISTS beneficiaries (
		id                TEXT PRIMARY KEY,
		rut               TEXT UNIQUE NOT NULL,
		first_names       TEXT NOT NULL,
		last_names        TEXT NOT NULL,
		birth_date        DATETIME NOT NULL,
		address           TEXT NOT NULL DEFAULT '',
		phone             TEXT NOT NULL DEFAULT '',
		emergency_contact TEXT NOT NULL DEFAULT '',
		medical_notes     TEXT NOT NULL DEFAULT '',
		active            INTEGER NOT NULL DEFAULT 1,
		created_at        DATETIME NOT NULL,
		updated_at        DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_beneficiaries_active ON beneficiaries(active);

	CREATE TABLE IF NOT EXISTS requests (
		id             TEXT PRIMARY KEY,
		creator_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		beneficiary_id TEXT NOT NULL REFERENCES beneficiaries(id) ON DELETE CASCADE,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL,
		help_type      TEXT NOT NULL DEFAULT '',
		priority       TEXT NOT NULL DEFAULT 'medium',
		status         TEXT NOT NULL DEFAULT 'pending',
		deadline       DATETIME,
		volunteer_id   TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		assigned_at    DATETIME,
		finalized_at   DATETIME,
		final_comments TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_creator ON requests(creator_id);
	CREATE INDEX IF NOT EXISTS idx_requests_volunteer ON requests(volunteer_id);

	CREATE TABLE IF NOT EXISTS applications (
		id               TEXT PRIMARY KEY,
		request_id       TEXT NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		volunteer_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message          TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		submitted_at     DATETIME NOT NULL,
		responded_at     DATETIME,
		response_comment TEXT NOT NULL DEFAULT '',
		UNIQUE(volunteer_id, request_id)
	);

	CREATE INDEX IF NOT EXISTS idx_applications_request ON applications(request_id);
	CREATE INDEX IF NOT EXISTS idx_applications_volunteer ON applications(volunteer_id);
	CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		sender_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content    TEXT NOT NULL,
		sent_at    DATETIME NOT NULL,
		read       INTEGER NOT NULL DEFAULT 0,
		read_at    DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_messages_request ON messages(request_id);

	CREATE TABLE IF NOT EXISTS capacity_requests (
		id              TEXT PRIMARY KEY,
		creator_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		help_type       TEXT NOT NULL DEFAULT '',
		volunteer_cap   INTEGER NOT NULL,
		beneficiary_cap INTEGER NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending',
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL,
		assigned_at     DATETIME,
		finalized_at    DATETIME
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		id         TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES capacity_requests(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE(request_id, kind, subject_id)
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_request ON enrollments(request_id);
	`
	_, err := conn.Exec(ddl)
	return err
}

// userColumns is the SELECT column list for user queries.
const userColumns = `id, username, email, phone_number, name, role, password_hash, active, created_at, updated_at, last_login_at`

// scanUser scans a row into a User model.
func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PhoneNumber, &u.Name, &u.Role,
		&u.PasswordHash, &u.Active,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// --- User operations ---

// CreateUser inserts a new user.
func (db *DB) CreateUser(u *models.User) error {
	const q = `INSERT INTO users (id, username, email, phone_number, name, role, password_hash, active, created_at, updated_at, last_login_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		u.ID, u.Username, u.Email, u.PhoneNumber, u.Name, u.Role,
		u.PasswordHash, u.Active,
		u.CreatedAt, u.UpdatedAt, u.LastLoginAt,
	)
	return err
}

// GetUserByEmail looks up a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(db.conn.QueryRow(q, email))
}

// GetUserByID looks up a user by ID.
func (db *DB) GetUserByID(id string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(db.conn.QueryRow(q, id))
}

// GetUserByUsername looks up a user by username (case-insensitive).
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = ? COLLATE NOCASE`
	return scanUser(db.conn.QueryRow(q, username))
}

// CountUsersByRole counts active users holding a role.
func (db *DB) CountUsersByRole(role models.Role) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ? AND active = 1`, role).Scan(&n)
	return n, err
}

// UpdateLastLogin sets the last_login_at timestamp.
func (db *DB) UpdateLastLogin(userID string, t time.Time) error {
	const q = `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.Exec(q, t, t, userID)
	return err
}

// UpdateUserRole sets the role for a user.
func (db *DB) UpdateUserRole(userID string, role models.Role) error {
	const q = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.Exec(q, role, time.Now(), userID)
	return err
}

// --- Session operations ---

// CreateSession inserts a new session.
func (db *DB) CreateSession(s *models.Session) error {
	const q = `INSERT INTO sessions (id, user_id, expires_at, created_at, ip_address, user_agent)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt, s.IPAddress, s.UserAgent)
	return err
}

// GetSession looks up a session by ID and ensures it has not expired.
func (db *DB) GetSession(id string) (*models.Session, error) {
	const q = `SELECT id, user_id, expires_at, created_at, ip_address, user_agent
	           FROM sessions WHERE id = ? AND expires_at > ?`
	s := &models.Session{}
	err := db.conn.QueryRow(q, id, time.Now()).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// DeleteSession removes a session by ID.
func (db *DB) DeleteSession(id string) error {
	_, err := db.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions cleans up sessions that have passed their expiry.
func (db *DB) DeleteExpiredSessions() error {
	_, err := db.conn.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now())
	return err
}

// GetSessionsByUserID returns all active sessions for a user.
func (db *DB) GetSessionsByUserID(userID string) ([]models.Session, error) {
	const q = `SELECT id, user_id, expires_at, created_at, ip_address, user_agent
	           FROM sessions WHERE user_id = ? AND expires_at > ? ORDER BY created_at DESC`
	rows, err := db.conn.Query(q, userID, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
