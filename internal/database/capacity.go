package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

const capacityColumns = `id, creator_id, title, description, help_type, volunteer_cap, beneficiary_cap, status, created_at, updated_at, assigned_at, finalized_at`

func scanCapacityRequest(row interface{ Scan(...interface{}) error }) (*models.CapacityRequest, error) {
	c := &models.CapacityRequest{}
	var assignedAt, finalizedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.HelpType,
		&c.VolunteerCap, &c.BeneficiaryCap, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &assignedAt, &finalizedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if assignedAt.Valid {
		c.AssignedAt = &assignedAt.Time
	}
	if finalizedAt.Valid {
		c.FinalizedAt = &finalizedAt.Time
	}
	return c, nil
}

// CreateCapacityRequest inserts a new capacity-counted request.
func (db *DB) CreateCapacityRequest(c *models.CapacityRequest) error {
	const q = `INSERT INTO capacity_requests (id, creator_id, title, description, help_type, volunteer_cap, beneficiary_cap, status, created_at, updated_at, assigned_at, finalized_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		c.ID, c.CreatorID, c.Title, c.Description, c.HelpType,
		c.VolunteerCap, c.BeneficiaryCap, c.Status,
		c.CreatedAt, c.UpdatedAt, nullTime(c.AssignedAt), nullTime(c.FinalizedAt),
	)
	return err
}

// GetCapacityRequest returns a capacity request by ID.
func (db *DB) GetCapacityRequest(id string) (*models.CapacityRequest, error) {
	q := `SELECT ` + capacityColumns + ` FROM capacity_requests WHERE id = ?`
	return scanCapacityRequest(db.conn.QueryRow(q, id))
}

// ListCapacityRequests returns capacity requests, optionally by status, newest first.
func (db *DB) ListCapacityRequests(status models.RequestStatus) ([]models.CapacityRequest, error) {
	q := `SELECT ` + capacityColumns + ` FROM capacity_requests`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CapacityRequest
	for rows.Next() {
		var c models.CapacityRequest
		var assignedAt, finalizedAt sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.HelpType,
			&c.VolunteerCap, &c.BeneficiaryCap, &c.Status,
			&c.CreatedAt, &c.UpdatedAt, &assignedAt, &finalizedAt,
		); err != nil {
			return nil, err
		}
		if assignedAt.Valid {
			c.AssignedAt = &assignedAt.Time
		}
		if finalizedAt.Valid {
			c.FinalizedAt = &finalizedAt.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountEnrollments counts enrollments of one kind on a capacity request.
func (db *DB) CountEnrollments(requestID string, kind models.EnrollmentKind) (int, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM enrollments WHERE request_id = ? AND kind = ?`,
		requestID, kind,
	).Scan(&n)
	return n, err
}

// ListEnrollments returns the enrollments on a capacity request in join order.
func (db *DB) ListEnrollments(requestID string) ([]models.Enrollment, error) {
	rows, err := db.conn.Query(
		`SELECT id, request_id, kind, subject_id, created_at FROM enrollments WHERE request_id = ? ORDER BY created_at`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Kind, &e.SubjectID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Enroll adds a subject to a capacity request inside one transaction. The cap
// and the request state are re-checked under the transaction, and when the
// enrollment fills the last open cap the request advances to assigned. It
// returns the request as left after the commit.
func (db *DB) Enroll(e *models.Enrollment, now time.Time) (*models.CapacityRequest, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	req, err := scanCapacityRequest(tx.QueryRow(
		`SELECT `+capacityColumns+` FROM capacity_requests WHERE id = ?`, e.RequestID))
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, faults.NotFound("capacity request %s not found", e.RequestID)
	}
	if req.Status == models.RequestFinalized {
		return nil, faults.InvalidState("capacity request %s is finalized", req.ID)
	}

	limit := req.VolunteerCap
	if e.Kind == models.EnrollBeneficiary {
		limit = req.BeneficiaryCap
	}

	var count int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM enrollments WHERE request_id = ? AND kind = ?`,
		e.RequestID, e.Kind,
	).Scan(&count); err != nil {
		return nil, err
	}
	if count >= limit {
		return nil, faults.InvalidState("capacity request %s is full for %s enrollments", req.ID, e.Kind)
	}

	if _, err := tx.Exec(
		`INSERT INTO enrollments (id, request_id, kind, subject_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.Kind, e.SubjectID, e.CreatedAt,
	); err != nil {
		return nil, faults.Duplicate("subject %s is already enrolled on request %s", e.SubjectID, e.RequestID)
	}

	// The request advances once both caps are met.
	if req.Status == models.RequestPending {
		var volunteers, beneficiaries int
		if err := tx.QueryRow(
			`SELECT
			   COUNT(CASE WHEN kind = ? THEN 1 END),
			   COUNT(CASE WHEN kind = ? THEN 1 END)
			 FROM enrollments WHERE request_id = ?`,
			models.EnrollVolunteer, models.EnrollBeneficiary, req.ID,
		).Scan(&volunteers, &beneficiaries); err != nil {
			return nil, err
		}
		if volunteers >= req.VolunteerCap && beneficiaries >= req.BeneficiaryCap {
			if _, err := tx.Exec(
				`UPDATE capacity_requests SET status = ?, assigned_at = ?, updated_at = ? WHERE id = ?`,
				models.RequestAssigned, now, now, req.ID,
			); err != nil {
				return nil, fmt.Errorf("advance request: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return db.GetCapacityRequest(req.ID)
}

// FinalizeCapacityRequest marks an assigned capacity request finalized.
func (db *DB) FinalizeCapacityRequest(id string, at time.Time) error {
	const q = `UPDATE capacity_requests SET status = ?, finalized_at = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := db.conn.Exec(q, models.RequestFinalized, at, at, id, models.RequestAssigned)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return faults.InvalidState("capacity request %s is not assigned", id)
	}
	return nil
}
