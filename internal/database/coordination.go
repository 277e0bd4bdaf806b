package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

// AutoRejectComment is stored on applications rejected as a side effect of
// accepting a competitor.
const AutoRejectComment = "another volunteer was selected"

// --- Beneficiary operations ---

const beneficiaryColumns = `id, rut, first_names, last_names, birth_date, address, phone, emergency_contact, medical_notes, active, created_at, updated_at`

func scanBeneficiary(row interface{ Scan(...interface{}) error }) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	err := row.Scan(
		&b.ID, &b.RUT, &b.FirstNames, &b.LastNames, &b.BirthDate,
		&b.Address, &b.Phone, &b.EmergencyContact, &b.MedicalNotes,
		&b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// CreateBeneficiary inserts a new beneficiary.
func (db *DB) CreateBeneficiary(b *models.Beneficiary) error {
	const q = `INSERT INTO beneficiaries (id, rut, first_names, last_names, birth_date, address, phone, emergency_contact, medical_notes, active, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		b.ID, b.RUT, b.FirstNames, b.LastNames, b.BirthDate,
		b.Address, b.Phone, b.EmergencyContact, b.MedicalNotes,
		b.Active, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// GetBeneficiary returns a beneficiary by ID.
func (db *DB) GetBeneficiary(id string) (*models.Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE id = ?`
	return scanBeneficiary(db.conn.QueryRow(q, id))
}

// GetBeneficiaryByRUT returns a beneficiary by normalized RUT.
func (db *DB) GetBeneficiaryByRUT(rut string) (*models.Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE rut = ?`
	return scanBeneficiary(db.conn.QueryRow(q, rut))
}

// ListBeneficiaries returns beneficiaries, active-only when activeOnly is set,
// ordered by last names like the original registry listing.
func (db *DB) ListBeneficiaries(activeOnly bool) ([]models.Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY last_names, first_names`

	rows, err := db.conn.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Beneficiary
	for rows.Next() {
		var b models.Beneficiary
		if err := rows.Scan(
			&b.ID, &b.RUT, &b.FirstNames, &b.LastNames, &b.BirthDate,
			&b.Address, &b.Phone, &b.EmergencyContact, &b.MedicalNotes,
			&b.Active, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBeneficiary updates contact and note fields plus the active flag.
func (db *DB) UpdateBeneficiary(b *models.Beneficiary) error {
	const q = `UPDATE beneficiaries SET address = ?, phone = ?, emergency_contact = ?,
	           medical_notes = ?, active = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.Exec(q,
		b.Address, b.Phone, b.EmergencyContact, b.MedicalNotes,
		b.Active, time.Now(), b.ID,
	)
	return err
}

// --- Request operations ---

const requestColumns = `id, creator_id, beneficiary_id, title, description, help_type, priority, status, deadline, volunteer_id, created_at, updated_at, assigned_at, finalized_at, final_comments`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.Request, error) {
	r := &models.Request{}
	var deadline, assignedAt, finalizedAt sql.NullTime
	var volunteerID sql.NullString
	err := row.Scan(
		&r.ID, &r.CreatorID, &r.BeneficiaryID, &r.Title, &r.Description,
		&r.HelpType, &r.Priority, &r.Status, &deadline, &volunteerID,
		&r.CreatedAt, &r.UpdatedAt, &assignedAt, &finalizedAt, &r.FinalComments,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		r.Deadline = &deadline.Time
	}
	if assignedAt.Valid {
		r.AssignedAt = &assignedAt.Time
	}
	if finalizedAt.Valid {
		r.FinalizedAt = &finalizedAt.Time
	}
	if volunteerID.Valid {
		r.VolunteerID = volunteerID.String
	}
	return r, nil
}

// CreateRequest inserts a new request.
func (db *DB) CreateRequest(r *models.Request) error {
	const q = `INSERT INTO requests (id, creator_id, beneficiary_id, title, description, help_type, priority, status, deadline, volunteer_id, created_at, updated_at, assigned_at, finalized_at, final_comments)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		r.ID, r.CreatorID, r.BeneficiaryID, r.Title, r.Description,
		r.HelpType, r.Priority, r.Status, nullTime(r.Deadline), nullString(r.VolunteerID),
		r.CreatedAt, r.UpdatedAt, nullTime(r.AssignedAt), nullTime(r.FinalizedAt), r.FinalComments,
	)
	return err
}

// GetRequest returns a request by ID.
func (db *DB) GetRequest(id string) (*models.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	return scanRequest(db.conn.QueryRow(q, id))
}

// RequestFilter narrows ListRequests. Zero values mean "no filter".
type RequestFilter struct {
	Status      models.RequestStatus
	Priority    models.Priority
	CreatorID   string
	VolunteerID string
	Search      string // matched against title, description and help type
}

// ListRequests returns requests matching the filter, newest first.
func (db *DB) ListRequests(f RequestFilter) ([]models.Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests WHERE 1=1`
	var args []interface{}

	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		q += ` AND priority = ?`
		args = append(args, string(f.Priority))
	}
	if f.CreatorID != "" {
		q += ` AND creator_id = ?`
		args = append(args, f.CreatorID)
	}
	if f.VolunteerID != "" {
		q += ` AND volunteer_id = ?`
		args = append(args, f.VolunteerID)
	}
	if f.Search != "" {
		q += ` AND (title LIKE ? OR description LIKE ? OR help_type LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		r, err := scanRequestRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequestRows(rows *sql.Rows) (*models.Request, error) {
	r := &models.Request{}
	var deadline, assignedAt, finalizedAt sql.NullTime
	var volunteerID sql.NullString
	if err := rows.Scan(
		&r.ID, &r.CreatorID, &r.BeneficiaryID, &r.Title, &r.Description,
		&r.HelpType, &r.Priority, &r.Status, &deadline, &volunteerID,
		&r.CreatedAt, &r.UpdatedAt, &assignedAt, &finalizedAt, &r.FinalComments,
	); err != nil {
		return nil, err
	}
	if deadline.Valid {
		r.Deadline = &deadline.Time
	}
	if assignedAt.Valid {
		r.AssignedAt = &assignedAt.Time
	}
	if finalizedAt.Valid {
		r.FinalizedAt = &finalizedAt.Time
	}
	if volunteerID.Valid {
		r.VolunteerID = volunteerID.String
	}
	return r, nil
}

// UpdateRequestContent updates the editable fields of a pending request.
func (db *DB) UpdateRequestContent(r *models.Request) error {
	const q = `UPDATE requests SET title = ?, description = ?, help_type = ?, priority = ?,
	           deadline = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.Exec(q, r.Title, r.Description, r.HelpType, r.Priority,
		nullTime(r.Deadline), time.Now(), r.ID)
	return err
}

// AssignRequest marks a request assigned to a volunteer. The status guard
// lives in the WHERE clause so a lost race surfaces as zero rows affected.
func (db *DB) AssignRequest(requestID, volunteerID string, at time.Time) error {
	const q = `UPDATE requests SET status = ?, volunteer_id = ?, assigned_at = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := db.conn.Exec(q, models.RequestAssigned, volunteerID, at, at, requestID, models.RequestPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return faults.InvalidState("request %s is not pending", requestID)
	}
	return nil
}

// FinalizeRequest marks an assigned request finalized.
func (db *DB) FinalizeRequest(requestID, comments string, at time.Time) error {
	const q = `UPDATE requests SET status = ?, finalized_at = ?, final_comments = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := db.conn.Exec(q, models.RequestFinalized, at, comments, at, requestID, models.RequestAssigned)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return faults.InvalidState("request %s is not assigned", requestID)
	}
	return nil
}

// ResetRequest returns a request to pending, clearing the assignment and
// finalization marks.
func (db *DB) ResetRequest(requestID string, at time.Time) error {
	const q = `UPDATE requests SET status = ?, volunteer_id = NULL, assigned_at = NULL,
	           finalized_at = NULL, final_comments = '', updated_at = ? WHERE id = ?`
	_, err := db.conn.Exec(q, models.RequestPending, at, requestID)
	return err
}

// DeleteRequest removes a request; applications and messages cascade.
func (db *DB) DeleteRequest(id string) error {
	_, err := db.conn.Exec(`DELETE FROM requests WHERE id = ?`, id)
	return err
}

// --- Application operations ---

const applicationColumns = `id, request_id, volunteer_id, message, status, submitted_at, responded_at, response_comment`

func scanApplication(row interface{ Scan(...interface{}) error }) (*models.Application, error) {
	a := &models.Application{}
	var respondedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.RequestID, &a.VolunteerID, &a.Message, &a.Status,
		&a.SubmittedAt, &respondedAt, &a.ResponseComment,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		a.RespondedAt = &respondedAt.Time
	}
	return a, nil
}

// CreateApplication inserts a new application.
func (db *DB) CreateApplication(a *models.Application) error {
	const q = `INSERT INTO applications (id, request_id, volunteer_id, message, status, submitted_at, responded_at, response_comment)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		a.ID, a.RequestID, a.VolunteerID, a.Message, a.Status,
		a.SubmittedAt, nullTime(a.RespondedAt), a.ResponseComment,
	)
	return err
}

// GetApplication returns an application by ID.
func (db *DB) GetApplication(id string) (*models.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	return scanApplication(db.conn.QueryRow(q, id))
}

// GetApplicationByVolunteerAndRequest returns the application a volunteer
// made to a request, or nil.
func (db *DB) GetApplicationByVolunteerAndRequest(volunteerID, requestID string) (*models.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE volunteer_id = ? AND request_id = ?`
	return scanApplication(db.conn.QueryRow(q, volunteerID, requestID))
}

// ListApplicationsByRequest returns all applications for a request, newest first.
func (db *DB) ListApplicationsByRequest(requestID string) ([]models.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE request_id = ? ORDER BY submitted_at DESC`
	return db.queryApplications(q, requestID)
}

// ListApplicationsByVolunteer returns all applications by a volunteer, newest first.
func (db *DB) ListApplicationsByVolunteer(volunteerID string) ([]models.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE volunteer_id = ? ORDER BY submitted_at DESC`
	return db.queryApplications(q, volunteerID)
}

func (db *DB) queryApplications(query string, args ...interface{}) ([]models.Application, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		var a models.Application
		var respondedAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.RequestID, &a.VolunteerID, &a.Message, &a.Status,
			&a.SubmittedAt, &respondedAt, &a.ResponseComment,
		); err != nil {
			return nil, err
		}
		if respondedAt.Valid {
			a.RespondedAt = &respondedAt.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RejectApplication marks a single pending application rejected.
func (db *DB) RejectApplication(id, comment string, at time.Time) error {
	const q = `UPDATE applications SET status = ?, responded_at = ?, response_comment = ?
	           WHERE id = ? AND status = ?`
	res, err := db.conn.Exec(q, models.ApplicationRejected, at, comment, id, models.ApplicationPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return faults.InvalidState("application %s is not pending", id)
	}
	return nil
}

// AcceptApplication runs the match as one transaction: the application is
// accepted, the request is assigned to its volunteer, and every competing
// pending application is rejected with AutoRejectComment. State is re-checked
// inside the transaction so a concurrent accept on the same request fails
// instead of double-assigning. Either all three effects commit or none do.
func (db *DB) AcceptApplication(applicationID, comment string, at time.Time) (*models.Application, *models.Request, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	app, err := scanApplication(tx.QueryRow(
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, applicationID))
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, faults.NotFound("application %s not found", applicationID)
	}
	if app.Status != models.ApplicationPending {
		return nil, nil, faults.InvalidState("application %s is already %s", applicationID, app.Status)
	}

	req, err := scanRequest(tx.QueryRow(
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, app.RequestID))
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, faults.NotFound("request %s not found", app.RequestID)
	}
	if req.Status != models.RequestPending {
		return nil, nil, faults.InvalidState("request %s is already %s", req.ID, req.Status)
	}

	if _, err := tx.Exec(
		`UPDATE applications SET status = ?, responded_at = ?, response_comment = ? WHERE id = ?`,
		models.ApplicationAccepted, at, comment, app.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("accept application: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE requests SET status = ?, volunteer_id = ?, assigned_at = ?, updated_at = ? WHERE id = ?`,
		models.RequestAssigned, app.VolunteerID, at, at, req.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("assign request: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE applications SET status = ?, responded_at = ?, response_comment = ?
		 WHERE request_id = ? AND status = ? AND id != ?`,
		models.ApplicationRejected, at, AutoRejectComment,
		req.ID, models.ApplicationPending, app.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("reject competitors: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	accepted, err := db.GetApplication(app.ID)
	if err != nil {
		return nil, nil, err
	}
	assigned, err := db.GetRequest(req.ID)
	if err != nil {
		return nil, nil, err
	}
	return accepted, assigned, nil
}

// --- Message operations ---

const messageColumns = `id, request_id, sender_id, content, sent_at, read, read_at`

// CreateMessage inserts a new chat message.
func (db *DB) CreateMessage(m *models.Message) error {
	const q = `INSERT INTO messages (id, request_id, sender_id, content, sent_at, read, read_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q, m.ID, m.RequestID, m.SenderID, m.Content, m.SentAt, m.Read, nullTime(m.ReadAt))
	return err
}

// GetMessage returns a message by ID.
func (db *DB) GetMessage(id string) (*models.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	m := &models.Message{}
	var readAt sql.NullTime
	err := db.conn.QueryRow(q, id).Scan(
		&m.ID, &m.RequestID, &m.SenderID, &m.Content, &m.SentAt, &m.Read, &readAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return m, nil
}

// ListMessagesByRequest returns a request's conversation in send order.
func (db *DB) ListMessagesByRequest(requestID string) ([]models.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages WHERE request_id = ? ORDER BY sent_at`
	rows, err := db.conn.Query(q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.RequestID, &m.SenderID, &m.Content, &m.SentAt, &m.Read, &readAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkMessageRead sets the read flag once; already-read messages are left alone.
func (db *DB) MarkMessageRead(id string, at time.Time) error {
	const q = `UPDATE messages SET read = 1, read_at = ? WHERE id = ? AND read = 0`
	_, err := db.conn.Exec(q, at, id)
	return err
}

// CountUnreadMessages counts unread messages on a request not sent by userID.
func (db *DB) CountUnreadMessages(requestID, userID string) (int, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE request_id = ? AND sender_id != ? AND read = 0`,
		requestID, userID,
	).Scan(&n)
	return n, err
}

// --- helpers ---

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
