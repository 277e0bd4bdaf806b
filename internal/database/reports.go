package database

import (
	"database/sql"
	"time"

	"github.com/Edw01/Taller-integro/pkg/models"
)

// AssignedRequestDetail is one row of the assignment report: a request joined
// with its beneficiary and assigned volunteer.
type AssignedRequestDetail struct {
	RequestID       string          `json:"request_id"`
	Title           string          `json:"title"`
	Priority        models.Priority `json:"priority"`
	Status          string          `json:"status"`
	BeneficiaryName string          `json:"beneficiary_name"`
	BeneficiaryRUT  string          `json:"beneficiary_rut"`
	VolunteerName   string          `json:"volunteer_name"`
	VolunteerEmail  string          `json:"volunteer_email"`
	AssignedAt      *time.Time      `json:"assigned_at,omitempty"`
}

// AssignedRequestReport joins assigned and finalized requests with their
// beneficiaries and volunteers, most urgent first, newest within priority.
func (db *DB) AssignedRequestReport() ([]AssignedRequestDetail, error) {
	const q = `
	SELECT r.id, r.title, r.priority, r.status,
	       b.first_names || ' ' || b.last_names, b.rut,
	       u.name, u.email, r.assigned_at
	FROM requests r
	JOIN beneficiaries b ON b.id = r.beneficiary_id
	JOIN users u ON u.id = r.volunteer_id
	WHERE r.status IN ('assigned', 'finalized')
	ORDER BY CASE r.priority
	         WHEN 'urgent' THEN 0
	         WHEN 'high'   THEN 1
	         WHEN 'medium' THEN 2
	         ELSE 3 END,
	         r.assigned_at DESC`

	rows, err := db.conn.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedRequestDetail
	for rows.Next() {
		var d AssignedRequestDetail
		var assignedAt sql.NullTime
		if err := rows.Scan(
			&d.RequestID, &d.Title, &d.Priority, &d.Status,
			&d.BeneficiaryName, &d.BeneficiaryRUT,
			&d.VolunteerName, &d.VolunteerEmail, &assignedAt,
		); err != nil {
			return nil, err
		}
		if assignedAt.Valid {
			d.AssignedAt = &assignedAt.Time
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RequestDemand is one row of the demand report: application pressure on a
// single request.
type RequestDemand struct {
	RequestID    string          `json:"request_id"`
	Title        string          `json:"title"`
	Priority     models.Priority `json:"priority"`
	Status       string          `json:"status"`
	Applications int             `json:"applications"`
	Pending      int             `json:"pending"`
	Rejected     int             `json:"rejected"`
}

// RequestDemandReport aggregates applications per request created inside the
// window ending at now, keeping only requests that drew at least minApps
// applications. The original dashboards used a 90-day window and a minimum
// of one.
func (db *DB) RequestDemandReport(now time.Time, window time.Duration, minApps int) ([]RequestDemand, error) {
	const q = `
	SELECT r.id, r.title, r.priority, r.status,
	       COUNT(a.id),
	       SUM(CASE WHEN a.status = 'pending'  THEN 1 ELSE 0 END),
	       SUM(CASE WHEN a.status = 'rejected' THEN 1 ELSE 0 END)
	FROM requests r
	LEFT JOIN applications a ON a.request_id = r.id
	WHERE r.created_at >= ?
	GROUP BY r.id, r.title, r.priority, r.status
	HAVING COUNT(a.id) >= ?
	ORDER BY COUNT(a.id) DESC, r.created_at DESC`

	rows, err := db.conn.Query(q, now.Add(-window), minApps)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RequestDemand
	for rows.Next() {
		var d RequestDemand
		if err := rows.Scan(&d.RequestID, &d.Title, &d.Priority, &d.Status,
			&d.Applications, &d.Pending, &d.Rejected); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// VolunteerStanding is one row of the volunteer ranking.
type VolunteerStanding struct {
	VolunteerID string `json:"volunteer_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Accepted    int    `json:"accepted"`
	Finalized   int    `json:"finalized"`
}

// TopVolunteersReport ranks volunteers by accepted applications, breaking
// ties by finalized requests. Volunteers with no accepted applications are
// left out.
func (db *DB) TopVolunteersReport(limit int) ([]VolunteerStanding, error) {
	const q = `
	SELECT u.id, u.name, u.email,
	       COUNT(a.id),
	       SUM(CASE WHEN r.status = 'finalized' THEN 1 ELSE 0 END)
	FROM users u
	JOIN applications a ON a.volunteer_id = u.id AND a.status = 'accepted'
	JOIN requests r ON r.id = a.request_id
	GROUP BY u.id, u.name, u.email
	ORDER BY COUNT(a.id) DESC,
	         SUM(CASE WHEN r.status = 'finalized' THEN 1 ELSE 0 END) DESC,
	         u.name
	LIMIT ?`

	rows, err := db.conn.Query(q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VolunteerStanding
	for rows.Next() {
		var v VolunteerStanding
		if err := rows.Scan(&v.VolunteerID, &v.Name, &v.Email, &v.Accepted, &v.Finalized); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DashboardCounters holds the headline numbers for the landing view.
type DashboardCounters struct {
	PendingRequests     int `json:"pending_requests"`
	AssignedRequests    int `json:"assigned_requests"`
	FinalizedRequests   int `json:"finalized_requests"`
	PendingApplications int `json:"pending_applications"`
	ActiveBeneficiaries int `json:"active_beneficiaries"`
	ActiveVolunteers    int `json:"active_volunteers"`
}

// Dashboard returns the headline counters.
func (db *DB) Dashboard() (*DashboardCounters, error) {
	const q = `
	SELECT
	  (SELECT COUNT(*) FROM requests WHERE status = 'pending'),
	  (SELECT COUNT(*) FROM requests WHERE status = 'assigned'),
	  (SELECT COUNT(*) FROM requests WHERE status = 'finalized'),
	  (SELECT COUNT(*) FROM applications WHERE status = 'pending'),
	  (SELECT COUNT(*) FROM beneficiaries WHERE active = 1),
	  (SELECT COUNT(*) FROM users WHERE role = 'volunteer' AND active = 1)`

	c := &DashboardCounters{}
	err := db.conn.QueryRow(q).Scan(
		&c.PendingRequests, &c.AssignedRequests, &c.FinalizedRequests,
		&c.PendingApplications, &c.ActiveBeneficiaries, &c.ActiveVolunteers,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
