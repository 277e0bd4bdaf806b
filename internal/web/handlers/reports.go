package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// Report defaults mirror the dashboards these were built for: a quarter of
// activity, every request with at least one application, top ten volunteers.
const (
	defaultDemandWindow  = 90 * 24 * time.Hour
	defaultDemandMinApps = 1
	defaultTopLimit      = 10
)

// AssignedReport lists assigned and finalized requests with their people.
// GET /api/reports/assigned
func (h *Handler) AssignedReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.db.AssignedRequestReport()
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, report)
}

// DemandReport aggregates application pressure per request.
// GET /api/reports/demand?days=&min_apps=
func (h *Handler) DemandReport(w http.ResponseWriter, r *http.Request) {
	window := defaultDemandWindow
	if days, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	minApps := defaultDemandMinApps
	if n, err := strconv.Atoi(r.URL.Query().Get("min_apps")); err == nil && n >= 0 {
		minApps = n
	}

	report, err := h.db.RequestDemandReport(time.Now(), window, minApps)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, report)
}

// TopVolunteersReport ranks volunteers by accepted applications.
// GET /api/reports/volunteers?limit=
func (h *Handler) TopVolunteersReport(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}

	report, err := h.db.TopVolunteersReport(limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, report)
}

// DashboardReport returns the headline counters.
// GET /api/reports/dashboard
func (h *Handler) DashboardReport(w http.ResponseWriter, r *http.Request) {
	counters, err := h.db.Dashboard()
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, counters)
}
