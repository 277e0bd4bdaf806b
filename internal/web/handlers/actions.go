package handlers

import (
	"net/http"

	"github.com/Edw01/Taller-integro/internal/actions"
)

// SearchActions returns the quick-bar actions visible to the caller,
// optionally filtered by a query string. Works logged out; a valid session
// cookie unlocks the role-gated entries.
// GET /api/actions?q=
func (h *Handler) SearchActions(w http.ResponseWriter, r *http.Request) {
	ctx := actions.SearchContext{}
	if cookie, err := r.Cookie(h.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		if user, _, err := h.auth.ValidateSession(cookie.Value); err == nil && user != nil {
			ctx.LoggedIn = true
			ctx.Role = user.Role
		}
	}

	results := h.actions.Search(r.URL.Query().Get("q"), ctx)
	if results == nil {
		results = []actions.Action{}
	}
	jsonOK(w, http.StatusOK, results)
}
