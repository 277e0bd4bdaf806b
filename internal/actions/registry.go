package actions

import (
	"strings"

	"github.com/Edw01/Taller-integro/pkg/models"
)

// ActionType categorizes what an action does when executed.
type ActionType string

const (
	TypeNavigation ActionType = "navigation"
	TypeFunction   ActionType = "function"
)

// Visibility controls when an action appears based on auth state and role.
type Visibility int

const (
	VisibleAlways    Visibility = iota // Everyone sees it
	VisibleLoggedOut                   // Only when not logged in
	VisibleLoggedIn                    // Only when logged in
	VisibleRequester                   // Requesters and admins
	VisibleVolunteer                   // Volunteers only
	VisibleAdmin                       // Only admins
)

// Action represents a single executable action available in the quick bar.
type Action struct {
	ID          string     `json:"id"`
	Type        ActionType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	// For navigation actions: the URL to navigate to.
	// For function actions: a client-side function identifier.
	Target     string     `json:"target"`
	Keywords   []string   `json:"keywords"`
	Visibility Visibility `json:"-"` // Not serialized — server-side filtering only
}

// SearchContext provides auth state for filtering actions.
type SearchContext struct {
	LoggedIn bool
	Role     models.Role
}

// Registry holds all available actions and supports filtered search.
type Registry struct {
	actions []Action
}

// New creates a Registry pre-populated with the default coordination actions.
func New() *Registry {
	return &Registry{
		actions: defaultActions(),
	}
}

// Search returns actions matching the query that are visible given the context.
// An empty query returns all visible actions. Matching is case-insensitive substring.
func (r *Registry) Search(query string, ctx SearchContext) []Action {
	q := strings.ToLower(strings.TrimSpace(query))
	var results []Action

	for _, a := range r.actions {
		if !isVisible(a, ctx) {
			continue
		}
		if q == "" || matchesQuery(a, q) {
			results = append(results, a)
		}
	}
	return results
}

func isVisible(a Action, ctx SearchContext) bool {
	switch a.Visibility {
	case VisibleAlways:
		return true
	case VisibleLoggedOut:
		return !ctx.LoggedIn
	case VisibleLoggedIn:
		return ctx.LoggedIn
	case VisibleRequester:
		return ctx.LoggedIn && (ctx.Role == models.RoleRequester || ctx.Role == models.RoleAdmin)
	case VisibleVolunteer:
		return ctx.LoggedIn && ctx.Role == models.RoleVolunteer
	case VisibleAdmin:
		return ctx.LoggedIn && ctx.Role == models.RoleAdmin
	default:
		return true
	}
}

func matchesQuery(a Action, q string) bool {
	if strings.Contains(strings.ToLower(a.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Description), q) {
		return true
	}
	for _, kw := range a.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}

// defaultActions returns the built-in set of coordination actions.
func defaultActions() []Action {
	return []Action{
		// Public navigation — always visible
		{
			ID:          "nav-requests",
			Type:        TypeNavigation,
			Title:       "Help Requests",
			Description: "Browse open help requests",
			Target:      "/requests",
			Keywords:    []string{"requests", "help", "browse", "open", "pending"},
			Visibility:  VisibleAlways,
		},

		// Auth pages — only when logged out
		{
			ID:          "nav-login",
			Type:        TypeNavigation,
			Title:       "Login",
			Description: "Sign in to your account",
			Target:      "/login",
			Keywords:    []string{"login", "sign in", "signin", "account", "auth"},
			Visibility:  VisibleLoggedOut,
		},
		{
			ID:          "nav-signup",
			Type:        TypeNavigation,
			Title:       "Sign Up",
			Description: "Create a requester or volunteer account",
			Target:      "/signup",
			Keywords:    []string{"signup", "sign up", "register", "create account", "volunteer", "requester"},
			Visibility:  VisibleLoggedOut,
		},

		// Requester navigation
		{
			ID:          "nav-beneficiaries",
			Type:        TypeNavigation,
			Title:       "Beneficiaries",
			Description: "Manage the beneficiary roster",
			Target:      "/beneficiaries",
			Keywords:    []string{"beneficiaries", "roster", "elderly", "register", "rut"},
			Visibility:  VisibleRequester,
		},
		{
			ID:          "nav-new-request",
			Type:        TypeNavigation,
			Title:       "New Request",
			Description: "Open a help request for a beneficiary",
			Target:      "/requests/new",
			Keywords:    []string{"new", "create", "request", "help", "open"},
			Visibility:  VisibleRequester,
		},

		// Volunteer navigation
		{
			ID:          "nav-my-applications",
			Type:        TypeNavigation,
			Title:       "My Applications",
			Description: "Track the requests you applied to",
			Target:      "/applications/mine",
			Keywords:    []string{"applications", "mine", "applied", "status"},
			Visibility:  VisibleVolunteer,
		},

		// Admin navigation
		{
			ID:          "nav-reports",
			Type:        TypeNavigation,
			Title:       "Reports",
			Description: "Assignment, demand and volunteer ranking reports",
			Target:      "/reports",
			Keywords:    []string{"reports", "stats", "ranking", "demand", "admin"},
			Visibility:  VisibleAdmin,
		},

		// Function actions — logged in only
		{
			ID:          "fn-logout",
			Type:        TypeFunction,
			Title:       "Logout",
			Description: "Sign out of your account",
			Target:      "logout",
			Keywords:    []string{"logout", "log out", "sign out", "signout", "exit"},
			Visibility:  VisibleLoggedIn,
		},
	}
}
