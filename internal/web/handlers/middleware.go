package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/Edw01/Taller-integro/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserContextKey stores the authenticated user in request context.
const UserContextKey contextKey = "user"

// AuthMiddleware puts the authenticated user in the request context. It
// accepts the session cookie or an Authorization bearer token, so API clients
// can call without a cookie. Failures get a JSON 401 rather than a redirect.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := h.userFromBearer(r); user != nil {
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(h.cfg.Session.CookieName)
		if err != nil || cookie.Value == "" {
			jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}

		user, _, err := h.auth.ValidateSession(cookie.Value)
		if err != nil {
			log.Printf("session validation error: %v", err)
			h.clearSessionCookie(w)
			jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if user == nil {
			h.clearSessionCookie(w)
			jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromBearer resolves an Authorization bearer token to an active user.
// Returns nil when there is no token or it does not check out; the caller
// then falls back to the session cookie.
func (h *Handler) userFromBearer(r *http.Request) *models.User {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil
	}
	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		return nil
	}
	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil || user == nil || !user.Active {
		return nil
	}
	return user
}

// AdminMiddleware requires the authenticated user to have the admin role.
// MUST be used after AuthMiddleware so the user is already in context.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || user == nil || !user.IsAdmin() {
			jsonError(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the authenticated user from request context.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.cfg.Session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
