package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Edw01/Taller-integro/internal/auth"
	"github.com/Edw01/Taller-integro/pkg/models"
)

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "requester" or "volunteer"
}

// Signup registers a new account.
// POST /api/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(req.Username, req.Email, req.Password, req.Name, req.Phone, models.Role(req.Role))
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrUsernameTaken) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, user)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, err := h.auth.Login(req.Email, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			jsonError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeFault(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   h.cfg.Session.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Logout ends the current session.
// POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		_ = h.auth.Logout(cookie.Value)
	}
	h.clearSessionCookie(w)
	jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the authenticated user.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUserFromContext(r.Context())
	jsonOK(w, http.StatusOK, user)
}

// IssueToken mints a JWT for the authenticated user, for clients that
// cannot hold the session cookie.
// POST /api/token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUserFromContext(r.Context())
	tok, err := h.tokens.GenerateToken(user, time.Duration(h.cfg.JWT.TTLMinutes)*time.Minute)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, map[string]string{"token": tok})
}
