package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Edw01/Taller-integro/pkg/models"
)

type sendMessageReq struct {
	Content string `json:"content"`
}

// SendMessage posts a message on a request's conversation.
// POST /api/requests/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	var req sendMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.chat.Send(r.Context(), actor, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusCreated, m)
}

// MessageHistory returns a request's conversation.
// GET /api/requests/{id}/messages
func (h *Handler) MessageHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	history, err := h.chat.History(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	jsonOK(w, http.StatusOK, history)
}

// UnreadCount reports how many messages the actor has not read on a request.
// GET /api/requests/{id}/messages/unread
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	n, err := h.chat.UnreadCount(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkMessageRead marks one message as read.
// POST /api/messages/{id}/read
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetUserFromContext(r.Context())

	if err := h.chat.MarkRead(actor, chi.URLParam(r, "id")); err != nil {
		writeFault(w, err)
		return
	}
	jsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
}
