package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Edw01/Taller-integro/internal/faults"
)

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeFault maps a service error to an HTTP response. Fault kinds carry
// user-facing messages; anything else is a 500 with the detail kept in the
// server log.
func writeFault(w http.ResponseWriter, err error) {
	switch faults.KindOf(err) {
	case faults.KindValidation:
		jsonError(w, err.Error(), http.StatusBadRequest)
	case faults.KindPermission:
		jsonError(w, err.Error(), http.StatusForbidden)
	case faults.KindNotFound:
		jsonError(w, err.Error(), http.StatusNotFound)
	case faults.KindInvalidState, faults.KindDuplicate:
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("internal error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
