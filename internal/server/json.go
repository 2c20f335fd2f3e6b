package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBackendError translates remote-service failures: client errors pass
// through with the provider's message, everything else is a bad gateway.
func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var be *backend.Error
	if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
		writeError(w, be.Status, be.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "remote service error")
}
