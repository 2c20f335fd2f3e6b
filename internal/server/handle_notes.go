package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/notes"
)

// handleListNotes serves the map markers. An optional ?filter= narrows
// the listing to one visibility tier.
func handleListNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := breadcrumbs.VisibilityPublic
		if raw := r.URL.Query().Get("filter"); raw != "" {
			parsed, err := breadcrumbs.ParseVisibility(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "unknown visibility filter")
				return
			}
			filter = parsed
		}

		sess := sessionFrom(r)
		list, err := sess.Notes.List(r.Context(), tokenFrom(r), filter)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleOpenNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "noteID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		sess := sessionFrom(r)
		detail, err := sess.Notes.Open(r.Context(), tokenFrom(r), id)
		if errors.Is(err, notes.ErrUnknownNote) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		if err != nil {
			writeBackendError(w, err)
			return
		}
		result := "in_range"
		if detail.TooFar {
			result = "out_of_range"
		}
		noteOpensTotal.WithLabelValues(result).Inc()
		writeJSON(w, http.StatusOK, detail)
	}
}

type CreateNoteResponse struct {
	ID int64 `json:"id"`
}

func handleCreateNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notes.CreateInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		id, err := sess.Notes.Create(r.Context(), tokenFrom(r), req)
		if errors.Is(err, notes.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateNoteResponse{ID: id})
	}
}
