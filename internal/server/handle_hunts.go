package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
)

func huntID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "huntID"), 10, 64)
}

func handleActiveHunts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		list, err := sess.Controller.ActiveHunts(r.Context(), tokenFrom(r))
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// handleSelectHunt loads the caller's current clue for a hunt. If a newer
// selection lands first, this response carries the newer state.
func handleSelectHunt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := huntID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hunt id")
			return
		}

		sess := sessionFrom(r)
		snap, err := sess.Controller.Select(r.Context(), tokenFrom(r), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleHuntState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Controller.Snapshot())
	}
}

func handlePickUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		snap, err := sess.Controller.PickUp(r.Context(), tokenFrom(r))
		switch {
		case errors.Is(err, hunt.ErrPickUpInFlight):
			writeError(w, http.StatusConflict, "pick-up already in progress")
		case errors.Is(err, hunt.ErrNoActiveClue):
			writeError(w, http.StatusConflict, "no clue loaded")
		case errors.Is(err, hunt.ErrNoFix):
			writeError(w, http.StatusPreconditionFailed, "current position unknown")
		case errors.Is(err, hunt.ErrOutOfRange):
			writeError(w, http.StatusPreconditionFailed, "too far from the crumb")
		case err != nil:
			writeBackendError(w, err)
		default:
			crumbsPickedTotal.Inc()
			writeJSON(w, http.StatusOK, snap)
		}
	}
}

func handleAcknowledgeCompletion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessionFrom(r).Controller.Acknowledge()
		if errors.Is(err, hunt.ErrNotCompleted) {
			writeError(w, http.StatusConflict, "no completed hunt to acknowledge")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleAvailableHunts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		list, err := sess.Browser.Available(r.Context(), tokenFrom(r))
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleHuntDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := huntID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hunt id")
			return
		}

		sess := sessionFrom(r)
		detail, err := sess.Browser.Detail(r.Context(), tokenFrom(r), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

type AcceptResponse struct {
	Started bool `json:"started"`
}

func handleAcceptHunt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := huntID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hunt id")
			return
		}

		sess := sessionFrom(r)
		started, err := sess.Browser.Accept(r.Context(), tokenFrom(r), id)
		if errors.Is(err, hunt.ErrOwnHunt) {
			writeError(w, http.StatusForbidden, "cannot accept your own hunt")
			return
		}
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AcceptResponse{Started: started})
	}
}

func handleCompletedHunts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		list, err := sess.Browser.Completed(r.Context(), tokenFrom(r))
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCompletedHuntNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := huntID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hunt id")
			return
		}

		sess := sessionFrom(r)
		clues, err := sess.Browser.CompletedNotes(r.Context(), tokenFrom(r), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clues)
	}
}
