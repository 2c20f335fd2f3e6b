package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
)

type DetailsRequest struct {
	Title     string `json:"title"`
	ClueCount int    `json:"clueCount"`
}

type StepRequest struct {
	Step int `json:"step"`
}

type SubmitResponse struct {
	HuntID int64 `json:"huntId"`
}

func writeWizardError(w http.ResponseWriter, err error) {
	var missing *hunt.MissingClueError
	var failed *hunt.ClueSubmitError
	switch {
	case errors.Is(err, hunt.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": missing.Error(),
			"slot":  missing.Slot,
		})
	case errors.As(err, &failed):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": failed.Error(),
			"slot":  failed.Slot,
		})
	default:
		writeBackendError(w, err)
	}
}

func handleWizardResume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := sessionFrom(r).Wizard.Resume(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleWizardDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DetailsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := sessionFrom(r).Wizard.SetDetails(r.Context(), req.Title, req.ClueCount)
		if err != nil {
			writeWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleWizardClue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid slot")
			return
		}
		var req hunt.ClueInput
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := sessionFrom(r).Wizard.SetClue(r.Context(), slot, req)
		if err != nil {
			writeWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleWizardBack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := sessionFrom(r).Wizard.Back(r.Context())
		if err != nil {
			writeWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleWizardGoTo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StepRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := sessionFrom(r).Wizard.GoTo(r.Context(), req.Step)
		if err != nil {
			writeWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleWizardSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionFrom(r).Wizard.Submit(r.Context(), tokenFrom(r))
		if err != nil {
			writeWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, SubmitResponse{HuntID: id})
	}
}

func handleWizardDiscard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessionFrom(r).Wizard.Discard(r.Context()); err != nil {
			writeBackendError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
