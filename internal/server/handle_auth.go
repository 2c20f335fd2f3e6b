package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func sessionResponse(s backend.Session) SessionResponse {
	return SessionResponse{
		Token:       s.AccessToken,
		UserID:      s.User.ID,
		Email:       s.User.Email,
		DisplayName: s.User.UserMetadata.DisplayName,
	}
}

func handleRegister(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.DisplayName = strings.TrimSpace(req.DisplayName)
		if req.Email == "" || req.Password == "" || req.DisplayName == "" {
			writeError(w, http.StatusBadRequest, "email, password and displayName are required")
			return
		}

		sess, err := b.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse(sess))
	}
}

func handleLogin(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		sess, err := b.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			var be *backend.Error
			if errors.As(err, &be) && be.Status == http.StatusBadRequest {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(sess))
	}
}

// handleLogout invalidates the token with the provider and drops the
// local session state.
func handleLogout(b *backend.Client, sessions *Sessions, cache *tokenCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		token := tokenFrom(r)

		if err := b.SignOut(r.Context(), token); err != nil {
			writeBackendError(w, err)
			return
		}
		cache.drop(token)
		sessions.Release(sess.User.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

type MeResponse struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	CompletedHunts int    `json:"completedHunts"`
}

func handleMe(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		count, err := b.CountCompletedHunts(r.Context(), tokenFrom(r), sess.User.ID)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MeResponse{
			UserID:         sess.User.ID,
			Email:          sess.User.Email,
			DisplayName:    sess.User.DisplayName,
			CompletedHunts: count,
		})
	}
}
