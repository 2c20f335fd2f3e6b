package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
)

// FriendEntry is one edge of the caller's friend graph, flattened to the
// other user's side.
type FriendEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Accepted    bool   `json:"accepted"`
	Incoming    bool   `json:"incoming"`
}

func handleListFriends(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		token := tokenFrom(r)

		rows, err := b.ListFriendships(r.Context(), token, sess.User.ID)
		if err != nil {
			writeBackendError(w, err)
			return
		}

		out := make([]FriendEntry, 0, len(rows))
		for _, row := range rows {
			friend, incoming := row.Flatten(sess.User.ID)
			friend.DisplayName, err = b.UserDisplayName(r.Context(), token, friend.UserID)
			if err != nil || friend.DisplayName == "" {
				friend.DisplayName = "Unknown"
			}
			out = append(out, FriendEntry{
				UserID:      friend.UserID,
				DisplayName: friend.DisplayName,
				Accepted:    friend.Accepted,
				Incoming:    incoming,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleSearchUsers(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeError(w, http.StatusBadRequest, "q query parameter required")
			return
		}

		users, err := b.SearchUsersByEmail(r.Context(), tokenFrom(r), query)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

type FriendRequest struct {
	FriendID string `json:"friendId"`
}

func handleAddFriend(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FriendRequest
		if err := readJSON(r, &req); err != nil || req.FriendID == "" {
			writeError(w, http.StatusBadRequest, "friendId is required")
			return
		}
		sess := sessionFrom(r)
		if req.FriendID == sess.User.ID {
			writeError(w, http.StatusBadRequest, "cannot befriend yourself")
			return
		}

		if err := b.AddFriend(r.Context(), tokenFrom(r), sess.User.ID, req.FriendID); err != nil {
			writeBackendError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleAcceptFriend confirms a pending request sent by {friendID}.
func handleAcceptFriend(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friendID := chi.URLParam(r, "friendID")
		sess := sessionFrom(r)

		if err := b.AcceptFriend(r.Context(), tokenFrom(r), sess.User.ID, friendID); err != nil {
			writeBackendError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRemoveFriend(b *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friendID := chi.URLParam(r, "friendID")
		sess := sessionFrom(r)

		if err := b.DeleteFriendship(r.Context(), tokenFrom(r), sess.User.ID, friendID); err != nil {
			writeBackendError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
