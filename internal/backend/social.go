package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
)

// CreatorDisplayName resolves a hunt creator's display string.
func (c *Client) CreatorDisplayName(ctx context.Context, token, creatorID string) (string, error) {
	var name string
	err := c.rpc(ctx, token, "get_creator_display_name", map[string]any{"creator_id": creatorID}, &name)
	return name, err
}

func (c *Client) UserDisplayName(ctx context.Context, token, userID string) (string, error) {
	var name string
	err := c.rpc(ctx, token, "get_user_display_name", map[string]any{"user_id": userID}, &name)
	return name, err
}

func (c *Client) CountCompletedHunts(ctx context.Context, token, userID string) (int, error) {
	var count int
	err := c.rpc(ctx, token, "count_completed_hunts", map[string]any{"p_user_id": userID}, &count)
	return count, err
}

type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (c *Client) SearchUsersByEmail(ctx context.Context, token, query string) ([]UserSummary, error) {
	var out []UserSummary
	err := c.rpc(ctx, token, "search_users_by_email", map[string]any{"search_email": query}, &out)
	return out, err
}

// FriendRow is one friendship edge. Accepted is false while the request is
// pending for the invitee.
type FriendRow struct {
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}

// Flatten resolves the edge to the other user's side. The second result is
// true when the request was sent to the viewer, not by them.
func (r FriendRow) Flatten(viewerID string) (breadcrumbs.Friend, bool) {
	f := breadcrumbs.Friend{UserID: r.FriendID, Accepted: r.Accepted}
	if f.UserID == viewerID {
		return breadcrumbs.Friend{UserID: r.UserID, Accepted: r.Accepted}, true
	}
	return f, false
}

// ListFriendships returns every edge that touches the user, accepted or
// pending, in either direction.
func (c *Client) ListFriendships(ctx context.Context, token, userID string) ([]FriendRow, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("or", fmt.Sprintf("(user_id.eq.%s,friend_id.eq.%s)", userID, userID))

	var rows []FriendRow
	err := c.rest(ctx, token, http.MethodGet, "friends", q, nil, &rows)
	return rows, err
}

// AddFriend creates a pending friend request from userID to friendID.
func (c *Client) AddFriend(ctx context.Context, token, userID, friendID string) error {
	return c.rest(ctx, token, http.MethodPost, "friends", nil, []map[string]any{{
		"user_id":   userID,
		"friend_id": friendID,
		"accepted":  false,
	}}, nil)
}

// AcceptFriend marks the pending request from friendID to userID accepted.
func (c *Client) AcceptFriend(ctx context.Context, token, userID, friendID string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+friendID)
	q.Set("friend_id", "eq."+userID)
	return c.rest(ctx, token, http.MethodPatch, "friends", q, map[string]any{"accepted": true}, nil)
}

// DeleteFriendship removes the edge in whichever direction it exists.
func (c *Client) DeleteFriendship(ctx context.Context, token, userID, friendID string) error {
	return c.rpc(ctx, token, "delete_friendship", map[string]any{
		"user_id_1": userID,
		"user_id_2": friendID,
	}, nil)
}
