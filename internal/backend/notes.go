package backend

import (
	"context"
	"strconv"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

// VisibleNote is one row from the server-filtered notes feed. The backend
// has already applied visibility and friendship rules.
type VisibleNote struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Location  string    `json:"location"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

func (n VisibleNote) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: n.Latitude, Longitude: n.Longitude}
}

// Note converts the wire row to the domain type. The feed does not carry
// the visibility tier, so the caller supplies the filter it requested.
func (n VisibleNote) Note(v breadcrumbs.Visibility) breadcrumbs.Note {
	return breadcrumbs.Note{
		ID:         n.ID,
		Title:      n.Title,
		Body:       n.Body,
		Location:   n.Location,
		Coordinate: n.Coordinate(),
		AuthorID:   n.UserID,
		Visibility: v,
		CreatedAt:  n.CreatedAt,
	}
}

func (c *Client) FilteredVisibleNotes(ctx context.Context, token, viewerID string, filter breadcrumbs.Visibility) ([]VisibleNote, error) {
	var out []VisibleNote
	err := c.rpc(ctx, token, "get_filtered_visible_notes", map[string]any{
		"viewer_id":     viewerID,
		"filter_status": filter,
	}, &out)
	return out, err
}

type AddNoteParams struct {
	Title      string
	Body       string
	UserID     string
	Visibility breadcrumbs.Visibility
	Coordinate geo.Coordinate
	Location   string
	IsHuntNote bool
}

// AddNote creates a note and returns its new ID.
func (c *Client) AddNote(ctx context.Context, token string, p AddNoteParams) (int64, error) {
	var id int64
	err := c.rpc(ctx, token, "add_note", map[string]any{
		"in_title":         p.Title,
		"in_body":          p.Body,
		"in_user_id":       p.UserID,
		"in_public_status": p.Visibility,
		"in_latitude":      p.Coordinate.Latitude,
		"in_longitude":     p.Coordinate.Longitude,
		"in_location":      p.Location,
		"is_hunt_note":     p.IsHuntNote,
	}, &id)
	return id, err
}

// MarkNoteAsRead records that the viewer opened the note while in range.
// Safe to repeat: the backend treats it as an upsert.
func (c *Client) MarkNoteAsRead(ctx context.Context, token, userID string, noteID int64) error {
	return c.rpc(ctx, token, "mark_note_as_read", map[string]any{
		"p_user_id": userID,
		"p_note_id": noteID,
	}, nil)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
