package backend

import (
	"context"
	"net/url"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

// ActiveHunt is one hunt the user has accepted but not completed.
type ActiveHunt struct {
	HuntID      int64     `json:"hunt_id"`
	HuntTitle   string    `json:"hunt_title"`
	CreatorID   string    `json:"creator_id"`
	AcceptedAt  time.Time `json:"accepted_at"`
	CurrentNote int       `json:"current_note"`
	TotalNotes  int       `json:"total_notes"`
}

// AvailableHunt is a hunt the viewer could start.
type AvailableHunt struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Hunt converts the listing row to the domain type.
func (h AvailableHunt) Hunt() breadcrumbs.Hunt {
	return breadcrumbs.Hunt{
		ID:        h.ID,
		Title:     h.Title,
		CreatorID: h.CreatedBy,
		CreatedAt: h.CreatedAt,
	}
}

// CompletedHunt is a hunt the viewer has finished.
type CompletedHunt struct {
	HuntID      int64     `json:"hunt_id"`
	Title       string    `json:"title"`
	CreatedBy   string    `json:"created_by"`
	AcceptedAt  time.Time `json:"accepted_at"`
	CompletedAt time.Time `json:"completed_at"`
	Visibility  string    `json:"visibility"`
}

type huntNoteRow struct {
	NoteID     int64   `json:"note_id"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Location   string  `json:"location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	TotalNotes int     `json:"total_notes"`
	HuntTitle  string  `json:"hunt_title"`
}

func (r huntNoteRow) clue(huntID int64, order int) breadcrumbs.Clue {
	return breadcrumbs.Clue{
		NoteID:     r.NoteID,
		HuntID:     huntID,
		Order:      order,
		TotalNotes: r.TotalNotes,
		Title:      r.Title,
		Body:       r.Body,
		Location:   r.Location,
		Coordinate: geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		HuntTitle:  r.HuntTitle,
	}
}

func (c *Client) UserActiveHunts(ctx context.Context, token, userID string) ([]ActiveHunt, error) {
	var out []ActiveHunt
	err := c.rpc(ctx, token, "get_user_active_hunts", map[string]any{"p_user_id": userID}, &out)
	return out, err
}

// HuntProgress reads the participant's current note order for a hunt.
func (c *Client) HuntProgress(ctx context.Context, token, userID string, huntID int64) (breadcrumbs.HuntProgress, error) {
	q := url.Values{}
	q.Set("select", "current_note")
	q.Set("user_id", "eq."+userID)
	q.Set("hunt_id", "eq."+itoa(huntID))

	var rows []struct {
		CurrentNote int `json:"current_note"`
	}
	if err := c.rest(ctx, token, "GET", "user_hunt_progress", q, nil, &rows); err != nil {
		return breadcrumbs.HuntProgress{}, err
	}
	if len(rows) == 0 {
		return breadcrumbs.HuntProgress{}, ErrNotFound
	}
	return breadcrumbs.HuntProgress{
		UserID:           userID,
		HuntID:           huntID,
		CurrentNoteOrder: rows[0].CurrentNote,
	}, nil
}

// CurrentHuntNote loads the clue content at the given order position.
func (c *Client) CurrentHuntNote(ctx context.Context, token string, huntID int64, order int) (breadcrumbs.Clue, error) {
	var rows []huntNoteRow
	err := c.rpc(ctx, token, "get_current_hunt_note", map[string]any{
		"hunt_id_param":    huntID,
		"note_order_param": order,
	}, &rows)
	if err != nil {
		return breadcrumbs.Clue{}, err
	}
	if len(rows) == 0 {
		return breadcrumbs.Clue{}, ErrNotFound
	}
	return rows[0].clue(huntID, order), nil
}

// PickUpCrumb claims the current clue. Returns true when that claim
// completed the hunt.
func (c *Client) PickUpCrumb(ctx context.Context, token, userID string, huntID int64) (bool, error) {
	var completed bool
	err := c.rpc(ctx, token, "pick_up_crumb", map[string]any{
		"p_user_id": userID,
		"p_hunt_id": huntID,
	}, &completed)
	return completed, err
}

func (c *Client) AvailableHunts(ctx context.Context, token, viewerID string) ([]AvailableHunt, error) {
	var out []AvailableHunt
	err := c.rpc(ctx, token, "get_active_hunts", map[string]any{"viewer_id": viewerID}, &out)
	return out, err
}

// FirstCrumb loads a hunt's first clue for the pre-acceptance preview.
func (c *Client) FirstCrumb(ctx context.Context, token string, huntID int64) (breadcrumbs.Clue, error) {
	var rows []huntNoteRow
	err := c.rpc(ctx, token, "get_first_crumb", map[string]any{"hunt_id_param": huntID}, &rows)
	if err != nil {
		return breadcrumbs.Clue{}, err
	}
	if len(rows) == 0 {
		return breadcrumbs.Clue{}, ErrNotFound
	}
	return rows[0].clue(huntID, 1), nil
}

// StartHunt accepts a hunt. A false result means the hunt was already
// started, not an error.
func (c *Client) StartHunt(ctx context.Context, token, userID string, huntID int64) (bool, error) {
	var started bool
	err := c.rpc(ctx, token, "start_hunt", map[string]any{
		"p_user_id": userID,
		"p_hunt_id": huntID,
	}, &started)
	return started, err
}

func (c *Client) CompletedHunts(ctx context.Context, token, viewerID string) ([]CompletedHunt, error) {
	var out []CompletedHunt
	err := c.rpc(ctx, token, "get_completed_hunts", map[string]any{"viewer_id": viewerID}, &out)
	return out, err
}

// HuntNotes returns the full ordered clue list for completed-hunt review.
func (c *Client) HuntNotes(ctx context.Context, token string, huntID int64) ([]breadcrumbs.Clue, error) {
	var rows []struct {
		HuntID       int64   `json:"hunt_id"`
		NoteID       int64   `json:"note_id"`
		NoteOrder    int     `json:"note_order"`
		NoteTitle    string  `json:"note_title"`
		NoteBody     string  `json:"note_body"`
		NoteLocation string  `json:"note_location"`
		NoteLong     float64 `json:"note_long"`
		NoteLat      float64 `json:"note_lat"`
	}
	if err := c.rpc(ctx, token, "get_hunts_notes", map[string]any{"id_hunt": huntID}, &rows); err != nil {
		return nil, err
	}

	clues := make([]breadcrumbs.Clue, 0, len(rows))
	for _, r := range rows {
		clues = append(clues, breadcrumbs.Clue{
			NoteID:     r.NoteID,
			HuntID:     r.HuntID,
			Order:      r.NoteOrder,
			TotalNotes: len(rows),
			Title:      r.NoteTitle,
			Body:       r.NoteBody,
			Location:   r.NoteLocation,
			Coordinate: geo.Coordinate{Latitude: r.NoteLat, Longitude: r.NoteLong},
		})
	}
	return clues, nil
}

// CreateHunt registers a hunt over already-created notes, in order.
func (c *Client) CreateHunt(ctx context.Context, token, title string, noteIDs []int64, createdBy string) (int64, error) {
	var id int64
	err := c.rpc(ctx, token, "create_hunt", map[string]any{
		"hunt_title":    title,
		"note_ids":      noteIDs,
		"in_created_by": createdBy,
	}, &id)
	return id, err
}
