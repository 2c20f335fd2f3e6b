// Package notes is the view model behind the notes map: proximity
// classification of visible notes, range-gated opening, and note creation.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
)

var (
	ErrUnknownNote = errors.New("note not in the current view")
	ErrValidation  = errors.New("validation")
)

// noteWindow is how long a note stays interesting after creation; the map
// shows hours left until it closes.
const noteWindow = 24 * time.Hour

// RangeStatus classifies a marker against the viewer's current position.
type RangeStatus string

const (
	RangeIn  RangeStatus = "IN_RANGE"
	RangeOut RangeStatus = "OUT_OF_RANGE"
)

// Backend is the slice of the remote service the notes view consumes.
type Backend interface {
	FilteredVisibleNotes(ctx context.Context, token, viewerID string, filter breadcrumbs.Visibility) ([]backend.VisibleNote, error)
	MarkNoteAsRead(ctx context.Context, token, userID string, noteID int64) error
	UserDisplayName(ctx context.Context, token, userID string) (string, error)
	AddNote(ctx context.Context, token string, p backend.AddNoteParams) (int64, error)
}

// MapNote is one marker on the notes map.
type MapNote struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	Status        RangeStatus    `json:"status"`
	DistanceMiles *float64       `json:"distanceMiles,omitempty"`
	TimeLeftHours int            `json:"timeLeftHours"`
	Read          bool           `json:"read"`
}

// Detail is the note panel opened from a marker click. When the click-time
// range check fails, TooFar is set and the body is withheld.
type Detail struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Body          string  `json:"body,omitempty"`
	Location      string  `json:"location,omitempty"`
	TimeLeftHours int     `json:"timeLeftHours"`
	DistanceMiles float64 `json:"distanceMiles"`
	TooFar        bool    `json:"tooFar,omitempty"`
	Read          bool    `json:"read"`
}

type cachedNote struct {
	note   breadcrumbs.Note
	author string
}

// View holds one user's notes-map session state: the last fetched notes
// (for click-time re-checks) and which notes were already marked read.
type View struct {
	backend Backend
	tracker *location.Tracker
	userID  string

	mu      sync.Mutex
	cached  map[int64]cachedNote
	authors map[string]string
	read    map[int64]bool

	now func() time.Time
}

func NewView(b Backend, tracker *location.Tracker, userID string) *View {
	return &View{
		backend: b,
		tracker: tracker,
		userID:  userID,
		cached:  make(map[int64]cachedNote),
		authors: make(map[string]string),
		read:    make(map[int64]bool),
		now:     time.Now,
	}
}

// List fetches the server-filtered notes and classifies each against the
// freshest known position. Unknown position classifies everything out of
// range.
func (v *View) List(ctx context.Context, token string, filter breadcrumbs.Visibility) ([]MapNote, error) {
	rows, err := v.backend.FilteredVisibleNotes(ctx, token, v.userID, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching visible notes: %w", err)
	}

	pos, havePos := v.tracker.Current()
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.cached = make(map[int64]cachedNote, len(rows))
	out := make([]MapNote, 0, len(rows))
	for _, row := range rows {
		note := row.Note(filter)
		author := v.authorLocked(ctx, token, note.AuthorID)
		v.cached[note.ID] = cachedNote{note: note, author: author}

		n := MapNote{
			ID:            note.ID,
			Title:         note.Title,
			Author:        author,
			Coordinate:    note.Coordinate,
			Status:        RangeOut,
			TimeLeftHours: hoursLeft(note.CreatedAt, noteWindow, now),
			Read:          v.read[note.ID],
		}
		if havePos {
			d := geo.DistanceMiles(pos, note.Coordinate)
			n.DistanceMiles = &d
			if d <= geo.RangeThresholdMiles {
				n.Status = RangeIn
			}
		}
		out = append(out, n)
	}
	return out, nil
}

// Open re-checks range at click time; the marker's color may be stale by
// the time the user clicks. In range: full content, marked read once.
// Out of range: a degraded panel that leaks nothing.
func (v *View) Open(ctx context.Context, token string, noteID int64) (Detail, error) {
	v.mu.Lock()
	c, ok := v.cached[noteID]
	alreadyRead := v.read[noteID]
	v.mu.Unlock()
	if !ok {
		return Detail{}, ErrUnknownNote
	}

	d := Detail{
		ID:     noteID,
		Title:  c.note.Title,
		Author: c.author,
	}

	pos, havePos := v.tracker.Current()
	if !havePos || !geo.InRange(pos, c.note.Coordinate) {
		if havePos {
			d.DistanceMiles = geo.DistanceMiles(pos, c.note.Coordinate)
		}
		d.TooFar = true
		return d, nil
	}

	if !alreadyRead {
		if err := v.backend.MarkNoteAsRead(ctx, token, v.userID, noteID); err != nil {
			return Detail{}, fmt.Errorf("marking note read: %w", err)
		}
		v.mu.Lock()
		v.read[noteID] = true
		v.mu.Unlock()
	}

	d.Body = c.note.Body
	d.Location = c.note.Location
	d.TimeLeftHours = hoursLeft(c.note.CreatedAt, noteWindow, v.now())
	d.DistanceMiles = geo.DistanceMiles(pos, c.note.Coordinate)
	d.Read = true
	return d, nil
}

type CreateInput struct {
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Location   string                 `json:"location"`
	Coordinate geo.Coordinate         `json:"coordinate"`
	Visibility breadcrumbs.Visibility `json:"visibility"`
}

// Create leaves a single (non-hunt) crumb.
func (v *View) Create(ctx context.Context, token string, in CreateInput) (int64, error) {
	switch {
	case in.Title == "":
		return 0, fmt.Errorf("%w: title is required", ErrValidation)
	case in.Body == "":
		return 0, fmt.Errorf("%w: body is required", ErrValidation)
	case in.Location == "":
		return 0, fmt.Errorf("%w: location is required", ErrValidation)
	case !in.Coordinate.Valid():
		return 0, fmt.Errorf("%w: coordinate out of bounds", ErrValidation)
	}
	if _, err := breadcrumbs.ParseVisibility(string(in.Visibility)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	id, err := v.backend.AddNote(ctx, token, backend.AddNoteParams{
		Title:      in.Title,
		Body:       in.Body,
		UserID:     v.userID,
		Visibility: in.Visibility,
		Coordinate: in.Coordinate,
		Location:   in.Location,
		IsHuntNote: false,
	})
	if err != nil {
		return 0, fmt.Errorf("creating note: %w", err)
	}
	return id, nil
}

// authorLocked resolves and caches a display name; lookups are best-effort
// and fall back to "Unknown" like the rest of the app.
func (v *View) authorLocked(ctx context.Context, token, userID string) string {
	if name, ok := v.authors[userID]; ok {
		return name
	}
	name, err := v.backend.UserDisplayName(ctx, token, userID)
	if err != nil || name == "" {
		return "Unknown"
	}
	v.authors[userID] = name
	return name
}

func hoursLeft(since time.Time, window time.Duration, now time.Time) int {
	left := since.Add(window).Sub(now)
	if left < 0 {
		return 0
	}
	return int(left / time.Hour)
}
