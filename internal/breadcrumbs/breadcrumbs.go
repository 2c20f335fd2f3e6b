// Package breadcrumbs defines the core domain types shared across the app.
package breadcrumbs

import (
	"fmt"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

// Visibility controls who may see a note. It is passed verbatim to the
// remote backend, which enforces the actual access rules.
type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityFriendsOnly Visibility = "FRIENDS_ONLY"
	VisibilityUserOnly    Visibility = "USER_ONLY"
)

// ParseVisibility rejects anything outside the closed enum so an unknown
// filter never reaches the backend.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityPublic, VisibilityFriendsOnly, VisibilityUserOnly:
		return v, nil
	}
	return "", fmt.Errorf("unknown visibility %q", s)
}

// HuntStatus is the per-participant lifecycle of a hunt: the same hunt can
// be available to one user while active for another.
type HuntStatus string

const (
	HuntStatusAvailable HuntStatus = "AVAILABLE"
	HuntStatusActive    HuntStatus = "ACTIVE"
	HuntStatusCompleted HuntStatus = "COMPLETED"
)

// Note is a geotagged text entry ("crumb").
type Note struct {
	ID         int64
	Title      string
	Body       string
	Location   string
	Coordinate geo.Coordinate
	AuthorID   string
	Visibility Visibility
	CreatedAt  time.Time
	IsHuntNote bool
}

// Clue is one note belonging to a hunt, at a fixed 1-based order position.
type Clue struct {
	NoteID     int64
	HuntID     int64
	Order      int
	TotalNotes int
	Title      string
	Body       string
	Location   string
	Coordinate geo.Coordinate
	HuntTitle  string
}

type Hunt struct {
	ID        int64
	Title     string
	CreatorID string
	CreatedAt time.Time
}

// HuntProgress is owned and mutated exclusively by the remote backend; the
// app only reads it and triggers transitions via pick-up.
type HuntProgress struct {
	UserID           string
	HuntID           int64
	CurrentNoteOrder int
}

type User struct {
	ID          string
	Email       string
	DisplayName string
}

type Friend struct {
	UserID      string
	DisplayName string
	Accepted    bool
}
