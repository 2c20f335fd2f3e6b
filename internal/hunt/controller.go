// Package hunt drives the scavenger-hunt flows: the active-hunt state
// machine, the creation wizard, and the available/completed browsers.
package hunt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
)

// huntWindow is how long a hunt stays open after it is accepted (or, for
// available hunts, after it is created).
const huntWindow = 48 * time.Hour

// State is the active-hunt screen's lifecycle.
type State string

const (
	StateIdle       State = "IDLE"
	StateLoading    State = "LOADING"
	StateClueLoaded State = "CLUE_LOADED"
	StatePickingUp  State = "PICKING_UP"
	StateCompleted  State = "COMPLETED"
)

// Backend is the slice of the remote service the controller consumes.
type Backend interface {
	UserActiveHunts(ctx context.Context, token, userID string) ([]backend.ActiveHunt, error)
	HuntProgress(ctx context.Context, token, userID string, huntID int64) (breadcrumbs.HuntProgress, error)
	CurrentHuntNote(ctx context.Context, token string, huntID int64, order int) (breadcrumbs.Clue, error)
	PickUpCrumb(ctx context.Context, token, userID string, huntID int64) (bool, error)
	CreatorDisplayName(ctx context.Context, token, creatorID string) (string, error)
}

// ActiveHuntItem is one row on the active-hunts list.
type ActiveHuntItem struct {
	HuntID      int64                  `json:"huntId"`
	Title       string                 `json:"title"`
	Creator     string                 `json:"creator"`
	Status      breadcrumbs.HuntStatus `json:"status"`
	CurrentNote int                    `json:"currentNote"`
	TotalNotes  int                    `json:"totalNotes"`
	HoursLeft   int                    `json:"hoursLeft"`
}

// ClueView is the loaded clue plus its live range classification.
type ClueView struct {
	NoteID        int64          `json:"noteId"`
	HuntID        int64          `json:"huntId"`
	HuntTitle     string         `json:"huntTitle"`
	Order         int            `json:"order"`
	TotalNotes    int            `json:"totalNotes"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	Location      string         `json:"location"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	InRange       bool           `json:"inRange"`
	DistanceMiles *float64       `json:"distanceMiles,omitempty"`
}

// Snapshot is what the active-hunt screen renders.
type Snapshot struct {
	State          State     `json:"state"`
	Clue           *ClueView `json:"clue,omitempty"`
	CompletedTitle string    `json:"completedTitle,omitempty"`
}

// Event is pushed to the user's event stream as the hunt state changes.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data,omitempty"`
}

const (
	EventClueLoaded    = "clue_loaded"
	EventCrumbRange    = "crumb_range"
	EventHuntCompleted = "hunt_completed"
)

// Controller runs one user's active-hunt state machine. Selections and
// pick-ups hit the network without holding the lock; a generation counter
// discards responses that arrive after the user has moved on.
type Controller struct {
	backend Backend
	tracker *location.Tracker
	userID  string
	logger  *slog.Logger
	publish func(Event)

	mu             sync.Mutex
	state          State
	gen            uint64
	clue           *breadcrumbs.Clue
	wasInRange     bool
	completedTitle string

	now func() time.Time
}

// NewController wires a controller for one user. publish may be nil when
// nothing listens for events.
func NewController(b Backend, tracker *location.Tracker, userID string, logger *slog.Logger, publish func(Event)) *Controller {
	if publish == nil {
		publish = func(Event) {}
	}
	return &Controller{
		backend: b,
		tracker: tracker,
		userID:  userID,
		logger:  logger,
		publish: publish,
		state:   StateIdle,
		now:     time.Now,
	}
}

// ActiveHunts lists the user's accepted, unfinished hunts with the hours
// left before each expires.
func (c *Controller) ActiveHunts(ctx context.Context, token string) ([]ActiveHuntItem, error) {
	rows, err := c.backend.UserActiveHunts(ctx, token, c.userID)
	if err != nil {
		return nil, fmt.Errorf("fetching active hunts: %w", err)
	}

	now := c.now()
	out := make([]ActiveHuntItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, ActiveHuntItem{
			HuntID:      r.HuntID,
			Title:       r.HuntTitle,
			Creator:     c.creatorName(ctx, token, r.CreatorID),
			Status:      breadcrumbs.HuntStatusActive,
			CurrentNote: r.CurrentNote,
			TotalNotes:  r.TotalNotes,
			HoursLeft:   hoursLeft(r.AcceptedAt, huntWindow, now),
		})
	}
	return out, nil
}

// Select loads the current clue of a hunt. A select started while an older
// one is still in flight wins: the older response is discarded when it
// lands.
func (c *Controller) Select(ctx context.Context, token string, huntID int64) (Snapshot, error) {
	c.mu.Lock()
	c.gen++
	myGen := c.gen
	c.state = StateLoading
	c.clue = nil
	c.completedTitle = ""
	c.mu.Unlock()

	progress, err := c.backend.HuntProgress(ctx, token, c.userID, huntID)
	if err != nil {
		return c.failSelect(myGen, fmt.Errorf("reading hunt progress: %w", err))
	}
	clue, err := c.backend.CurrentHuntNote(ctx, token, huntID, progress.CurrentNoteOrder)
	if err != nil {
		return c.failSelect(myGen, fmt.Errorf("loading clue: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		return c.snapshotLocked(), nil
	}
	c.state = StateClueLoaded
	c.clue = &clue
	c.wasInRange = false
	snap := c.snapshotLocked()
	c.publish(Event{Kind: EventClueLoaded, Data: snap.Clue})
	return snap, nil
}

// failSelect resets to idle unless a newer selection has superseded this
// one, in which case the error is dropped with the response.
func (c *Controller) failSelect(myGen uint64, err error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		return c.snapshotLocked(), nil
	}
	c.state = StateIdle
	return c.snapshotLocked(), err
}

// Snapshot returns the current screen state with the clue classified
// against the freshest position.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnPositionUpdate re-classifies the loaded clue and pushes a range event
// when the in/out classification flips.
func (c *Controller) OnPositionUpdate(pos geo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clue == nil || c.state != StateClueLoaded {
		return
	}
	in := geo.InRange(pos, c.clue.Coordinate)
	if in == c.wasInRange {
		return
	}
	c.wasInRange = in
	c.publish(Event{Kind: EventCrumbRange, Data: map[string]any{
		"noteId":  c.clue.NoteID,
		"huntId":  c.clue.HuntID,
		"inRange": in,
	}})
}

// PickUp claims the loaded clue. The claim is gated on the freshest
// position at call time, only one claim may be in flight, and a remote
// failure rolls the screen back to the loaded clue.
func (c *Controller) PickUp(ctx context.Context, token string) (Snapshot, error) {
	c.mu.Lock()
	if c.state == StatePickingUp {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrPickUpInFlight
	}
	if c.state != StateClueLoaded || c.clue == nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrNoActiveClue
	}
	clue := *c.clue
	myGen := c.gen
	c.mu.Unlock()

	pos, ok := c.tracker.Current()
	if !ok {
		return c.Snapshot(), ErrNoFix
	}
	if !geo.InRange(pos, clue.Coordinate) {
		return c.Snapshot(), ErrOutOfRange
	}

	c.mu.Lock()
	if c.gen != myGen || c.state != StateClueLoaded {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrNoActiveClue
	}
	c.state = StatePickingUp
	c.mu.Unlock()

	completed, err := c.backend.PickUpCrumb(ctx, token, c.userID, clue.HuntID)
	if err != nil {
		return c.rollback(myGen, fmt.Errorf("picking up crumb: %w", err))
	}

	if completed {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != myGen {
			return c.snapshotLocked(), nil
		}
		c.state = StateCompleted
		c.completedTitle = clue.HuntTitle
		c.clue = nil
		c.publish(Event{Kind: EventHuntCompleted, Data: map[string]any{
			"huntId": clue.HuntID,
			"title":  clue.HuntTitle,
		}})
		return c.snapshotLocked(), nil
	}

	// The claim stuck server-side; a failure loading the next clue must
	// not undo it, so fall back to idle rather than the stale clue.
	progress, err := c.backend.HuntProgress(ctx, token, c.userID, clue.HuntID)
	if err != nil {
		return c.resetAfter(myGen, fmt.Errorf("reading hunt progress: %w", err))
	}
	next, err := c.backend.CurrentHuntNote(ctx, token, clue.HuntID, progress.CurrentNoteOrder)
	if err != nil {
		return c.resetAfter(myGen, fmt.Errorf("loading next clue: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		return c.snapshotLocked(), nil
	}
	c.state = StateClueLoaded
	c.clue = &next
	c.wasInRange = false
	snap := c.snapshotLocked()
	c.publish(Event{Kind: EventClueLoaded, Data: snap.Clue})
	return snap, nil
}

// Acknowledge dismisses the completion screen.
func (c *Controller) Acknowledge() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCompleted {
		return c.snapshotLocked(), ErrNotCompleted
	}
	c.state = StateIdle
	c.completedTitle = ""
	return c.snapshotLocked(), nil
}

// rollback restores the loaded clue after a failed claim.
func (c *Controller) rollback(myGen uint64, err error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		return c.snapshotLocked(), nil
	}
	c.state = StateClueLoaded
	return c.snapshotLocked(), err
}

// resetAfter drops to idle when a post-claim reload fails.
func (c *Controller) resetAfter(myGen uint64, err error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		return c.snapshotLocked(), nil
	}
	c.state = StateIdle
	c.clue = nil
	return c.snapshotLocked(), err
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state, CompletedTitle: c.completedTitle}
	if c.clue != nil {
		view := ClueView{
			NoteID:     c.clue.NoteID,
			HuntID:     c.clue.HuntID,
			HuntTitle:  c.clue.HuntTitle,
			Order:      c.clue.Order,
			TotalNotes: c.clue.TotalNotes,
			Title:      c.clue.Title,
			Body:       c.clue.Body,
			Location:   c.clue.Location,
			Coordinate: c.clue.Coordinate,
		}
		if pos, ok := c.tracker.Current(); ok {
			d := geo.DistanceMiles(pos, c.clue.Coordinate)
			view.DistanceMiles = &d
			view.InRange = d <= geo.RangeThresholdMiles
		}
		snap.Clue = &view
	}
	return snap
}

func (c *Controller) creatorName(ctx context.Context, token, creatorID string) string {
	name, err := c.backend.CreatorDisplayName(ctx, token, creatorID)
	if err != nil || name == "" {
		if c.logger != nil && err != nil {
			c.logger.Warn("creator lookup failed", "creator_id", creatorID, "error", err)
		}
		return "Unknown"
	}
	return name
}

func hoursLeft(since time.Time, window time.Duration, now time.Time) int {
	left := since.Add(window).Sub(now)
	if left < 0 {
		return 0
	}
	return int(left / time.Hour)
}
