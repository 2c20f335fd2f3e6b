// Package location turns the device position stream into a "current
// position" value with an explicit subscribe/unsubscribe lifecycle,
// decoupled from any view.
package location

import (
	"errors"
	"sync"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

// DefaultMaxFixAge is the staleness tolerance for watch-mode fixes. A fix
// older than this no longer counts as a known position.
const DefaultMaxFixAge = 10 * time.Second

var ErrInvalidFix = errors.New("fix outside coordinate bounds")

// Tracker holds the freshest position fix for one user session.
// Current fails closed: no fix, or a stale one, reads as "position
// unknown" so proximity gates treat the user as out of range.
type Tracker struct {
	mu       sync.Mutex
	pos      geo.Coordinate
	fixedAt  time.Time
	hasFix   bool
	maxAge   time.Duration
	errShown bool
	subs     map[chan geo.Coordinate]struct{}

	now func() time.Time
}

func NewTracker(maxAge time.Duration) *Tracker {
	if maxAge <= 0 {
		maxAge = DefaultMaxFixAge
	}
	return &Tracker{
		maxAge: maxAge,
		subs:   make(map[chan geo.Coordinate]struct{}),
		now:    time.Now,
	}
}

// Update records a new fix and notifies subscribers. Slow subscribers are
// skipped rather than blocked; they will catch up on the next fix.
func (t *Tracker) Update(c geo.Coordinate) error {
	if !c.Valid() {
		return ErrInvalidFix
	}

	t.mu.Lock()
	t.pos = c
	t.fixedAt = t.now()
	t.hasFix = true
	subs := make([]chan geo.Coordinate, 0, len(t.subs))
	for ch := range t.subs {
		subs = append(subs, ch)
	}
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

// Current returns the freshest position, or ok=false when none is known
// or the last fix is older than the staleness tolerance.
func (t *Tracker) Current() (geo.Coordinate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasFix || t.now().Sub(t.fixedAt) > t.maxAge {
		return geo.Coordinate{}, false
	}
	return t.pos, true
}

// Subscribe returns a channel receiving every subsequent fix. The caller
// must Unsubscribe on teardown.
func (t *Tracker) Subscribe() chan geo.Coordinate {
	ch := make(chan geo.Coordinate, 16)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

func (t *Tracker) Unsubscribe(ch chan geo.Coordinate) {
	t.mu.Lock()
	delete(t.subs, ch)
	t.mu.Unlock()
}

// ReportSensorError returns true only for the first sensor failure of the
// session, so the user sees one notification instead of an alert per fix
// attempt.
func (t *Tracker) ReportSensorError() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.errShown {
		return false
	}
	t.errShown = true
	return true
}
