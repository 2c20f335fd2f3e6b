package hunt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
)

var (
	here = geo.Coordinate{Latitude: 41.31, Longitude: -72.92}
	near = geo.Coordinate{Latitude: 41.3128, Longitude: -72.92} // ~0.19 mi
	far  = geo.Coordinate{Latitude: 41.36, Longitude: -72.92}
)

type fakeHuntBackend struct {
	activeFn   func() ([]backend.ActiveHunt, error)
	progressFn func(huntID int64) (int, error)
	clueFn     func(huntID int64, order int) (breadcrumbs.Clue, error)
	pickFn     func(huntID int64) (bool, error)
	nameFn     func(id string) (string, error)
}

func (f *fakeHuntBackend) UserActiveHunts(ctx context.Context, token, userID string) ([]backend.ActiveHunt, error) {
	if f.activeFn == nil {
		return nil, nil
	}
	return f.activeFn()
}

func (f *fakeHuntBackend) HuntProgress(ctx context.Context, token, userID string, huntID int64) (breadcrumbs.HuntProgress, error) {
	order := 1
	if f.progressFn != nil {
		var err error
		order, err = f.progressFn(huntID)
		if err != nil {
			return breadcrumbs.HuntProgress{}, err
		}
	}
	return breadcrumbs.HuntProgress{UserID: userID, HuntID: huntID, CurrentNoteOrder: order}, nil
}

func (f *fakeHuntBackend) CurrentHuntNote(ctx context.Context, token string, huntID int64, order int) (breadcrumbs.Clue, error) {
	return f.clueFn(huntID, order)
}

func (f *fakeHuntBackend) PickUpCrumb(ctx context.Context, token, userID string, huntID int64) (bool, error) {
	return f.pickFn(huntID)
}

func (f *fakeHuntBackend) CreatorDisplayName(ctx context.Context, token, creatorID string) (string, error) {
	if f.nameFn == nil {
		return "Grace", nil
	}
	return f.nameFn(creatorID)
}

func clueAt(huntID int64, order int, at geo.Coordinate) breadcrumbs.Clue {
	return breadcrumbs.Clue{
		NoteID:     huntID*100 + int64(order),
		HuntID:     huntID,
		Order:      order,
		TotalNotes: 3,
		Title:      "clue",
		Body:       "under the arch",
		Location:   "Green",
		Coordinate: at,
		HuntTitle:  "Campus Crawl",
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Kind
	}
	return out
}

func testController(fb *fakeHuntBackend) (*Controller, *location.Tracker, *eventLog) {
	tr := location.NewTracker(location.DefaultMaxFixAge)
	log := &eventLog{}
	c := NewController(fb, tr, "user-1", nil, log.publish)
	return c, tr, log
}

func TestSelectLoadsClue(t *testing.T) {
	fb := &fakeHuntBackend{
		progressFn: func(int64) (int, error) { return 2, nil },
		clueFn: func(huntID int64, order int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, order, near), nil
		},
	}
	c, tr, log := testController(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}

	snap, err := c.Select(context.Background(), "tok", 5)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateClueLoaded {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.Clue == nil || snap.Clue.Order != 2 || snap.Clue.HuntID != 5 {
		t.Fatalf("clue = %+v", snap.Clue)
	}
	if !snap.Clue.InRange {
		t.Error("expected in-range clue")
	}
	if got := log.kinds(); len(got) != 1 || got[0] != EventClueLoaded {
		t.Errorf("events = %v", got)
	}
}

func TestSelectDiscardsStaleResponse(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, order int) (breadcrumbs.Clue, error) {
			if huntID == 1 {
				<-gate
			}
			return clueAt(huntID, order, near), nil
		},
	}
	c, _, _ := testController(fb)

	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Select(context.Background(), "tok", 1)
		done <- snap
	}()

	// The second selection completes while the first is still in flight.
	time.Sleep(20 * time.Millisecond)
	snap2, err := c.Select(context.Background(), "tok", 2)
	if err != nil {
		t.Fatal(err)
	}
	if snap2.Clue.HuntID != 2 {
		t.Fatalf("clue hunt = %d", snap2.Clue.HuntID)
	}

	close(gate)
	<-done

	final := c.Snapshot()
	if final.Clue == nil || final.Clue.HuntID != 2 {
		t.Fatalf("stale response overwrote the newer selection: %+v", final.Clue)
	}
}

func TestSelectFailureResetsToIdle(t *testing.T) {
	fb := &fakeHuntBackend{
		clueFn: func(int64, int) (breadcrumbs.Clue, error) {
			return breadcrumbs.Clue{}, errors.New("boom")
		},
	}
	c, _, _ := testController(fb)
	snap, err := c.Select(context.Background(), "tok", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if snap.State != StateIdle {
		t.Errorf("state = %s, want idle after failure", snap.State)
	}
}

func TestPickUpAdvancesToNextClue(t *testing.T) {
	order := 1
	fb := &fakeHuntBackend{
		progressFn: func(int64) (int, error) { return order, nil },
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, near), nil
		},
		pickFn: func(int64) (bool, error) {
			order = 2
			return false, nil
		},
	}
	c, tr, log := testController(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}

	snap, err := c.PickUp(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateClueLoaded || snap.Clue.Order != 2 {
		t.Fatalf("snap = %+v", snap)
	}
	if got := log.kinds(); len(got) != 2 || got[1] != EventClueLoaded {
		t.Errorf("events = %v", got)
	}
}

func TestPickUpCompletesHunt(t *testing.T) {
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, near), nil
		},
		pickFn: func(int64) (bool, error) { return true, nil },
	}
	c, tr, log := testController(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}

	snap, err := c.PickUp(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateCompleted || snap.CompletedTitle != "Campus Crawl" {
		t.Fatalf("snap = %+v", snap)
	}
	if got := log.kinds(); got[len(got)-1] != EventHuntCompleted {
		t.Errorf("events = %v", got)
	}

	ack, err := c.Acknowledge()
	if err != nil {
		t.Fatal(err)
	}
	if ack.State != StateIdle {
		t.Errorf("state = %s after acknowledge", ack.State)
	}
	if _, err := c.Acknowledge(); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("second acknowledge err = %v", err)
	}
}

func TestPickUpRollsBackOnRemoteFailure(t *testing.T) {
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, near), nil
		},
		pickFn: func(int64) (bool, error) { return false, errors.New("boom") },
	}
	c, tr, _ := testController(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}

	snap, err := c.PickUp(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if snap.State != StateClueLoaded || snap.Clue == nil {
		t.Fatalf("snap = %+v, want clue restored", snap)
	}
}

func TestPickUpRejectsConcurrentClaims(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, near), nil
		},
		pickFn: func(int64) (bool, error) {
			<-gate
			return true, nil
		},
	}
	c, tr, _ := testController(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.PickUp(context.Background(), "tok"); err != nil {
			t.Error(err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := c.PickUp(context.Background(), "tok"); !errors.Is(err, ErrPickUpInFlight) {
		t.Fatalf("err = %v, want ErrPickUpInFlight", err)
	}
	close(gate)
	<-done
}

func TestPickUpGatesOnFreshestPosition(t *testing.T) {
	picked := false
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, far), nil
		},
		pickFn: func(int64) (bool, error) {
			picked = true
			return true, nil
		},
	}
	c, tr, _ := testController(fb)

	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PickUp(context.Background(), "tok"); !errors.Is(err, ErrNoFix) {
		t.Fatalf("err = %v, want ErrNoFix", err)
	}

	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PickUp(context.Background(), "tok"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if picked {
		t.Error("claim must not reach the service when gated")
	}
}

func TestOnPositionUpdatePublishesOnFlip(t *testing.T) {
	fb := &fakeHuntBackend{
		clueFn: func(huntID int64, o int) (breadcrumbs.Clue, error) {
			return clueAt(huntID, o, near), nil
		},
	}
	c, _, log := testController(fb)
	if _, err := c.Select(context.Background(), "tok", 1); err != nil {
		t.Fatal(err)
	}

	c.OnPositionUpdate(here) // out -> in
	c.OnPositionUpdate(here) // still in, no event
	c.OnPositionUpdate(far)  // in -> out

	var ranges int
	for _, k := range log.kinds() {
		if k == EventCrumbRange {
			ranges++
		}
	}
	if ranges != 2 {
		t.Errorf("range events = %d, want 2", ranges)
	}
}

func TestActiveHuntsHoursLeft(t *testing.T) {
	accepted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fb := &fakeHuntBackend{
		activeFn: func() ([]backend.ActiveHunt, error) {
			return []backend.ActiveHunt{
				{HuntID: 1, HuntTitle: "Fresh", CreatorID: "u2", AcceptedAt: accepted, CurrentNote: 1, TotalNotes: 3},
				{HuntID: 2, HuntTitle: "Stale", CreatorID: "u2", AcceptedAt: accepted.Add(-2 * time.Hour), CurrentNote: 2, TotalNotes: 3},
			}, nil
		},
	}
	c, _, _ := testController(fb)
	c.now = func() time.Time { return accepted.Add(47 * time.Hour) }

	got, err := c.ActiveHunts(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].HoursLeft != 1 {
		t.Errorf("47h in: hours left = %d, want 1", got[0].HoursLeft)
	}
	if got[1].HoursLeft != 0 {
		t.Errorf("49h in: hours left = %d, want clamped 0", got[1].HoursLeft)
	}
	if got[0].Creator != "Grace" {
		t.Errorf("creator = %q", got[0].Creator)
	}
	if got[0].Status != breadcrumbs.HuntStatusActive {
		t.Errorf("status = %q", got[0].Status)
	}
}
