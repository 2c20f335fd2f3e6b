package location

import (
	"testing"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

func TestCurrentUnknownBeforeFirstFix(t *testing.T) {
	tr := NewTracker(0)
	if _, ok := tr.Current(); ok {
		t.Fatal("Current() ok before any fix")
	}
}

func TestUpdateAndCurrent(t *testing.T) {
	tr := NewTracker(0)
	fix := geo.Coordinate{Latitude: 41.31, Longitude: -72.92}
	if err := tr.Update(fix); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, ok := tr.Current()
	if !ok {
		t.Fatal("Current() not ok after fix")
	}
	if got != fix {
		t.Errorf("Current() = %v, want %v", got, fix)
	}
}

func TestUpdateRejectsInvalidFix(t *testing.T) {
	tr := NewTracker(0)
	if err := tr.Update(geo.Coordinate{Latitude: 91, Longitude: 0}); err == nil {
		t.Fatal("Update accepted out-of-bounds latitude")
	}
	if _, ok := tr.Current(); ok {
		t.Fatal("invalid fix must not become current")
	}
}

func TestStaleFixFailsClosed(t *testing.T) {
	tr := NewTracker(10 * time.Second)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }

	tr.Update(geo.Coordinate{Latitude: 41.31, Longitude: -72.92})

	tr.now = func() time.Time { return base.Add(9 * time.Second) }
	if _, ok := tr.Current(); !ok {
		t.Fatal("fresh fix read as stale")
	}

	tr.now = func() time.Time { return base.Add(11 * time.Second) }
	if _, ok := tr.Current(); ok {
		t.Fatal("stale fix still read as current")
	}
}

func TestSubscribeReceivesFixes(t *testing.T) {
	tr := NewTracker(0)
	ch := tr.Subscribe()
	defer tr.Unsubscribe(ch)

	fix := geo.Coordinate{Latitude: 41.31, Longitude: -72.92}
	tr.Update(fix)

	select {
	case got := <-ch:
		if got != fix {
			t.Errorf("received %v, want %v", got, fix)
		}
	case <-time.After(time.Second):
		t.Fatal("no fix delivered to subscriber")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	tr := NewTracker(0)
	ch := tr.Subscribe()
	tr.Unsubscribe(ch)

	tr.Update(geo.Coordinate{Latitude: 41.31, Longitude: -72.92})

	select {
	case <-ch:
		t.Fatal("received fix after unsubscribe")
	default:
	}
}

func TestSensorErrorReportedOnce(t *testing.T) {
	tr := NewTracker(0)
	if !tr.ReportSensorError() {
		t.Fatal("first sensor error suppressed")
	}
	if tr.ReportSensorError() {
		t.Fatal("second sensor error not suppressed")
	}
}

func TestRegistryReusesTracker(t *testing.T) {
	r := NewRegistry(0)
	a := r.Get("user-1")
	b := r.Get("user-1")
	if a != b {
		t.Fatal("same user got different trackers")
	}

	r.Release("user-1")
	c := r.Get("user-1")
	if c == a {
		t.Fatal("released tracker was reused")
	}
}
