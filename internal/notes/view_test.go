package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
)

type fakeBackend struct {
	notes     []backend.VisibleNote
	notesErr  error
	names     map[string]string
	marked    []int64
	markErr   error
	added     []backend.AddNoteParams
	addErr    error
	nextID    int64
}

func (f *fakeBackend) FilteredVisibleNotes(ctx context.Context, token, viewerID string, filter breadcrumbs.Visibility) ([]backend.VisibleNote, error) {
	return f.notes, f.notesErr
}

func (f *fakeBackend) MarkNoteAsRead(ctx context.Context, token, userID string, noteID int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, noteID)
	return nil
}

func (f *fakeBackend) UserDisplayName(ctx context.Context, token, userID string) (string, error) {
	name, ok := f.names[userID]
	if !ok {
		return "", errors.New("no such user")
	}
	return name, nil
}

func (f *fakeBackend) AddNote(ctx context.Context, token string, p backend.AddNoteParams) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.added = append(f.added, p)
	f.nextID++
	return f.nextID, nil
}

var (
	here = geo.Coordinate{Latitude: 41.31, Longitude: -72.92}
	near = geo.Coordinate{Latitude: 41.3128, Longitude: -72.92} // ~0.19 mi north
	far  = geo.Coordinate{Latitude: 41.36, Longitude: -72.92}   // miles away
)

func testNote(id int64, at geo.Coordinate) backend.VisibleNote {
	return backend.VisibleNote{
		ID:        id,
		UserID:    "author-1",
		Title:     "hidden gem",
		Body:      "look under the bench",
		Location:  "Wooster Square",
		Latitude:  at.Latitude,
		Longitude: at.Longitude,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
}

func testView(fb *fakeBackend) (*View, *location.Tracker) {
	tr := location.NewTracker(location.DefaultMaxFixAge)
	v := NewView(fb, tr, "viewer-1")
	return v, tr
}

func TestListClassifiesByDistance(t *testing.T) {
	fb := &fakeBackend{
		notes: []backend.VisibleNote{testNote(1, near), testNote(2, far)},
		names: map[string]string{"author-1": "Ada"},
	}
	v, tr := testView(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}

	got, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d notes, want 2", len(got))
	}
	if got[0].Status != RangeIn {
		t.Errorf("near note status = %s, want %s", got[0].Status, RangeIn)
	}
	if got[1].Status != RangeOut {
		t.Errorf("far note status = %s, want %s", got[1].Status, RangeOut)
	}
	if got[0].DistanceMiles == nil || got[1].DistanceMiles == nil {
		t.Error("expected distances with a known position")
	}
	if got[0].Author != "Ada" {
		t.Errorf("author = %q, want Ada", got[0].Author)
	}
}

func TestListUnknownPositionAllOutOfRange(t *testing.T) {
	fb := &fakeBackend{
		notes: []backend.VisibleNote{testNote(1, near)},
		names: map[string]string{"author-1": "Ada"},
	}
	v, _ := testView(fb)

	got, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Status != RangeOut {
		t.Errorf("status = %s, want %s without a fix", got[0].Status, RangeOut)
	}
	if got[0].DistanceMiles != nil {
		t.Error("expected no distance without a fix")
	}
}

func TestListTimeLeft(t *testing.T) {
	n := testNote(1, near)
	n.CreatedAt = time.Now().Add(-23*time.Hour - 30*time.Minute)
	old := testNote(2, near)
	old.CreatedAt = time.Now().Add(-30 * time.Hour)
	fb := &fakeBackend{notes: []backend.VisibleNote{n, old}, names: map[string]string{"author-1": "Ada"}}
	v, _ := testView(fb)

	got, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].TimeLeftHours != 0 {
		t.Errorf("almost-expired note hours = %d, want 0", got[0].TimeLeftHours)
	}
	if got[1].TimeLeftHours != 0 {
		t.Errorf("expired note hours = %d, want clamped 0", got[1].TimeLeftHours)
	}
}

func TestOpenInRangeMarksReadOnce(t *testing.T) {
	fb := &fakeBackend{
		notes: []backend.VisibleNote{testNote(7, near)},
		names: map[string]string{"author-1": "Ada"},
	}
	v, tr := testView(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic); err != nil {
		t.Fatal(err)
	}

	d, err := v.Open(context.Background(), "tok", 7)
	if err != nil {
		t.Fatal(err)
	}
	if d.TooFar {
		t.Fatal("unexpected too-far panel")
	}
	if d.Body != "look under the bench" {
		t.Errorf("body = %q", d.Body)
	}
	if !d.Read {
		t.Error("expected read detail")
	}

	if _, err := v.Open(context.Background(), "tok", 7); err != nil {
		t.Fatal(err)
	}
	if len(fb.marked) != 1 {
		t.Errorf("marked %d times, want once", len(fb.marked))
	}
}

func TestOpenTooFarWithholdsBody(t *testing.T) {
	fb := &fakeBackend{
		notes: []backend.VisibleNote{testNote(7, far)},
		names: map[string]string{"author-1": "Ada"},
	}
	v, tr := testView(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic); err != nil {
		t.Fatal(err)
	}

	d, err := v.Open(context.Background(), "tok", 7)
	if err != nil {
		t.Fatal(err)
	}
	if !d.TooFar {
		t.Fatal("expected too-far panel")
	}
	if d.Body != "" || d.Location != "" {
		t.Error("too-far panel leaked content")
	}
	if len(fb.marked) != 0 {
		t.Error("too-far open must not mark read")
	}
	if d.DistanceMiles <= geo.RangeThresholdMiles {
		t.Errorf("distance = %f, want beyond threshold", d.DistanceMiles)
	}
}

func TestOpenUnknownNote(t *testing.T) {
	fb := &fakeBackend{names: map[string]string{}}
	v, _ := testView(fb)
	if _, err := v.Open(context.Background(), "tok", 99); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("err = %v, want ErrUnknownNote", err)
	}
}

func TestOpenMarkReadErrorAborts(t *testing.T) {
	fb := &fakeBackend{
		notes:   []backend.VisibleNote{testNote(7, near)},
		names:   map[string]string{"author-1": "Ada"},
		markErr: errors.New("boom"),
	}
	v, tr := testView(fb)
	if err := tr.Update(here); err != nil {
		t.Fatal(err)
	}
	if _, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Open(context.Background(), "tok", 7); err == nil {
		t.Fatal("expected error when mark-read fails")
	}
}

func TestCreateValidates(t *testing.T) {
	fb := &fakeBackend{}
	v, _ := testView(fb)
	valid := CreateInput{
		Title:      "t",
		Body:       "b",
		Location:   "somewhere",
		Coordinate: here,
		Visibility: breadcrumbs.VisibilityPublic,
	}

	for name, mutate := range map[string]func(*CreateInput){
		"empty title":    func(in *CreateInput) { in.Title = "" },
		"empty body":     func(in *CreateInput) { in.Body = "" },
		"empty location": func(in *CreateInput) { in.Location = "" },
		"bad coordinate": func(in *CreateInput) { in.Coordinate.Latitude = 91 },
		"bad visibility": func(in *CreateInput) { in.Visibility = "EVERYONE" },
	} {
		in := valid
		mutate(&in)
		if _, err := v.Create(context.Background(), "tok", in); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", name, err)
		}
	}

	id, err := v.Create(context.Background(), "tok", valid)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
	if len(fb.added) != 1 || fb.added[0].IsHuntNote {
		t.Fatalf("added = %+v", fb.added)
	}
	if fb.added[0].UserID != "viewer-1" {
		t.Errorf("user id = %q", fb.added[0].UserID)
	}
}

func TestAuthorFallsBackToUnknown(t *testing.T) {
	fb := &fakeBackend{
		notes: []backend.VisibleNote{testNote(1, near)},
		names: map[string]string{},
	}
	v, _ := testView(fb)
	got, err := v.List(context.Background(), "tok", breadcrumbs.VisibilityPublic)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Author != "Unknown" {
		t.Errorf("author = %q, want Unknown", got[0].Author)
	}
}
