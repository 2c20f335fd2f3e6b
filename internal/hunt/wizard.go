package hunt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

const (
	MinClues = 3
	MaxClues = 5
)

// ClueInput is one crumb being authored in the wizard.
type ClueInput struct {
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Location   string         `json:"location"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Draft is the wizard's persisted work in progress. Slots past ClueCount
// keep their content so shrinking and re-growing the count loses nothing.
type Draft struct {
	ID        uuid.UUID            `json:"id"`
	Title     string               `json:"title"`
	ClueCount int                  `json:"clueCount"`
	Clues     [MaxClues]*ClueInput `json:"clues"`
	Step      int                  `json:"step"`
}

// reviewStep is the last step index for a draft: details, ClueCount clue
// steps, then review.
func (d *Draft) reviewStep() int { return d.ClueCount + 1 }

// DraftStore persists drafts across sessions, one per user.
type DraftStore interface {
	Save(ctx context.Context, userID string, d *Draft) error
	Load(ctx context.Context, userID string) (*Draft, error)
	Delete(ctx context.Context, userID string) error
}

// WizardBackend is the slice of the remote service submit talks to.
type WizardBackend interface {
	AddNote(ctx context.Context, token string, p backend.AddNoteParams) (int64, error)
	CreateHunt(ctx context.Context, token, title string, noteIDs []int64, createdBy string) (int64, error)
}

// Wizard is one user's hunt-creation session. The draft round-trips
// through the store on every mutation so a dropped session resumes where
// it left off.
type Wizard struct {
	store   DraftStore
	backend WizardBackend
	userID  string
	logger  *slog.Logger

	mu    sync.Mutex
	draft *Draft
}

func NewWizard(store DraftStore, b WizardBackend, userID string, logger *slog.Logger) *Wizard {
	return &Wizard{store: store, backend: b, userID: userID, logger: logger}
}

// Resume returns the stored draft, or a fresh one when none exists.
func (w *Wizard) Resume(ctx context.Context) (*Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := w.store.Load(ctx, w.userID)
	switch {
	case errors.Is(err, ErrDraftNotFound):
		d = &Draft{ID: uuid.New(), ClueCount: MinClues}
		if err := w.store.Save(ctx, w.userID, d); err != nil {
			return nil, fmt.Errorf("saving new draft: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	w.draft = d
	return d, nil
}

// SetDetails records the title and crumb count, then advances to the
// first clue step.
func (w *Wizard) SetDetails(ctx context.Context, title string, count int) (*Draft, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if count < MinClues || count > MaxClues {
		return nil, fmt.Errorf("%w: crumb count must be between %d and %d", ErrValidation, MinClues, MaxClues)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	d, err := w.draftLocked(ctx)
	if err != nil {
		return nil, err
	}
	d.Title = title
	d.ClueCount = count
	d.Step = 1
	return w.saveLocked(ctx, d)
}

// SetClue fills the 1-based slot and advances to the next step.
func (w *Wizard) SetClue(ctx context.Context, slot int, in ClueInput) (*Draft, error) {
	switch {
	case in.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	case in.Body == "":
		return nil, fmt.Errorf("%w: body is required", ErrValidation)
	case in.Location == "":
		return nil, fmt.Errorf("%w: location is required", ErrValidation)
	case !in.Coordinate.Valid():
		return nil, fmt.Errorf("%w: coordinate out of bounds", ErrValidation)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	d, err := w.draftLocked(ctx)
	if err != nil {
		return nil, err
	}
	if slot < 1 || slot > d.ClueCount {
		return nil, fmt.Errorf("%w: crumb %d is out of range", ErrValidation, slot)
	}
	clue := in
	d.Clues[slot-1] = &clue
	if d.Step == slot {
		d.Step++
	}
	return w.saveLocked(ctx, d)
}

// Back steps one screen toward the details step.
func (w *Wizard) Back(ctx context.Context) (*Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, err := w.draftLocked(ctx)
	if err != nil {
		return nil, err
	}
	if d.Step > 0 {
		d.Step--
	}
	return w.saveLocked(ctx, d)
}

// GoTo jumps to a step the user has already reached.
func (w *Wizard) GoTo(ctx context.Context, step int) (*Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, err := w.draftLocked(ctx)
	if err != nil {
		return nil, err
	}
	if step < 0 || step > d.reviewStep() {
		return nil, fmt.Errorf("%w: no step %d", ErrValidation, step)
	}
	d.Step = step
	return w.saveLocked(ctx, d)
}

// Submit publishes the draft: every crumb becomes a hunt note, in order,
// then the hunt is registered over them. A failure on any crumb aborts
// the rest; the draft stays stored so the user can retry.
func (w *Wizard) Submit(ctx context.Context, token string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, err := w.draftLocked(ctx)
	if err != nil {
		return 0, err
	}
	if d.Title == "" {
		return 0, fmt.Errorf("%w: title is required", ErrValidation)
	}
	for i := 0; i < d.ClueCount; i++ {
		if d.Clues[i] == nil {
			return 0, &MissingClueError{Slot: i + 1}
		}
	}

	noteIDs := make([]int64, 0, d.ClueCount)
	for i := 0; i < d.ClueCount; i++ {
		clue := d.Clues[i]
		id, err := w.backend.AddNote(ctx, token, backend.AddNoteParams{
			Title:      clue.Title,
			Body:       clue.Body,
			UserID:     w.userID,
			Visibility: breadcrumbs.VisibilityPublic,
			Coordinate: clue.Coordinate,
			Location:   clue.Location,
			IsHuntNote: true,
		})
		if err != nil {
			return 0, &ClueSubmitError{Slot: i + 1, Err: err}
		}
		noteIDs = append(noteIDs, id)
	}

	huntID, err := w.backend.CreateHunt(ctx, token, d.Title, noteIDs, w.userID)
	if err != nil {
		return 0, fmt.Errorf("registering hunt: %w", err)
	}

	if err := w.store.Delete(ctx, w.userID); err != nil {
		// The hunt exists; a leftover draft is an annoyance, not a failure.
		if w.logger != nil {
			w.logger.Warn("deleting submitted draft failed", "user_id", w.userID, "error", err)
		}
	}
	w.draft = nil
	return huntID, nil
}

// Discard drops the draft entirely.
func (w *Wizard) Discard(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = nil
	if err := w.store.Delete(ctx, w.userID); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	return nil
}

func (w *Wizard) draftLocked(ctx context.Context) (*Draft, error) {
	if w.draft != nil {
		return w.draft, nil
	}
	d, err := w.store.Load(ctx, w.userID)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	w.draft = d
	return d, nil
}

func (w *Wizard) saveLocked(ctx context.Context, d *Draft) (*Draft, error) {
	if err := w.store.Save(ctx, w.userID, d); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}
	w.draft = d
	return d, nil
}
