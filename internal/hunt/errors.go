package hunt

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveClue   = errors.New("no clue is loaded")
	ErrPickUpInFlight = errors.New("a pick-up is already in flight")
	ErrNoFix          = errors.New("current position unknown")
	ErrOutOfRange     = errors.New("too far from the crumb")
	ErrNotCompleted   = errors.New("no completed hunt to acknowledge")
	ErrOwnHunt        = errors.New("cannot accept a hunt you created")
	ErrDraftNotFound  = errors.New("no draft in progress")
	ErrValidation     = errors.New("validation")
)

// MissingClueError reports the first unfilled wizard slot blocking submit.
// Slots are 1-based, matching what the user sees.
type MissingClueError struct {
	Slot int
}

func (e *MissingClueError) Error() string {
	return fmt.Sprintf("crumb %d is not filled in", e.Slot)
}

// ClueSubmitError wraps a remote failure while publishing the wizard's
// crumbs. Submission stops at the first failure; Slot names the crumb that
// did not make it.
type ClueSubmitError struct {
	Slot int
	Err  error
}

func (e *ClueSubmitError) Error() string {
	return fmt.Sprintf("publishing crumb %d: %v", e.Slot, e.Err)
}

func (e *ClueSubmitError) Unwrap() error { return e.Err }
