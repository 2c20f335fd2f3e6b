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
)

// BrowseBackend is the slice of the remote service the hunt browsers use.
type BrowseBackend interface {
	AvailableHunts(ctx context.Context, token, viewerID string) ([]backend.AvailableHunt, error)
	FirstCrumb(ctx context.Context, token string, huntID int64) (breadcrumbs.Clue, error)
	StartHunt(ctx context.Context, token, userID string, huntID int64) (bool, error)
	CompletedHunts(ctx context.Context, token, viewerID string) ([]backend.CompletedHunt, error)
	HuntNotes(ctx context.Context, token string, huntID int64) ([]breadcrumbs.Clue, error)
	CreatorDisplayName(ctx context.Context, token, creatorID string) (string, error)
}

// AvailableItem is one hunt the viewer could start.
type AvailableItem struct {
	HuntID    int64                  `json:"huntId"`
	Title     string                 `json:"title"`
	Creator   string                 `json:"creator"`
	Status    breadcrumbs.HuntStatus `json:"status"`
	Own       bool                   `json:"own"`
	HoursLeft int                    `json:"hoursLeft"`
}

// AvailableDetail is the pre-acceptance view: the first crumb's location
// hint, without its body.
type AvailableDetail struct {
	AvailableItem
	FirstCrumbTitle    string         `json:"firstCrumbTitle"`
	FirstCrumbLocation string         `json:"firstCrumbLocation"`
	FirstCrumbAt       geo.Coordinate `json:"firstCrumbAt"`
	TotalNotes         int            `json:"totalNotes"`
}

// CompletedItem is one finished hunt on the trophy list.
type CompletedItem struct {
	HuntID      int64                  `json:"huntId"`
	Title       string                 `json:"title"`
	Creator     string                 `json:"creator"`
	Status      breadcrumbs.HuntStatus `json:"status"`
	AcceptedAt  time.Time              `json:"acceptedAt"`
	CompletedAt time.Time              `json:"completedAt"`
}

// Browser serves the available and completed hunt lists for one user.
// The last available listing is kept so accepting can refuse the user's
// own hunts without another round trip.
type Browser struct {
	backend BrowseBackend
	userID  string
	logger  *slog.Logger

	mu     sync.Mutex
	listed map[int64]breadcrumbs.Hunt

	now func() time.Time
}

func NewBrowser(b BrowseBackend, userID string, logger *slog.Logger) *Browser {
	return &Browser{
		backend: b,
		userID:  userID,
		logger:  logger,
		listed:  make(map[int64]breadcrumbs.Hunt),
		now:     time.Now,
	}
}

// Available lists hunts open to the viewer, newest first as the service
// returns them, with hours left before each closes.
func (b *Browser) Available(ctx context.Context, token string) ([]AvailableItem, error) {
	rows, err := b.backend.AvailableHunts(ctx, token, b.userID)
	if err != nil {
		return nil, fmt.Errorf("fetching available hunts: %w", err)
	}

	b.mu.Lock()
	b.listed = make(map[int64]breadcrumbs.Hunt, len(rows))
	for _, r := range rows {
		b.listed[r.ID] = r.Hunt()
	}
	b.mu.Unlock()

	out := make([]AvailableItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, b.item(ctx, token, r.Hunt()))
	}
	return out, nil
}

func (b *Browser) item(ctx context.Context, token string, h breadcrumbs.Hunt) AvailableItem {
	return AvailableItem{
		HuntID:    h.ID,
		Title:     h.Title,
		Creator:   b.creatorName(ctx, token, h.CreatorID),
		Status:    breadcrumbs.HuntStatusAvailable,
		Own:       h.CreatorID == b.userID,
		HoursLeft: hoursLeft(h.CreatedAt, huntWindow, b.now()),
	}
}

// Detail previews a hunt: its first crumb's title and whereabouts, body
// withheld until the hunt is accepted.
func (b *Browser) Detail(ctx context.Context, token string, huntID int64) (AvailableDetail, error) {
	item, err := b.itemFor(ctx, token, huntID)
	if err != nil {
		return AvailableDetail{}, err
	}
	first, err := b.backend.FirstCrumb(ctx, token, huntID)
	if err != nil {
		return AvailableDetail{}, fmt.Errorf("loading first crumb: %w", err)
	}
	return AvailableDetail{
		AvailableItem:      item,
		FirstCrumbTitle:    first.Title,
		FirstCrumbLocation: first.Location,
		FirstCrumbAt:       first.Coordinate,
		TotalNotes:         first.TotalNotes,
	}, nil
}

// Accept starts a hunt for the viewer. Creators cannot accept their own
// hunts. A false result means the hunt was already started earlier.
func (b *Browser) Accept(ctx context.Context, token string, huntID int64) (bool, error) {
	item, err := b.itemFor(ctx, token, huntID)
	if err != nil {
		return false, err
	}
	if item.Own {
		return false, ErrOwnHunt
	}
	started, err := b.backend.StartHunt(ctx, token, b.userID, huntID)
	if err != nil {
		return false, fmt.Errorf("starting hunt: %w", err)
	}
	return started, nil
}

// Completed lists the viewer's finished hunts.
func (b *Browser) Completed(ctx context.Context, token string) ([]CompletedItem, error) {
	rows, err := b.backend.CompletedHunts(ctx, token, b.userID)
	if err != nil {
		return nil, fmt.Errorf("fetching completed hunts: %w", err)
	}
	out := make([]CompletedItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, CompletedItem{
			HuntID:      r.HuntID,
			Title:       r.Title,
			Creator:     b.creatorName(ctx, token, r.CreatedBy),
			Status:      breadcrumbs.HuntStatusCompleted,
			AcceptedAt:  r.AcceptedAt,
			CompletedAt: r.CompletedAt,
		})
	}
	return out, nil
}

// CompletedNotes replays a finished hunt's full clue trail.
func (b *Browser) CompletedNotes(ctx context.Context, token string, huntID int64) ([]breadcrumbs.Clue, error) {
	clues, err := b.backend.HuntNotes(ctx, token, huntID)
	if err != nil {
		return nil, fmt.Errorf("fetching hunt notes: %w", err)
	}
	return clues, nil
}

// itemFor resolves a hunt from the last listing, refreshing once when the
// hunt is not cached.
func (b *Browser) itemFor(ctx context.Context, token string, huntID int64) (AvailableItem, error) {
	b.mu.Lock()
	h, ok := b.listed[huntID]
	b.mu.Unlock()
	if !ok {
		rows, err := b.backend.AvailableHunts(ctx, token, b.userID)
		if err != nil {
			return AvailableItem{}, fmt.Errorf("fetching available hunts: %w", err)
		}
		b.mu.Lock()
		b.listed = make(map[int64]breadcrumbs.Hunt, len(rows))
		for _, r := range rows {
			b.listed[r.ID] = r.Hunt()
		}
		h, ok = b.listed[huntID]
		b.mu.Unlock()
		if !ok {
			return AvailableItem{}, fmt.Errorf("hunt %d is not available: %w", huntID, backend.ErrNotFound)
		}
	}
	return b.item(ctx, token, h), nil
}

func (b *Browser) creatorName(ctx context.Context, token, creatorID string) string {
	name, err := b.backend.CreatorDisplayName(ctx, token, creatorID)
	if err != nil || name == "" {
		if b.logger != nil && err != nil {
			b.logger.Warn("creator lookup failed", "creator_id", creatorID, "error", err)
		}
		return "Unknown"
	}
	return name
}
