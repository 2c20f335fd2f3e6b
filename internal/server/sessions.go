package server

import (
	"log/slog"
	"sync"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
	"github.com/breadcrumbsapp/breadcrumbs/internal/notes"
)

// Session bundles the per-user state machines. Everything location-aware
// shares the one tracker so the freshest fix gates every range check the
// same way.
type Session struct {
	User       breadcrumbs.User
	Tracker    *location.Tracker
	Controller *hunt.Controller
	Wizard     *hunt.Wizard
	Browser    *hunt.Browser
	Notes      *notes.View
}

// Sessions hands out one Session per user, created on first use.
type Sessions struct {
	backend  *backend.Client
	drafts   hunt.DraftStore
	broker   *Broker
	logger   *slog.Logger
	trackers *location.Registry

	mu    sync.RWMutex
	users map[string]*Session
}

func NewSessions(b *backend.Client, drafts hunt.DraftStore, broker *Broker, logger *slog.Logger) *Sessions {
	return &Sessions{
		backend:  b,
		drafts:   drafts,
		broker:   broker,
		logger:   logger,
		trackers: location.NewRegistry(location.DefaultMaxFixAge),
		users:    make(map[string]*Session),
	}
}

func (s *Sessions) Get(user breadcrumbs.User) *Session {
	s.mu.RLock()
	sess, ok := s.users[user.ID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if sess, ok := s.users[user.ID]; ok {
		return sess
	}

	tracker := s.trackers.Get(user.ID)
	publish := func(e hunt.Event) { s.broker.Publish(user.ID, e) }
	sess = &Session{
		User:       user,
		Tracker:    tracker,
		Controller: hunt.NewController(s.backend, tracker, user.ID, s.logger, publish),
		Wizard:     hunt.NewWizard(s.drafts, s.backend, user.ID, s.logger),
		Browser:    hunt.NewBrowser(s.backend, user.ID, s.logger),
		Notes:      notes.NewView(s.backend, tracker, user.ID),
	}
	s.users[user.ID] = sess
	return sess
}

// Release drops a user's session state; the next request rebuilds it.
func (s *Sessions) Release(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	s.trackers.Release(userID)
}
