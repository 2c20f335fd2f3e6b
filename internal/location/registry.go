package location

import (
	"sync"
	"time"
)

// Registry owns one Tracker per user. Each tracker is created lazily on
// first use and released when the session ends.
type Registry struct {
	maxAge   time.Duration
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{
		maxAge:   maxAge,
		trackers: make(map[string]*Tracker),
	}
}

func (r *Registry) Get(userID string) *Tracker {
	r.mu.RLock()
	t, ok := r.trackers[userID]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if t, ok := r.trackers[userID]; ok {
		return t
	}

	t = NewTracker(r.maxAge)
	r.trackers[userID] = t
	return t
}

// Release drops the user's tracker. Live subscriptions keep their channels
// but will never receive another fix.
func (r *Registry) Release(userID string) {
	r.mu.Lock()
	delete(r.trackers, userID)
	r.mu.Unlock()
}
