package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/backend"
	"github.com/breadcrumbsapp/breadcrumbs/internal/breadcrumbs"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyToken
)

const (
	// tokenCacheTTL bounds how long a revoked or expired token keeps
	// working here before the auth service is consulted again.
	tokenCacheTTL        = 5 * time.Minute
	tokenCacheMaxEntries = 4096
)

// tokenCache remembers which access tokens recently resolved to a user so
// every request does not round-trip to the auth service. Entries age out
// after tokenCacheTTL, and the map never holds more than
// tokenCacheMaxEntries tokens.
type tokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenEntry

	now func() time.Time
}

type tokenEntry struct {
	user      breadcrumbs.User
	expiresAt time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{entries: make(map[string]tokenEntry), now: time.Now}
}

func (c *tokenCache) get(token string) (breadcrumbs.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[token]
	if !ok || c.now().After(e.expiresAt) {
		return breadcrumbs.User{}, false
	}
	return e.user, true
}

func (c *tokenCache) put(token string, u breadcrumbs.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= tokenCacheMaxEntries {
		now := c.now()
		for t, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, t)
			}
		}
	}
	// Still full after sweeping: evict arbitrary entries rather than grow.
	for t := range c.entries {
		if len(c.entries) < tokenCacheMaxEntries {
			break
		}
		delete(c.entries, t)
	}
	c.entries[token] = tokenEntry{user: u, expiresAt: c.now().Add(tokenCacheTTL)}
}

func (c *tokenCache) drop(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		// The SSE and websocket endpoints cannot set headers from the
		// browser, so they pass the token as a query parameter.
		return r.URL.Query().Get("token")
	}
	return token
}

func authMiddleware(b *backend.Client, sessions *Sessions, cache *tokenCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			user, ok := cache.get(token)
			if !ok {
				var err error
				user, err = b.UserFromToken(r.Context(), token)
				if errors.Is(err, backend.ErrNoSession) {
					writeError(w, http.StatusUnauthorized, "not authenticated")
					return
				}
				if err != nil {
					writeError(w, http.StatusBadGateway, "auth service unavailable")
					return
				}
				cache.put(token, user)
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sessions.Get(user))
			ctx = context.WithValue(ctx, ctxKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *Session {
	return r.Context().Value(ctxKeySession).(*Session)
}

func tokenFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyToken).(string)
}
