package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	broker := NewBroker()
	sessions := NewSessions(deps.Backend, deps.Drafts, broker, deps.Logger)
	tokens := newTokenCache()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Breadcrumbs API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(deps.Logger, deps.DB, deps.Backend))
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Post("/api/auth/register", handleRegister(deps.Backend))
	r.Post("/api/auth/login", handleLogin(deps.Backend))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(deps.Backend, sessions, tokens))

		r.Post("/auth/logout", handleLogout(deps.Backend, sessions, tokens))
		r.Get("/me", handleMe(deps.Backend))

		r.Get("/notes", handleListNotes())
		r.Post("/notes", handleCreateNote())
		r.Get("/notes/{noteID}", handleOpenNote())

		r.Post("/location/fix", handleReportFix())
		r.Post("/location/error", handleReportSensorError(broker))
		r.Get("/location/current", handleCurrentPosition())
		r.Get("/location/watch", handleWatch(deps.Logger, broker))

		r.Get("/hunts/active", handleActiveHunts())
		r.Get("/hunts/state", handleHuntState())
		r.Post("/hunts/{huntID}/select", handleSelectHunt())
		r.Post("/hunts/pickup", handlePickUp())
		r.Post("/hunts/acknowledge", handleAcknowledgeCompletion())

		r.Get("/hunts/available", handleAvailableHunts())
		r.Get("/hunts/available/{huntID}", handleHuntDetail())
		r.Post("/hunts/{huntID}/accept", handleAcceptHunt())

		r.Get("/hunts/completed", handleCompletedHunts())
		r.Get("/hunts/completed/{huntID}/notes", handleCompletedHuntNotes())

		r.Get("/wizard/draft", handleWizardResume())
		r.Put("/wizard/details", handleWizardDetails())
		r.Put("/wizard/clues/{slot}", handleWizardClue())
		r.Post("/wizard/back", handleWizardBack())
		r.Post("/wizard/goto", handleWizardGoTo())
		r.Post("/wizard/submit", handleWizardSubmit())
		r.Delete("/wizard/draft", handleWizardDiscard())

		r.Get("/geocode/reverse", handleReverseGeocode(deps.Geocoder))
		r.Get("/geocode/search", handleSearchPlaces(deps.Geocoder))

		r.Get("/friends", handleListFriends(deps.Backend))
		r.Get("/friends/search", handleSearchUsers(deps.Backend))
		r.Post("/friends", handleAddFriend(deps.Backend))
		r.Post("/friends/{friendID}/accept", handleAcceptFriend(deps.Backend))
		r.Delete("/friends/{friendID}", handleRemoveFriend(deps.Backend))

		r.Get("/events", handleEvents(broker))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			deps.Logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
