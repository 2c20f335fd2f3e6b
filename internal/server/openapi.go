package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
	"github.com/breadcrumbsapp/breadcrumbs/internal/notes"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Breadcrumbs API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("App server for the Breadcrumbs note-leaving and scavenger-hunt app.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the local store and the remote backend.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/auth/register")
	postRegister.SetSummary("Register")
	postRegister.SetDescription("Creates an account with the auth provider and returns a session.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postRegister)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Exchanges email and password for a session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Invalidates the session token and drops server-side session state.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(postLogout)

	// GET /api/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Returns the authenticated user's profile and completed hunt count.")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/notes
	getNotes, _ := r.NewOperationContext(http.MethodGet, "/api/notes")
	getNotes.SetSummary("List notes")
	getNotes.SetDescription("Visible notes classified in or out of range of the freshest position. Optional ?filter= visibility.")
	getNotes.AddRespStructure([]notes.MapNote{}, openapi.WithHTTPStatus(http.StatusOK))
	getNotes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getNotes)

	// POST /api/notes
	postNotes, _ := r.NewOperationContext(http.MethodPost, "/api/notes")
	postNotes.SetSummary("Leave a note")
	postNotes.SetDescription("Creates a geotagged note with a visibility tier.")
	postNotes.AddReqStructure(notes.CreateInput{})
	postNotes.AddRespStructure(CreateNoteResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postNotes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postNotes)

	// GET /api/notes/{noteID}
	getNote, _ := r.NewOperationContext(http.MethodGet, "/api/notes/{noteID}")
	getNote.SetSummary("Open a note")
	getNote.SetDescription("Re-checks range at open time; out of range returns a degraded panel without the body.")
	getNote.AddRespStructure(notes.Detail{}, openapi.WithHTTPStatus(http.StatusOK))
	getNote.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getNote)

	// POST /api/location/fix
	postFix, _ := r.NewOperationContext(http.MethodPost, "/api/location/fix")
	postFix.SetSummary("Report position")
	postFix.SetDescription("Records one device position fix.")
	postFix.AddReqStructure(FixRequest{})
	postFix.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postFix.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postFix)

	// GET /api/location/current
	getCurrent, _ := r.NewOperationContext(http.MethodGet, "/api/location/current")
	getCurrent.SetSummary("Current position")
	getCurrent.SetDescription("Returns the freshest known position, or known=false when stale or absent.")
	getCurrent.AddRespStructure(PositionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCurrent)

	// GET /api/location/watch
	getWatch, _ := r.NewOperationContext(http.MethodGet, "/api/location/watch")
	getWatch.SetSummary("Position stream")
	getWatch.SetDescription("Upgrades to a WebSocket carrying device fixes in and range classifications out.")
	getWatch.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWatch)

	// GET /api/hunts/active
	getActive, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/active")
	getActive.SetSummary("Active hunts")
	getActive.AddRespStructure([]hunt.ActiveHuntItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getActive)

	// POST /api/hunts/{huntID}/select
	postSelect, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/{huntID}/select")
	postSelect.SetSummary("Select a hunt")
	postSelect.SetDescription("Loads the caller's current clue for the hunt.")
	postSelect.AddRespStructure(hunt.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postSelect.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postSelect)

	// POST /api/hunts/pickup
	postPickup, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/pickup")
	postPickup.SetSummary("Pick up the crumb")
	postPickup.SetDescription("Claims the loaded clue. Requires a fresh in-range position; only one claim may be in flight.")
	postPickup.AddRespStructure(hunt.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postPickup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postPickup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusPreconditionFailed))
	_ = r.AddOperation(postPickup)

	// POST /api/hunts/acknowledge
	postAck, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/acknowledge")
	postAck.SetSummary("Acknowledge completion")
	postAck.AddRespStructure(hunt.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postAck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAck)

	// GET /api/hunts/available
	getAvailable, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/available")
	getAvailable.SetSummary("Available hunts")
	getAvailable.AddRespStructure([]hunt.AvailableItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getAvailable)

	// GET /api/hunts/available/{huntID}
	getDetail, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/available/{huntID}")
	getDetail.SetSummary("Hunt preview")
	getDetail.SetDescription("First crumb's title and whereabouts, body withheld until accepted.")
	getDetail.AddRespStructure(hunt.AvailableDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getDetail.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getDetail)

	// POST /api/hunts/{huntID}/accept
	postAccept, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/{huntID}/accept")
	postAccept.SetSummary("Accept a hunt")
	postAccept.SetDescription("Starts the hunt for the caller. Creators cannot accept their own hunts.")
	postAccept.AddRespStructure(AcceptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAccept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAccept)

	// GET /api/hunts/completed
	getCompleted, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/completed")
	getCompleted.SetSummary("Completed hunts")
	getCompleted.AddRespStructure([]hunt.CompletedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCompleted)

	// GET /api/wizard/draft
	getDraft, _ := r.NewOperationContext(http.MethodGet, "/api/wizard/draft")
	getDraft.SetSummary("Resume draft")
	getDraft.SetDescription("Returns the stored hunt draft, creating a fresh one when none exists.")
	getDraft.AddRespStructure(hunt.Draft{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getDraft)

	// PUT /api/wizard/details
	putDetails, _ := r.NewOperationContext(http.MethodPut, "/api/wizard/details")
	putDetails.SetSummary("Set hunt details")
	putDetails.AddReqStructure(DetailsRequest{})
	putDetails.AddRespStructure(hunt.Draft{}, openapi.WithHTTPStatus(http.StatusOK))
	putDetails.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putDetails)

	// PUT /api/wizard/clues/{slot}
	putClue, _ := r.NewOperationContext(http.MethodPut, "/api/wizard/clues/{slot}")
	putClue.SetSummary("Set a crumb")
	putClue.AddReqStructure(hunt.ClueInput{})
	putClue.AddRespStructure(hunt.Draft{}, openapi.WithHTTPStatus(http.StatusOK))
	putClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putClue)

	// POST /api/wizard/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/wizard/submit")
	postSubmit.SetSummary("Publish the hunt")
	postSubmit.SetDescription("Publishes every crumb in order, then registers the hunt. Stops at the first failed crumb.")
	postSubmit.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postSubmit)

	// GET /api/geocode/reverse
	getReverse, _ := r.NewOperationContext(http.MethodGet, "/api/geocode/reverse")
	getReverse.SetSummary("Reverse geocode")
	getReverse.SetDescription("Names the spot at lat/lon, keeping the clicked coordinate.")
	getReverse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getReverse)

	// GET /api/friends
	getFriends, _ := r.NewOperationContext(http.MethodGet, "/api/friends")
	getFriends.SetSummary("List friends")
	getFriends.AddRespStructure([]FriendEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getFriends)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of hunt and location events. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spec)
	}
}
