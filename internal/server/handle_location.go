package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
	"github.com/breadcrumbsapp/breadcrumbs/internal/location"
)

const EventSensorError = "sensor_error"

type FixRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PositionResponse struct {
	Known     bool     `json:"known"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// handleReportFix ingests one position fix from the device.
func handleReportFix() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FixRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		pos := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
		if err := sess.Tracker.Update(pos); err != nil {
			writeError(w, http.StatusBadRequest, "coordinate out of bounds")
			return
		}
		sess.Controller.OnPositionUpdate(pos)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleReportSensorError records a device geolocation failure. The user
// is told once; repeats are swallowed.
func handleReportSensorError(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if sess.Tracker.ReportSensorError() {
			sensorErrorsTotal.Inc()
			broker.Publish(sess.User.ID, hunt.Event{Kind: EventSensorError})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCurrentPosition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		pos, ok := sess.Tracker.Current()
		if !ok {
			writeJSON(w, http.StatusOK, PositionResponse{Known: false})
			return
		}
		writeJSON(w, http.StatusOK, PositionResponse{
			Known:     true,
			Latitude:  &pos.Latitude,
			Longitude: &pos.Longitude,
		})
	}
}

type watchMessage struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SensorError bool    `json:"sensorError,omitempty"`
}

type watchAck struct {
	InRange       bool     `json:"inRange"`
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
}

// handleWatch holds a websocket open for the device's position stream.
// Each fix updates the shared tracker and is answered with the active
// clue's range classification.
func handleWatch(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		activeWatchStreams.Inc()
		defer activeWatchStreams.Dec()

		ctx, cancel := context.WithTimeout(r.Context(), 12*time.Hour)
		defer cancel()

		for {
			_, raw, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("watch stream ended", "user_id", sess.User.ID, "error", err)
				return
			}

			var msg watchMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				logger.Debug("bad watch message", "error", err)
				continue
			}

			if msg.SensorError {
				if sess.Tracker.ReportSensorError() {
					sensorErrorsTotal.Inc()
					broker.Publish(sess.User.ID, hunt.Event{Kind: EventSensorError})
				}
				continue
			}

			pos := geo.Coordinate{Latitude: msg.Latitude, Longitude: msg.Longitude}
			if err := sess.Tracker.Update(pos); err != nil {
				if errors.Is(err, location.ErrInvalidFix) {
					continue
				}
				return
			}
			sess.Controller.OnPositionUpdate(pos)

			ack := watchAck{}
			if snap := sess.Controller.Snapshot(); snap.Clue != nil {
				ack.InRange = snap.Clue.InRange
				ack.DistanceMiles = snap.Clue.DistanceMiles
			}
			data, _ := json.Marshal(ack)
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Debug("watch write failed", "error", err)
				return
			}
		}
	}
}
