package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nerrad567/synthfleet/internal/device"
)

// handleInjectEvent queues an inbound event for a device. The event is
// not applied here: it is registered on the engine as a zero-delay
// callback so it executes on the dispatch goroutine, interleaved with
// the simulation's own events.
func (s *Server) handleInjectEvent(w http.ResponseWriter, r *http.Request) {
	var ev device.InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if ev.DeviceID == "" {
		writeBadRequest(w, "deviceId is required")
		return
	}
	if ev.Name == "" {
		writeBadRequest(w, "eventName is required")
		return
	}
	if _, err := s.registry.Find(ev.DeviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	ev.Stamp()
	s.engine.RegisterIn(0, func(now time.Time) {
		if err := s.registry.Dispatch(now, ev); err != nil {
			s.logger.Warn("event dispatch failed",
				"event_id", ev.EventID, "device_id", ev.DeviceID, "error", err)
		}
	}, "api/event/"+ev.EventID)

	s.logger.Info("event queued",
		"event_id", ev.EventID, "device_id", ev.DeviceID, "event", ev.Name)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"eventId":   ev.EventID,
		"deviceId":  ev.DeviceID,
		"eventName": ev.Name,
	})
}
