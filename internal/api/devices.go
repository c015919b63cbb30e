package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/synthfleet/internal/device"
)

// defaultHistoryLimit bounds history queries when the client does not
// specify a limit.
const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// deviceView is the API representation of a simulated device.
type deviceView struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	CommsUp    bool           `json:"comms_up"`
	Online     bool           `json:"online"`
}

func newDeviceView(d *device.Device) deviceView {
	return deviceView{
		ID:         d.ID(),
		Properties: d.Snapshot(),
		CommsUp:    d.CommsUp(),
		Online:     d.CommsOK(),
	}
}

// handleListDevices returns all devices, with an optional property filter.
//
// Query parameters:
//   - property: property name to filter on (requires value)
//   - value: property value to match (string comparison)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if prop := r.URL.Query().Get("property"); prop != "" {
		value := r.URL.Query().Get("value")
		if value == "" {
			writeBadRequest(w, "value query parameter is required with property")
			return
		}
		matches := s.registry.FindByProperty(prop, value)
		views := make([]deviceView, 0, len(matches))
		for _, d := range matches {
			views = append(views, newDeviceView(d))
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
		return
	}

	devices := s.registry.Devices()
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, newDeviceView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.Find(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, newDeviceView(d))
}

// handleDeviceHistory returns archived telemetry for a device, most
// recent first.
//
// Query parameters:
//   - limit: maximum rows to return (default 100, max 1000)
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.registry.Find(id); err != nil {
		writeNotFound(w, "device not found")
		return
	}
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "telemetry archive is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.archive.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to query telemetry history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}
