package api

import (
	"encoding/json"
	"net/http"

	"github.com/jedawel/lenssafe/internal/monitor"
)

// Controller is the part of the monitor the API drives.
type Controller interface {
	Status() monitor.Status
	SetEnabled(enabled bool)
}

// MonitorHandler reports and toggles the monitor.
type MonitorHandler struct {
	monitor Controller
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(m Controller) *MonitorHandler {
	return &MonitorHandler{monitor: m}
}

type setMonitorRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and POST /api/monitor. POST takes {"enabled": bool}
// and answers with the resulting status.
func (h *MonitorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.monitor.Status())
	case http.MethodPost:
		var req setMonitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.monitor.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, h.monitor.Status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
