package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jedawel/lenssafe/internal/store"
)

// AlertHandler handles HTTP requests for alert history.
type AlertHandler struct {
	store *store.Store
}

// NewAlertHandler creates a new AlertHandler with the given store.
func NewAlertHandler(s *store.Store) *AlertHandler {
	return &AlertHandler{store: s}
}

// ServeHTTP routes /api/alerts and /api/alerts/{id}.
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/alerts"), "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type listAlertsResponse struct {
	Alerts []*store.Alert `json:"alerts"`
}

// list handles GET /api/alerts and returns the newest alerts first.
func (h *AlertHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	alerts, err := h.store.Alerts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []*store.Alert{}
	}

	writeJSON(w, http.StatusOK, listAlertsResponse{Alerts: alerts})
}

func (h *AlertHandler) get(w http.ResponseWriter, id string) {
	alert, err := h.store.Alerts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get alert")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Alerts().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
