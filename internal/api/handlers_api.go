package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lox/weatherwidget/internal/ingest"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAPIWidget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.widget.View())
}

func (s *Server) handleAPIPosition(w http.ResponseWriter, r *http.Request) {
	if s.locator == nil {
		writeError(w, http.StatusConflict, "position is configured on the server")
		return
	}
	req, err := parsePositionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var accepted bool
	switch req.Error {
	case "denied":
		accepted = s.locator.Fail(ingest.ErrLocationDenied)
	case "unavailable":
		accepted = s.locator.Fail(ingest.ErrLocationUnavailable)
	default:
		pos, err := req.position()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		accepted = s.locator.Submit(pos)
	}

	if !accepted {
		writeError(w, http.StatusConflict, "position already reported")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// HealthStatus reports server state and cache freshness.
type HealthStatus struct {
	Status   string       `json:"status"`
	WidgetID string       `json:"widget_id"`
	Mode     widget.Mode  `json:"mode"`
	Cache    []CacheEntry `json:"cache"`
	Errors   []string     `json:"errors,omitempty"`
}

type CacheEntry struct {
	Key        string     `json:"key"`
	StoredAt   *time.Time `json:"stored_at,omitempty"`
	AgeMinutes int        `json:"age_minutes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	v := s.widget.View()
	health := HealthStatus{
		Status:   "ok",
		WidgetID: v.ID,
		Mode:     v.Mode,
		Cache:    make([]CacheEntry, 0, 2),
	}

	if err := s.store.Ping(r.Context()); err != nil {
		health.Errors = append(health.Errors, "db: "+err.Error())
	}

	now := time.Now()
	for _, key := range []string{store.KeyWeather, store.KeyLocation} {
		entry := CacheEntry{Key: key, AgeMinutes: -1}
		at, err := s.store.StoredAt(key)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			health.Errors = append(health.Errors, key+": "+err.Error())
		default:
			entry.StoredAt = &at
			entry.AgeMinutes = int(now.Sub(at).Minutes())
		}
		health.Cache = append(health.Cache, entry)
	}

	status := http.StatusOK
	if len(health.Errors) > 0 {
		health.Status = "error"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
