package api

import (
	"errors"
	"net/http"

	"github.com/lox/weatherwidget/internal/widget"
)

func (s *Server) handlePickerToggle(w http.ResponseWriter, r *http.Request) {
	s.widget.Picker().Toggle()
	s.respondView(w, r)
}

// handlePickerDrag records an in-progress selection. The background is unchanged;
// htmx requests get the preview swatch back.
func (s *Server) handlePickerDrag(w http.ResponseWriter, r *http.Request) {
	req, err := parseColorRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.widget.Picker().Drag(req.Color); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		s.render(w, "preview", s.widget.View().Preview)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePickerComplete(w http.ResponseWriter, r *http.Request) {
	req, err := parseColorRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.widget.Picker().Complete(req.Color); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, widget.ErrPickerClosed) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	s.respondView(w, r)
}

// handlePickerPointer delivers a pointer press to the widget's input surface.
func (s *Server) handlePickerPointer(w http.ResponseWriter, r *http.Request) {
	pt, err := parsePointerRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.widget.Surface().PointerDown(pt)
	s.respondView(w, r)
}
