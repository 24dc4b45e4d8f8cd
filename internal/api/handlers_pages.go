package api

import (
	"bytes"
	"log"
	"net/http"

	"github.com/lox/weatherwidget/internal/widget"
)

// IndexData is the full-page template input.
type IndexData struct {
	View widget.View
	// Geolocate asks the page to report the browser's position.
	Geolocate bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := IndexData{
		View:      s.widget.View(),
		Geolocate: s.locator != nil && !s.locator.Resolved(),
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleWidgetPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, "widget", s.widget.View())
}

// render buffers the template so a failure can still produce a 500.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("template error: %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("http: write %s: %v", name, err)
	}
}

// respondView answers an htmx request with the card fragment and anything else with JSON.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request) {
	v := s.widget.View()
	if r.Header.Get("HX-Request") == "true" {
		s.render(w, "widget", v)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
