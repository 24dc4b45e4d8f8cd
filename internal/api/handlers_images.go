package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/lox/weatherwidget/internal/imagegen"
)

// handleWidgetImage serves the card as a PNG, reusing the last render while the view is unchanged.
func (s *Server) handleWidgetImage(w http.ResponseWriter, r *http.Request) {
	v := s.widget.View()
	key := imagegen.CacheKey(v)

	data, ok := s.cardCache.Get(key)
	if !ok {
		var err error
		data, err = imagegen.Render(v)
		if err != nil {
			log.Printf("card: render: %v", err)
			http.Error(w, "Image generation failed", http.StatusInternalServerError)
			return
		}
		s.cardCache.Set(key, data)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
