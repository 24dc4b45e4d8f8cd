package api

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/weatherwidget/internal/imagegen"
	"github.com/lox/weatherwidget/internal/ingest"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"
)

// Server exposes one widget over HTTP.
type Server struct {
	widget    *widget.Widget
	locator   *ingest.BrowserLocator // nil when the position comes from config
	store     *store.Store
	port      string
	tmpl      *template.Template
	cardCache *imagegen.CardCache
}

func NewServer(w *widget.Widget, locator *ingest.BrowserLocator, store *store.Store, port string) *Server {
	return &Server{
		widget:    w,
		locator:   locator,
		store:     store,
		port:      port,
		tmpl:      newTemplates(),
		cardCache: imagegen.NewCardCache(time.Minute),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /partials/widget", s.handleWidgetPartial)
	mux.HandleFunc("GET /api/widget", s.handleAPIWidget)
	mux.HandleFunc("POST /api/position", s.handleAPIPosition)
	mux.HandleFunc("POST /picker/toggle", s.handlePickerToggle)
	mux.HandleFunc("POST /picker/drag", s.handlePickerDrag)
	mux.HandleFunc("POST /picker/complete", s.handlePickerComplete)
	mux.HandleFunc("POST /picker/pointer", s.handlePickerPointer)
	mux.HandleFunc("GET /widget.png", s.handleWidgetImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return loggingMiddleware(mux)
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	log.Printf("server: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
