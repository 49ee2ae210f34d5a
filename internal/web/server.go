// Package web hosts the HTTP API server.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/Its-me-GK/FaceMark/internal/web/middleware"
)

// Stores bundles the persistence backends the API runs on.
type Stores struct {
	Gallery    database.GalleryStore
	Attendance database.AttendanceStore
	Students   database.StudentStore
	Requests   database.RequestStore
}

// Server represents the web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server. The batch pipeline and the enrollment
// pipeline differ only in threshold profile; both share the same model
// client.
func NewServer(
	cfg *config.Config,
	port int,
	host string,
	batchPipeline *recognition.Pipeline,
	enrollPipeline *recognition.Pipeline,
	stores Stores,
) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: cfg,
		router: r,
	}

	// Set up middleware stack.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	coordinator := recognition.NewCoordinator(batchPipeline, stores.Gallery, cfg.Recognition.Concurrency)
	if cfg.Recognition.Matcher == "hnsw" {
		coordinator.SetMatcherFactory(func(g []recognition.GalleryEntry) recognition.Matcher {
			return recognition.NewHNSWMatcher(g)
		})
	}
	reconciler := attendance.NewReconciler(stores.Attendance)
	s.setupRoutes(coordinator, reconciler, enrollPipeline, stores)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for batch uploads
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
