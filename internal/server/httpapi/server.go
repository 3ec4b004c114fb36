// Package httpapi is the HTTP transport of the TaskVault server: route
// wiring, the session/CSRF gate, and thin handlers that translate between
// JSON and the service layer.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/server/config"
	"github.com/taskvault/taskvault/internal/server/services"
)

// HTTPServer holds the wiring for the public HTTP endpoint.
type HTTPServer struct {
	address         string
	logger          logging.Logger
	db              *sql.DB
	users           *services.UserService
	tasks           *services.TaskService
	analytics       *services.AnalyticsService
	attachments     *services.AttachmentService
	jwtSecret       []byte
	sessionValidity time.Duration
	secureCookies   bool
}

// NewHTTPServer constructs the HTTP endpoint. Cookies are marked Secure in
// every environment except development.
func NewHTTPServer(cfg *config.Config, l logging.Logger, db *sql.DB,
	us *services.UserService, ts *services.TaskService,
	as *services.AnalyticsService, ats *services.AttachmentService) *HTTPServer {
	return &HTTPServer{
		address:         cfg.EndpointAddrHTTP,
		logger:          l.With("module", "http_server"),
		db:              db,
		users:           us,
		tasks:           ts,
		analytics:       as,
		attachments:     ats,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
		secureCookies:   cfg.Environment != config.EnvDevelopment,
	}
}

// Handler assembles the route table and the middleware stack.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHello)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/users", s.handleRegister)
	mux.HandleFunc("POST /api/users/logon", s.handleLogon)
	mux.HandleFunc("POST /api/users/logoff", s.handleLogoff)

	protected := func(h http.HandlerFunc) http.Handler {
		return s.requireSession(h)
	}

	mux.Handle("POST /api/tasks", protected(s.handleTaskCreate))
	mux.Handle("GET /api/tasks", protected(s.handleTaskList))
	mux.Handle("GET /api/tasks/{id}", protected(s.handleTaskShow))
	mux.Handle("PATCH /api/tasks/{id}", protected(s.handleTaskUpdate))
	mux.Handle("DELETE /api/tasks/{id}", protected(s.handleTaskDelete))

	mux.Handle("POST /api/tasks/{id}/attachments", protected(s.handleAttachmentCreate))
	mux.Handle("GET /api/tasks/{id}/attachments", protected(s.handleAttachmentList))
	mux.Handle("GET /api/tasks/{id}/attachments/{attachmentID}", protected(s.handleAttachmentShow))

	mux.Handle("GET /api/analytics/users", protected(s.handleAnalyticsUsers))
	mux.Handle("GET /api/analytics/users/{id}", protected(s.handleAnalyticsUserReport))
	mux.Handle("GET /api/analytics/tasks/search", protected(s.handleAnalyticsTaskSearch))

	// Everything else is a JSON 404.
	mux.HandleFunc("/", s.handleNotFound)

	return s.recoverPanics(s.logRequests(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

// handleHealth verifies database connectivity with a round-trip.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error", "db": "not connected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
}

func (s *HTTPServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: "route not found"})
}
