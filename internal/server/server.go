// Package server exposes the interaction API over HTTP. One browser, one
// interaction at a time: concurrent /interact calls beyond the single slot
// are rejected immediately rather than queued behind a possibly long wait.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/browser"
	"github.com/webpilot-dev/webpilot/internal/config"
	"github.com/webpilot-dev/webpilot/internal/executor"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Resolver parses command text into intents.
type Resolver interface {
	Resolve(command string, options map[string]any) (resolver.Intent, error)
}

// Runner executes intents against the browser.
type Runner interface {
	Execute(ctx context.Context, intent resolver.Intent) executor.Result
}

// Browser is the lifecycle surface the HTTP layer needs from the browser
// manager.
type Browser interface {
	Status() (browser.Status, bool)
	Reset(ctx context.Context) error
}

// Server hosts the interaction API.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver Resolver
	runner   Runner
	browser  Browser

	// interactSlot enforces the single-session, serialized-interaction
	// model. TryAcquire keeps a stuck action from piling up callers.
	interactSlot *semaphore.Weighted
	limiter      *rate.Limiter

	httpServer *http.Server
}

// New assembles the server.
func New(cfg *config.Config, res Resolver, runner Runner, br Browser, logger *zap.Logger) *Server {
	return &Server{
		cfg:          cfg,
		logger:       logger.Named("http"),
		resolver:     res,
		runner:       runner,
		browser:      br,
		interactSlot: semaphore.NewWeighted(1),
		limiter:      rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
	}
}

// Routes builds the router. Exposed separately so tests can drive the
// handler stack without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	r.Use(corsMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Post("/interact", s.handleInteract)
	r.Get("/status", s.handleStatus)
	r.Get("/healthz", s.handleHealthz)
	r.Post("/reset", s.handleReset)

	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Routes(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.String("address", s.cfg.Server.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// handleInteract is the main command entry point.
func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, CommandResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}
	if req.Command == "" {
		s.respond(w, http.StatusBadRequest, CommandResponse{
			Success: false,
			Message: "Missing required field: command",
		})
		return
	}

	// One interaction at a time. Callers that lose the race get an
	// immediate busy signal instead of waiting behind a long action.
	if !s.interactSlot.TryAcquire(1) {
		s.respond(w, http.StatusServiceUnavailable, CommandResponse{
			Success: false,
			Message: "Another interaction is in progress",
		})
		return
	}
	defer s.interactSlot.Release(1)

	s.logger.Info("Received command", zap.String("command", req.Command))

	intent, err := s.resolver.Resolve(req.Command, req.Options)
	if err != nil {
		ae := autoerr.AsError(err)
		s.respond(w, http.StatusBadRequest, CommandResponse{
			Success: false,
			Message: ae.Message,
			Data: map[string]any{
				"error_type":           string(ae.Kind),
				"details":              ae.Details,
				"recovery_suggestions": ae.Suggestions,
			},
		})
		return
	}

	result := s.runner.Execute(r.Context(), intent)
	s.respond(w, http.StatusOK, CommandResponse{
		Success: result.Success,
		Message: result.Message,
		Data:    result.Data,
	})
}

// handleStatus reports the session snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.browser.Status()
	if !ok {
		s.respond(w, http.StatusOK, StatusResponse{Status: "not_initialized"})
		return
	}
	s.respond(w, http.StatusOK, StatusResponse{
		Status:      "ready",
		BrowserInfo: &snapshot,
	})
}

// handleHealthz confirms the process is responsive.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReset closes and recreates the browser session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.interactSlot.TryAcquire(1) {
		s.respond(w, http.StatusServiceUnavailable, ResetResponse{
			Status:  "error",
			Message: "Another interaction is in progress",
		})
		return
	}
	defer s.interactSlot.Release(1)

	if err := s.browser.Reset(r.Context()); err != nil {
		s.logger.Error("Browser reset failed", zap.Error(err))
		s.respond(w, http.StatusInternalServerError, ResetResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}
	s.respond(w, http.StatusOK, ResetResponse{
		Status:  "success",
		Message: "Browser reset successfully",
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// rateLimitMiddleware applies the service-wide request budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.respond(w, http.StatusTooManyRequests, CommandResponse{
				Success: false,
				Message: "Rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows cross-origin callers during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
