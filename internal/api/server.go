// Package api provides the HTTP server for clickquest.
// It exposes goal tracking, activity recording, profiles, daily challenges
// and decay sweeps as a JSON API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/health"
)

// Server is the clickquest HTTP API server.
type Server struct {
	recorder     *engagement.Recorder
	challenges   *engagement.ChallengeService
	sweeper      *engagement.Sweeper
	achievements *engagement.AchievementService
	health       *health.Checker

	clock          domain.Clock
	log            *zap.Logger
	corsOrigins    []string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(rec *engagement.Recorder, ch *engagement.ChallengeService, sw *engagement.Sweeper, ach *engagement.AchievementService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		recorder:     rec,
		challenges:   ch,
		sweeper:      sw,
		achievements: ach,
		clock:        domain.SystemClock{},
		log:          log.Named("api"),
		corsOrigins:  []string{"*"},
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth reports the checker's statuses on /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetClock replaces the wall clock used to timestamp requests.
func (s *Server) SetClock(c domain.Clock) { s.clock = c }

// SetCORSOrigins sets the allowed origins. "*" allows any origin.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/progression", s.handleProgression)
		r.Post("/decay/sweep", s.handleDecaySweep)

		r.Route("/players/{player}", func(r chi.Router) {
			r.Get("/profile", s.handleProfile)

			r.Get("/goals", s.handleListGoals)
			r.Post("/goals", s.handleCreateGoal)
			r.Route("/goals/{goal}", func(r chi.Router) {
				r.Get("/", s.handleGetGoal)
				r.Post("/activate", s.handleActivateGoal)
				r.Post("/click", s.handleActivity(1))
				r.Post("/unclick", s.handleActivity(-1))
				r.Get("/threshold", s.handleThreshold)
			})

			r.Get("/challenge", s.handleChallenge)
			r.Post("/challenge/evaluate", s.handleEvaluateChallenge)
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
		return
	}

	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeServiceError maps engine errors to HTTP statuses. Lookup and input
// errors are shown to the caller; anything else is logged and replaced by
// a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case engagement.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, r.Context().Err()):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.log.Error(msg,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// corsMiddleware adds CORS headers for the configured origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}
