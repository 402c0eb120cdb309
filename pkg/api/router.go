// Package api provides HTTP API server components.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/api/handlers"
	"github.com/engramhq/engram/pkg/api/middleware"
	"github.com/engramhq/engram/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Session handles session lifecycle endpoints
	Session *handlers.SessionHandler

	// Directive handles directive processing endpoints
	Directive *handlers.DirectiveHandler

	// Memory handles per-session memory endpoints
	Memory *handlers.MemoryHandler

	// Mood handles mood inspection endpoints
	Mood *handlers.MoodHandler

	// Causal handles causal log endpoints
	Causal *handlers.CausalHandler

	// Snapshot handles snapshot persistence endpoints
	Snapshot *handlers.SnapshotHandler

	// WebSocket handles the event stream endpoint
	WebSocket http.Handler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
	}

	r.Use(middleware.Tracing())
	r.Use(middleware.CORS(&cfg.Server.CORS))

	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(&cfg.Server.RateLimit).Middleware())
	}

	if cfg.Server.HTTP.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))
	}

	RegisterRoutes(r, h)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if h.Session != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.Session.CreateSession)
				r.Get("/", h.Session.ListSessions)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", h.Session.GetSession)
					r.Delete("/", h.Session.DeleteSession)
					r.Get("/status", h.Session.GetSession)
					r.Post("/awaken", h.Session.Awaken)
					r.Get("/identity", h.Session.GetIdentity)

					if h.Directive != nil {
						r.Post("/directives", h.Directive.ProcessDirective)
					}

					if h.Memory != nil {
						r.Route("/memory", func(r chi.Router) {
							r.Post("/", h.Memory.StoreMemory)
							r.Get("/", h.Memory.RecallMemory)
							r.Get("/list", h.Memory.ListMemory)
							r.Get("/stats", h.Memory.GetStats)
							r.Post("/links", h.Memory.LinkMemories)
							r.Get("/{key}", h.Memory.GetMemory)
							r.Post("/{key}/touch", h.Memory.TouchMemory)
						})
					}

					if h.Mood != nil {
						r.Get("/mood", h.Mood.GetMood)
					}

					if h.Causal != nil {
						r.Route("/causal", func(r chi.Router) {
							r.Get("/", h.Causal.ListEvents)
							r.Get("/forecast", h.Causal.Forecast)
							r.Get("/{eventID}/trace", h.Causal.TraceEvent)
						})
					}

					if h.Snapshot != nil {
						r.Post("/snapshot", h.Snapshot.SaveSession)
						r.Post("/snapshot/restore", h.Snapshot.LoadSession)
					}
				})
			})
		}

		if h.Snapshot != nil {
			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", h.Snapshot.ListSnapshots)
				r.Post("/save-all", h.Snapshot.SaveAll)
				r.Post("/{sessionID}/load", h.Snapshot.LoadSession)
			})
		}
	})

	// Health check routes (not versioned)
	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Get("/status", h.Health.Status)
	}

	// Websocket event stream
	if h.WebSocket != nil {
		r.Handle("/ws/events", h.WebSocket)
	}
}
