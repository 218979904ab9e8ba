// Package rest wires the HTTP surface of the assessment engine.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/interfaces/http/rest/handlers"
	"github.com/sovadim/knowledge-engine/internal/interfaces/http/rest/middleware"
	"github.com/sovadim/knowledge-engine/pkg/api"
)

// Router assembles the REST routes and middleware chain.
type Router struct {
	nodes          *handlers.NodeHandler
	sessions       *handlers.SessionHandler
	logger         *zap.Logger
	allowedOrigins []string
}

// NewRouter creates a router over the given handlers.
func NewRouter(nodes *handlers.NodeHandler, sessions *handlers.SessionHandler, logger *zap.Logger, allowedOrigins []string) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	return &Router{
		nodes:          nodes,
		sessions:       sessions,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(rt.logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		api.Success(w, http.StatusOK, api.MessageResponse{Message: "pong"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", rt.nodes.List)
			r.Post("/", rt.nodes.Create)
			r.Post("/reset", rt.nodes.Reset)
			r.Route("/{nodeID}", func(r chi.Router) {
				r.Get("/", rt.nodes.Get)
				r.Patch("/", rt.nodes.Edit)
				r.Delete("/", rt.nodes.Delete)
				r.Post("/enable", rt.nodes.Enable)
				r.Post("/disable", rt.nodes.Disable)
			})
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", rt.nodes.CreateEdge)
			r.Delete("/", rt.nodes.DeleteEdge)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", rt.sessions.Start)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", rt.sessions.Get)
				r.Post("/answer", rt.sessions.Answer)
				r.Post("/stop", rt.sessions.Stop)
				r.Get("/summary", rt.sessions.Summary)
			})
		})
	})

	return r
}
