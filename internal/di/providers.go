// Package di assembles the application object graph with wire.
package di

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/config"
	"github.com/sovadim/knowledge-engine/internal/engine"
	"github.com/sovadim/knowledge-engine/internal/evaluator"
	"github.com/sovadim/knowledge-engine/internal/graph"
	"github.com/sovadim/knowledge-engine/internal/interfaces/http/rest"
	"github.com/sovadim/knowledge-engine/internal/interfaces/http/rest/handlers"
	sessionstore "github.com/sovadim/knowledge-engine/internal/session"
	"github.com/sovadim/knowledge-engine/pkg/observability"
)

// App holds the wired application.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Graph   *graph.Store
	Oracle  evaluator.Oracle
	Engine  *engine.Engine
	Handler http.Handler
}

// ProvideLogger creates the zap logger for the configured environment.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideMetrics registers the prometheus collectors.
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.DefaultRegisterer)
}

// ProvideGraphStore creates the graph store and loads the seed file
// when one is configured.
func ProvideGraphStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*graph.Store, error) {
	store := graph.NewStore(logger)
	if cfg.Graph.SeedFile != "" {
		seed, err := graph.LoadSeed(cfg.Graph.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := seed.Apply(store); err != nil {
			return nil, err
		}
		logger.Info("graph seeded",
			zap.String("file", cfg.Graph.SeedFile),
			zap.Int("nodes", store.Len()),
		)
	}
	metrics.GraphNodes.Set(float64(store.Len()))
	return store, nil
}

// ProvideSessionStore creates the configured session repository.
func ProvideSessionStore(cfg *config.Config, logger *zap.Logger) (sessionstore.Store, func(), error) {
	if cfg.Session.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		logger.Info("using redis session store", zap.String("addr", cfg.Session.Redis.Addr))
		store := sessionstore.NewRedisStore(client, cfg.Session.TTL)
		return store, func() { client.Close() }, nil
	}
	store := sessionstore.NewMemoryStore(cfg.Session.TTL)
	return store, store.Close, nil
}

// ProvideOracle builds the evaluator stack.
func ProvideOracle(cfg *config.Config, logger *zap.Logger) (evaluator.Oracle, error) {
	oracle, err := evaluator.New(
		evaluator.Config{
			Provider:    cfg.Evaluator.Provider,
			APIKey:      cfg.Evaluator.APIKey,
			BaseURL:     cfg.Evaluator.BaseURL,
			APIVersion:  cfg.Evaluator.APIVersion,
			Model:       cfg.Evaluator.Model,
			Domain:      cfg.Evaluator.Domain,
			PassScore:   cfg.Evaluator.PassScore,
			Temperature: cfg.Evaluator.Temperature,
		},
		evaluator.RetryConfig{
			MaxAttempts: cfg.Evaluator.MaxAttempts,
			BaseDelay:   cfg.Evaluator.BaseDelay,
			MaxDelay:    cfg.Evaluator.MaxDelay,
		},
	)
	if err != nil {
		return nil, err
	}
	if cfg.Evaluator.APIKey == "" && cfg.Evaluator.Provider != "stub" {
		logger.Warn("no evaluator API key configured, answers will be judged by the stub")
	}
	return oracle, nil
}

// ProvideEngine creates the traversal engine.
func ProvideEngine(g *graph.Store, sessions sessionstore.Store, oracle evaluator.Oracle, logger *zap.Logger, metrics *observability.Metrics) *engine.Engine {
	return engine.New(g, sessions, oracle, logger, metrics)
}

// ProvideNodeHandler creates the graph editing handler.
func ProvideNodeHandler(g *graph.Store, logger *zap.Logger, metrics *observability.Metrics) *handlers.NodeHandler {
	return handlers.NewNodeHandler(g, logger, metrics)
}

// ProvideSessionHandler creates the interview handler.
func ProvideSessionHandler(eng *engine.Engine, logger *zap.Logger) *handlers.SessionHandler {
	return handlers.NewSessionHandler(eng, logger)
}

// ProvideHandler assembles the HTTP routes.
func ProvideHandler(nodes *handlers.NodeHandler, sessions *handlers.SessionHandler, logger *zap.Logger, cfg *config.Config) http.Handler {
	return rest.NewRouter(nodes, sessions, logger, cfg.CORS.AllowedOrigins).Setup()
}
