package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/config"
	"github.com/sovadim/knowledge-engine/internal/di"
	"github.com/sovadim/knowledge-engine/internal/evaluator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()
	defer app.Logger.Sync()

	// Rotate the evaluator credential when the config file changes.
	watcher, err := config.NewWatcher(*configPath, app.Logger, func(fresh *config.Config) {
		if kr, ok := app.Oracle.(evaluator.KeyRotator); ok && fresh.Evaluator.APIKey != "" {
			kr.UpdateAPIKey(fresh.Evaluator.APIKey)
		}
	})
	if err != nil {
		app.Logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info("starting server",
			zap.String("address", cfg.Server.Address()),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		app.Logger.Error("forced shutdown", zap.Error(err))
	}
	app.Logger.Info("server stopped")
}
