//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sovadim/knowledge-engine/internal/config"
)

// SuperSet is the main provider set.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideGraphStore,
	ProvideSessionStore,
	ProvideOracle,
	ProvideEngine,
	ProvideNodeHandler,
	ProvideSessionHandler,
	ProvideHandler,
	wire.Struct(new(App), "*"),
)

// InitializeApp creates a fully wired application.
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
