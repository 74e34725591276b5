//go:build wireinject
// +build wireinject

package di

import (
	"clarityos-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideLocalStore,
	ProvideRemote,
	ProvideStoreProvider,
	ProvideModelClient,
	ProvideBusinessContextProvider,
	ProvideCatalog,
	ProvideAffirmationDetector,
	ProvideDiscoveryEngine,
	ProvideMigrationEngine,
	ProvideTurnRateLimiter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
