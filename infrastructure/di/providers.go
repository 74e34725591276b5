package di

import (
	"clarityos-backend/application/discovery"
	"clarityos-backend/application/migration"
	"clarityos-backend/application/ports"
	"clarityos-backend/domain/conversation"
	"clarityos-backend/infrastructure/ai"
	"clarityos-backend/infrastructure/config"
	"clarityos-backend/infrastructure/content"
	"clarityos-backend/infrastructure/persistence"
	"clarityos-backend/infrastructure/persistence/local"
	"clarityos-backend/infrastructure/persistence/supabase"
	"clarityos-backend/pkg/auth"
	"clarityos-backend/pkg/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	Metrics     *observability.Metrics
	Catalog     *content.Catalog
	LocalStore  *local.Store
	Remote      *supabase.Remote
	Stores      ports.StoreProvider
	Engine      *discovery.Engine
	Migration   *migration.Engine
	TurnLimiter *auth.TurnRateLimiter
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideRegistry creates the metrics registry with the standard
// process and Go runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// ProvideMetrics creates the application metrics
func ProvideMetrics(registry *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(registry)
}

// ProvideLocalStore opens the on-device sqlite tier
func ProvideLocalStore(cfg *config.Config) (*local.Store, error) {
	return local.NewStore(cfg.LocalDBPath)
}

// ProvideRemote creates the supabase remote tier. Development without
// supabase credentials runs local-only; the provider returns nil.
func ProvideRemote(cfg *config.Config, logger *zap.Logger) (*supabase.Remote, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		logger.Warn("supabase not configured, running local tier only")
		return nil, nil
	}
	return supabase.NewRemote(cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
}

// ProvideStoreProvider creates the per-scope tier selector
func ProvideStoreProvider(localStore *local.Store, remote *supabase.Remote, logger *zap.Logger) ports.StoreProvider {
	return persistence.NewTierProvider(localStore, remote, logger)
}

// ProvideModelClient creates the language-model client
func ProvideModelClient(cfg *config.Config, logger *zap.Logger) ports.ModelClient {
	return ai.NewClient(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AITimeout, logger)
}

// ProvideBusinessContextProvider creates the personalization source
func ProvideBusinessContextProvider(remote *supabase.Remote, logger *zap.Logger) ports.BusinessContextProvider {
	if remote == nil {
		return persistence.NoProfileProvider{}
	}
	return supabase.NewBusinessContextProvider(remote, logger)
}

// ProvideCatalog loads the card content catalog
func ProvideCatalog(cfg *config.Config, logger *zap.Logger) (*content.Catalog, error) {
	return content.NewCatalog(cfg.CardContentPath, logger)
}

// ProvideAffirmationDetector creates the completion affirmation detector
func ProvideAffirmationDetector() conversation.AffirmationDetector {
	return conversation.NewKeywordDetector()
}

// ProvideDiscoveryEngine creates the guided-discovery engine
func ProvideDiscoveryEngine(
	stores ports.StoreProvider,
	model ports.ModelClient,
	business ports.BusinessContextProvider,
	detector conversation.AffirmationDetector,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *discovery.Engine {
	return discovery.NewEngine(stores, model, business, detector, logger, metrics)
}

// ProvideMigrationEngine creates the local-to-remote migration engine
func ProvideMigrationEngine(
	localStore *local.Store,
	remote *supabase.Remote,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *migration.Engine {
	var target ports.MigrationTarget
	if remote != nil {
		target = remote
	}
	return migration.NewEngine(localStore, target, logger, metrics)
}

// ProvideTurnRateLimiter creates the per-scope turn limiter
func ProvideTurnRateLimiter(cfg *config.Config) *auth.TurnRateLimiter {
	return auth.NewTurnRateLimiter(cfg.TurnsPerMinute)
}

// Close releases the container's long-lived resources.
func (c *Container) Close() error {
	var firstErr error
	if c.Catalog != nil {
		if err := c.Catalog.Close(); err != nil {
			firstErr = err
		}
	}
	if c.LocalStore != nil {
		if err := c.LocalStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
