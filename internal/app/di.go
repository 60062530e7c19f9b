// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	authService "github.com/allisson/planner/internal/auth/service"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	cacheRepository "github.com/allisson/planner/internal/cache/repository"
	"github.com/allisson/planner/internal/config"
	"github.com/allisson/planner/internal/database"
	"github.com/allisson/planner/internal/http"
	identityHTTP "github.com/allisson/planner/internal/identity/http"
	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
	"github.com/allisson/planner/internal/metrics"
	outboxRepository "github.com/allisson/planner/internal/outbox/repository"
	outboxUseCase "github.com/allisson/planner/internal/outbox/usecase"
	relationshipHTTP "github.com/allisson/planner/internal/relationship/http"
	relationshipUseCase "github.com/allisson/planner/internal/relationship/usecase"
)

// memoryCacheJanitorInterval is how often the in-process cache drops expired entries.
const memoryCacheJanitorInterval = time.Minute

// SessionCache is the cache surface the container hands out: the session, setting and
// rate limit operations, the invalidations replayed by the outbox, and a health check.
type SessionCache interface {
	authUseCase.SessionCache
	outboxUseCase.CacheInvalidator
	http.Pinger
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redisClient     *redis.Client
	memoryCache     *cacheRepository.MemoryCache
	sessionCache    SessionCache
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Services
	passwordService authService.PasswordService
	tokenService    authService.TokenService
	auditSigner     authService.AuditSigner

	// Repositories
	userRepository         identityUseCase.UserRepository
	organizationRepository identityUseCase.OrganizationRepository
	settingRepository      identityUseCase.SettingRepository
	auditLogRepository     identityUseCase.AuditLogRepository
	tupleRepository        relationshipUseCase.TupleRepository
	outboxRepository       outboxUseCase.OutboxEventRepository

	// Use Cases
	relationshipUseCase relationshipUseCase.RelationshipUseCase
	organizationUseCase identityUseCase.OrganizationUseCase
	auditLogUseCase     identityUseCase.AuditLogUseCase
	authUseCase         authUseCase.AuthUseCase
	settingUseCase      authUseCase.SettingUseCase
	outboxUseCase       outboxUseCase.UseCase

	// Handlers
	authHandler         *authHTTP.AuthHandler
	settingHandler      *authHTTP.SettingHandler
	relationshipHandler *relationshipHTTP.RelationshipHandler
	organizationHandler *identityHTTP.OrganizationHandler
	auditLogHandler     *identityHTTP.AuditLogHandler

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                         sync.Mutex
	loggerInit                 sync.Once
	dbInit                     sync.Once
	sessionCacheInit           sync.Once
	metricsProviderInit        sync.Once
	businessMetricsInit        sync.Once
	txManagerInit              sync.Once
	passwordServiceInit        sync.Once
	tokenServiceInit           sync.Once
	auditSignerInit            sync.Once
	userRepositoryInit         sync.Once
	organizationRepositoryInit sync.Once
	settingRepositoryInit      sync.Once
	auditLogRepositoryInit     sync.Once
	tupleRepositoryInit        sync.Once
	outboxRepositoryInit       sync.Once
	relationshipUseCaseInit    sync.Once
	organizationUseCaseInit    sync.Once
	auditLogUseCaseInit        sync.Once
	authUseCaseInit            sync.Once
	settingUseCaseInit         sync.Once
	outboxUseCaseInit          sync.Once
	authHandlerInit            sync.Once
	settingHandlerInit         sync.Once
	relationshipHandlerInit    sync.Once
	organizationHandlerInit    sync.Once
	auditLogHandlerInit        sync.Once
	httpServerInit             sync.Once
	metricsServerInit          sync.Once
	initErrors                 map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// SessionCache returns the session cache selected by CACHE_DRIVER.
func (c *Container) SessionCache() (SessionCache, error) {
	var err error
	c.sessionCacheInit.Do(func() {
		c.sessionCache, err = c.initSessionCache()
		if err != nil {
			c.initErrors["sessionCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionCache"]; exists {
		return nil, storedErr
	}
	return c.sessionCache, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics
// are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepositoryInit.Do(func() {
		c.outboxRepository, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepository"]; exists {
		return nil, storedErr
	}
	return c.outboxRepository, nil
}

// OutboxUseCase returns the processor that replays cache invalidations.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// HTTPServer returns the HTTP server with every route mounted. ctx bounds the
// background goroutines started by the router.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.memoryCache != nil {
		if err := c.memoryCache.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("memory cache close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initSessionCache connects to redis, or builds the in-process cache for single-node
// deployments and development.
func (c *Container) initSessionCache() (SessionCache, error) {
	switch c.config.CacheDriver {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := cacheRepository.NewRedisClient(ctx, cacheRepository.RedisConfig{
			Addr:     c.config.RedisAddr,
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session cache: %w", err)
		}
		c.redisClient = client
		return cacheRepository.NewRedisCache(client, c.config.SessionMaxLifetime), nil
	case "memory":
		c.memoryCache = cacheRepository.NewMemoryCache(c.config.SessionMaxLifetime, memoryCacheJanitorInterval)
		return c.memoryCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", c.config.CacheDriver)
	}
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the prometheus backed meter provider.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxUseCase creates the outbox processor that applies pending invalidations to
// the session cache.
func (c *Container) initOutboxUseCase() (outboxUseCase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	cache, err := c.SessionCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get session cache for outbox use case: %w", err)
	}

	return outboxUseCase.NewOutboxUseCase(
		outboxUseCase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		},
		txManager,
		outboxRepo,
		outboxUseCase.NewInvalidationProcessor(cache, logger),
		logger,
	), nil
}

// initHTTPServer creates the HTTP server and mounts every handler.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	cache, err := c.SessionCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get session cache for http server: %w", err)
	}

	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	organizationUC, err := c.OrganizationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization use case for http server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}

	settingHandler, err := c.SettingHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get setting handler for http server: %w", err)
	}

	relationshipHandler, err := c.RelationshipHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship handler for http server: %w", err)
	}

	organizationHandler, err := c.OrganizationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger).WithCache(cache)
	server.SetupRouter(ctx, c.config, http.Handlers{
		Auth:          authHandler,
		Settings:      settingHandler,
		Relationships: relationshipHandler,
		Organizations: organizationHandler,
		AuditLogs:     auditLogHandler,
	}, http.Guards{
		Auth:       authUC,
		RateLimits: cache,
		Roles:      organizationUC,
	}, metricsProvider)

	return server, nil
}

// initMetricsServer creates the metrics server on its own port.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
