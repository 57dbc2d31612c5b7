package container

import (
	"context"
	"fmt"

	"feedback-be/internal/aggregation"
	"feedback-be/internal/config"
	"feedback-be/internal/repository"
	"feedback-be/internal/service"
	"feedback-be/internal/service/auth"
	"feedback-be/pkg/database"
	"feedback-be/pkg/logger"
	"feedback-be/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB // nil when running on the in-memory store
	RedisClient  *redis.Client        // nil when caching is disabled
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		c.DB = db
		c.Repositories = repository.NewPostgresRepositories(db)
		logger.Info("PostgreSQL storage initialized")
	} else {
		c.Repositories = repository.NewMemoryStore().Repositories()
		logger.Warn("DATABASE_URL not configured, using in-memory storage")
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	zl := logger.Logger
	cache := service.NewCacheService(c.RedisClient, cfg.ReportCacheTTL, zl)
	engine := aggregation.NewEngine(cfg.MinSampleSize, cfg.ReportTopN)

	c.Services = &service.Services{
		Auth:  auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, logger),
		Cache: cache,
		Polls: service.NewPollService(c.Repositories.Polls, cache, cfg.LessonPollWindow, zl),
		Responses: service.NewResponseService(
			c.Repositories,
			cache,
			service.NewSubmitRateLimiter(c.RedisClient, cfg.SubmitRateLimit, zl),
			service.DefaultGamificationPolicy(),
			zl,
		),
		Reports:     service.NewReportService(c.Repositories.Polls, engine, cache, zl),
		Respondents: service.NewRespondentService(c.Repositories.Respondents),
	}

	return c, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Health checks storage and cache; the map holds one entry per dependency
func (c *Container) Health(ctx context.Context) map[string]error {
	checks := map[string]error{
		"storage": c.Repositories.Health(ctx),
	}
	if c.HasRedis() {
		checks["redis"] = c.Services.Cache.HealthCheck(ctx)
	}
	return checks
}

// Close waits for background cache work and releases connections
func (c *Container) Close() {
	c.Services.Cache.Wait()
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
