package container

import (
	"context"

	"planboard/internal/config"
	"planboard/internal/reconcile"
	"planboard/internal/repository"
	"planboard/internal/service"
	"planboard/pkg/database"
	"planboard/pkg/logger"
	"planboard/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	PlanClient  *reconcile.Client
	Editor      *service.EditorService
}

// New wires the editor and its dependencies. Redis and Postgres are both
// optional: without Redis sessions do not survive a restart, without
// Postgres no audit trail is written. The plan backend is required.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without session snapshots")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without session snapshots")
	}

	var db *database.PostgresDB
	var audit repository.AuditLog
	if cfg.DatabaseURL != "" {
		pg, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Postgres, proceeding without audit trail")
		} else {
			db = pg
			audit = repository.NewAuditRepository(pg)
			log.Info("Audit repository initialized successfully")
		}
	} else {
		log.Info("Database URL not configured, proceeding without audit trail")
	}

	planClient := reconcile.NewClient(cfg.PlanAPIURL, cfg.PlanAPIToken, log)
	store := service.NewSessionStore(redisClient, log)
	editor := service.NewEditorService(planClient, store, audit, cfg.EventID, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		DB:          db,
		PlanClient:  planClient,
		Editor:      editor,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetEditor returns the editor service
func (c *Container) GetEditor() *service.EditorService {
	return c.Editor
}

// HasRedis returns true if the Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDB returns true if the audit database is available
func (c *Container) HasDB() bool {
	return c.DB != nil
}
