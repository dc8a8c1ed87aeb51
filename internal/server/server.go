package server

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/unirecords/university-api/internal/handler"
	"github.com/unirecords/university-api/internal/middleware"
	"github.com/unirecords/university-api/internal/repository"
	"github.com/unirecords/university-api/pkg/cache"
	"github.com/unirecords/university-api/pkg/config"
	"github.com/unirecords/university-api/pkg/database"
	"github.com/unirecords/university-api/pkg/logger"
	corsmiddleware "github.com/unirecords/university-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unirecords/university-api/pkg/middleware/requestid"
)

// App holds the resources one record service acquires at start and releases
// at shutdown: config, logger, database pool, optional cache, HTTP engine.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Engine *gin.Engine

	cacheRepo *repository.CacheRepository
}

// New bootstraps a service: configuration, logging, database, router and the
// common middleware chain, plus the health and metrics endpoints.
func New(service string, defaultPort int) (*App, error) {
	cfg, err := config.Load(service, defaultPort)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	metrics := middleware.NewMetrics(service)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(metrics.Middleware())

	r.GET("/health", handler.Health(service))
	r.GET("/metrics", metrics.Handler())

	return &App{Config: cfg, Logger: logr, DB: db, Engine: r}, nil
}

// ReadCache returns the Redis-backed read cache when enabled and reachable,
// nil otherwise. Services treat nil as "caching off".
func (a *App) ReadCache() *repository.CacheRepository {
	if !a.Config.Cache.Enabled || a.Config.Redis.Host == "" {
		return nil
	}
	client, err := cache.NewRedis(a.Config.Redis)
	if err != nil {
		a.Logger.Warn("redis unavailable, read cache disabled", zap.Error(err))
		return nil
	}
	a.cacheRepo = repository.NewCacheRepository(client, a.Logger)
	return a.cacheRepo
}

// Run serves HTTP until the process exits.
func (a *App) Run() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	a.Logger.Sugar().Infow("server starting", "addr", addr, "env", a.Config.Env)
	return a.Engine.Run(addr)
}

// Close releases the database pool and cache connection.
func (a *App) Close() {
	if a.cacheRepo != nil {
		_ = a.cacheRepo.Close()
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
	_ = a.Logger.Sync()
}
