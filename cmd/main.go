package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mgrushin/go-shortlink/internal/cache"
	"github.com/mgrushin/go-shortlink/internal/config"
	"github.com/mgrushin/go-shortlink/internal/database"
	"github.com/mgrushin/go-shortlink/internal/handler"
	"github.com/mgrushin/go-shortlink/internal/repository"
	"github.com/mgrushin/go-shortlink/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	db, err := database.Connect(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	cancelMigrate()

	logger.Info("connected to database")

	var linkCache cache.Manager
	redisClient, err := cache.NewRedisClient(cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		CacheTTL:     cfg.Redis.CacheTTL,
		Namespace:    cfg.Redis.Namespace,
	})
	if err != nil {
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
		linkCache = cache.NewNullCache()
	} else {
		defer redisClient.Close()
		logger.Info("connected to redis")
		linkCache = redisClient
	}

	var linkRepo repository.LinkRepository = repository.NewPostgresLinkRepository(db)
	linkRepo = repository.NewCachedLinkRepository(linkRepo, linkCache, logger)
	clickRepo := repository.NewPostgresClickRepository(db)

	linkService := service.NewLinkService(linkRepo, cfg.GetBaseURL(), cfg.App.ShortCodeLength, cfg.App.MaxRetries)
	accountant := service.NewClickAccountant(linkRepo, clickRepo, logger, cfg.App.ClickAppendTimeout)
	redirectService := service.NewRedirectService(linkRepo, accountant)
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo, cfg.GetBaseURL())

	linkHandler := handler.NewLinkHandler(linkService, redirectService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		response := gin.H{
			"status": "healthy",
			"services": gin.H{
				"database": "healthy",
				"cache":    "healthy",
			},
		}

		if err := database.HealthCheck(db); err != nil {
			response["services"].(gin.H)["database"] = "unhealthy"
			response["status"] = "degraded"
		}

		if err := linkCache.HealthCheck(c.Request.Context()); err != nil {
			response["services"].(gin.H)["cache"] = "unhealthy"
			response["status"] = "degraded"
		}

		statusCode := http.StatusOK
		if response["status"] == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/links", linkHandler.CreateLink)
		apiV1.GET("/links/:shortCode", linkHandler.GetLink)
		apiV1.PUT("/links/:shortCode", linkHandler.EditLink)
		apiV1.DELETE("/links/:shortCode", linkHandler.DeleteLink)
		apiV1.GET("/links/:shortCode/stats", analyticsHandler.LinkDetail)

		apiV1.GET("/users/:ownerID/links", linkHandler.ListLinks)
		apiV1.GET("/users/:ownerID/stats", analyticsHandler.OverallStats)
		apiV1.GET("/users/:ownerID/stats/recent", analyticsHandler.RecentActivity)
		apiV1.GET("/users/:ownerID/stats/daily", analyticsHandler.DailyHistogram)
		apiV1.GET("/users/:ownerID/stats/top", analyticsHandler.TopLinks)
	}

	router.GET("/:shortCode", linkHandler.Redirect)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.GetServerAddress()))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight click appends land before the store goes away.
	accountant.Drain()

	logger.Info("server exited")
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.IsProduction() {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
