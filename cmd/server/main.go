package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"share-analytics-service/internal/cache"
	"share-analytics-service/internal/config"
	"share-analytics-service/internal/handlers"
	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/metrics"
	"share-analytics-service/internal/middleware"
	"share-analytics-service/internal/sharing"
)

func main() {
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== share analytics service starting ===")

	metrics.Initialize()

	// The store is optional by contract: without it the server still comes
	// up and the analytics endpoints answer 503
	var store *cache.RedisClient
	if cfg.RedisConfigured() {
		var err error
		store, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer store.Close()
	} else {
		logger.Log.Warn("REDIS_HOST not set, analytics endpoints will answer 503")
	}

	var svc *sharing.Service
	if store != nil {
		svc = sharing.NewService(store)
	}
	shareHandlers := handlers.NewShareHandlers(svc, cfg.StoreTimeout)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // the blog frontend is static-hosted; tighten if it moves
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", handlers.Health(store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		shares := api.Group("/shares")
		{
			shares.POST("",
				middleware.RedisRateLimitMiddleware(store, cfg.RateLimitRequests, cfg.RateLimitWindow),
				shareHandlers.TrackShare,
			)
			shares.GET("", shareHandlers.GetShareStats)
			shares.DELETE("", shareHandlers.DeleteShares)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("share analytics service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
