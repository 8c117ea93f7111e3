package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"finanzas/internal/cache"
	"finanzas/internal/config"
	"finanzas/internal/database"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/notify"
	"finanzas/internal/server"
	"finanzas/internal/services"
	"finanzas/internal/validator"
)

// @title           Finanzas API
// @version         1.0
// @description     Personal finance tracker: categories, income/expense/savings transactions, monthly dashboards and an admin roster.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	validator.Register()

	dbConfig := database.NewConfig(appConfig)
	if err := database.RunMigrations(dbConfig); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()
	db := dbManager.DB()

	var rdb *redis.Client
	var statsCache cache.Store
	if appConfig.RedisAddr != "" {
		rdb = cache.NewRedisClient(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		defer rdb.Close()
		statsCache = cache.NewRedisStore(rdb)
	} else {
		log.Warn("REDIS_ADDR not set: using in-process dashboard cache, rate limiting disabled")
		statsCache = cache.NewMemoryStore()
	}

	var publisher notify.Publisher
	if appConfig.RabbitMQURL != "" {
		rabbit, err := notify.NewRabbitPublisher(appConfig.RabbitMQURL, appConfig.RabbitMQEmailQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		log.Warn("RABBITMQ_URL not set: emails will be logged, not sent")
		publisher = notify.NewLogPublisher(logger.Named("mail"))
	}

	loc := appConfig.Location()
	tokens := middleware.NewTokenManager(appConfig.JWTSecret, appConfig.AccessTTL, appConfig.RefreshTTL, appConfig.ResetTTL)

	statsService := services.NewStatsService(db, services.StatsOptions{
		Cache:    statsCache,
		CacheTTL: appConfig.StatsCacheTTL,
		Location: loc,
		Locale:   appConfig.Locale,
	})

	router := server.NewRouter(server.Deps{
		Users: services.NewUserService(db, services.UserServiceOptions{
			Tokens:           tokens,
			Publisher:        publisher,
			ResetPasswordURL: appConfig.ResetPasswordURL,
		}),
		Profiles:     services.NewProfileService(db),
		Categories:   services.NewCategoryService(db, statsService),
		Transactions: services.NewTransactionService(db, statsService, loc),
		Stats:        statsService,
		Admin:        services.NewAdminService(db, statsService),
		Audit:        services.NewAuditService(db),
		Tokens:       tokens,
		Location:     loc,

		Redis:           rdb,
		RateLimitMax:    appConfig.RateLimitMax,
		RateLimitWindow: appConfig.RateLimitWindow,

		AllowedOrigins: appConfig.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Finanzas API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
