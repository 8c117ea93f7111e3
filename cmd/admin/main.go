package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finanzas/internal/cache"
	"finanzas/internal/config"
	"finanzas/internal/database"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/services"
)

// app is populated by PersistentPreRunE before any subcommand runs.
var app struct {
	db          *database.Manager
	admin       services.AdminServicer
	sharedCache bool
}

var rootCmd = &cobra.Command{
	Use:   "finanzas-admin",
	Short: "Operator tooling for the Finanzas roster",
	Long: `Manage Finanzas users from the command line: list and search the roster, create admins, change roles and deactivate accounts.

Deleting a user drops their cached dashboards in Redis. Without REDIS_ADDR the
API keeps its dashboard cache in process, out of reach of this tool, so a
deleted user's dashboard may be served until STATS_CACHE_TTL expires.`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if app.db != nil {
			_ = app.db.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(usersCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			for field, msg := range appErr.Details {
				fmt.Fprintln(os.Stderr, mutedStyle.Render("  "+field+": "+msg))
			}
		}
		os.Exit(1)
	}
}

func connect(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Env, "warn")

	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	app.db = manager

	opts := services.StatsOptions{Location: cfg.Location(), Locale: cfg.Locale}
	opts.Cache, app.sharedCache = dashboardCache(cfg)
	app.admin = services.NewAdminService(manager.DB(), services.NewStatsService(manager.DB(), opts))
	return nil
}

// dashboardCache returns the cache shared with the API, or nil and false
// when the API's cache lives in its own process.
func dashboardCache(cfg *config.Config) (cache.Store, bool) {
	if cfg.RedisAddr == "" {
		return nil, false
	}
	return cache.NewRedisStore(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)), true
}
