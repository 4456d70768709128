// Package main is the propelize API entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"propelize/internal/config"
	"propelize/internal/repository"
	"propelize/internal/server"
	"propelize/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "propelize"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Vehicle rental API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), logLevel)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// setup loads configuration and builds the logger.
func setup(logLevel string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	level, err := config.ParseLogLevel(cfg.Server.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	logger := config.NewLogger(level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func migrate(ctx context.Context, logLevel string) error {
	cfg, logger, err := setup(logLevel)
	if err != nil {
		return err
	}
	pool, err := config.ConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	return config.AutoMigrate(ctx, pool, logger)
}

func serve(ctx context.Context, logLevel string) error {
	cfg, logger, err := setup(logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(ctx, dbPool, logger); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// --- Initialize Utilities ---
	tokens, err := utils.NewTokenService(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	if err != nil {
		return err
	}
	hasher, err := utils.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.GinMode)
	router := server.NewRouter(server.Deps{
		Logger:            logger,
		DB:                dbPool,
		Users:             repository.NewUserRepository(dbPool),
		Vehicles:          repository.NewVehicleRepository(dbPool),
		Tokens:            tokens,
		Hasher:            hasher,
		InitialAdminEmail: cfg.Auth.InitialAdminEmail,
	})

	return server.Run(ctx, ":"+cfg.Server.Port, router, cfg.Server.ShutdownTimeout, logger)
}
