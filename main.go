package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoplab/internal/config"
	"shoplab/internal/database"
	"shoplab/internal/logger"
	"shoplab/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:     "shoplab",
		Short:   "shoplab - storefront API used as a target for test automation",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))
	rootCmd.AddCommand(seedCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configFile *string) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log, autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Run schema migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, autoMigrate bool) error {
	deps, err := Bootstrap(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Error("Error closing dependencies", zap.Error(err))
		}
	}()

	if autoMigrate {
		if err := database.Migrate(deps.DB); err != nil {
			return err
		}
	}

	if deps.MQ != nil {
		go func() {
			log.Info("Starting RabbitMQ consumer for order events")
			if err := deps.MQ.Consume(ctx, rabbitmq.LogHandler(log)); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("RabbitMQ consumer stopped", zap.Error(err))
			}
		}()
	}

	app := NewApp(cfg, deps.Services, log)

	listenErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.App.Port), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("Error during Fiber shutdown", zap.Error(err))
	}
	log.Info("Server gracefully stopped")
	return nil
}

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(*configFile, func(ctx context.Context, deps *Dependencies, log *zap.Logger) error {
				if err := database.Migrate(deps.DB); err != nil {
					return err
				}
				log.Info("Database migrated")
				return nil
			})
		},
	}
}

func seedCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and insert the demo catalog and test accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(*configFile, func(ctx context.Context, deps *Dependencies, log *zap.Logger) error {
				if err := database.Migrate(deps.DB); err != nil {
					return err
				}
				return database.Seed(ctx, deps.DB, log)
			})
		},
	}
}

// withDatabase opens only the relational store, which is all the maintenance
// commands need.
func withDatabase(configFile string, fn func(ctx context.Context, deps *Dependencies, log *zap.Logger) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	deps := &Dependencies{DB: db}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(context.Background(), deps, log)
}
