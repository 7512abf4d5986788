package commands

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"grindvault/internal/backup"
	"grindvault/internal/config"
	"grindvault/internal/database"
	"grindvault/internal/github"
	"grindvault/internal/monitoring"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "grindvault",
	Short: "Snapshot backup and restore for the question tracker",
	Long: `grindvault periodically serializes the tracked question corpus into a
versioned snapshot, publishes it to a GitHub repository, enforces a
retention policy over old snapshots, and can restore a published
snapshot back into the live store without creating duplicates.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
}

// app bundles the wired components shared by the subcommands.
type app struct {
	logger   *zap.Logger
	cfg      *config.Config
	store    *database.Store
	registry *prometheus.Registry
	service  *backup.Service
	remote   backup.RemoteStore
}

// buildApp loads configuration and wires the full component graph.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := database.New(logger, cfg.Database)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		logger.Sync()
		return nil, err
	}

	client, err := github.NewClient(logger, cfg.GitHub)
	if err != nil {
		store.Close()
		logger.Sync()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	service := backup.NewService(
		logger,
		cfg.Backup,
		database.NewQuestionRepository(store),
		database.NewLabelRepository(store),
		client,
		metrics,
	)

	return &app{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		registry: registry,
		service:  service,
		remote:   client,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
