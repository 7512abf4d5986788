package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grindvault/internal/api"
	"grindvault/internal/config"
	"grindvault/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backup scheduler and the ops API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sched, err := scheduler.New(a.logger, a.service, a.cfg.Backup.Schedule)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		// Hot-reload the backup enabled flag and retention policy.
		watcher, err := config.NewWatcher(a.logger, configPath)
		if err != nil {
			return err
		}
		if err := watcher.Start(func(cfg *config.Config) {
			a.service.ApplyConfig(cfg.Backup)
		}); err != nil {
			a.logger.Warn("Config watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Stop()
		}

		var server *api.Server
		if a.cfg.API.Enabled {
			server = api.NewServer(a.logger, a.cfg.API, a.service, a.remote, a.store, a.registry)
			if err := server.Start(); err != nil {
				return err
			}
		}

		a.logger.Info("grindvault started")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		a.logger.Info("Shutdown signal received")
		cancel()

		if server != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("API shutdown error", zap.Error(err))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
