package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipam-rir/rir-manager/internal/app"
	"github.com/ipam-rir/rir-manager/internal/config"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the rir-manager server",
		Long: `Start the rir-manager HTTP API, the background job worker and the
scheduled registry sync.

The configuration file (--config) specifies the database, the job queue, the
sync schedule and the registries to manage. Without a database section the
server keeps all state in memory.`,
		RunE: runServe,
	}
	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration", "path", configPath, "registries", len(cfg.Registries))
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []app.RirManagerAppOptions{app.WithConfig(cfg)}
	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}
	if address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	rirApp, err := app.NewRirManagerApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- rirApp.Start()
	}()

	select {
	case err := <-errChan:
		_ = rirApp.Stop(defaultGracefulTimeout)
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := rirApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errChan
}

