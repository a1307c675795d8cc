package main

import (
	"context"

	"site_stores_backend/internal/bootstrap"
	"site_stores_backend/internal/config"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Maintenance commands for the site stores backend",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newExportCmd())
	return root
}

// withStore loads configuration, opens the configured store and runs fn against it.
func withStore(ctx context.Context, fn func(cfg *config.Config, store repositories.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.LogLevel, "console")

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			utils.LogError(err, "Failed to close store")
		}
	}()
	return fn(cfg, store)
}
