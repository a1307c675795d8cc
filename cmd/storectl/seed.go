package main

import (
	"fmt"

	"site_stores_backend/internal/config"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/internal/services"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default sites, materials and demo users (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(_ *config.Config, store repositories.Store) error {
				res, err := services.NewSeedService(store).Seed(cmd.Context(), services.DefaultCatalog())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sites, %d materials, %d users\n", res.Sites, res.Materials, res.Users)
				return err
			})
		},
	}
}
