package main

import (
	"errors"
	"fmt"

	"site_stores_backend/internal/config"
	"site_stores_backend/internal/database"
	"site_stores_backend/pkg/utils"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), database.Schema())
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDriver != config.DriverPostgres {
				return errors.New("migrate needs DB_DRIVER=postgres")
			}
			utils.InitLogger(cfg.LogLevel, "console")

			db, err := database.InitDB(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.ApplySchema(cmd.Context(), db)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the schema instead of applying it")
	return cmd
}
