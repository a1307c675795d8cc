// Package bootstrap wires configuration to a concrete persistence backend.
package bootstrap

import (
	"context"
	"fmt"

	"site_stores_backend/internal/config"
	"site_stores_backend/internal/database"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/internal/repositories/memory"
	"site_stores_backend/pkg/utils"
)

// OpenStore returns the store selected by cfg.DBDriver and a function that
// releases it. The schema is applied first when cfg.ApplySchema is set.
func OpenStore(ctx context.Context, cfg *config.Config) (repositories.Store, func() error, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		utils.LogWarn("Using in-memory store; data is lost on exit")
		return memory.NewStore(), func() error { return nil }, nil
	case config.DriverPostgres:
		db, err := database.InitDB(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		if cfg.ApplySchema {
			if err := database.ApplySchema(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return repositories.NewPostgresStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
