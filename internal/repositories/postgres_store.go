package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"site_stores_backend/pkg/utils"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by a lib/pq connection pool.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// newRepos binds every repository to the same executor.
func newRepos(exec SQLExecutor) Repos {
	return Repos{
		Sites:        &siteRepository{db: exec},
		Materials:    &materialRepository{db: exec},
		Stock:        &stockRepository{db: exec},
		Transactions: &transactionRepository{db: exec},
		Sequences:    &sequenceRepository{db: exec},
		Adjustments:  &adjustmentRepository{db: exec},
		Issues:       &issueRequestRepository{db: exec},
		Batches:      &batchIssueRepository{db: exec},
		Transfers:    &transferRepository{db: exec},
		Reports:      &reportRepository{db: exec},
		Users:        &userRepository{db: exec},
	}
}

func (s *postgresStore) Repos() Repos {
	return newRepos(s.db)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(r Repos) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrDatabaseError, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				utils.LogError(rbErr, "Failed to roll back transaction")
			}
		}
	}()

	if err = fn(newRepos(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
