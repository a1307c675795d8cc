// Package memory is an in-process implementation of repositories.Store.
// It backs the test suites and the DB_DRIVER=memory demo mode.
package memory

import (
	"context"
	"sync"

	"site_stores_backend/internal/repositories"
)

// Store keeps all state in maps guarded by one mutex. WithinTx works on a copy
// and swaps it in only when fn succeeds, so a failed unit of work leaves no trace.
// Calling Store.Repos from inside a WithinTx callback deadlocks; use the Repos passed to fn.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// access runs fn against some state, either the live one under the store lock
// or the private copy of an open unit of work.
type access interface {
	do(ctx context.Context, fn func(s *state) error) error
}

type autoCommit struct{ store *Store }

func (a autoCommit) do(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.st)
}

type inTx struct{ st *state }

func (t inTx) do(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.st)
}

func newRepos(a access) repositories.Repos {
	return repositories.Repos{
		Sites:        &siteRepo{a},
		Materials:    &materialRepo{a},
		Stock:        &stockRepo{a},
		Transactions: &transactionRepo{a},
		Sequences:    &sequenceRepo{a},
		Adjustments:  &adjustmentRepo{a},
		Issues:       &issueRepo{a},
		Batches:      &batchIssueRepo{a},
		Transfers:    &transferRepo{a},
		Reports:      &reportRepo{a},
		Users:        &userRepo{a},
	}
}

func (s *Store) Repos() repositories.Repos {
	return newRepos(autoCommit{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repositories.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(newRepos(inTx{st: working})); err != nil {
		return err
	}
	s.st = working
	return nil
}
