package repositories

import (
	"context"
	"time"
)

type sequenceRepository struct {
	db SQLExecutor
}

// Next atomically increments the (prefix, day) counter and returns the new value.
// The upsert takes a row lock, so concurrent callers are serialized by the database.
func (r *sequenceRepository) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	query := `INSERT INTO document_sequences (prefix, day, last_value)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (prefix, day) DO UPDATE SET last_value = document_sequences.last_value + 1
	          RETURNING last_value`
	var next int64
	err := r.db.QueryRowContext(ctx, query, prefix, day.Format("2006-01-02")).Scan(&next)
	if err != nil {
		return 0, wrapDBError(err, "advancing document sequence")
	}
	return next, nil
}
