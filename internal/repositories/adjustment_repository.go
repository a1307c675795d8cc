package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type adjustmentRepository struct {
	db SQLExecutor
}

func (r *adjustmentRepository) CreateAdjustment(ctx context.Context, a *models.StockAdjustment) error {
	if a.AdjustedAt.IsZero() {
		a.AdjustedAt = time.Now()
	}
	query := `INSERT INTO stock_adjustments (site_id, material_id, expected_quantity, actual_quantity, discrepancy,
	              reason, adjusted_by, adjusted_at, transaction_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		a.SiteID, a.MaterialID, a.ExpectedQuantity, a.ActualQuantity, a.Discrepancy,
		a.Reason, a.AdjustedBy, a.AdjustedAt, a.TransactionID,
	).Scan(&a.ID)
	return wrapDBError(err, "creating stock adjustment")
}

func (r *adjustmentRepository) ListAdjustments(ctx context.Context, siteID *int64, limit int) ([]models.StockAdjustment, error) {
	query := `SELECT id, site_id, material_id, expected_quantity, actual_quantity, discrepancy,
	                 reason, adjusted_by, adjusted_at, transaction_id
	          FROM stock_adjustments
	          WHERE ($1::bigint IS NULL OR site_id = $1)
	          ORDER BY adjusted_at DESC, id DESC`
	args := []interface{}{siteID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing stock adjustments")
	}
	defer rows.Close()

	adjustments := []models.StockAdjustment{}
	for rows.Next() {
		var a models.StockAdjustment
		if err := rows.Scan(&a.ID, &a.SiteID, &a.MaterialID, &a.ExpectedQuantity, &a.ActualQuantity, &a.Discrepancy,
			&a.Reason, &a.AdjustedBy, &a.AdjustedAt, &a.TransactionID); err != nil {
			return nil, wrapDBError(err, "scanning stock adjustment")
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, wrapDBError(rows.Err(), "iterating stock adjustments")
}
