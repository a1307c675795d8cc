package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"

	"github.com/shopspring/decimal"
)

type stockRepository struct {
	db SQLExecutor
}

const stockLevelColumns = `id, site_id, material_id, quantity, total_value, updated_at`
const batchColumns = `id, site_id, material_id, quantity_remaining, unit_cost, received_at, transaction_id`

func scanStockLevel(row scanner) (*models.StockLevel, error) {
	s := &models.StockLevel{}
	if err := row.Scan(&s.ID, &s.SiteID, &s.MaterialID, &s.Quantity, &s.TotalValue, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func scanBatch(row scanner) (*models.FIFOBatch, error) {
	b := &models.FIFOBatch{}
	err := row.Scan(&b.ID, &b.SiteID, &b.MaterialID, &b.QuantityRemaining, &b.UnitCost, &b.ReceivedAt, &b.TransactionID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *stockRepository) EnsureStockLevel(ctx context.Context, siteID, materialID int64) error {
	query := `INSERT INTO stock_levels (site_id, material_id, quantity, total_value, updated_at)
	          VALUES ($1, $2, 0, 0, $3)
	          ON CONFLICT (site_id, material_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, siteID, materialID, time.Now())
	return wrapDBError(err, "ensuring stock level")
}

func (r *stockRepository) getStockLevel(ctx context.Context, siteID, materialID int64, forUpdate bool) (*models.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE site_id = $1 AND material_id = $2` + lockClause(forUpdate)
	s, err := scanStockLevel(r.db.QueryRowContext(ctx, query, siteID, materialID))
	if err != nil {
		return nil, wrapDBError(err, "getting stock level")
	}
	return s, nil
}

func (r *stockRepository) GetStockLevel(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	return r.getStockLevel(ctx, siteID, materialID, false)
}

func (r *stockRepository) GetStockLevelForUpdate(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	return r.getStockLevel(ctx, siteID, materialID, true)
}

func (r *stockRepository) SaveStockLevel(ctx context.Context, level *models.StockLevel) error {
	if level.UpdatedAt.IsZero() {
		level.UpdatedAt = time.Now()
	}
	query := `UPDATE stock_levels SET quantity = $1, total_value = $2, updated_at = $3
	          WHERE site_id = $4 AND material_id = $5`
	res, err := r.db.ExecContext(ctx, query, level.Quantity, level.TotalValue, level.UpdatedAt, level.SiteID, level.MaterialID)
	if err != nil {
		return wrapDBError(err, "saving stock level")
	}
	return expectAffected(res, "saving stock level")
}

func (r *stockRepository) CreateBatch(ctx context.Context, b *models.FIFOBatch) error {
	if b.ReceivedAt.IsZero() {
		b.ReceivedAt = time.Now()
	}
	query := `INSERT INTO fifo_batches (site_id, material_id, quantity_remaining, unit_cost, received_at, transaction_id)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		b.SiteID, b.MaterialID, b.QuantityRemaining, b.UnitCost, b.ReceivedAt, b.TransactionID,
	).Scan(&b.ID)
	return wrapDBError(err, "creating fifo batch")
}

func (r *stockRepository) listBatches(ctx context.Context, query string, siteID, materialID int64) ([]models.FIFOBatch, error) {
	rows, err := r.db.QueryContext(ctx, query, siteID, materialID)
	if err != nil {
		return nil, wrapDBError(err, "listing fifo batches")
	}
	defer rows.Close()

	batches := []models.FIFOBatch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, wrapDBError(err, "scanning fifo batch")
		}
		batches = append(batches, *b)
	}
	return batches, wrapDBError(rows.Err(), "iterating fifo batches")
}

func (r *stockRepository) ListOpenBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM fifo_batches
	          WHERE site_id = $1 AND material_id = $2 AND quantity_remaining > 0
	          ORDER BY received_at ASC, id ASC
	          FOR UPDATE`
	return r.listBatches(ctx, query, siteID, materialID)
}

func (r *stockRepository) ListBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM fifo_batches
	          WHERE site_id = $1 AND material_id = $2
	          ORDER BY received_at ASC, id ASC`
	return r.listBatches(ctx, query, siteID, materialID)
}

func (r *stockRepository) UpdateBatchRemaining(ctx context.Context, batchID int64, remaining decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE fifo_batches SET quantity_remaining = $1 WHERE id = $2`, remaining, batchID)
	if err != nil {
		return wrapDBError(err, "updating fifo batch")
	}
	return expectAffected(res, "updating fifo batch")
}
