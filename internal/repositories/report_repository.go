package repositories

import (
	"context"
	"fmt"
	"strings"

	"site_stores_backend/internal/models"
)

type reportRepository struct {
	db SQLExecutor
}

func (r *reportRepository) StockSummary(ctx context.Context, siteID *int64) ([]models.StockSummaryRow, error) {
	query := `SELECT sl.site_id, s.name, sl.material_id, m.name, m.unit, sl.quantity, sl.total_value,
	                 m.minimum_level, sl.updated_at
	          FROM stock_levels sl
	          JOIN sites s ON s.id = sl.site_id
	          JOIN materials m ON m.id = sl.material_id
	          WHERE ($1::bigint IS NULL OR sl.site_id = $1)
	          ORDER BY s.name, m.name`
	rows, err := r.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, wrapDBError(err, "querying stock summary")
	}
	defer rows.Close()

	result := []models.StockSummaryRow{}
	for rows.Next() {
		var row models.StockSummaryRow
		if err := rows.Scan(&row.SiteID, &row.SiteName, &row.MaterialID, &row.MaterialName, &row.Unit,
			&row.Quantity, &row.TotalValue, &row.MinimumLevel, &row.UpdatedAt); err != nil {
			return nil, wrapDBError(err, "scanning stock summary row")
		}
		result = append(result, row)
	}
	return result, wrapDBError(rows.Err(), "iterating stock summary")
}

func (r *reportRepository) LowStock(ctx context.Context, siteID *int64) ([]models.LowStockRow, error) {
	query := `SELECT sl.site_id, s.name, sl.material_id, m.name, m.unit, sl.quantity, m.minimum_level
	          FROM stock_levels sl
	          JOIN sites s ON s.id = sl.site_id
	          JOIN materials m ON m.id = sl.material_id
	          WHERE sl.quantity < m.minimum_level
	            AND ($1::bigint IS NULL OR sl.site_id = $1)
	          ORDER BY sl.quantity ASC, s.name, m.name`
	rows, err := r.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, wrapDBError(err, "querying low stock")
	}
	defer rows.Close()

	result := []models.LowStockRow{}
	for rows.Next() {
		var row models.LowStockRow
		if err := rows.Scan(&row.SiteID, &row.SiteName, &row.MaterialID, &row.MaterialName, &row.Unit,
			&row.Quantity, &row.MinimumLevel); err != nil {
			return nil, wrapDBError(err, "scanning low stock row")
		}
		result = append(result, row)
	}
	return result, wrapDBError(rows.Err(), "iterating low stock")
}

func (r *reportRepository) TransactionHistory(ctx context.Context, f models.TransactionFilters) ([]models.TransactionHistoryRow, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.SiteID != nil {
		add("t.site_id = $%d", *f.SiteID)
	}
	if f.MaterialID != nil {
		add("t.material_id = $%d", *f.MaterialID)
	}
	if f.Type != nil {
		add("t.transaction_type = $%d", string(*f.Type))
	}
	if f.Start != nil {
		add("t.created_at >= $%d", *f.Start)
	}
	if f.End != nil {
		add("t.created_at <= $%d", *f.End)
	}

	query := `SELECT ` + transactionColumns + `, s.name, m.name, m.unit, u.username
	          FROM transactions t
	          JOIN sites s ON s.id = t.site_id
	          JOIN materials m ON m.id = t.material_id
	          LEFT JOIN users u ON u.id = t.created_by`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "querying transaction history")
	}
	defer rows.Close()

	result := []models.TransactionHistoryRow{}
	for rows.Next() {
		var row models.TransactionHistoryRow
		dest := append(transactionDest(&row.Transaction), &row.SiteName, &row.MaterialName, &row.Unit, &row.CreatorUsername)
		if err := rows.Scan(dest...); err != nil {
			return nil, wrapDBError(err, "scanning transaction history row")
		}
		result = append(result, row)
	}
	return result, wrapDBError(rows.Err(), "iterating transaction history")
}
