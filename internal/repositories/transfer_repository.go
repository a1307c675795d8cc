package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type transferRepository struct {
	db SQLExecutor
}

const transferColumns = `id, transfer_id, from_site_id, to_site_id, notes, requested_by, requested_at,
	status, reviewed_by, reviewed_at, review_notes`

func scanTransferRequest(row scanner) (*models.StockTransferRequest, error) {
	r := &models.StockTransferRequest{}
	err := row.Scan(&r.ID, &r.TransferID, &r.FromSiteID, &r.ToSiteID, &r.Notes, &r.RequestedBy, &r.RequestedAt,
		&r.Status, &r.ReviewedBy, &r.ReviewedAt, &r.ReviewNotes)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *transferRepository) CreateStockTransferRequest(ctx context.Context, req *models.StockTransferRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	query := `INSERT INTO stock_transfer_requests (transfer_id, from_site_id, to_site_id, notes, requested_by, requested_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		req.TransferID, req.FromSiteID, req.ToSiteID, req.Notes, req.RequestedBy, req.RequestedAt, string(req.Status),
	).Scan(&req.ID)
	if err != nil {
		return wrapDBError(err, "creating stock transfer request")
	}

	itemQuery := `INSERT INTO stock_transfer_items (transfer_id, material_id, quantity) VALUES ($1, $2, $3) RETURNING id`
	for i := range req.Items {
		item := &req.Items[i]
		item.TransferID = req.TransferID
		if err := r.db.QueryRowContext(ctx, itemQuery, item.TransferID, item.MaterialID, item.Quantity).Scan(&item.ID); err != nil {
			return wrapDBError(err, "creating stock transfer item")
		}
	}
	return nil
}

func (r *transferRepository) loadItems(ctx context.Context, transferID string) ([]models.StockTransferItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, transfer_id, material_id, quantity FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY id`, transferID)
	if err != nil {
		return nil, wrapDBError(err, "listing stock transfer items")
	}
	defer rows.Close()

	items := []models.StockTransferItem{}
	for rows.Next() {
		var it models.StockTransferItem
		if err := rows.Scan(&it.ID, &it.TransferID, &it.MaterialID, &it.Quantity); err != nil {
			return nil, wrapDBError(err, "scanning stock transfer item")
		}
		items = append(items, it)
	}
	return items, wrapDBError(rows.Err(), "iterating stock transfer items")
}

func (r *transferRepository) GetStockTransferRequest(ctx context.Context, transferID string, forUpdate bool) (*models.StockTransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfer_requests WHERE transfer_id = $1` + lockClause(forUpdate)
	req, err := scanTransferRequest(r.db.QueryRowContext(ctx, query, transferID))
	if err != nil {
		return nil, wrapDBError(err, "getting stock transfer request")
	}
	if req.Items, err = r.loadItems(ctx, transferID); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *transferRepository) ListStockTransferRequests(ctx context.Context, f models.RequestFilters) ([]models.StockTransferRequest, error) {
	where, args := requestWhere(f, transferSitePredicate)
	limit, args := limitClause(f.Limit, args)
	query := `SELECT ` + transferColumns + ` FROM stock_transfer_requests` + where + ` ORDER BY requested_at DESC, id DESC` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing stock transfer requests")
	}
	requests := []models.StockTransferRequest{}
	for rows.Next() {
		req, err := scanTransferRequest(rows)
		if err != nil {
			rows.Close()
			return nil, wrapDBError(err, "scanning stock transfer request")
		}
		requests = append(requests, *req)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrapDBError(err, "iterating stock transfer requests")
	}

	for i := range requests {
		if requests[i].Items, err = r.loadItems(ctx, requests[i].TransferID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *transferRepository) UpdateStockTransferRequestReview(ctx context.Context, transferID string, review models.Review) error {
	query := `UPDATE stock_transfer_requests SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4
	          WHERE transfer_id = $5`
	res, err := r.db.ExecContext(ctx, query, string(review.Status), review.ReviewedBy, review.ReviewedAt, review.ReviewNotes, transferID)
	if err != nil {
		return wrapDBError(err, "updating stock transfer request review")
	}
	return expectAffected(res, "updating stock transfer request review")
}

func (r *transferRepository) CountPendingStockTransferRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	where, args := pendingWhere(transferSitePredicate, siteID, requestedBy)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_transfer_requests`+where, args...).Scan(&n)
	return n, wrapDBError(err, "counting pending stock transfer requests")
}
