package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type batchIssueRepository struct {
	db SQLExecutor
}

const batchIssueColumns = `id, batch_id, site_id, project_code, purpose, requested_by, requested_at,
	status, reviewed_by, reviewed_at, review_notes`

func scanBatchIssueRequest(row scanner) (*models.BatchIssueRequest, error) {
	r := &models.BatchIssueRequest{}
	err := row.Scan(&r.ID, &r.BatchID, &r.SiteID, &r.ProjectCode, &r.Purpose, &r.RequestedBy, &r.RequestedAt,
		&r.Status, &r.ReviewedBy, &r.ReviewedAt, &r.ReviewNotes)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateBatchIssueRequest inserts the header and every item. Callers run it inside WithinTx.
func (r *batchIssueRepository) CreateBatchIssueRequest(ctx context.Context, req *models.BatchIssueRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	query := `INSERT INTO batch_issue_requests (batch_id, site_id, project_code, purpose, requested_by, requested_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		req.BatchID, req.SiteID, req.ProjectCode, req.Purpose, req.RequestedBy, req.RequestedAt, string(req.Status),
	).Scan(&req.ID)
	if err != nil {
		return wrapDBError(err, "creating batch issue request")
	}

	itemQuery := `INSERT INTO batch_issue_items (batch_id, material_id, quantity_requested)
	              VALUES ($1, $2, $3) RETURNING id`
	for i := range req.Items {
		item := &req.Items[i]
		item.BatchID = req.BatchID
		if err := r.db.QueryRowContext(ctx, itemQuery, item.BatchID, item.MaterialID, item.QuantityRequested).Scan(&item.ID); err != nil {
			return wrapDBError(err, "creating batch issue item")
		}
	}
	return nil
}

func (r *batchIssueRepository) loadItems(ctx context.Context, batchID string) ([]models.BatchIssueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, material_id, quantity_requested FROM batch_issue_items WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, wrapDBError(err, "listing batch issue items")
	}
	defer rows.Close()

	items := []models.BatchIssueItem{}
	for rows.Next() {
		var it models.BatchIssueItem
		if err := rows.Scan(&it.ID, &it.BatchID, &it.MaterialID, &it.QuantityRequested); err != nil {
			return nil, wrapDBError(err, "scanning batch issue item")
		}
		items = append(items, it)
	}
	return items, wrapDBError(rows.Err(), "iterating batch issue items")
}

func (r *batchIssueRepository) GetBatchIssueRequest(ctx context.Context, batchID string, forUpdate bool) (*models.BatchIssueRequest, error) {
	query := `SELECT ` + batchIssueColumns + ` FROM batch_issue_requests WHERE batch_id = $1` + lockClause(forUpdate)
	req, err := scanBatchIssueRequest(r.db.QueryRowContext(ctx, query, batchID))
	if err != nil {
		return nil, wrapDBError(err, "getting batch issue request")
	}
	if req.Items, err = r.loadItems(ctx, batchID); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *batchIssueRepository) ListBatchIssueRequests(ctx context.Context, f models.RequestFilters) ([]models.BatchIssueRequest, error) {
	where, args := requestWhere(f, siteIDPredicate)
	limit, args := limitClause(f.Limit, args)
	query := `SELECT ` + batchIssueColumns + ` FROM batch_issue_requests` + where + ` ORDER BY requested_at DESC, id DESC` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing batch issue requests")
	}
	requests := []models.BatchIssueRequest{}
	for rows.Next() {
		req, err := scanBatchIssueRequest(rows)
		if err != nil {
			rows.Close()
			return nil, wrapDBError(err, "scanning batch issue request")
		}
		requests = append(requests, *req)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrapDBError(err, "iterating batch issue requests")
	}

	// Items are loaded after the header cursor is closed; a tx allows one open result set.
	for i := range requests {
		if requests[i].Items, err = r.loadItems(ctx, requests[i].BatchID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (r *batchIssueRepository) UpdateBatchIssueRequestReview(ctx context.Context, batchID string, review models.Review) error {
	query := `UPDATE batch_issue_requests SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4
	          WHERE batch_id = $5`
	res, err := r.db.ExecContext(ctx, query, string(review.Status), review.ReviewedBy, review.ReviewedAt, review.ReviewNotes, batchID)
	if err != nil {
		return wrapDBError(err, "updating batch issue request review")
	}
	return expectAffected(res, "updating batch issue request review")
}

func (r *batchIssueRepository) CountPendingBatchIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	where, args := pendingWhere(siteIDPredicate, siteID, requestedBy)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batch_issue_requests`+where, args...).Scan(&n)
	return n, wrapDBError(err, "counting pending batch issue requests")
}
