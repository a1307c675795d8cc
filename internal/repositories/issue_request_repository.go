package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type issueRequestRepository struct {
	db SQLExecutor
}

const issueRequestColumns = `id, site_id, material_id, quantity_requested, project_code, purpose, requested_by,
	requested_at, status, reviewed_by, reviewed_at, review_notes`

func scanIssueRequest(row scanner) (*models.IssueRequest, error) {
	r := &models.IssueRequest{}
	err := row.Scan(&r.ID, &r.SiteID, &r.MaterialID, &r.QuantityRequested, &r.ProjectCode, &r.Purpose, &r.RequestedBy,
		&r.RequestedAt, &r.Status, &r.ReviewedBy, &r.ReviewedAt, &r.ReviewNotes)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *issueRequestRepository) CreateIssueRequest(ctx context.Context, req *models.IssueRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	query := `INSERT INTO issue_requests (site_id, material_id, quantity_requested, project_code, purpose,
	              requested_by, requested_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		req.SiteID, req.MaterialID, req.QuantityRequested, req.ProjectCode, req.Purpose,
		req.RequestedBy, req.RequestedAt, string(req.Status),
	).Scan(&req.ID)
	return wrapDBError(err, "creating issue request")
}

func (r *issueRequestRepository) GetIssueRequest(ctx context.Context, id int64, forUpdate bool) (*models.IssueRequest, error) {
	query := `SELECT ` + issueRequestColumns + ` FROM issue_requests WHERE id = $1` + lockClause(forUpdate)
	req, err := scanIssueRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapDBError(err, "getting issue request")
	}
	return req, nil
}

func (r *issueRequestRepository) ListIssueRequests(ctx context.Context, f models.RequestFilters) ([]models.IssueRequest, error) {
	where, args := requestWhere(f, siteIDPredicate)
	limit, args := limitClause(f.Limit, args)
	query := `SELECT ` + issueRequestColumns + ` FROM issue_requests` + where + ` ORDER BY requested_at DESC, id DESC` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing issue requests")
	}
	defer rows.Close()

	requests := []models.IssueRequest{}
	for rows.Next() {
		req, err := scanIssueRequest(rows)
		if err != nil {
			return nil, wrapDBError(err, "scanning issue request")
		}
		requests = append(requests, *req)
	}
	return requests, wrapDBError(rows.Err(), "iterating issue requests")
}

func (r *issueRequestRepository) UpdateIssueRequestReview(ctx context.Context, id int64, review models.Review) error {
	query := `UPDATE issue_requests SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, string(review.Status), review.ReviewedBy, review.ReviewedAt, review.ReviewNotes, id)
	if err != nil {
		return wrapDBError(err, "updating issue request review")
	}
	return expectAffected(res, "updating issue request review")
}

func (r *issueRequestRepository) CountPendingIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	where, args := pendingWhere(siteIDPredicate, siteID, requestedBy)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issue_requests`+where, args...).Scan(&n)
	return n, wrapDBError(err, "counting pending issue requests")
}
