package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
)

func matchRequest(f models.RequestFilters, status models.RequestStatus, requestedBy int64, siteIDs ...int64) bool {
	if f.Status != nil && *f.Status != status {
		return false
	}
	if f.RequestedBy != nil && *f.RequestedBy != requestedBy {
		return false
	}
	if f.SiteID == nil {
		return true
	}
	for _, id := range siteIDs {
		if id == *f.SiteID {
			return true
		}
	}
	return false
}

func newestFirst(ai, aj time.Time, idi, idj int64) bool {
	if !ai.Equal(aj) {
		return ai.After(aj)
	}
	return idi > idj
}

func pendingFilter(siteID, requestedBy *int64) models.RequestFilters {
	status := models.RequestPending
	return models.RequestFilters{SiteID: siteID, Status: &status, RequestedBy: requestedBy}
}

type issueRepo struct{ a access }

func (r *issueRepo) CreateIssueRequest(ctx context.Context, req *models.IssueRequest) error {
	return r.a.do(ctx, func(s *state) error {
		if req.RequestedAt.IsZero() {
			req.RequestedAt = time.Now()
		}
		if req.Status == "" {
			req.Status = models.RequestPending
		}
		req.ID = s.nextID()
		s.issues[req.ID] = *req
		return nil
	})
}

func (r *issueRepo) GetIssueRequest(ctx context.Context, id int64, _ bool) (*models.IssueRequest, error) {
	var out *models.IssueRequest
	err := r.a.do(ctx, func(s *state) error {
		req, ok := s.issues[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *issueRepo) ListIssueRequests(ctx context.Context, f models.RequestFilters) ([]models.IssueRequest, error) {
	out := []models.IssueRequest{}
	err := r.a.do(ctx, func(s *state) error {
		for _, req := range s.issues {
			if matchRequest(f, req.Status, req.RequestedBy, req.SiteID) {
				out = append(out, req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].RequestedAt, out[j].RequestedAt, out[i].ID, out[j].ID) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func (r *issueRepo) UpdateIssueRequestReview(ctx context.Context, id int64, review models.Review) error {
	return r.a.do(ctx, func(s *state) error {
		req, ok := s.issues[id]
		if !ok {
			return repositories.ErrNotFound
		}
		req.Review = review
		s.issues[id] = req
		return nil
	})
}

func (r *issueRepo) CountPendingIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	list, err := r.ListIssueRequests(ctx, pendingFilter(siteID, requestedBy))
	return len(list), err
}

type batchIssueRepo struct{ a access }

func (r *batchIssueRepo) CreateBatchIssueRequest(ctx context.Context, req *models.BatchIssueRequest) error {
	return r.a.do(ctx, func(s *state) error {
		if _, ok := s.batchIssues[req.BatchID]; ok {
			return fmt.Errorf("%w: batch id %q", repositories.ErrDuplicateKey, req.BatchID)
		}
		if req.RequestedAt.IsZero() {
			req.RequestedAt = time.Now()
		}
		if req.Status == "" {
			req.Status = models.RequestPending
		}
		req.ID = s.nextID()
		for i := range req.Items {
			req.Items[i].ID = s.nextID()
			req.Items[i].BatchID = req.BatchID
		}
		stored := *req
		stored.Items = append([]models.BatchIssueItem(nil), req.Items...)
		s.batchIssues[req.BatchID] = stored
		return nil
	})
}

func (r *batchIssueRepo) GetBatchIssueRequest(ctx context.Context, batchID string, _ bool) (*models.BatchIssueRequest, error) {
	var out *models.BatchIssueRequest
	err := r.a.do(ctx, func(s *state) error {
		req, ok := s.batchIssues[batchID]
		if !ok {
			return repositories.ErrNotFound
		}
		req.Items = append([]models.BatchIssueItem(nil), req.Items...)
		out = &req
		return nil
	})
	return out, err
}

func (r *batchIssueRepo) ListBatchIssueRequests(ctx context.Context, f models.RequestFilters) ([]models.BatchIssueRequest, error) {
	out := []models.BatchIssueRequest{}
	err := r.a.do(ctx, func(s *state) error {
		for _, req := range s.batchIssues {
			if matchRequest(f, req.Status, req.RequestedBy, req.SiteID) {
				req.Items = append([]models.BatchIssueItem(nil), req.Items...)
				out = append(out, req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].RequestedAt, out[j].RequestedAt, out[i].ID, out[j].ID) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func (r *batchIssueRepo) UpdateBatchIssueRequestReview(ctx context.Context, batchID string, review models.Review) error {
	return r.a.do(ctx, func(s *state) error {
		req, ok := s.batchIssues[batchID]
		if !ok {
			return repositories.ErrNotFound
		}
		req.Review = review
		s.batchIssues[batchID] = req
		return nil
	})
}

func (r *batchIssueRepo) CountPendingBatchIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	list, err := r.ListBatchIssueRequests(ctx, pendingFilter(siteID, requestedBy))
	return len(list), err
}

type transferRepo struct{ a access }

func (r *transferRepo) CreateStockTransferRequest(ctx context.Context, req *models.StockTransferRequest) error {
	return r.a.do(ctx, func(s *state) error {
		if _, ok := s.transfers[req.TransferID]; ok {
			return fmt.Errorf("%w: transfer id %q", repositories.ErrDuplicateKey, req.TransferID)
		}
		if req.RequestedAt.IsZero() {
			req.RequestedAt = time.Now()
		}
		if req.Status == "" {
			req.Status = models.RequestPending
		}
		req.ID = s.nextID()
		for i := range req.Items {
			req.Items[i].ID = s.nextID()
			req.Items[i].TransferID = req.TransferID
		}
		stored := *req
		stored.Items = append([]models.StockTransferItem(nil), req.Items...)
		s.transfers[req.TransferID] = stored
		return nil
	})
}

func (r *transferRepo) GetStockTransferRequest(ctx context.Context, transferID string, _ bool) (*models.StockTransferRequest, error) {
	var out *models.StockTransferRequest
	err := r.a.do(ctx, func(s *state) error {
		req, ok := s.transfers[transferID]
		if !ok {
			return repositories.ErrNotFound
		}
		req.Items = append([]models.StockTransferItem(nil), req.Items...)
		out = &req
		return nil
	})
	return out, err
}

func (r *transferRepo) ListStockTransferRequests(ctx context.Context, f models.RequestFilters) ([]models.StockTransferRequest, error) {
	out := []models.StockTransferRequest{}
	err := r.a.do(ctx, func(s *state) error {
		for _, req := range s.transfers {
			if matchRequest(f, req.Status, req.RequestedBy, req.FromSiteID, req.ToSiteID) {
				req.Items = append([]models.StockTransferItem(nil), req.Items...)
				out = append(out, req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].RequestedAt, out[j].RequestedAt, out[i].ID, out[j].ID) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func (r *transferRepo) UpdateStockTransferRequestReview(ctx context.Context, transferID string, review models.Review) error {
	return r.a.do(ctx, func(s *state) error {
		req, ok := s.transfers[transferID]
		if !ok {
			return repositories.ErrNotFound
		}
		req.Review = review
		s.transfers[transferID] = req
		return nil
	})
}

func (r *transferRepo) CountPendingStockTransferRequests(ctx context.Context, siteID, requestedBy *int64) (int, error) {
	list, err := r.ListStockTransferRequests(ctx, pendingFilter(siteID, requestedBy))
	return len(list), err
}
