package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// CreateIssueRequest proposes a single-material issue.
type CreateIssueRequest struct {
	SiteID      int64           `json:"site_id" binding:"required,gt=0"`
	MaterialID  int64           `json:"material_id" binding:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	ProjectCode *string         `json:"project_code"`
	Purpose     *string         `json:"purpose"`
}

// BatchItemInput is one material line of a batch or transfer request.
type BatchItemInput struct {
	MaterialID int64           `json:"material_id" binding:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required,gt=0"`
}

// CreateBatchIssueRequest proposes several issues under one decision.
type CreateBatchIssueRequest struct {
	SiteID      int64            `json:"site_id" binding:"required,gt=0"`
	ProjectCode *string          `json:"project_code"`
	Purpose     *string          `json:"purpose"`
	Items       []BatchItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateStockTransferRequest proposes moving materials between sites.
type CreateStockTransferRequest struct {
	FromSiteID int64            `json:"from_site_id" binding:"required,gt=0"`
	ToSiteID   int64            `json:"to_site_id" binding:"required,gt=0"`
	Notes      *string          `json:"notes"`
	Items      []BatchItemInput `json:"items" binding:"required,min=1,dive"`
}

// ReviewRequest is the body of every approve/reject call.
type ReviewRequest struct {
	Action      string  `json:"action" binding:"required,oneof=approve reject"`
	ReviewNotes *string `json:"review_notes"`
}

// ApprovalService runs the pending -> approved|rejected state machine for all request kinds.
// Approval and every stock movement it triggers commit or roll back together.
type ApprovalService interface {
	CreateIssueRequest(ctx context.Context, actor models.Actor, req CreateIssueRequest) (*models.IssueRequest, error)
	CreateBatchIssueRequest(ctx context.Context, actor models.Actor, req CreateBatchIssueRequest) (*models.BatchIssueRequest, error)
	CreateStockTransferRequest(ctx context.Context, actor models.Actor, req CreateStockTransferRequest) (*models.StockTransferRequest, error)

	GetIssueRequest(ctx context.Context, actor models.Actor, id int64) (*models.IssueRequest, error)
	GetBatchIssueRequest(ctx context.Context, actor models.Actor, batchID string) (*models.BatchIssueRequest, error)
	GetStockTransferRequest(ctx context.Context, actor models.Actor, transferID string) (*models.StockTransferRequest, error)

	ListIssueRequests(ctx context.Context, actor models.Actor, filters models.RequestFilters) ([]models.IssueRequest, error)
	ListBatchIssueRequests(ctx context.Context, actor models.Actor, filters models.RequestFilters) ([]models.BatchIssueRequest, error)
	ListStockTransferRequests(ctx context.Context, actor models.Actor, filters models.RequestFilters) ([]models.StockTransferRequest, error)
	PendingCounts(ctx context.Context, actor models.Actor) (*models.PendingCounts, error)

	ProcessIssueRequest(ctx context.Context, id int64, approvedBy int64, action string, reviewNotes *string) (*models.IssueRequest, error)
	ProcessBatchIssueRequest(ctx context.Context, batchID string, approvedBy int64, action string, reviewNotes *string) (*models.BatchIssueRequest, error)
	ProcessStockTransferRequest(ctx context.Context, transferID string, approvedBy int64, action string, reviewNotes *string) (*models.StockTransferRequest, error)
}

type approvalService struct {
	store  repositories.Store
	engine *engine
}

// NewApprovalService shares the engine (and its clock and clamp counter) of inventory.
func NewApprovalService(store repositories.Store, inventory InventoryService) ApprovalService {
	var e *engine
	if impl, ok := inventory.(*inventoryService); ok {
		e = impl.engine
	} else {
		e = newEngine(nil)
	}
	return &approvalService{store: store, engine: e}
}

func checkReview(action string, approvedBy int64) error {
	if approvedBy <= 0 {
		return validationError("reviewer is required")
	}
	if action != ActionApprove && action != ActionReject {
		return validationError("action must be %q or %q, got %q", ActionApprove, ActionReject, action)
	}
	return nil
}

func (s *approvalService) newReview(action string, approvedBy int64, notes *string) models.Review {
	status := models.RequestRejected
	if action == ActionApprove {
		status = models.RequestApproved
	}
	at := s.engine.now()
	return models.Review{Status: status, ReviewedBy: &approvedBy, ReviewedAt: &at, ReviewNotes: utils.TrimOptional(notes)}
}

func validateItems(items []BatchItemInput) error {
	if len(items) == 0 {
		return validationError("at least one item is required")
	}
	for i, it := range items {
		if it.MaterialID <= 0 {
			return validationError("item %d: material_id must be positive", i+1)
		}
		if err := checkQuantity(fmt.Sprintf("item %d: quantity", i+1), it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// precheckStock mirrors the request-form check. The binding check happens again on approval.
func precheckStock(ctx context.Context, r repositories.Repos, siteID, materialID int64, qty decimal.Decimal) error {
	if err := checkSiteAndMaterial(ctx, r, siteID, materialID); err != nil {
		return err
	}
	available := decimal.Zero
	level, err := r.Stock.GetStockLevel(ctx, siteID, materialID)
	switch {
	case err == nil:
		available = level.Quantity
	case !errors.Is(err, repositories.ErrNotFound):
		return err
	}
	if available.LessThan(qty) {
		return fmt.Errorf("%w: material %d requested %s, available %s", ErrInsufficientStock, materialID, qty, available)
	}
	return nil
}

func requireSite(actor models.Actor, siteIDs ...int64) error {
	for _, id := range siteIDs {
		if actor.CanAccessSite(id) {
			return nil
		}
	}
	return ErrForbidden
}

// scopeFilters pins storesmen to their own site.
func scopeFilters(actor models.Actor, f models.RequestFilters) models.RequestFilters {
	if !actor.IsEngineer() {
		f.SiteID = actor.SiteID
		if f.SiteID == nil {
			none := int64(-1)
			f.SiteID = &none
		}
	}
	return f
}

func (s *approvalService) CreateIssueRequest(ctx context.Context, actor models.Actor, req CreateIssueRequest) (*models.IssueRequest, error) {
	if err := validateIDs(req.SiteID, req.MaterialID, actor.UserID); err != nil {
		return nil, err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return nil, err
	}
	if err := requireSite(actor, req.SiteID); err != nil {
		return nil, err
	}

	out := &models.IssueRequest{
		SiteID:            req.SiteID,
		MaterialID:        req.MaterialID,
		QuantityRequested: req.Quantity,
		ProjectCode:       utils.TrimOptional(req.ProjectCode),
		Purpose:           utils.TrimOptional(req.Purpose),
		RequestedBy:       actor.UserID,
		RequestedAt:       s.engine.now(),
		Review:            models.Review{Status: models.RequestPending},
	}
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := precheckStock(ctx, r, req.SiteID, req.MaterialID, req.Quantity); err != nil {
			return err
		}
		return r.Issues.CreateIssueRequest(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Issue request created", map[string]interface{}{"request_id": out.ID, "site_id": out.SiteID})
	return out, nil
}

func (s *approvalService) CreateBatchIssueRequest(ctx context.Context, actor models.Actor, req CreateBatchIssueRequest) (*models.BatchIssueRequest, error) {
	if req.SiteID <= 0 || actor.UserID <= 0 {
		return nil, validationError("site_id and acting user are required")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := requireSite(actor, req.SiteID); err != nil {
		return nil, err
	}

	now := s.engine.now()
	out := &models.BatchIssueRequest{
		SiteID:      req.SiteID,
		ProjectCode: utils.TrimOptional(req.ProjectCode),
		Purpose:     utils.TrimOptional(req.Purpose),
		RequestedBy: actor.UserID,
		RequestedAt: now,
		Review:      models.Review{Status: models.RequestPending},
	}
	for _, it := range req.Items {
		out.Items = append(out.Items, models.BatchIssueItem{MaterialID: it.MaterialID, QuantityRequested: it.Quantity})
	}

	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		for _, it := range req.Items {
			if err := precheckStock(ctx, r, req.SiteID, it.MaterialID, it.Quantity); err != nil {
				return err
			}
		}
		batchID, err := nextSerial(ctx, r, PrefixBatch, now)
		if err != nil {
			return err
		}
		out.BatchID = batchID
		return r.Batches.CreateBatchIssueRequest(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Batch issue request created", map[string]interface{}{"batch_id": out.BatchID, "items": len(out.Items)})
	return out, nil
}

// CreateStockTransferRequest lets a storesman at either end of the move raise the request.
func (s *approvalService) CreateStockTransferRequest(ctx context.Context, actor models.Actor, req CreateStockTransferRequest) (*models.StockTransferRequest, error) {
	if req.FromSiteID <= 0 || req.ToSiteID <= 0 || actor.UserID <= 0 {
		return nil, validationError("from_site_id, to_site_id and acting user are required")
	}
	if req.FromSiteID == req.ToSiteID {
		return nil, validationError("source and destination sites must differ")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := requireSite(actor, req.FromSiteID, req.ToSiteID); err != nil {
		return nil, err
	}

	now := s.engine.now()
	out := &models.StockTransferRequest{
		FromSiteID:  req.FromSiteID,
		ToSiteID:    req.ToSiteID,
		Notes:       utils.TrimOptional(req.Notes),
		RequestedBy: actor.UserID,
		RequestedAt: now,
		Review:      models.Review{Status: models.RequestPending},
	}
	for _, it := range req.Items {
		out.Items = append(out.Items, models.StockTransferItem{MaterialID: it.MaterialID, Quantity: it.Quantity})
	}

	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		if _, err := r.Sites.GetSiteByID(ctx, req.ToSiteID); err != nil {
			return mapNotFound(err, ErrSiteNotFound)
		}
		for _, it := range req.Items {
			if err := precheckStock(ctx, r, req.FromSiteID, it.MaterialID, it.Quantity); err != nil {
				return err
			}
		}
		transferID, err := nextSerial(ctx, r, PrefixTransfer, now)
		if err != nil {
			return err
		}
		out.TransferID = transferID
		return r.Transfers.CreateStockTransferRequest(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Stock transfer request created", map[string]interface{}{
		"transfer_id": out.TransferID, "from_site_id": out.FromSiteID, "to_site_id": out.ToSiteID,
	})
	return out, nil
}

func (s *approvalService) GetIssueRequest(ctx context.Context, actor models.Actor, id int64) (*models.IssueRequest, error) {
	req, err := s.store.Repos().Issues.GetIssueRequest(ctx, id, false)
	if err != nil {
		return nil, mapNotFound(err, ErrRequestNotFound)
	}
	if err := requireSite(actor, req.SiteID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *approvalService) GetBatchIssueRequest(ctx context.Context, actor models.Actor, batchID string) (*models.BatchIssueRequest, error) {
	req, err := s.store.Repos().Batches.GetBatchIssueRequest(ctx, strings.TrimSpace(batchID), false)
	if err != nil {
		return nil, mapNotFound(err, ErrRequestNotFound)
	}
	if err := requireSite(actor, req.SiteID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *approvalService) GetStockTransferRequest(ctx context.Context, actor models.Actor, transferID string) (*models.StockTransferRequest, error) {
	req, err := s.store.Repos().Transfers.GetStockTransferRequest(ctx, strings.TrimSpace(transferID), false)
	if err != nil {
		return nil, mapNotFound(err, ErrRequestNotFound)
	}
	if err := requireSite(actor, req.FromSiteID, req.ToSiteID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *approvalService) ListIssueRequests(ctx context.Context, actor models.Actor, f models.RequestFilters) ([]models.IssueRequest, error) {
	return s.store.Repos().Issues.ListIssueRequests(ctx, scopeFilters(actor, f))
}

func (s *approvalService) ListBatchIssueRequests(ctx context.Context, actor models.Actor, f models.RequestFilters) ([]models.BatchIssueRequest, error) {
	return s.store.Repos().Batches.ListBatchIssueRequests(ctx, scopeFilters(actor, f))
}

func (s *approvalService) ListStockTransferRequests(ctx context.Context, actor models.Actor, f models.RequestFilters) ([]models.StockTransferRequest, error) {
	return s.store.Repos().Transfers.ListStockTransferRequests(ctx, scopeFilters(actor, f))
}

// PendingCounts covers every request for engineers and the actor's own requests otherwise.
func (s *approvalService) PendingCounts(ctx context.Context, actor models.Actor) (*models.PendingCounts, error) {
	var requestedBy *int64
	if !actor.IsEngineer() {
		id := actor.UserID
		requestedBy = &id
	}
	r := s.store.Repos()
	counts := &models.PendingCounts{}
	var err error
	if counts.Individual, err = r.Issues.CountPendingIssueRequests(ctx, nil, requestedBy); err != nil {
		return nil, err
	}
	if counts.Batch, err = r.Batches.CountPendingBatchIssueRequests(ctx, nil, requestedBy); err != nil {
		return nil, err
	}
	if counts.Transfer, err = r.Transfers.CountPendingStockTransferRequests(ctx, nil, requestedBy); err != nil {
		return nil, err
	}
	counts.Total = counts.Individual + counts.Batch + counts.Transfer
	return counts, nil
}

func (s *approvalService) ProcessIssueRequest(ctx context.Context, id int64, approvedBy int64, action string, reviewNotes *string) (*models.IssueRequest, error) {
	if err := checkReview(action, approvedBy); err != nil {
		return nil, err
	}
	var out *models.IssueRequest
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		req, err := r.Issues.GetIssueRequest(ctx, id, true)
		if err != nil {
			return mapNotFound(err, ErrRequestNotFound)
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("%w: issue request %d is %s", ErrAlreadyProcessed, id, req.Status)
		}

		review := s.newReview(action, approvedBy, reviewNotes)
		if action == ActionApprove {
			_, err := s.engine.issue(ctx, r, IssueMaterialRequest{
				SiteID:      req.SiteID,
				MaterialID:  req.MaterialID,
				Quantity:    req.QuantityRequested,
				ProjectCode: req.ProjectCode,
				Notes:       req.Purpose,
				ApprovedBy:  &approvedBy,
				CreatedBy:   req.RequestedBy,
			})
			if err != nil {
				return err
			}
		}
		if err := r.Issues.UpdateIssueRequestReview(ctx, id, review); err != nil {
			return err
		}
		req.Review = review
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Issue request processed", map[string]interface{}{"request_id": id, "status": out.Status, "reviewed_by": approvedBy})
	return out, nil
}

func (s *approvalService) ProcessBatchIssueRequest(ctx context.Context, batchID string, approvedBy int64, action string, reviewNotes *string) (*models.BatchIssueRequest, error) {
	if err := checkReview(action, approvedBy); err != nil {
		return nil, err
	}
	batchID = strings.TrimSpace(batchID)
	var out *models.BatchIssueRequest
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		req, err := r.Batches.GetBatchIssueRequest(ctx, batchID, true)
		if err != nil {
			return mapNotFound(err, ErrRequestNotFound)
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("%w: batch request %s is %s", ErrAlreadyProcessed, batchID, req.Status)
		}

		review := s.newReview(action, approvedBy, reviewNotes)
		if action == ActionApprove {
			notes := "Batch issue " + req.BatchID
			if req.Purpose != nil {
				notes += ": " + *req.Purpose
			}
			keys := make([]stockKey, 0, len(req.Items))
			for _, item := range req.Items {
				keys = append(keys, stockKey{siteID: req.SiteID, materialID: item.MaterialID})
			}
			if err := lockStockRows(ctx, r, keys); err != nil {
				return err
			}
			for _, item := range req.Items {
				_, err := s.engine.issue(ctx, r, IssueMaterialRequest{
					SiteID:      req.SiteID,
					MaterialID:  item.MaterialID,
					Quantity:    item.QuantityRequested,
					ProjectCode: req.ProjectCode,
					Notes:       &notes,
					ApprovedBy:  &approvedBy,
					CreatedBy:   req.RequestedBy,
				})
				if err != nil {
					return fmt.Errorf("batch %s material %d: %w", req.BatchID, item.MaterialID, err)
				}
			}
		}
		if err := r.Batches.UpdateBatchIssueRequestReview(ctx, batchID, review); err != nil {
			return err
		}
		req.Review = review
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Batch issue request processed", map[string]interface{}{"batch_id": batchID, "status": out.Status, "reviewed_by": approvedBy})
	return out, nil
}

// ProcessStockTransferRequest issues each item at the source and receives it at the
// destination, priced at the source's average cost read just before the issue.
func (s *approvalService) ProcessStockTransferRequest(ctx context.Context, transferID string, approvedBy int64, action string, reviewNotes *string) (*models.StockTransferRequest, error) {
	if err := checkReview(action, approvedBy); err != nil {
		return nil, err
	}
	transferID = strings.TrimSpace(transferID)
	var out *models.StockTransferRequest
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		req, err := r.Transfers.GetStockTransferRequest(ctx, transferID, true)
		if err != nil {
			return mapNotFound(err, ErrRequestNotFound)
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("%w: transfer %s is %s", ErrAlreadyProcessed, transferID, req.Status)
		}

		review := s.newReview(action, approvedBy, reviewNotes)
		if action == ActionApprove {
			keys := make([]stockKey, 0, 2*len(req.Items))
			for _, item := range req.Items {
				keys = append(keys,
					stockKey{siteID: req.FromSiteID, materialID: item.MaterialID},
					stockKey{siteID: req.ToSiteID, materialID: item.MaterialID, create: true},
				)
			}
			if err := lockStockRows(ctx, r, keys); err != nil {
				return err
			}
			for _, item := range req.Items {
				if err := s.transferItem(ctx, r, req, item, approvedBy); err != nil {
					return fmt.Errorf("transfer %s material %d: %w", req.TransferID, item.MaterialID, err)
				}
			}
		}
		if err := r.Transfers.UpdateStockTransferRequestReview(ctx, transferID, review); err != nil {
			return err
		}
		req.Review = review
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Stock transfer processed", map[string]interface{}{"transfer_id": transferID, "status": out.Status, "reviewed_by": approvedBy})
	return out, nil
}

func (s *approvalService) transferItem(ctx context.Context, r repositories.Repos, req *models.StockTransferRequest, item models.StockTransferItem, approvedBy int64) error {
	level, err := r.Stock.GetStockLevelForUpdate(ctx, req.FromSiteID, item.MaterialID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: requested %s, available 0", ErrInsufficientStock, item.Quantity)
	}
	if err != nil {
		return err
	}
	avgCost := level.AverageCost().Round(costScale)

	outNotes := fmt.Sprintf("Transfer %s to site %d", req.TransferID, req.ToSiteID)
	if _, err := s.engine.issue(ctx, r, IssueMaterialRequest{
		SiteID:     req.FromSiteID,
		MaterialID: item.MaterialID,
		Quantity:   item.Quantity,
		Notes:      &outNotes,
		ApprovedBy: &approvedBy,
		CreatedBy:  req.RequestedBy,
	}); err != nil {
		return err
	}

	inNotes := fmt.Sprintf("Transfer %s from site %d", req.TransferID, req.FromSiteID)
	_, err = s.engine.receive(ctx, r, ReceiveMaterialRequest{
		SiteID:     req.ToSiteID,
		MaterialID: item.MaterialID,
		Quantity:   item.Quantity,
		UnitCost:   avgCost,
		Notes:      &inNotes,
		ApprovedBy: &approvedBy,
		CreatedBy:  req.RequestedBy,
	})
	return err
}
