package handlers

import (
	"net/http"

	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultAdjustmentLimit = 50

// InventoryHandler exposes the receive/issue/adjust engine and stock reads.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// ReceiveMaterial records a goods receipt. Receipts entered by an engineer are
// self-approved.
func (h *InventoryHandler) ReceiveMaterial(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.ReceiveMaterialRequest
	if !bindJSON(c, &req, "ReceiveMaterial") {
		return
	}
	if !requireSiteAccess(c, actor, req.SiteID) {
		return
	}

	req.CreatedBy = actor.UserID
	req.ApprovedBy = nil
	if actor.IsEngineer() {
		approver := actor.UserID
		req.ApprovedBy = &approver
	}

	txn, err := h.inventoryService.ReceiveMaterial(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "ReceiveMaterial")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// ReceiveMaterials records one delivery of several materials. Either every line is
// booked or none is.
func (h *InventoryHandler) ReceiveMaterials(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.BulkReceiveRequest
	if !bindJSON(c, &req, "ReceiveMaterials") {
		return
	}
	if !requireSiteAccess(c, actor, req.SiteID) {
		return
	}

	req.CreatedBy = actor.UserID
	req.ApprovedBy = nil
	if actor.IsEngineer() {
		approver := actor.UserID
		req.ApprovedBy = &approver
	}

	txns, err := h.inventoryService.ReceiveMaterials(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "ReceiveMaterials")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"count": len(txns), "transactions": txns})
}

// IssueMaterial takes stock out directly, without a request.
func (h *InventoryHandler) IssueMaterial(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.IssueMaterialRequest
	if !bindJSON(c, &req, "IssueMaterial") {
		return
	}
	if !requireSiteAccess(c, actor, req.SiteID) {
		return
	}

	req.CreatedBy = actor.UserID
	approver := actor.UserID
	req.ApprovedBy = &approver

	txn, err := h.inventoryService.IssueMaterial(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "IssueMaterial")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// AdjustStock reconciles a site's book quantity with a physical count.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.AdjustStockRequest
	if !bindJSON(c, &req, "AdjustStock") {
		return
	}
	if !requireSiteAccess(c, actor, req.SiteID) {
		return
	}
	req.AdjustedBy = actor.UserID

	adj, err := h.inventoryService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "AdjustStock")
		return
	}
	c.JSON(http.StatusCreated, adj)
}

// GetStockLevel returns the level of one material at one site.
func (h *InventoryHandler) GetStockLevel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	siteID, materialID, ok := siteMaterialQuery(c)
	if !ok || !requireSiteAccess(c, actor, siteID) {
		return
	}

	level, err := h.inventoryService.GetStockLevel(c.Request.Context(), siteID, materialID)
	if err != nil {
		respondServiceError(c, err, "GetStockLevel")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stock_level":  level,
		"average_cost": level.AverageCost().Round(4),
	})
}

// ListBatches returns the open FIFO layers of one material at one site.
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	siteID, materialID, ok := siteMaterialQuery(c)
	if !ok || !requireSiteAccess(c, actor, siteID) {
		return
	}

	batches, err := h.inventoryService.ListBatches(c.Request.Context(), siteID, materialID)
	if err != nil {
		respondServiceError(c, err, "ListBatches")
		return
	}
	c.JSON(http.StatusOK, batches)
}

// ListAdjustments returns recent stock adjustments, newest first.
func (h *InventoryHandler) ListAdjustments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	requested, ok := queryInt64(c, "site_id")
	if !ok {
		return
	}
	siteID, ok := siteScope(c, actor, requested)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, defaultAdjustmentLimit)
	if !ok {
		return
	}

	adjustments, err := h.inventoryService.ListAdjustments(c.Request.Context(), siteID, limit)
	if err != nil {
		respondServiceError(c, err, "ListAdjustments")
		return
	}
	c.JSON(http.StatusOK, adjustments)
}

func siteMaterialQuery(c *gin.Context) (int64, int64, bool) {
	siteID, ok := queryInt64(c, "site_id")
	if !ok {
		return 0, 0, false
	}
	materialID, ok := queryInt64(c, "material_id")
	if !ok {
		return 0, 0, false
	}
	if siteID == nil || materialID == nil {
		utils.RespondValidationFailed(c, "site_id and material_id are required")
		return 0, 0, false
	}
	return *siteID, *materialID, true
}
