package handlers

import (
	"net/http"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultRequestLimit = 100

// RequestHandler serves issue, batch issue and transfer requests and their review.
type RequestHandler struct {
	approvalService services.ApprovalService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(as services.ApprovalService) *RequestHandler {
	return &RequestHandler{approvalService: as}
}

// CreateIssueRequest files a single-material issue for review.
func (h *RequestHandler) CreateIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateIssueRequest
	if !bindJSON(c, &req, "CreateIssueRequest") {
		return
	}
	created, err := h.approvalService.CreateIssueRequest(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateIssueRequest")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CreateBatchIssueRequest files a multi-material issue for review.
func (h *RequestHandler) CreateBatchIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateBatchIssueRequest
	if !bindJSON(c, &req, "CreateBatchIssueRequest") {
		return
	}
	created, err := h.approvalService.CreateBatchIssueRequest(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateBatchIssueRequest")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CreateStockTransferRequest files a site-to-site transfer for review.
func (h *RequestHandler) CreateStockTransferRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateStockTransferRequest
	if !bindJSON(c, &req, "CreateStockTransferRequest") {
		return
	}
	created, err := h.approvalService.CreateStockTransferRequest(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateStockTransferRequest")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListIssueRequests supports ?site_id=, ?status= and ?limit=.
func (h *RequestHandler) ListIssueRequests(c *gin.Context) {
	actor, filters, ok := requestListParams(c)
	if !ok {
		return
	}
	items, err := h.approvalService.ListIssueRequests(c.Request.Context(), actor, filters)
	if err != nil {
		respondServiceError(c, err, "ListIssueRequests")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *RequestHandler) ListBatchIssueRequests(c *gin.Context) {
	actor, filters, ok := requestListParams(c)
	if !ok {
		return
	}
	items, err := h.approvalService.ListBatchIssueRequests(c.Request.Context(), actor, filters)
	if err != nil {
		respondServiceError(c, err, "ListBatchIssueRequests")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *RequestHandler) ListStockTransferRequests(c *gin.Context) {
	actor, filters, ok := requestListParams(c)
	if !ok {
		return
	}
	items, err := h.approvalService.ListStockTransferRequests(c.Request.Context(), actor, filters)
	if err != nil {
		respondServiceError(c, err, "ListStockTransferRequests")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *RequestHandler) GetIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := h.approvalService.GetIssueRequest(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "GetIssueRequest")
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) GetBatchIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	req, err := h.approvalService.GetBatchIssueRequest(c.Request.Context(), actor, c.Param("batch_id"))
	if err != nil {
		respondServiceError(c, err, "GetBatchIssueRequest")
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) GetStockTransferRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	req, err := h.approvalService.GetStockTransferRequest(c.Request.Context(), actor, c.Param("transfer_id"))
	if err != nil {
		respondServiceError(c, err, "GetStockTransferRequest")
		return
	}
	c.JSON(http.StatusOK, req)
}

// PendingCounts returns the number of requests awaiting review.
func (h *RequestHandler) PendingCounts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	counts, err := h.approvalService.PendingCounts(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "PendingCounts")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ProcessIssueRequest approves or rejects an issue request as the caller.
func (h *RequestHandler) ProcessIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var review services.ReviewRequest
	if !bindJSON(c, &review, "ProcessIssueRequest") {
		return
	}
	out, err := h.approvalService.ProcessIssueRequest(c.Request.Context(), id, actor.UserID, review.Action, review.ReviewNotes)
	if err != nil {
		respondServiceError(c, err, "ProcessIssueRequest")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) ProcessBatchIssueRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var review services.ReviewRequest
	if !bindJSON(c, &review, "ProcessBatchIssueRequest") {
		return
	}
	out, err := h.approvalService.ProcessBatchIssueRequest(c.Request.Context(), c.Param("batch_id"), actor.UserID, review.Action, review.ReviewNotes)
	if err != nil {
		respondServiceError(c, err, "ProcessBatchIssueRequest")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) ProcessStockTransferRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var review services.ReviewRequest
	if !bindJSON(c, &review, "ProcessStockTransferRequest") {
		return
	}
	out, err := h.approvalService.ProcessStockTransferRequest(c.Request.Context(), c.Param("transfer_id"), actor.UserID, review.Action, review.ReviewNotes)
	if err != nil {
		respondServiceError(c, err, "ProcessStockTransferRequest")
		return
	}
	c.JSON(http.StatusOK, out)
}

func requestListParams(c *gin.Context) (models.Actor, models.RequestFilters, bool) {
	var filters models.RequestFilters
	actor, ok := requireActor(c)
	if !ok {
		return actor, filters, false
	}
	if filters.SiteID, ok = queryInt64(c, "site_id"); !ok {
		return actor, filters, false
	}
	if raw := c.Query("status"); raw != "" {
		status := models.RequestStatus(raw)
		switch status {
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
			filters.Status = &status
		default:
			utils.RespondValidationFailed(c, "status must be one of pending, approved, rejected")
			return actor, filters, false
		}
	}
	if filters.Limit, ok = queryLimit(c, defaultRequestLimit); !ok {
		return actor, filters, false
	}
	return actor, filters, true
}
