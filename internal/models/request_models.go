package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is shared by every approval-workflow request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Review holds the fields set when a site engineer decides on a request.
type Review struct {
	Status      RequestStatus `json:"status" db:"status"`
	ReviewedBy  *int64        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewNotes *string       `json:"review_notes,omitempty" db:"review_notes"`
}

// IssueRequest proposes issuing a single material.
type IssueRequest struct {
	ID                int64           `json:"id" db:"id"`
	SiteID            int64           `json:"site_id" db:"site_id"`
	MaterialID        int64           `json:"material_id" db:"material_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested" db:"quantity_requested"`
	ProjectCode       *string         `json:"project_code,omitempty" db:"project_code"`
	Purpose           *string         `json:"purpose,omitempty" db:"purpose"`
	RequestedBy       int64           `json:"requested_by" db:"requested_by"`
	RequestedAt       time.Time       `json:"requested_at" db:"requested_at"`
	Review
}

// BatchIssueRequest proposes issuing several materials under one decision.
type BatchIssueRequest struct {
	ID          int64            `json:"id" db:"id"`
	BatchID     string           `json:"batch_id" db:"batch_id"`
	SiteID      int64            `json:"site_id" db:"site_id"`
	ProjectCode *string          `json:"project_code,omitempty" db:"project_code"`
	Purpose     *string          `json:"purpose,omitempty" db:"purpose"`
	RequestedBy int64            `json:"requested_by" db:"requested_by"`
	RequestedAt time.Time        `json:"requested_at" db:"requested_at"`
	Items       []BatchIssueItem `json:"items"`
	Review
}

// BatchIssueItem is one line of a BatchIssueRequest.
type BatchIssueItem struct {
	ID                int64           `json:"id" db:"id"`
	BatchID           string          `json:"batch_id" db:"batch_id"`
	MaterialID        int64           `json:"material_id" db:"material_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested" db:"quantity_requested"`
}

// StockTransferRequest proposes moving materials between two sites.
type StockTransferRequest struct {
	ID          int64               `json:"id" db:"id"`
	TransferID  string              `json:"transfer_id" db:"transfer_id"`
	FromSiteID  int64               `json:"from_site_id" db:"from_site_id"`
	ToSiteID    int64               `json:"to_site_id" db:"to_site_id"`
	Notes       *string             `json:"notes,omitempty" db:"notes"`
	RequestedBy int64               `json:"requested_by" db:"requested_by"`
	RequestedAt time.Time           `json:"requested_at" db:"requested_at"`
	Items       []StockTransferItem `json:"items"`
	Review
}

// StockTransferItem is one line of a StockTransferRequest.
type StockTransferItem struct {
	ID         int64           `json:"id" db:"id"`
	TransferID string          `json:"transfer_id" db:"transfer_id"`
	MaterialID int64           `json:"material_id" db:"material_id"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
}

// RequestFilters narrows request listings. Nil fields are not applied.
type RequestFilters struct {
	SiteID      *int64
	Status      *RequestStatus
	RequestedBy *int64
	Limit       int
}

// PendingCounts summarizes requests awaiting review.
type PendingCounts struct {
	Individual int `json:"pending_individual"`
	Batch      int `json:"pending_batch"`
	Transfer   int `json:"pending_transfer"`
	Total      int `json:"total_pending"`
}
