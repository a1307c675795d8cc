package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TransactionReceive    TransactionType = "receive"
	TransactionIssue      TransactionType = "issue"
	TransactionAdjustment TransactionType = "adjustment"
)

// Transaction is an append-only ledger entry. Quantity and TotalValue are negative
// for issues and negative adjustments.
type Transaction struct {
	ID                    int64           `json:"id" db:"id"`
	SerialNumber          string          `json:"serial_number" db:"serial_number"`
	SiteID                int64           `json:"site_id" db:"site_id"`
	MaterialID            int64           `json:"material_id" db:"material_id"`
	Quantity              decimal.Decimal `json:"quantity" db:"quantity"`
	UnitCost              decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	TotalValue            decimal.Decimal `json:"total_value" db:"total_value"`
	Type                  TransactionType `json:"type" db:"type"`
	ProjectCode           *string         `json:"project_code,omitempty" db:"project_code"`
	ApprovedBy            *int64          `json:"approved_by,omitempty" db:"approved_by"`
	CreatedBy             int64           `json:"created_by" db:"created_by"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	Notes                 *string         `json:"notes,omitempty" db:"notes"`
	SupportingDocumentURL *string         `json:"supporting_document_url,omitempty" db:"supporting_document_url"`
}
