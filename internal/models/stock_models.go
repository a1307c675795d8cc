package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel is the materialized on-hand aggregate for one (site, material) pair.
// Only the inventory engine writes it.
type StockLevel struct {
	ID         int64           `json:"id" db:"id"`
	SiteID     int64           `json:"site_id" db:"site_id"`
	MaterialID int64           `json:"material_id" db:"material_id"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	TotalValue decimal.Decimal `json:"total_value" db:"total_value"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// AverageCost is total_value / quantity, or zero when nothing is on hand.
func (s StockLevel) AverageCost() decimal.Decimal {
	if !s.Quantity.IsPositive() {
		return decimal.Zero
	}
	return s.TotalValue.Div(s.Quantity)
}

// FIFOBatch is a cost layer created by a receipt or a positive adjustment.
type FIFOBatch struct {
	ID                int64           `json:"id" db:"id"`
	SiteID            int64           `json:"site_id" db:"site_id"`
	MaterialID        int64           `json:"material_id" db:"material_id"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining" db:"quantity_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	ReceivedAt        time.Time       `json:"received_at" db:"received_at"`
	TransactionID     int64           `json:"transaction_id" db:"transaction_id"`
}

// StockAdjustment records one physical-count reconciliation.
type StockAdjustment struct {
	ID               int64           `json:"id" db:"id"`
	SiteID           int64           `json:"site_id" db:"site_id"`
	MaterialID       int64           `json:"material_id" db:"material_id"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity" db:"expected_quantity"`
	ActualQuantity   decimal.Decimal `json:"actual_quantity" db:"actual_quantity"`
	Discrepancy      decimal.Decimal `json:"discrepancy" db:"discrepancy"`
	Reason           *string         `json:"reason,omitempty" db:"reason"`
	AdjustedBy       int64           `json:"adjusted_by" db:"adjusted_by"`
	AdjustedAt       time.Time       `json:"adjusted_at" db:"adjusted_at"`
	TransactionID    *int64          `json:"transaction_id,omitempty" db:"transaction_id"`
}
