package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSummaryRow is one (site, material) line of the stock summary.
type StockSummaryRow struct {
	SiteID       int64           `json:"site_id"`
	SiteName     string          `json:"site_name"`
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalValue   decimal.Decimal `json:"total_value"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	MinimumLevel decimal.Decimal `json:"minimum_level"`
	IsLowStock   bool            `json:"is_low_stock"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStockRow is a stock line below the material's minimum level.
type LowStockRow struct {
	SiteID       int64           `json:"site_id"`
	SiteName     string          `json:"site_name"`
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinimumLevel decimal.Decimal `json:"minimum_level"`
}

// TransactionHistoryRow is a ledger entry decorated for display.
type TransactionHistoryRow struct {
	Transaction
	SiteName        string  `json:"site_name"`
	MaterialName    string  `json:"material_name"`
	Unit            string  `json:"unit"`
	CreatorUsername *string `json:"creator_username,omitempty"`
}

// TransactionFilters narrows GetTransactionHistory. Nil fields are not applied.
type TransactionFilters struct {
	SiteID     *int64
	MaterialID *int64
	Type       *TransactionType
	Start      *time.Time
	End        *time.Time
}
