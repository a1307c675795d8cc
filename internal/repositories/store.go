package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SiteRepository persists sites.
type SiteRepository interface {
	CreateSite(ctx context.Context, site *models.Site) error
	GetSiteByID(ctx context.Context, id int64) (*models.Site, error)
	GetSiteByName(ctx context.Context, name string) (*models.Site, error)
	ListSites(ctx context.Context) ([]models.Site, error)
	UpdateSite(ctx context.Context, site *models.Site) error
	DeleteSite(ctx context.Context, id int64) error
}

// MaterialRepository persists the material catalogue.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, material *models.Material) error
	GetMaterialByID(ctx context.Context, id int64) (*models.Material, error)
	GetMaterialByName(ctx context.Context, name string) (*models.Material, error)
	ListMaterials(ctx context.Context, search *string) ([]models.Material, error)
	UpdateMaterial(ctx context.Context, material *models.Material) error
}

// StockRepository owns stock_levels and fifo_batches. Only the inventory engine calls
// its mutating methods.
type StockRepository interface {
	// EnsureStockLevel creates a zero row for (site, material) if none exists.
	EnsureStockLevel(ctx context.Context, siteID, materialID int64) error
	// GetStockLevel reads without locking.
	GetStockLevel(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error)
	// GetStockLevelForUpdate reads and locks the row until the unit of work ends.
	GetStockLevelForUpdate(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error)
	SaveStockLevel(ctx context.Context, level *models.StockLevel) error

	CreateBatch(ctx context.Context, batch *models.FIFOBatch) error
	// ListOpenBatches returns batches with quantity_remaining > 0, oldest first
	// (received_at, then id), locked for update.
	ListOpenBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error)
	ListBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error)
	UpdateBatchRemaining(ctx context.Context, batchID int64, remaining decimal.Decimal) error
}

// TransactionRepository appends ledger entries. There is no update or delete.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
}

// SequenceRepository hands out per-prefix, per-day counters.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string, day time.Time) (int64, error)
}

// AdjustmentRepository persists physical-count reconciliations.
type AdjustmentRepository interface {
	CreateAdjustment(ctx context.Context, adj *models.StockAdjustment) error
	ListAdjustments(ctx context.Context, siteID *int64, limit int) ([]models.StockAdjustment, error)
}

// IssueRequestRepository persists single-material issue requests.
type IssueRequestRepository interface {
	CreateIssueRequest(ctx context.Context, req *models.IssueRequest) error
	GetIssueRequest(ctx context.Context, id int64, forUpdate bool) (*models.IssueRequest, error)
	ListIssueRequests(ctx context.Context, filters models.RequestFilters) ([]models.IssueRequest, error)
	UpdateIssueRequestReview(ctx context.Context, id int64, review models.Review) error
	CountPendingIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error)
}

// BatchIssueRepository persists batch issue requests and their items.
type BatchIssueRepository interface {
	CreateBatchIssueRequest(ctx context.Context, req *models.BatchIssueRequest) error
	GetBatchIssueRequest(ctx context.Context, batchID string, forUpdate bool) (*models.BatchIssueRequest, error)
	ListBatchIssueRequests(ctx context.Context, filters models.RequestFilters) ([]models.BatchIssueRequest, error)
	UpdateBatchIssueRequestReview(ctx context.Context, batchID string, review models.Review) error
	CountPendingBatchIssueRequests(ctx context.Context, siteID, requestedBy *int64) (int, error)
}

// TransferRepository persists stock transfer requests and their items.
type TransferRepository interface {
	CreateStockTransferRequest(ctx context.Context, req *models.StockTransferRequest) error
	GetStockTransferRequest(ctx context.Context, transferID string, forUpdate bool) (*models.StockTransferRequest, error)
	ListStockTransferRequests(ctx context.Context, filters models.RequestFilters) ([]models.StockTransferRequest, error)
	UpdateStockTransferRequestReview(ctx context.Context, transferID string, review models.Review) error
	CountPendingStockTransferRequests(ctx context.Context, siteID, requestedBy *int64) (int, error)
}

// ReportRepository serves the read-only reporting joins.
type ReportRepository interface {
	StockSummary(ctx context.Context, siteID *int64) ([]models.StockSummaryRow, error)
	LowStock(ctx context.Context, siteID *int64) ([]models.LowStockRow, error)
	TransactionHistory(ctx context.Context, filters models.TransactionFilters) ([]models.TransactionHistoryRow, error)
}

// UserRepository persists operators.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Repos bundles every repository bound to one executor (a pool or an open unit of work).
type Repos struct {
	Sites        SiteRepository
	Materials    MaterialRepository
	Stock        StockRepository
	Transactions TransactionRepository
	Sequences    SequenceRepository
	Adjustments  AdjustmentRepository
	Issues       IssueRequestRepository
	Batches      BatchIssueRepository
	Transfers    TransferRepository
	Reports      ReportRepository
	Users        UserRepository
}

// Store is the persistence boundary.
// WithinTx commits when fn returns nil and rolls back on error or panic.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
