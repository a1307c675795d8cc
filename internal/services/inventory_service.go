package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Quantities, unit costs and amounts are kept at the precision of the NUMERIC columns.
const costScale = 4

// Document prefixes for day-scoped serials.
const (
	PrefixTransaction = "TXN"
	PrefixBatch       = "BTH"
	PrefixTransfer    = "TRF"
)

// ReceiveMaterialRequest records goods arriving at a site.
type ReceiveMaterialRequest struct {
	SiteID                int64           `json:"site_id" binding:"required,gt=0"`
	MaterialID            int64           `json:"material_id" binding:"required,gt=0"`
	Quantity              decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCost              decimal.Decimal `json:"unit_cost" binding:"gte=0"`
	ProjectCode           *string         `json:"project_code"`
	Notes                 *string         `json:"notes"`
	SupportingDocumentURL *string         `json:"supporting_document_url"`
	ApprovedBy            *int64          `json:"-"`
	CreatedBy             int64           `json:"-"`
}

// IssueMaterialRequest takes goods out of a site's stock.
type IssueMaterialRequest struct {
	SiteID      int64           `json:"site_id" binding:"required,gt=0"`
	MaterialID  int64           `json:"material_id" binding:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	ProjectCode *string         `json:"project_code"`
	Notes       *string         `json:"notes"`
	ApprovedBy  *int64          `json:"-"`
	CreatedBy   int64           `json:"-"`
}

// ReceiveLineInput is one material line of a bulk receipt.
type ReceiveLineInput struct {
	MaterialID int64           `json:"material_id" binding:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost" binding:"gte=0"`
}

// BulkReceiveRequest is one supplier delivery: several lines under one invoice, project
// code and supporting document.
type BulkReceiveRequest struct {
	SiteID                int64              `json:"site_id" binding:"required,gt=0"`
	Supplier              *string            `json:"supplier"`
	InvoiceNumber         *string            `json:"invoice_number"`
	ProjectCode           *string            `json:"project_code"`
	Notes                 *string            `json:"notes"`
	SupportingDocumentURL *string            `json:"supporting_document_url"`
	Items                 []ReceiveLineInput `json:"items" binding:"required,min=1,dive"`
	ApprovedBy            *int64             `json:"-"`
	CreatedBy             int64              `json:"-"`
}

// AdjustStockRequest reconciles the book quantity with a physical count.
type AdjustStockRequest struct {
	SiteID           int64           `json:"site_id" binding:"required,gt=0"`
	MaterialID       int64           `json:"material_id" binding:"required,gt=0"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity" binding:"gte=0"`
	ActualQuantity   decimal.Decimal `json:"actual_quantity" binding:"gte=0"`
	Reason           *string         `json:"reason"`
	AdjustedBy       int64           `json:"-"`
}

// InventoryService is the only writer of stock levels and FIFO batches.
type InventoryService interface {
	ReceiveMaterial(ctx context.Context, req ReceiveMaterialRequest) (*models.Transaction, error)
	// ReceiveMaterials books every line of a delivery or none of them.
	ReceiveMaterials(ctx context.Context, req BulkReceiveRequest) ([]models.Transaction, error)
	IssueMaterial(ctx context.Context, req IssueMaterialRequest) (*models.Transaction, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.StockAdjustment, error)

	GetStockLevel(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error)
	ListBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error)
	ListAdjustments(ctx context.Context, siteID *int64, limit int) ([]models.StockAdjustment, error)
	// ClampEvents counts how often a stock level had to be floored at zero since start.
	ClampEvents() int64
}

// engine holds the receive/issue/adjust algorithms. Every method runs against the Repos
// of an already open unit of work so callers can compose several operations atomically.
type engine struct {
	now         func() time.Time
	clampEvents atomic.Int64
}

func newEngine(now func() time.Time) *engine {
	if now == nil {
		now = time.Now
	}
	return &engine{now: now}
}

type inventoryService struct {
	store  repositories.Store
	engine *engine
}

// NewInventoryService creates the inventory engine facade. A nil clock means time.Now.
func NewInventoryService(store repositories.Store, now func() time.Time) InventoryService {
	return newInventoryService(store, newEngine(now))
}

func newInventoryService(store repositories.Store, e *engine) *inventoryService {
	return &inventoryService{store: store, engine: e}
}

func (s *inventoryService) ReceiveMaterial(ctx context.Context, req ReceiveMaterialRequest) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		var err error
		txn, err = s.engine.receive(ctx, r, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Material received", map[string]interface{}{
		"serial_number": txn.SerialNumber, "site_id": txn.SiteID, "material_id": txn.MaterialID,
		"quantity": txn.Quantity.String(), "unit_cost": txn.UnitCost.String(),
	})
	return txn, nil
}

func (s *inventoryService) ReceiveMaterials(ctx context.Context, req BulkReceiveRequest) ([]models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, validationError("at least one item is required")
	}
	notes := bulkReceiptNotes(req)
	lines := make([]ReceiveMaterialRequest, len(req.Items))
	for i, it := range req.Items {
		lines[i] = ReceiveMaterialRequest{
			SiteID:                req.SiteID,
			MaterialID:            it.MaterialID,
			Quantity:              it.Quantity,
			UnitCost:              it.UnitCost,
			ProjectCode:           req.ProjectCode,
			Notes:                 notes,
			SupportingDocumentURL: req.SupportingDocumentURL,
			ApprovedBy:            req.ApprovedBy,
			CreatedBy:             req.CreatedBy,
		}
	}

	var txns []models.Transaction
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		keys := make([]stockKey, 0, len(lines))
		for i, line := range lines {
			if err := checkReceive(ctx, r, line); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			keys = append(keys, stockKey{siteID: line.SiteID, materialID: line.MaterialID, create: true})
		}
		if err := lockStockRows(ctx, r, keys); err != nil {
			return err
		}
		txns = make([]models.Transaction, 0, len(lines))
		for i, line := range lines {
			txn, err := s.engine.receive(ctx, r, line)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			txns = append(txns, *txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Bulk receipt recorded", map[string]interface{}{
		"site_id": req.SiteID, "lines": len(txns), "first_serial": txns[0].SerialNumber,
		"last_serial": txns[len(txns)-1].SerialNumber,
	})
	return txns, nil
}

// bulkReceiptNotes renders "Bulk receipt from <supplier> - Invoice: <no> - <notes>".
func bulkReceiptNotes(req BulkReceiveRequest) *string {
	head := "Bulk receipt"
	if supplier := utils.TrimOptional(req.Supplier); supplier != nil {
		head += " from " + *supplier
	}
	parts := []string{head}
	if invoice := utils.TrimOptional(req.InvoiceNumber); invoice != nil {
		parts = append(parts, "Invoice: "+*invoice)
	}
	if notes := utils.TrimOptional(req.Notes); notes != nil {
		parts = append(parts, *notes)
	}
	out := strings.Join(parts, " - ")
	return &out
}

func (s *inventoryService) IssueMaterial(ctx context.Context, req IssueMaterialRequest) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		var err error
		txn, err = s.engine.issue(ctx, r, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Material issued", map[string]interface{}{
		"serial_number": txn.SerialNumber, "site_id": txn.SiteID, "material_id": txn.MaterialID,
		"quantity": txn.Quantity.String(), "unit_cost": txn.UnitCost.String(),
	})
	return txn, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.StockAdjustment, error) {
	var adj *models.StockAdjustment
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		var err error
		adj, err = s.engine.adjust(ctx, r, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Stock adjusted", map[string]interface{}{
		"site_id": adj.SiteID, "material_id": adj.MaterialID, "discrepancy": adj.Discrepancy.String(),
	})
	return adj, nil
}

func (s *inventoryService) GetStockLevel(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	level, err := s.store.Repos().Stock.GetStockLevel(ctx, siteID, materialID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.StockLevel{SiteID: siteID, MaterialID: materialID}, nil
	}
	return level, err
}

func (s *inventoryService) ListBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error) {
	return s.store.Repos().Stock.ListBatches(ctx, siteID, materialID)
}

func (s *inventoryService) ListAdjustments(ctx context.Context, siteID *int64, limit int) ([]models.StockAdjustment, error) {
	return s.store.Repos().Adjustments.ListAdjustments(ctx, siteID, limit)
}

func (s *inventoryService) ClampEvents() int64 {
	return s.engine.clampEvents.Load()
}

// nextSerial renders PREFIX-YYYYMMDD-NNNN from the day-scoped counter.
func nextSerial(ctx context.Context, r repositories.Repos, prefix string, at time.Time) (string, error) {
	n, err := r.Sequences.Next(ctx, prefix, at)
	if err != nil {
		return "", fmt.Errorf("allocating %s serial: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, at.Format("20060102"), n), nil
}

func checkSiteAndMaterial(ctx context.Context, r repositories.Repos, siteID, materialID int64) error {
	if _, err := r.Sites.GetSiteByID(ctx, siteID); err != nil {
		return mapNotFound(err, ErrSiteNotFound)
	}
	if _, err := r.Materials.GetMaterialByID(ctx, materialID); err != nil {
		return mapNotFound(err, ErrMaterialNotFound)
	}
	return nil
}

// checkScale rejects values finer than the NUMERIC(14,4) columns can hold.
func checkScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(costScale)) {
		return validationError("%s must have at most %d decimal places", field, costScale)
	}
	return nil
}

func checkQuantity(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return validationError("%s must be greater than zero", field)
	}
	return checkScale(field, d)
}

func validateIDs(siteID, materialID, userID int64) error {
	switch {
	case siteID <= 0:
		return validationError("site_id must be positive")
	case materialID <= 0:
		return validationError("material_id must be positive")
	case userID <= 0:
		return validationError("acting user is required")
	}
	return nil
}

// Lock order inside a unit of work: the request row being reviewed, then stock_levels
// rows in ascending (site_id, material_id), then the document_sequences row. Operations
// touching one stock row get this for free; multi-item operations call lockStockRows
// before their first serial is allocated.

// lockStockLevel creates the (site, material) row if needed and locks it.
func lockStockLevel(ctx context.Context, r repositories.Repos, siteID, materialID int64) (*models.StockLevel, error) {
	if err := r.Stock.EnsureStockLevel(ctx, siteID, materialID); err != nil {
		return nil, err
	}
	return r.Stock.GetStockLevelForUpdate(ctx, siteID, materialID)
}

// stockKey names one stock_levels row. create marks rows that receive stock and may not
// exist yet.
type stockKey struct {
	siteID, materialID int64
	create             bool
}

// lockStockRows locks every listed stock row in (site_id, material_id) order. Missing rows
// without create are skipped; the engine reports them as insufficient stock later.
func lockStockRows(ctx context.Context, r repositories.Repos, keys []stockKey) error {
	merged := make(map[[2]int64]bool, len(keys))
	for _, k := range keys {
		id := [2]int64{k.siteID, k.materialID}
		merged[id] = merged[id] || k.create
	}
	ordered := make([][2]int64, 0, len(merged))
	for id := range merged {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i][0] != ordered[j][0] {
			return ordered[i][0] < ordered[j][0]
		}
		return ordered[i][1] < ordered[j][1]
	})

	for _, id := range ordered {
		var err error
		if merged[id] {
			_, err = lockStockLevel(ctx, r, id[0], id[1])
		} else {
			_, err = r.Stock.GetStockLevelForUpdate(ctx, id[0], id[1])
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
	}
	return nil
}

func checkReceive(ctx context.Context, r repositories.Repos, req ReceiveMaterialRequest) error {
	if err := validateIDs(req.SiteID, req.MaterialID, req.CreatedBy); err != nil {
		return err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return err
	}
	if req.UnitCost.IsNegative() {
		return validationError("unit_cost must not be negative")
	}
	if err := checkScale("unit_cost", req.UnitCost); err != nil {
		return err
	}
	return checkSiteAndMaterial(ctx, r, req.SiteID, req.MaterialID)
}

func (e *engine) receive(ctx context.Context, r repositories.Repos, req ReceiveMaterialRequest) (*models.Transaction, error) {
	if err := checkReceive(ctx, r, req); err != nil {
		return nil, err
	}

	level, err := lockStockLevel(ctx, r, req.SiteID, req.MaterialID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	serial, err := nextSerial(ctx, r, PrefixTransaction, now)
	if err != nil {
		return nil, err
	}
	unitCost := req.UnitCost
	totalValue := req.Quantity.Mul(unitCost).Round(costScale)

	txn := &models.Transaction{
		SerialNumber:          serial,
		SiteID:                req.SiteID,
		MaterialID:            req.MaterialID,
		Quantity:              req.Quantity,
		UnitCost:              unitCost,
		TotalValue:            totalValue,
		Type:                  models.TransactionReceive,
		ProjectCode:           utils.TrimOptional(req.ProjectCode),
		ApprovedBy:            req.ApprovedBy,
		CreatedBy:             req.CreatedBy,
		CreatedAt:             now,
		Notes:                 utils.TrimOptional(req.Notes),
		SupportingDocumentURL: utils.TrimOptional(req.SupportingDocumentURL),
	}
	if err := r.Transactions.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	batch := &models.FIFOBatch{
		SiteID:            req.SiteID,
		MaterialID:        req.MaterialID,
		QuantityRemaining: req.Quantity,
		UnitCost:          unitCost,
		ReceivedAt:        now,
		TransactionID:     txn.ID,
	}
	if err := r.Stock.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	if err := e.applyStockDelta(ctx, r, level, req.Quantity, totalValue); err != nil {
		return nil, err
	}
	return txn, nil
}

func (e *engine) issue(ctx context.Context, r repositories.Repos, req IssueMaterialRequest) (*models.Transaction, error) {
	if err := validateIDs(req.SiteID, req.MaterialID, req.CreatedBy); err != nil {
		return nil, err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return nil, err
	}
	if err := checkSiteAndMaterial(ctx, r, req.SiteID, req.MaterialID); err != nil {
		return nil, err
	}

	level, err := r.Stock.GetStockLevelForUpdate(ctx, req.SiteID, req.MaterialID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: requested %s, available 0", ErrInsufficientStock, req.Quantity)
	}
	if err != nil {
		return nil, err
	}
	if level.Quantity.LessThan(req.Quantity) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientStock, req.Quantity, level.Quantity)
	}

	batches, err := r.Stock.ListOpenBatches(ctx, req.SiteID, req.MaterialID)
	if err != nil {
		return nil, err
	}

	needed := req.Quantity
	totalCost := decimal.Zero
	for _, b := range batches {
		if !needed.IsPositive() {
			break
		}
		take := decimal.Min(needed, b.QuantityRemaining)
		if err := r.Stock.UpdateBatchRemaining(ctx, b.ID, b.QuantityRemaining.Sub(take)); err != nil {
			return nil, err
		}
		totalCost = totalCost.Add(take.Mul(b.UnitCost))
		needed = needed.Sub(take)
	}
	if needed.IsPositive() {
		err := fmt.Errorf("%w: site %d material %d short by %s", ErrFIFOExhausted, req.SiteID, req.MaterialID, needed)
		utils.LogError(err, "FIFO batches disagree with stock level", map[string]interface{}{
			"alarm":       "data_integrity",
			"site_id":     req.SiteID,
			"material_id": req.MaterialID,
			"requested":   req.Quantity.String(),
			"on_hand":     level.Quantity.String(),
			"shortfall":   needed.String(),
		})
		return nil, err
	}

	totalCost = totalCost.Round(costScale)
	now := e.now()
	serial, err := nextSerial(ctx, r, PrefixTransaction, now)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		SerialNumber: serial,
		SiteID:       req.SiteID,
		MaterialID:   req.MaterialID,
		Quantity:     req.Quantity.Neg(),
		UnitCost:     totalCost.DivRound(req.Quantity, costScale),
		TotalValue:   totalCost.Neg(),
		Type:         models.TransactionIssue,
		ProjectCode:  utils.TrimOptional(req.ProjectCode),
		ApprovedBy:   req.ApprovedBy,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		Notes:        utils.TrimOptional(req.Notes),
	}
	if err := r.Transactions.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if err := e.applyStockDelta(ctx, r, level, req.Quantity.Neg(), totalCost.Neg()); err != nil {
		return nil, err
	}
	return txn, nil
}

// adjust always records the count. A non-zero discrepancy is booked at the current
// average cost; a gain also opens a FIFO batch. A loss reduces the stock level only and
// leaves the batches untouched.
func (e *engine) adjust(ctx context.Context, r repositories.Repos, req AdjustStockRequest) (*models.StockAdjustment, error) {
	if err := validateIDs(req.SiteID, req.MaterialID, req.AdjustedBy); err != nil {
		return nil, err
	}
	if req.ExpectedQuantity.IsNegative() || req.ActualQuantity.IsNegative() {
		return nil, validationError("expected and actual quantities must not be negative")
	}
	if err := checkScale("expected_quantity", req.ExpectedQuantity); err != nil {
		return nil, err
	}
	if err := checkScale("actual_quantity", req.ActualQuantity); err != nil {
		return nil, err
	}
	if err := checkSiteAndMaterial(ctx, r, req.SiteID, req.MaterialID); err != nil {
		return nil, err
	}

	now := e.now()
	reason := utils.TrimOptional(req.Reason)
	adj := &models.StockAdjustment{
		SiteID:           req.SiteID,
		MaterialID:       req.MaterialID,
		ExpectedQuantity: req.ExpectedQuantity,
		ActualQuantity:   req.ActualQuantity,
		Discrepancy:      req.ActualQuantity.Sub(req.ExpectedQuantity),
		Reason:           reason,
		AdjustedBy:       req.AdjustedBy,
		AdjustedAt:       now,
	}

	if !adj.Discrepancy.IsZero() {
		level, err := lockStockLevel(ctx, r, req.SiteID, req.MaterialID)
		if err != nil {
			return nil, err
		}
		avgCost := level.AverageCost().Round(costScale)
		value := adj.Discrepancy.Mul(avgCost).Round(costScale)

		serial, err := nextSerial(ctx, r, PrefixTransaction, now)
		if err != nil {
			return nil, err
		}
		notes := "Stock adjustment"
		if reason != nil {
			notes = "Stock adjustment: " + *reason
		}
		txn := &models.Transaction{
			SerialNumber: serial,
			SiteID:       req.SiteID,
			MaterialID:   req.MaterialID,
			Quantity:     adj.Discrepancy,
			UnitCost:     avgCost,
			TotalValue:   value,
			Type:         models.TransactionAdjustment,
			CreatedBy:    req.AdjustedBy,
			CreatedAt:    now,
			Notes:        &notes,
		}
		if err := r.Transactions.CreateTransaction(ctx, txn); err != nil {
			return nil, err
		}
		adj.TransactionID = &txn.ID

		if adj.Discrepancy.IsPositive() {
			batch := &models.FIFOBatch{
				SiteID:            req.SiteID,
				MaterialID:        req.MaterialID,
				QuantityRemaining: adj.Discrepancy,
				UnitCost:          avgCost,
				ReceivedAt:        now,
				TransactionID:     txn.ID,
			}
			if err := r.Stock.CreateBatch(ctx, batch); err != nil {
				return nil, err
			}
		} else {
			utils.LogWarn("Negative adjustment leaves FIFO batches unchanged", map[string]interface{}{
				"site_id": req.SiteID, "material_id": req.MaterialID, "discrepancy": adj.Discrepancy.String(),
			})
		}

		if err := e.applyStockDelta(ctx, r, level, adj.Discrepancy, value); err != nil {
			return nil, err
		}
	}

	if err := r.Adjustments.CreateAdjustment(ctx, adj); err != nil {
		return nil, err
	}
	return adj, nil
}

// applyStockDelta adds the deltas to a locked stock level and floors both fields at zero.
// A floor that actually engages is logged and counted.
func (e *engine) applyStockDelta(ctx context.Context, r repositories.Repos, level *models.StockLevel, dQty, dValue decimal.Decimal) error {
	beforeQty, beforeValue := level.Quantity, level.TotalValue
	qty := beforeQty.Add(dQty)
	value := beforeValue.Add(dValue)

	clamped := false
	if qty.IsNegative() {
		qty, clamped = decimal.Zero, true
	}
	if value.IsNegative() {
		value, clamped = decimal.Zero, true
	}
	if clamped {
		total := e.clampEvents.Add(1)
		utils.LogWarn("Stock level clamped at zero", map[string]interface{}{
			"site_id":        level.SiteID,
			"material_id":    level.MaterialID,
			"quantity_was":   beforeQty.String(),
			"value_was":      beforeValue.String(),
			"quantity_delta": dQty.String(),
			"value_delta":    dValue.String(),
			"clamp_events":   total,
		})
	}

	level.Quantity = qty
	level.TotalValue = value
	level.UpdatedAt = e.now()
	return r.Stock.SaveStockLevel(ctx, level)
}
