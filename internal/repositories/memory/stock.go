package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

type stockRepo struct{ a access }

func (r *stockRepo) EnsureStockLevel(ctx context.Context, siteID, materialID int64) error {
	return r.a.do(ctx, func(s *state) error {
		key := pairKey{siteID, materialID}
		if _, ok := s.stock[key]; ok {
			return nil
		}
		s.stock[key] = models.StockLevel{
			ID:         s.nextID(),
			SiteID:     siteID,
			MaterialID: materialID,
			Quantity:   decimal.Zero,
			TotalValue: decimal.Zero,
			UpdatedAt:  time.Now(),
		}
		return nil
	})
}

func (r *stockRepo) GetStockLevel(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	var out *models.StockLevel
	err := r.a.do(ctx, func(s *state) error {
		level, ok := s.stock[pairKey{siteID, materialID}]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &level
		return nil
	})
	return out, err
}

// GetStockLevelForUpdate is GetStockLevel; units of work are already serialized by the store lock.
func (r *stockRepo) GetStockLevelForUpdate(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	return r.GetStockLevel(ctx, siteID, materialID)
}

func (r *stockRepo) SaveStockLevel(ctx context.Context, level *models.StockLevel) error {
	return r.a.do(ctx, func(s *state) error {
		key := pairKey{level.SiteID, level.MaterialID}
		existing, ok := s.stock[key]
		if !ok {
			return repositories.ErrNotFound
		}
		if level.UpdatedAt.IsZero() {
			level.UpdatedAt = time.Now()
		}
		existing.Quantity = level.Quantity
		existing.TotalValue = level.TotalValue
		existing.UpdatedAt = level.UpdatedAt
		s.stock[key] = existing
		return nil
	})
}

func (r *stockRepo) CreateBatch(ctx context.Context, b *models.FIFOBatch) error {
	return r.a.do(ctx, func(s *state) error {
		if _, ok := s.transactions[b.TransactionID]; !ok {
			return fmt.Errorf("%w: batch references unknown transaction %d", repositories.ErrDatabaseError, b.TransactionID)
		}
		if b.ReceivedAt.IsZero() {
			b.ReceivedAt = time.Now()
		}
		b.ID = s.nextID()
		s.batches[b.ID] = *b
		return nil
	})
}

func (r *stockRepo) listBatches(ctx context.Context, siteID, materialID int64, openOnly bool) ([]models.FIFOBatch, error) {
	batches := []models.FIFOBatch{}
	err := r.a.do(ctx, func(s *state) error {
		for _, b := range s.batches {
			if b.SiteID != siteID || b.MaterialID != materialID {
				continue
			}
			if openOnly && !b.QuantityRemaining.IsPositive() {
				continue
			}
			batches = append(batches, b)
		}
		return nil
	})
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ReceivedAt.Equal(batches[j].ReceivedAt) {
			return batches[i].ReceivedAt.Before(batches[j].ReceivedAt)
		}
		return batches[i].ID < batches[j].ID
	})
	return batches, err
}

func (r *stockRepo) ListOpenBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error) {
	return r.listBatches(ctx, siteID, materialID, true)
}

func (r *stockRepo) ListBatches(ctx context.Context, siteID, materialID int64) ([]models.FIFOBatch, error) {
	return r.listBatches(ctx, siteID, materialID, false)
}

func (r *stockRepo) UpdateBatchRemaining(ctx context.Context, batchID int64, remaining decimal.Decimal) error {
	return r.a.do(ctx, func(s *state) error {
		b, ok := s.batches[batchID]
		if !ok {
			return repositories.ErrNotFound
		}
		b.QuantityRemaining = remaining
		s.batches[batchID] = b
		return nil
	})
}

type transactionRepo struct{ a access }

func (r *transactionRepo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.a.do(ctx, func(s *state) error {
		for _, existing := range s.transactions {
			if existing.SerialNumber == t.SerialNumber {
				return fmt.Errorf("%w: serial number %q", repositories.ErrDuplicateKey, t.SerialNumber)
			}
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		t.ID = s.nextID()
		s.transactions[t.ID] = *t
		return nil
	})
}

func (r *transactionRepo) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var out *models.Transaction
	err := r.a.do(ctx, func(s *state) error {
		t, ok := s.transactions[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

type sequenceRepo struct{ a access }

func (r *sequenceRepo) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	var next int64
	err := r.a.do(ctx, func(s *state) error {
		key := sequenceKey{prefix: prefix, day: day.Format("2006-01-02")}
		s.sequences[key]++
		next = s.sequences[key]
		return nil
	})
	return next, err
}

type adjustmentRepo struct{ a access }

func (r *adjustmentRepo) CreateAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	return r.a.do(ctx, func(s *state) error {
		if adj.AdjustedAt.IsZero() {
			adj.AdjustedAt = time.Now()
		}
		adj.ID = s.nextID()
		s.adjustments[adj.ID] = *adj
		return nil
	})
}

func (r *adjustmentRepo) ListAdjustments(ctx context.Context, siteID *int64, limit int) ([]models.StockAdjustment, error) {
	out := []models.StockAdjustment{}
	err := r.a.do(ctx, func(s *state) error {
		for _, adj := range s.adjustments {
			if siteID != nil && adj.SiteID != *siteID {
				continue
			}
			out = append(out, adj)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AdjustedAt.Equal(out[j].AdjustedAt) {
			return out[i].AdjustedAt.After(out[j].AdjustedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
