package memory

import (
	"context"
	"sort"

	"site_stores_backend/internal/models"
)

type reportRepo struct{ a access }

func (r *reportRepo) StockSummary(ctx context.Context, siteID *int64) ([]models.StockSummaryRow, error) {
	out := []models.StockSummaryRow{}
	err := r.a.do(ctx, func(s *state) error {
		for _, level := range s.stock {
			if siteID != nil && level.SiteID != *siteID {
				continue
			}
			site, m := s.sites[level.SiteID], s.materials[level.MaterialID]
			out = append(out, models.StockSummaryRow{
				SiteID:       level.SiteID,
				SiteName:     site.Name,
				MaterialID:   level.MaterialID,
				MaterialName: m.Name,
				Unit:         m.Unit,
				Quantity:     level.Quantity,
				TotalValue:   level.TotalValue,
				MinimumLevel: m.MinimumLevel,
				UpdatedAt:    level.UpdatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteName != out[j].SiteName {
			return out[i].SiteName < out[j].SiteName
		}
		return out[i].MaterialName < out[j].MaterialName
	})
	return out, err
}

func (r *reportRepo) LowStock(ctx context.Context, siteID *int64) ([]models.LowStockRow, error) {
	out := []models.LowStockRow{}
	err := r.a.do(ctx, func(s *state) error {
		for _, level := range s.stock {
			if siteID != nil && level.SiteID != *siteID {
				continue
			}
			m := s.materials[level.MaterialID]
			if !level.Quantity.LessThan(m.MinimumLevel) {
				continue
			}
			out = append(out, models.LowStockRow{
				SiteID:       level.SiteID,
				SiteName:     s.sites[level.SiteID].Name,
				MaterialID:   level.MaterialID,
				MaterialName: m.Name,
				Unit:         m.Unit,
				Quantity:     level.Quantity,
				MinimumLevel: m.MinimumLevel,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Quantity.Equal(out[j].Quantity) {
			return out[i].Quantity.LessThan(out[j].Quantity)
		}
		if out[i].SiteName != out[j].SiteName {
			return out[i].SiteName < out[j].SiteName
		}
		return out[i].MaterialName < out[j].MaterialName
	})
	return out, err
}

func (r *reportRepo) TransactionHistory(ctx context.Context, f models.TransactionFilters) ([]models.TransactionHistoryRow, error) {
	out := []models.TransactionHistoryRow{}
	err := r.a.do(ctx, func(s *state) error {
		for _, t := range s.transactions {
			switch {
			case f.SiteID != nil && t.SiteID != *f.SiteID,
				f.MaterialID != nil && t.MaterialID != *f.MaterialID,
				f.Type != nil && t.Type != *f.Type,
				f.Start != nil && t.CreatedAt.Before(*f.Start),
				f.End != nil && t.CreatedAt.After(*f.End):
				continue
			}
			m := s.materials[t.MaterialID]
			row := models.TransactionHistoryRow{
				Transaction:  t,
				SiteName:     s.sites[t.SiteID].Name,
				MaterialName: m.Name,
				Unit:         m.Unit,
			}
			if u, ok := s.users[t.CreatedBy]; ok {
				name := u.Username
				row.CreatorUsername = &name
			}
			out = append(out, row)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, err
}
