package services

import (
	"context"
	"sort"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
)

// ReportService serves the read-only inventory views.
type ReportService interface {
	GetStockSummary(ctx context.Context, siteID *int64) ([]models.StockSummaryRow, error)
	GetLowStockItems(ctx context.Context, siteID *int64) ([]models.LowStockRow, error)
	GetTransactionHistory(ctx context.Context, filters models.TransactionFilters) ([]models.TransactionHistoryRow, error)
	// GetDailyIssues lists one site's issues on the calendar day of day, oldest first.
	GetDailyIssues(ctx context.Context, siteID int64, day time.Time) ([]models.TransactionHistoryRow, error)
}

type reportService struct {
	store repositories.Store
}

func NewReportService(store repositories.Store) ReportService {
	return &reportService{store: store}
}

func (s *reportService) GetStockSummary(ctx context.Context, siteID *int64) ([]models.StockSummaryRow, error) {
	rows, err := s.store.Repos().Reports.StockSummary(ctx, siteID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		level := models.StockLevel{Quantity: rows[i].Quantity, TotalValue: rows[i].TotalValue}
		rows[i].AverageCost = level.AverageCost().Round(costScale)
		rows[i].IsLowStock = rows[i].Quantity.LessThan(rows[i].MinimumLevel)
	}
	return rows, nil
}

func (s *reportService) GetLowStockItems(ctx context.Context, siteID *int64) ([]models.LowStockRow, error) {
	return s.store.Repos().Reports.LowStock(ctx, siteID)
}

func (s *reportService) GetTransactionHistory(ctx context.Context, filters models.TransactionFilters) ([]models.TransactionHistoryRow, error) {
	if filters.Start != nil && filters.End != nil && filters.End.Before(*filters.Start) {
		return nil, validationError("end date is before start date")
	}
	return s.store.Repos().Reports.TransactionHistory(ctx, filters)
}

func (s *reportService) GetDailyIssues(ctx context.Context, siteID int64, day time.Time) ([]models.TransactionHistoryRow, error) {
	if siteID <= 0 {
		return nil, validationError("site_id must be positive")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	issue := models.TransactionIssue
	rows, err := s.store.Repos().Reports.TransactionHistory(ctx, models.TransactionFilters{
		SiteID: &siteID,
		Type:   &issue,
		Start:  &start,
		End:    &end,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}
