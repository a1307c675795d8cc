package services

import (
	"testing"
	"time"

	"site_stores_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockSummaryOrderingAndDerivedFields(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteB, f.sand, "4", "50")
	f.receive(t, f.siteA, f.steel, "10", "3")
	f.receive(t, f.siteA, f.cement, "10", "9")
	f.receive(t, f.siteA, f.cement, "5", "12")

	rows, err := f.reports.GetStockSummary(f.ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Site A/Cement", "Site A/Steel Rod", "Site B/Sand"}, []string{
		rows[0].SiteName + "/" + rows[0].MaterialName,
		rows[1].SiteName + "/" + rows[1].MaterialName,
		rows[2].SiteName + "/" + rows[2].MaterialName,
	})

	cement := rows[0]
	assert.True(t, cement.Quantity.Equal(dec("15")))
	assert.True(t, cement.TotalValue.Equal(dec("150")))
	assert.True(t, cement.AverageCost.Equal(dec("10")))
	assert.True(t, cement.IsLowStock, "minimum level is 20")
	assert.False(t, rows[1].IsLowStock)

	onlyB, err := f.reports.GetStockSummary(f.ctx, &f.siteB)
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "Sand", onlyB[0].MaterialName)
}

func TestLowStockItems(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "5", "9")
	f.receive(t, f.siteB, f.cement, "25", "9")
	f.receive(t, f.siteB, f.sand, "1", "9")

	rows, err := f.reports.GetLowStockItems(f.ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, f.siteA, rows[0].SiteID)
	assert.Equal(t, "bag", rows[0].Unit)

	rows, err = f.reports.GetLowStockItems(f.ctx, &f.siteB)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionHistoryFiltersAndDecoration(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	f.receive(t, f.siteA, f.cement, "10", "9")
	f.clock.Set(time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC))
	f.receive(t, f.siteA, f.sand, "10", "9")
	_, err := f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.cement, "3"))
	require.NoError(t, err)
	f.receive(t, f.siteB, f.cement, "1", "9")

	rows, err := f.reports.GetTransactionHistory(f.ctx, models.TransactionFilters{SiteID: &f.siteA})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.TransactionIssue, rows[0].Type, "newest first")
	assert.Equal(t, "Cement", rows[0].MaterialName)
	assert.Equal(t, "Site A", rows[0].SiteName)
	require.NotNil(t, rows[0].CreatorUsername)
	assert.Equal(t, "storesman1", *rows[0].CreatorUsername)

	start := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	rows, err = f.reports.GetTransactionHistory(f.ctx, models.TransactionFilters{
		SiteID: &f.siteA, MaterialID: &f.cement, Start: &start,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Quantity.Equal(dec("-3")))

	end := start.Add(-time.Hour)
	_, err = f.reports.GetTransactionHistory(f.ctx, models.TransactionFilters{Start: &start, End: &end})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDailyIssuesOldestFirst(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC))
	f.receive(t, f.siteA, f.cement, "10", "9")
	first, err := f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.cement, "1"))
	require.NoError(t, err)
	second, err := f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.cement, "2"))
	require.NoError(t, err)
	f.clock.Set(time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC))
	_, err = f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.cement, "3"))
	require.NoError(t, err)

	rows, err := f.reports.GetDailyIssues(f.ctx, f.siteA, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.SerialNumber, rows[0].SerialNumber)
	assert.Equal(t, second.SerialNumber, rows[1].SerialNumber)
}
