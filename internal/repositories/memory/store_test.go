package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(r repositories.Repos) error {
		require.NoError(t, r.Sites.CreateSite(ctx, &models.Site{Name: "Depot"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	sites, err := store.Repos().Sites.ListSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(r repositories.Repos) error {
			_ = r.Sites.CreateSite(ctx, &models.Site{Name: "Depot"})
			panic("unexpected")
		})
	})

	_, err := store.Repos().Sites.GetSiteByName(ctx, "Depot")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(r repositories.Repos) error {
		return r.Sites.CreateSite(ctx, &models.Site{Name: "Depot"})
	})
	require.NoError(t, err)

	site, err := store.Repos().Sites.GetSiteByName(ctx, "Depot")
	require.NoError(t, err)
	assert.Equal(t, "Depot", site.Name)
}

func TestSequenceResetsPerDayAndPrefix(t *testing.T) {
	ctx := context.Background()
	seq := NewStore().Repos().Sequences
	day1 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	n, _ := seq.Next(ctx, "TXN", day1)
	assert.Equal(t, int64(1), n)
	n, _ = seq.Next(ctx, "TXN", day1)
	assert.Equal(t, int64(2), n)
	n, _ = seq.Next(ctx, "BTH", day1)
	assert.Equal(t, int64(1), n)
	n, _ = seq.Next(ctx, "TXN", day2)
	assert.Equal(t, int64(1), n)
}

func TestOpenBatchesOrderedOldestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Repos()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	txn := &models.Transaction{SerialNumber: "TXN-20240101-0001", SiteID: 1, MaterialID: 2, CreatedBy: 1}
	require.NoError(t, r.Transactions.CreateTransaction(ctx, txn))

	mk := func(at time.Time, qty int64) *models.FIFOBatch {
		b := &models.FIFOBatch{SiteID: 1, MaterialID: 2, QuantityRemaining: decimal.NewFromInt(qty),
			UnitCost: decimal.NewFromInt(1), ReceivedAt: at, TransactionID: txn.ID}
		require.NoError(t, r.Stock.CreateBatch(ctx, b))
		return b
	}
	late := mk(base.Add(time.Hour), 5)
	first := mk(base, 5)
	tie := mk(base, 5)
	mk(base.Add(-time.Hour), 0)

	open, err := r.Stock.ListOpenBatches(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, []int64{first.ID, tie.ID, late.ID}, []int64{open[0].ID, open[1].ID, open[2].ID})

	all, err := r.Stock.ListBatches(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDuplicateNamesRejected(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Repos()

	require.NoError(t, r.Materials.CreateMaterial(ctx, &models.Material{Name: "Cement", Unit: "bag"}))
	err := r.Materials.CreateMaterial(ctx, &models.Material{Name: "Cement", Unit: "bag"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

	require.NoError(t, r.Users.CreateUser(ctx, &models.User{Username: "ana", Role: models.RoleStoresman}))
	err = r.Users.CreateUser(ctx, &models.User{Username: "ana", Role: models.RoleStoresman})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
}

func TestRequestFiltersAndPendingCounts(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Repos()

	require.NoError(t, r.Issues.CreateIssueRequest(ctx, &models.IssueRequest{SiteID: 1, MaterialID: 9, RequestedBy: 7,
		QuantityRequested: decimal.NewFromInt(1)}))
	require.NoError(t, r.Issues.CreateIssueRequest(ctx, &models.IssueRequest{SiteID: 2, MaterialID: 9, RequestedBy: 8,
		QuantityRequested: decimal.NewFromInt(1)}))
	require.NoError(t, r.Transfers.CreateStockTransferRequest(ctx, &models.StockTransferRequest{TransferID: "TRF-1",
		FromSiteID: 2, ToSiteID: 1, RequestedBy: 8,
		Items: []models.StockTransferItem{{MaterialID: 9, Quantity: decimal.NewFromInt(3)}}}))

	site1 := int64(1)
	n, err := r.Issues.CountPendingIssueRequests(ctx, &site1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Transfers.CountPendingStockTransferRequests(ctx, &site1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "transfers match on either end")

	now := time.Now()
	by := int64(99)
	require.NoError(t, r.Transfers.UpdateStockTransferRequestReview(ctx, "TRF-1",
		models.Review{Status: models.RequestApproved, ReviewedBy: &by, ReviewedAt: &now}))
	n, err = r.Transfers.CountPendingStockTransferRequests(ctx, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := r.Transfers.GetStockTransferRequest(ctx, "TRF-1", false)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "TRF-1", got.Items[0].TransferID)
	assert.Equal(t, models.RequestApproved, got.Status)
}

func TestDeleteSiteCascadesStockButNotUsers(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Repos()

	site := &models.Site{Name: "Depot"}
	require.NoError(t, r.Sites.CreateSite(ctx, site))
	require.NoError(t, r.Stock.EnsureStockLevel(ctx, site.ID, 42))

	user := &models.User{Username: "keeper", Role: models.RoleStoresman, AssignedSiteID: &site.ID}
	require.NoError(t, r.Users.CreateUser(ctx, user))
	assert.ErrorIs(t, r.Sites.DeleteSite(ctx, site.ID), repositories.ErrReferenced)

	other := &models.Site{Name: "Yard"}
	require.NoError(t, r.Sites.CreateSite(ctx, other))
	require.NoError(t, r.Stock.EnsureStockLevel(ctx, other.ID, 42))
	require.NoError(t, r.Sites.DeleteSite(ctx, other.ID))

	_, err := r.Stock.GetStockLevel(ctx, other.ID, 42)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, r.Sites.DeleteSite(ctx, 12345), repositories.ErrNotFound)
}
