package services

import (
	"strings"
	"testing"

	"site_stores_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createIssueRequest(t *testing.T, materialID int64, qty string) *models.IssueRequest {
	t.Helper()
	req, err := f.approvals.CreateIssueRequest(f.ctx, f.storesmanActor, CreateIssueRequest{
		SiteID: f.siteA, MaterialID: materialID, Quantity: dec(qty),
	})
	require.NoError(t, err)
	return req
}

func TestApproveIssueRequestIssuesStock(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "50", "10")
	req := f.createIssueRequest(t, f.cement, "20")
	assert.Equal(t, models.RequestPending, req.Status)

	notes := " ok "
	done, err := f.approvals.ProcessIssueRequest(f.ctx, req.ID, f.engineer, ActionApprove, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, done.Status)
	require.NotNil(t, done.ReviewedBy)
	assert.Equal(t, f.engineer, *done.ReviewedBy)
	require.NotNil(t, done.ReviewNotes)
	assert.Equal(t, "ok", *done.ReviewNotes)

	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("30")))

	issue := models.TransactionIssue
	rows, err := f.reports.GetTransactionHistory(f.ctx, models.TransactionFilters{Type: &issue})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ApprovedBy)
	assert.Equal(t, f.engineer, *rows[0].ApprovedBy)
	assert.Equal(t, f.storesman, rows[0].CreatedBy)
}

func TestProcessingTwiceIsAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "50", "10")
	approved := f.createIssueRequest(t, f.cement, "20")
	rejected := f.createIssueRequest(t, f.cement, "5")

	_, err := f.approvals.ProcessIssueRequest(f.ctx, approved.ID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)
	_, err = f.approvals.ProcessIssueRequest(f.ctx, rejected.ID, f.engineer, ActionReject, nil)
	require.NoError(t, err)
	txns := f.transactionCount(t)

	_, err = f.approvals.ProcessIssueRequest(f.ctx, approved.ID, f.engineer, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	_, err = f.approvals.ProcessIssueRequest(f.ctx, rejected.ID, f.engineer, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	assert.Equal(t, txns, f.transactionCount(t))
	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("30")))
}

func TestRejectDoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "50", "10")
	req := f.createIssueRequest(t, f.cement, "20")

	done, err := f.approvals.ProcessIssueRequest(f.ctx, req.ID, f.engineer, ActionReject, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, done.Status)
	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("50")))
	assert.Equal(t, 1, f.transactionCount(t))
}

func TestProcessUnknownRequestOrAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.approvals.ProcessIssueRequest(f.ctx, 4242, f.engineer, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.approvals.ProcessBatchIssueRequest(f.ctx, "BTH-20240101-0001", f.engineer, ActionApprove, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.approvals.ProcessStockTransferRequest(f.ctx, "TRF-20240101-0001", f.engineer, ActionReject, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = f.approvals.ProcessIssueRequest(f.ctx, 1, f.engineer, "maybe", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApprovalFailsWhenStockRanOut(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "10", "10")
	req := f.createIssueRequest(t, f.cement, "8")

	_, err := f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.cement, "5"))
	require.NoError(t, err)

	_, err = f.approvals.ProcessIssueRequest(f.ctx, req.ID, f.engineer, ActionApprove, nil)
	require.ErrorIs(t, err, ErrInsufficientStock)

	still, err := f.approvals.GetIssueRequest(f.ctx, f.engineerActor, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, still.Status)
}

func TestBatchApprovalIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "100", "10")
	f.receive(t, f.siteA, f.sand, "10", "50")
	f.receive(t, f.siteA, f.steel, "40", "5")

	batch, err := f.approvals.CreateBatchIssueRequest(f.ctx, f.storesmanActor, CreateBatchIssueRequest{
		SiteID: f.siteA,
		Items: []BatchItemInput{
			{MaterialID: f.cement, Quantity: dec("30")},
			{MaterialID: f.sand, Quantity: dec("8")},
			{MaterialID: f.steel, Quantity: dec("10")},
		},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(batch.BatchID, "BTH-20240305-"))

	// sand is drained before the engineer gets to the request
	_, err = f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.sand, "5"))
	require.NoError(t, err)
	txns := f.transactionCount(t)

	_, err = f.approvals.ProcessBatchIssueRequest(f.ctx, batch.BatchID, f.engineer, ActionApprove, nil)
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, txns, f.transactionCount(t))
	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("100")))
	assert.True(t, f.level(t, f.siteA, f.sand).Quantity.Equal(dec("5")))
	assert.True(t, f.level(t, f.siteA, f.steel).Quantity.Equal(dec("40")))

	got, err := f.approvals.GetBatchIssueRequest(f.ctx, f.engineerActor, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
	assert.Len(t, got.Items, 3)
}

func TestBatchApprovalIssuesEveryItem(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "100", "10")
	f.receive(t, f.siteA, f.sand, "10", "50")
	code := "PRJ-7"

	batch, err := f.approvals.CreateBatchIssueRequest(f.ctx, f.storesmanActor, CreateBatchIssueRequest{
		SiteID:      f.siteA,
		ProjectCode: &code,
		Items: []BatchItemInput{
			{MaterialID: f.cement, Quantity: dec("30")},
			{MaterialID: f.sand, Quantity: dec("2")},
		},
	})
	require.NoError(t, err)

	done, err := f.approvals.ProcessBatchIssueRequest(f.ctx, batch.BatchID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, done.Status)

	issue := models.TransactionIssue
	rows, err := f.reports.GetTransactionHistory(f.ctx, models.TransactionFilters{Type: &issue})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.NotNil(t, row.ProjectCode)
		assert.Equal(t, code, *row.ProjectCode)
	}
	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("70")))
	assert.True(t, f.level(t, f.siteA, f.sand).Quantity.Equal(dec("8")))
}

func TestTransferPricedAtSourceAverageCost(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "100", "10")
	f.receive(t, f.siteA, f.cement, "100", "14")
	require.True(t, f.level(t, f.siteA, f.cement).AverageCost().Equal(dec("12")))

	trf, err := f.approvals.CreateStockTransferRequest(f.ctx, f.storesmanActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: f.siteB,
		Items: []BatchItemInput{{MaterialID: f.cement, Quantity: dec("50")}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(trf.TransferID, "TRF-20240305-"))

	done, err := f.approvals.ProcessStockTransferRequest(f.ctx, trf.TransferID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, done.Status)

	batches, err := f.inventory.ListBatches(f.ctx, f.siteB, f.cement)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "12.00", batches[0].UnitCost.StringFixed(2))

	a, b := f.level(t, f.siteA, f.cement), f.level(t, f.siteB, f.cement)
	assert.True(t, a.Quantity.Equal(dec("150")))
	assert.True(t, b.Quantity.Equal(dec("50")))
	assert.True(t, a.Quantity.Add(b.Quantity).Equal(dec("200")))
	assert.True(t, b.TotalValue.Equal(dec("600")))
}

func TestTransferRollsBackWhenSourceIsShort(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "100", "10")
	f.receive(t, f.siteA, f.sand, "5", "40")

	trf, err := f.approvals.CreateStockTransferRequest(f.ctx, f.engineerActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: f.siteB,
		Items: []BatchItemInput{
			{MaterialID: f.cement, Quantity: dec("60")},
			{MaterialID: f.sand, Quantity: dec("5")},
		},
	})
	require.NoError(t, err)
	_, err = f.inventory.IssueMaterial(f.ctx, f.issueReq(f.siteA, f.sand, "1"))
	require.NoError(t, err)

	_, err = f.approvals.ProcessStockTransferRequest(f.ctx, trf.TransferID, f.engineer, ActionApprove, nil)
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.True(t, f.level(t, f.siteA, f.cement).Quantity.Equal(dec("100")))
	assert.True(t, f.level(t, f.siteB, f.cement).Quantity.IsZero())
}

func TestCreateRequestChecks(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "10", "10")
	f.receive(t, f.siteB, f.cement, "10", "10")

	_, err := f.approvals.CreateIssueRequest(f.ctx, f.storesmanActor, CreateIssueRequest{
		SiteID: f.siteB, MaterialID: f.cement, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.approvals.CreateIssueRequest(f.ctx, f.storesmanActor, CreateIssueRequest{
		SiteID: f.siteA, MaterialID: f.cement, Quantity: dec("11"),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.approvals.CreateBatchIssueRequest(f.ctx, f.storesmanActor, CreateBatchIssueRequest{SiteID: f.siteA})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.approvals.CreateStockTransferRequest(f.ctx, f.engineerActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: f.siteA,
		Items: []BatchItemInput{{MaterialID: f.cement, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.approvals.CreateStockTransferRequest(f.ctx, f.engineerActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: 9999,
		Items: []BatchItemInput{{MaterialID: f.cement, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, ErrSiteNotFound)
}

func TestPendingCountsAndListingScope(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "10", "10")
	f.receive(t, f.siteB, f.cement, "10", "10")

	f.createIssueRequest(t, f.cement, "1")
	_, err := f.approvals.CreateIssueRequest(f.ctx, f.engineerActor, CreateIssueRequest{
		SiteID: f.siteB, MaterialID: f.cement, Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = f.approvals.CreateBatchIssueRequest(f.ctx, f.storesmanActor, CreateBatchIssueRequest{
		SiteID: f.siteA, Items: []BatchItemInput{{MaterialID: f.cement, Quantity: dec("2")}},
	})
	require.NoError(t, err)

	all, err := f.approvals.PendingCounts(f.ctx, f.engineerActor)
	require.NoError(t, err)
	assert.Equal(t, models.PendingCounts{Individual: 2, Batch: 1, Transfer: 0, Total: 3}, *all)

	own, err := f.approvals.PendingCounts(f.ctx, f.storesmanActor)
	require.NoError(t, err)
	assert.Equal(t, models.PendingCounts{Individual: 1, Batch: 1, Transfer: 0, Total: 2}, *own)

	list, err := f.approvals.ListIssueRequests(f.ctx, f.storesmanActor, models.RequestFilters{SiteID: &f.siteB})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.siteA, list[0].SiteID)

	list, err = f.approvals.ListIssueRequests(f.ctx, f.engineerActor, models.RequestFilters{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBatchApprovalLocksStockRowsBeforeSerials(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "10", "10")
	f.receive(t, f.siteA, f.sand, "10", "40")
	f.receive(t, f.siteA, f.steel, "10", "30")
	rec := f.record()

	batch, err := f.approvals.CreateBatchIssueRequest(f.ctx, f.storesmanActor, CreateBatchIssueRequest{
		SiteID: f.siteA,
		Items: []BatchItemInput{
			{MaterialID: f.steel, Quantity: dec("1")},
			{MaterialID: f.sand, Quantity: dec("2")},
			{MaterialID: f.cement, Quantity: dec("3")},
		},
	})
	require.NoError(t, err)

	rec.reset()
	_, err = f.approvals.ProcessBatchIssueRequest(f.ctx, batch.BatchID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)

	want := sortedKeys([2]int64{f.siteA, f.steel}, [2]int64{f.siteA, f.sand}, [2]int64{f.siteA, f.cement})
	assert.Equal(t, want, firstStockLocks(t, rec.snapshot()))
	assert.True(t, f.level(t, f.siteA, f.steel).Quantity.Equal(dec("9")))
}

func TestTransferApprovalLocksBothSitesBeforeSerials(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "10", "10")
	f.receive(t, f.siteA, f.sand, "10", "40")
	f.receive(t, f.siteB, f.sand, "1", "40")
	rec := f.record()

	trf, err := f.approvals.CreateStockTransferRequest(f.ctx, f.engineerActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: f.siteB,
		Items: []BatchItemInput{
			{MaterialID: f.sand, Quantity: dec("4")},
			{MaterialID: f.cement, Quantity: dec("5")},
		},
	})
	require.NoError(t, err)

	rec.reset()
	_, err = f.approvals.ProcessStockTransferRequest(f.ctx, trf.TransferID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)

	want := sortedKeys(
		[2]int64{f.siteA, f.sand}, [2]int64{f.siteA, f.cement},
		[2]int64{f.siteB, f.sand}, [2]int64{f.siteB, f.cement},
	)
	assert.Equal(t, want, firstStockLocks(t, rec.snapshot()))
	assert.True(t, f.level(t, f.siteB, f.sand).Quantity.Equal(dec("5")))
	assert.True(t, f.level(t, f.siteB, f.cement).Quantity.Equal(dec("5")))
}

func TestTransferPricesAtRoundedAverageCost(t *testing.T) {
	f := newFixture(t)
	f.receive(t, f.siteA, f.cement, "1", "10")
	f.receive(t, f.siteA, f.cement, "2", "10.01")

	trf, err := f.approvals.CreateStockTransferRequest(f.ctx, f.engineerActor, CreateStockTransferRequest{
		FromSiteID: f.siteA, ToSiteID: f.siteB,
		Items: []BatchItemInput{{MaterialID: f.cement, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	_, err = f.approvals.ProcessStockTransferRequest(f.ctx, trf.TransferID, f.engineer, ActionApprove, nil)
	require.NoError(t, err)

	batches, err := f.inventory.ListBatches(f.ctx, f.siteB, f.cement)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "10.0067", batches[0].UnitCost.String())
}
