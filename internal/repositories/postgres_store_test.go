package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"site_stores_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func int64Ptr(v int64) *int64 { return &v }

func TestRequestWhereNumbersPlaceholders(t *testing.T) {
	where, args := requestWhere(models.RequestFilters{}, siteIDPredicate)
	assert.Empty(t, where)
	assert.Empty(t, args)

	pending := models.RequestPending
	where, args = requestWhere(models.RequestFilters{SiteID: int64Ptr(3), Status: &pending, RequestedBy: int64Ptr(9)}, siteIDPredicate)
	assert.Equal(t, " WHERE site_id = $1 AND status = $2 AND requested_by = $3", where)
	assert.Equal(t, []interface{}{int64(3), "pending", int64(9)}, args)

	limit, args := limitClause(20, args)
	assert.Equal(t, " LIMIT $4", limit)
	assert.Len(t, args, 4)

	where, args = requestWhere(models.RequestFilters{SiteID: int64Ptr(5), RequestedBy: int64Ptr(2)}, transferSitePredicate)
	assert.Equal(t, " WHERE (from_site_id = $1 OR to_site_id = $1) AND requested_by = $2", where)
	assert.Equal(t, []interface{}{int64(5), int64(2)}, args)

	limit, args = limitClause(0, args)
	assert.Empty(t, limit)
	assert.Len(t, args, 2)
}

func TestWrapDBErrorClassifies(t *testing.T) {
	assert.Nil(t, wrapDBError(nil, "noop"))
	assert.ErrorIs(t, wrapDBError(sql.ErrNoRows, "get"), ErrNotFound)
	assert.ErrorIs(t, wrapDBError(&pq.Error{Code: "23505", Constraint: "sites_name_key"}, "insert"), ErrDuplicateKey)
	assert.ErrorIs(t, wrapDBError(&pq.Error{Code: "23503"}, "delete"), ErrReferenced)

	err := wrapDBError(&pq.Error{Code: "40P01", Message: "deadlock detected"}, "issue")
	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.Contains(t, err.Error(), "issue")
}

func TestStockLevelReadsLockOnlyWhenAsked(t *testing.T) {
	db, mock := newMock(t)
	repo := &stockRepository{db: db}
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	cols := []string{"id", "site_id", "material_id", "quantity", "total_value", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM stock_levels WHERE site_id = $1 AND material_id = $2 FOR UPDATE") + "$").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), int64(1), int64(2), "12.5", "150.0000", at))
	mock.ExpectQuery(regexp.QuoteMeta("FROM stock_levels WHERE site_id = $1 AND material_id = $2") + "$").
		WithArgs(int64(1), int64(3)).
		WillReturnError(sql.ErrNoRows)

	level, err := repo.GetStockLevelForUpdate(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, level.AverageCost().Equal(decimal.NewFromInt(12)))

	_, err = repo.GetStockLevel(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureStockLevelIgnoresExistingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := &stockRepository{db: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stock_levels (site_id, material_id, quantity, total_value, updated_at) VALUES ($1, $2, 0, 0, $3) ON CONFLICT (site_id, material_id) DO NOTHING")).
		WithArgs(int64(3), int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.EnsureStockLevel(context.Background(), 3, 4))
}

func TestOpenBatchesAreOldestFirstAndLocked(t *testing.T) {
	db, mock := newMock(t)
	repo := &stockRepository{db: db}
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	cols := []string{"id", "site_id", "material_id", "quantity_remaining", "unit_cost", "received_at", "transaction_id"}

	mock.ExpectQuery(regexp.QuoteMeta("AND quantity_remaining > 0 ORDER BY received_at ASC, id ASC FOR UPDATE")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(10), int64(1), int64(2), "4", "10", at, int64(100)).
			AddRow(int64(11), int64(1), int64(2), "6", "12", at.Add(time.Hour), int64(101)))

	batches, err := repo.ListOpenBatches(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, int64(10), batches[0].ID)
	assert.True(t, batches[1].UnitCost.Equal(decimal.NewFromInt(12)))
}

func TestSaveStockLevelWithoutRowIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := &stockRepository{db: db}
	level := &models.StockLevel{
		SiteID: 1, MaterialID: 2, Quantity: decimal.NewFromInt(5), TotalValue: decimal.NewFromInt(50), UpdatedAt: time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE stock_levels SET quantity = $1, total_value = $2, updated_at = $3 WHERE site_id = $4 AND material_id = $5")).
		WithArgs("5", "50", sqlmock.AnyArg(), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SaveStockLevel(context.Background(), level), ErrNotFound)
}

func TestSequenceNextUpsertsPerPrefixAndDay(t *testing.T) {
	db, mock := newMock(t)
	repo := &sequenceRepository{db: db}
	day := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (prefix, day) DO UPDATE SET last_value = document_sequences.last_value + 1 RETURNING last_value")).
		WithArgs("TXN", "2024-03-05").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).
		WithArgs("BTH", "2024-03-05").
		WillReturnError(errors.New("connection reset"))

	n, err := repo.Next(context.Background(), "TXN", day)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = repo.Next(context.Background(), "BTH", day)
	assert.ErrorIs(t, err, ErrDatabaseError)
}

func TestStockSummaryPassesNullSiteFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := &reportRepository{db: db}
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	cols := []string{"site_id", "site_name", "material_id", "material_name", "unit", "quantity", "total_value", "minimum_level", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ($1::bigint IS NULL OR sl.site_id = $1)")).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Main Site", int64(2), "Cement", "bag", "3", "360", "20", at))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ($1::bigint IS NULL OR sl.site_id = $1)")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols))

	rows, err := repo.StockSummary(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cement", rows[0].MaterialName)
	assert.True(t, rows[0].TotalValue.Equal(decimal.NewFromInt(360)))

	rows, err = repo.StockSummary(context.Background(), int64Ptr(4))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionHistoryBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := &reportRepository{db: db}
	issue := models.TransactionIssue
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.site_id = $1 AND t.transaction_type = $2 AND t.created_at >= $3 ORDER BY t.created_at DESC, t.id DESC")).
		WithArgs(int64(1), "issue", start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = t.created_by ORDER BY t.created_at DESC, t.id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := repo.TransactionHistory(context.Background(), models.TransactionFilters{SiteID: int64Ptr(1), Type: &issue, Start: &start})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = repo.TransactionHistory(context.Background(), models.TransactionFilters{})
	require.NoError(t, err)
}

func TestListIssueRequestsScansFilteredPage(t *testing.T) {
	db, mock := newMock(t)
	repo := &issueRequestRepository{db: db}
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	approved := models.RequestApproved
	cols := []string{"id", "site_id", "material_id", "quantity_requested", "project_code", "purpose", "requested_by",
		"requested_at", "status", "reviewed_by", "reviewed_at", "review_notes"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM issue_requests WHERE site_id = $1 AND status = $2 ORDER BY requested_at DESC, id DESC LIMIT $3")).
		WithArgs(int64(3), "approved", 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(3), int64(2), "12.5", nil, "slab", int64(9), at, "approved", int64(1), at.Add(time.Hour), nil))

	reqs, err := repo.ListIssueRequests(context.Background(), models.RequestFilters{SiteID: int64Ptr(3), Status: &approved, Limit: 20})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.RequestApproved, reqs[0].Status)
	assert.Nil(t, reqs[0].ProjectCode)
	require.NotNil(t, reqs[0].Purpose)
	assert.Equal(t, "slab", *reqs[0].Purpose)
	require.NotNil(t, reqs[0].ReviewedBy)
	assert.Equal(t, int64(1), *reqs[0].ReviewedBy)
}

func TestCountPendingTransfersMatchesEitherSite(t *testing.T) {
	db, mock := newMock(t)
	repo := &transferRepository{db: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM stock_transfer_requests WHERE (from_site_id = $1 OR to_site_id = $1) AND status = $2") + "$").
		WithArgs(int64(2), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountPendingStockTransferRequests(context.Background(), int64Ptr(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateReviewOnMissingRequestIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := &issueRequestRepository{db: db}
	at := time.Now()
	review := models.Review{Status: models.RequestRejected, ReviewedBy: int64Ptr(1), ReviewedAt: &at}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE issue_requests SET status = $1")).
		WithArgs("rejected", int64(1), sqlmock.AnyArg(), nil, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateIssueRequestReview(context.Background(), 42, review), ErrNotFound)
}

func TestWithinTxCommitsOrRollsBack(t *testing.T) {
	db, mock := newMock(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fifo_batches SET quantity_remaining = $1 WHERE id = $2")).
		WithArgs("3", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(r Repos) error {
		return r.Stock.UpdateBatchRemaining(ctx, 7, decimal.NewFromInt(3))
	})
	require.NoError(t, err)

	failed := errors.New("insufficient stock")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fifo_batches")).
		WithArgs("0", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = store.WithinTx(ctx, func(r Repos) error {
		if err := r.Stock.UpdateBatchRemaining(ctx, 8, decimal.Zero); err != nil {
			return err
		}
		return failed
	})
	assert.ErrorIs(t, err, failed)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(r Repos) error { panic("boom") })
	})
}
