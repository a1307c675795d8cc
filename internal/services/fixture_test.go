package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock returns a strictly increasing time so FIFO order follows call order.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	clock     *testClock
	inventory InventoryService
	approvals ApprovalService
	reports   ReportService

	siteA, siteB        int64
	cement, sand, steel int64
	engineer, storesman int64
	engineerActor       models.Actor
	storesmanActor      models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memory.NewStore(),
		clock: newTestClock(time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)),
	}
	f.inventory = NewInventoryService(f.store, f.clock.Now)
	f.approvals = NewApprovalService(f.store, f.inventory)
	f.reports = NewReportService(f.store)

	r := f.store.Repos()
	mkSite := func(name string) int64 {
		s := &models.Site{Name: name}
		require.NoError(t, r.Sites.CreateSite(f.ctx, s))
		return s.ID
	}
	mkMaterial := func(name, unit string, min int64) int64 {
		m := &models.Material{Name: name, Unit: unit, MinimumLevel: decimal.NewFromInt(min)}
		require.NoError(t, r.Materials.CreateMaterial(f.ctx, m))
		return m.ID
	}
	f.siteA = mkSite("Site A")
	f.siteB = mkSite("Site B")
	f.cement = mkMaterial("Cement", "bag", 20)
	f.sand = mkMaterial("Sand", "m3", 0)
	f.steel = mkMaterial("Steel Rod", "piece", 0)

	eng := &models.User{Username: "engineer1", Role: models.RoleSiteEngineer, IsActive: true}
	require.NoError(t, r.Users.CreateUser(f.ctx, eng))
	sm := &models.User{Username: "storesman1", Role: models.RoleStoresman, AssignedSiteID: &f.siteA, IsActive: true}
	require.NoError(t, r.Users.CreateUser(f.ctx, sm))
	f.engineer, f.storesman = eng.ID, sm.ID
	f.engineerActor = models.Actor{UserID: eng.ID, Role: eng.Role}
	f.storesmanActor = models.Actor{UserID: sm.ID, Role: sm.Role, SiteID: sm.AssignedSiteID}
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) receive(t *testing.T, siteID, materialID int64, qty, cost string) *models.Transaction {
	t.Helper()
	txn, err := f.inventory.ReceiveMaterial(f.ctx, ReceiveMaterialRequest{
		SiteID: siteID, MaterialID: materialID, Quantity: dec(qty), UnitCost: dec(cost), CreatedBy: f.engineer,
	})
	require.NoError(t, err)
	return txn
}

func (f *fixture) issueReq(siteID, materialID int64, qty string) IssueMaterialRequest {
	return IssueMaterialRequest{SiteID: siteID, MaterialID: materialID, Quantity: dec(qty), CreatedBy: f.storesman}
}

func (f *fixture) level(t *testing.T, siteID, materialID int64) *models.StockLevel {
	t.Helper()
	level, err := f.inventory.GetStockLevel(f.ctx, siteID, materialID)
	require.NoError(t, err)
	return level
}

func (f *fixture) batchSum(t *testing.T, siteID, materialID int64) decimal.Decimal {
	t.Helper()
	batches, err := f.inventory.ListBatches(f.ctx, siteID, materialID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, b := range batches {
		sum = sum.Add(b.QuantityRemaining)
	}
	return sum
}

func (f *fixture) transactionCount(t *testing.T) int {
	t.Helper()
	rows, err := f.store.Repos().Reports.TransactionHistory(f.ctx, models.TransactionFilters{})
	require.NoError(t, err)
	return len(rows)
}

func (f *fixture) repos() repositories.Repos {
	return f.store.Repos()
}

// recordingStore logs the stock row locks and serial allocations made inside units of
// work. failBatchAt makes the nth CreateBatch call fail.
type recordingStore struct {
	repositories.Store

	mu          sync.Mutex
	events      []string
	batches     int
	failBatchAt int
}

// record swaps the fixture's services onto a recordingStore over the same state.
func (f *fixture) record() *recordingStore {
	rec := &recordingStore{Store: f.store}
	f.inventory = NewInventoryService(rec, f.clock.Now)
	f.approvals = NewApprovalService(rec, f.inventory)
	return rec
}

func (s *recordingStore) WithinTx(ctx context.Context, fn func(r repositories.Repos) error) error {
	return s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		r.Stock = &recordingStock{StockRepository: r.Stock, rec: s}
		r.Sequences = &recordingSequences{SequenceRepository: r.Sequences, rec: s}
		return fn(r)
	})
}

func (s *recordingStore) add(event string) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

func (s *recordingStore) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type recordingStock struct {
	repositories.StockRepository
	rec *recordingStore
}

func (s *recordingStock) GetStockLevelForUpdate(ctx context.Context, siteID, materialID int64) (*models.StockLevel, error) {
	s.rec.add(fmt.Sprintf("lock %d/%d", siteID, materialID))
	return s.StockRepository.GetStockLevelForUpdate(ctx, siteID, materialID)
}

func (s *recordingStock) CreateBatch(ctx context.Context, b *models.FIFOBatch) error {
	s.rec.mu.Lock()
	s.rec.batches++
	fail := s.rec.failBatchAt > 0 && s.rec.batches == s.rec.failBatchAt
	s.rec.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: batch insert failed", repositories.ErrDatabaseError)
	}
	return s.StockRepository.CreateBatch(ctx, b)
}

type recordingSequences struct {
	repositories.SequenceRepository
	rec *recordingStore
}

func (s *recordingSequences) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	s.rec.add("serial " + prefix)
	return s.SequenceRepository.Next(ctx, prefix, day)
}

// firstStockLocks returns the distinct stock rows in the order they were first locked and
// checks that none was first locked after a serial had been allocated.
func firstStockLocks(t *testing.T, events []string) [][2]int64 {
	t.Helper()
	serialAt := len(events)
	for i, e := range events {
		if strings.HasPrefix(e, "serial ") {
			serialAt = i
			break
		}
	}
	seen := map[string]bool{}
	var locks [][2]int64
	for i, e := range events {
		var site, material int64
		if _, err := fmt.Sscanf(e, "lock %d/%d", &site, &material); err != nil || seen[e] {
			continue
		}
		seen[e] = true
		assert.Less(t, i, serialAt, "%s first locked after a serial was allocated: %v", e, events)
		locks = append(locks, [2]int64{site, material})
	}
	return locks
}

func sortedKeys(keys ...[2]int64) [][2]int64 {
	out := append([][2]int64(nil), keys...)
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
