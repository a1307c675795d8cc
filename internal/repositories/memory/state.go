package memory

import (
	"site_stores_backend/internal/models"
)

type pairKey struct {
	siteID     int64
	materialID int64
}

type sequenceKey struct {
	prefix string
	day    string
}

type state struct {
	seq int64

	sites        map[int64]models.Site
	materials    map[int64]models.Material
	stock        map[pairKey]models.StockLevel
	batches      map[int64]models.FIFOBatch
	transactions map[int64]models.Transaction
	sequences    map[sequenceKey]int64
	adjustments  map[int64]models.StockAdjustment
	issues       map[int64]models.IssueRequest
	batchIssues  map[string]models.BatchIssueRequest
	transfers    map[string]models.StockTransferRequest
	users        map[int64]models.User
}

func newState() *state {
	return &state{
		sites:        map[int64]models.Site{},
		materials:    map[int64]models.Material{},
		stock:        map[pairKey]models.StockLevel{},
		batches:      map[int64]models.FIFOBatch{},
		transactions: map[int64]models.Transaction{},
		sequences:    map[sequenceKey]int64{},
		adjustments:  map[int64]models.StockAdjustment{},
		issues:       map[int64]models.IssueRequest{},
		batchIssues:  map[string]models.BatchIssueRequest{},
		transfers:    map[string]models.StockTransferRequest{},
		users:        map[int64]models.User{},
	}
}

// nextID hands out ids from one counter shared by every table.
func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		seq:          s.seq,
		sites:        copyMap(s.sites),
		materials:    copyMap(s.materials),
		stock:        copyMap(s.stock),
		batches:      copyMap(s.batches),
		transactions: copyMap(s.transactions),
		sequences:    copyMap(s.sequences),
		adjustments:  copyMap(s.adjustments),
		issues:       copyMap(s.issues),
		batchIssues:  make(map[string]models.BatchIssueRequest, len(s.batchIssues)),
		transfers:    make(map[string]models.StockTransferRequest, len(s.transfers)),
		users:        copyMap(s.users),
	}
	for k, v := range s.batchIssues {
		v.Items = append([]models.BatchIssueItem(nil), v.Items...)
		c.batchIssues[k] = v
	}
	for k, v := range s.transfers {
		v.Items = append([]models.StockTransferItem(nil), v.Items...)
		c.transfers[k] = v
	}
	return c
}
