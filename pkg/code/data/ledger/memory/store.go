package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/code-config-program/pkg/code/data/ledger"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records map[string]*ledger.Record
}

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		records: make(map[string]*ledger.Record),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.records[address]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*ledger.Record
	for _, item := range s.records {
		if item.Owner != owner {
			continue
		}

		cloned := item.Clone()
		res = append(res, &cloned)
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Address < res[j].Address
	})
	return res, nil
}

// Save implements ledger.Store.Save
func (s *store) Save(_ context.Context, records ...*ledger.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, record := range records {
		if _, ok := seen[record.Address]; ok {
			return ledger.ErrStaleVersion
		}
		seen[record.Address] = struct{}{}

		var current uint64
		if item, ok := s.records[record.Address]; ok {
			current = item.Version
		}
		if current != record.Version {
			return ledger.ErrStaleVersion
		}
	}

	now := time.Now()
	for _, record := range records {
		if item, ok := s.records[record.Address]; ok {
			record.Id = item.Id
		} else {
			s.last++
			record.Id = s.last
		}

		record.Version++
		record.LastUpdatedAt = now

		cloned := record.Clone()
		s.records[record.Address] = &cloned
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = 0
	s.records = make(map[string]*ledger.Record)
}
