package pricing

import (
	"context"
	"fmt"
	"time"
)

const (
	CostKindShared = "shared"
	CostKindDaily  = "daily"
)

// EntryStore: хранилище прайса в базе.
type EntryStore interface {
	ListEntries(ctx context.Context) ([]PriceEntry, error)
	ListCostItems(ctx context.Context, kind string) ([]CostItem, error)
}

// StoreSource читает прайс из EntryStore.
type StoreSource struct {
	store EntryStore
}

// NewStoreSource создает источник прайса поверх хранилища.
func NewStoreSource(store EntryStore) *StoreSource {
	return &StoreSource{store: store}
}

// Fetch собирает снимок из таблиц прайса.
func (s *StoreSource) Fetch(ctx context.Context) (Snapshot, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: list entries: %v", ErrSourceUnavailable, err)
	}

	shared, err := s.store.ListCostItems(ctx, CostKindShared)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: list shared costs: %v", ErrSourceUnavailable, err)
	}

	daily, err := s.store.ListCostItems(ctx, CostKindDaily)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: list daily costs: %v", ErrSourceUnavailable, err)
	}

	valid := make([]PriceEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Valid() {
			valid = append(valid, entry)
		}
	}

	return NewSnapshot("postgres", time.Now(), valid, shared, daily), nil
}
