package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Fetch(ctx context.Context) (Snapshot, error) {
	s.calls++
	if s.err != nil {
		return Snapshot{}, s.err
	}
	entries := []PriceEntry{{Keyword: "六菜一湯", UnitPrice: decimal.NewFromInt(18), Category: CategoryMeal}}
	return NewStaticSource(entries, nil, nil).Fetch(ctx)
}

// TestCachedSourceUsesCache проверяет, что повторный запрос не ходит в источник.
func TestCachedSourceUsesCache(t *testing.T) {
	source := &countingSource{}
	cached := NewCachedSource(source, NewMemoryCache(), time.Minute)

	first, err := cached.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := cached.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if source.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", source.calls)
	}
	if first.Version != second.Version {
		t.Fatalf("expected same version, got %s and %s", first.Version, second.Version)
	}
	if price, ok := second.Table().Lookup("六菜一湯"); !ok || !price.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("expected cached entry to survive round trip, got %s (ok=%v)", price, ok)
	}
}

// TestCachedSourceExpires проверяет истечение TTL.
func TestCachedSourceExpires(t *testing.T) {
	source := &countingSource{}
	cache := NewMemoryCache()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	cached := NewCachedSource(source, cache, 5*time.Minute)

	if _, err := cached.Fetch(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	now = now.Add(6 * time.Minute)
	if _, err := cached.Fetch(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", source.calls)
	}
}

// TestCachedSourcePropagatesUnavailable проверяет ошибку недоступного источника.
func TestCachedSourcePropagatesUnavailable(t *testing.T) {
	source := &countingSource{err: ErrSourceUnavailable}
	cached := NewCachedSource(source, NewMemoryCache(), time.Minute)

	if _, err := cached.Fetch(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

// TestStaticSourceThroughCache проверяет готовый снимок за кэшем.
func TestStaticSourceThroughCache(t *testing.T) {
	shared := []CostItem{{Name: "領隊", Amount: decimal.NewFromInt(2000), Currency: "EUR"}}
	static := NewStaticSource(nil, shared, nil)
	cached := NewCachedSource(static, NewMemoryCache(), time.Minute)

	snapshot, err := cached.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snapshot.Source != "static" {
		t.Fatalf("expected static source, got %s", snapshot.Source)
	}
	if !snapshot.SharedTotal().Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected shared total 2000, got %s", snapshot.SharedTotal())
	}
}
