package pricing

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable означает, что источник прайса не ответил; запрос можно повторить.
var ErrSourceUnavailable = errors.New("price source unavailable")

// Source отдает актуальный снимок прайса.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// StaticSource отдает заранее собранный снимок.
type StaticSource struct {
	snapshot Snapshot
}

// NewStaticSource создает источник из готовых записей.
func NewStaticSource(entries []PriceEntry, shared, daily []CostItem) *StaticSource {
	return &StaticSource{snapshot: NewSnapshot("static", time.Now(), entries, shared, daily)}
}

// Fetch возвращает снимок без обращений к внешним системам.
func (s *StaticSource) Fetch(context.Context) (Snapshot, error) {
	return s.snapshot, nil
}
