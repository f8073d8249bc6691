package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/pricing"
)

// PriceRepository хранит прайс в таблицах price_entries и cost_items.
type PriceRepository struct {
	db *pgxpool.Pool
}

// NewPriceRepository создает репозиторий прайса.
func NewPriceRepository(db *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{db: db}
}

// ListEntries возвращает записи прайса в порядке ввода.
func (r *PriceRepository) ListEntries(ctx context.Context) ([]pricing.PriceEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT keyword, unit_price::text, category
		 FROM price_entries
		 ORDER BY position ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]pricing.PriceEntry, 0)
	for rows.Next() {
		var keyword, price, category string
		if err := rows.Scan(&keyword, &price, &category); err != nil {
			return nil, err
		}

		amount, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("price entry %q: %w", keyword, err)
		}

		entries = append(entries, pricing.PriceEntry{
			Keyword:   keyword,
			UnitPrice: amount,
			Category:  pricing.ParseCategory(category, pricing.CategoryOther),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListCostItems возвращает общие или подневные расходы.
func (r *PriceRepository) ListCostItems(ctx context.Context, kind string) ([]pricing.CostItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, amount::text, currency
		 FROM cost_items
		 WHERE kind = $1
		 ORDER BY position ASC`,
		kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]pricing.CostItem, 0)
	for rows.Next() {
		var name, amount, currency string
		if err := rows.Scan(&name, &amount, &currency); err != nil {
			return nil, err
		}

		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("cost item %q: %w", name, err)
		}

		items = append(items, pricing.CostItem{Name: name, Amount: value, Currency: currency})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Replace заменяет весь прайс одной транзакцией.
func (r *PriceRepository) Replace(ctx context.Context, entries []pricing.PriceEntry, shared, daily []pricing.CostItem) error {
	for _, entry := range entries {
		if !entry.Valid() {
			return fmt.Errorf("%w: price entry %q", ErrInvalid, entry.Keyword)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM price_entries`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cost_items`); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, entry := range entries {
		batch.Queue(
			`INSERT INTO price_entries (keyword, unit_price, category, position)
			 VALUES ($1, $2::numeric, $3, $4)
			 ON CONFLICT (keyword) DO NOTHING`,
			entry.Keyword, entry.UnitPrice.String(), string(entry.Category), i,
		)
	}
	queueCostItems(batch, pricing.CostKindShared, shared)
	queueCostItems(batch, pricing.CostKindDaily, daily)

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func queueCostItems(batch *pgx.Batch, kind string, items []pricing.CostItem) {
	for i, item := range items {
		batch.Queue(
			`INSERT INTO cost_items (kind, name, amount, currency, position)
			 VALUES ($1, $2, $3::numeric, $4, $5)`,
			kind, item.Name, item.Amount.String(), item.Currency, i,
		)
	}
}
