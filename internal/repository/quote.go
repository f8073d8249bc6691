package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ai-tour-quote/backend/internal/models"
)

const quoteColumns = `id, user_id, title, price_version, lines, params, result, total_fixed_eur::text, shared_cost_eur::text, miss_count, created_at, updated_at`

type QuoteRepository struct {
	db *pgxpool.Pool
}

// QuoteInput: данные для сохранения расчета; JSON-поля уже сериализованы.
type QuoteInput struct {
	Title         string
	PriceVersion  string
	Lines         []byte
	Params        []byte
	Result        []byte
	TotalFixedEUR string
	SharedCostEUR string
	MissCount     int
}

// NewQuoteRepository создает репозиторий расчетов.
func NewQuoteRepository(db *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create сохраняет расчет сотрудника.
func (r *QuoteRepository) Create(ctx context.Context, userID uuid.UUID, input QuoteInput) (models.SavedQuote, error) {
	if strings.TrimSpace(input.Title) == "" || len(input.Lines) == 0 || len(input.Result) == 0 {
		return models.SavedQuote{}, ErrInvalid
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO quotes (user_id, title, price_version, lines, params, result, total_fixed_eur, shared_cost_eur, miss_count)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7::numeric, $8::numeric, $9)
		 RETURNING `+quoteColumns,
		userID,
		input.Title,
		input.PriceVersion,
		string(input.Lines),
		string(input.Params),
		string(input.Result),
		input.TotalFixedEUR,
		input.SharedCostEUR,
		input.MissCount,
	)
	return scanQuote(row)
}

// GetByID возвращает расчет сотрудника по идентификатору.
func (r *QuoteRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (models.SavedQuote, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quote, ErrNotFound
		}
		return quote, err
	}
	return quote, nil
}

// List возвращает расчеты сотрудника, новые первыми.
func (r *QuoteRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SavedQuote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]models.SavedQuote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

// Count возвращает число расчетов сотрудника.
func (r *QuoteRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete удаляет расчет сотрудника.
func (r *QuoteRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (models.SavedQuote, error) {
	var quote models.SavedQuote
	var lines, params, result []byte
	err := row.Scan(
		&quote.ID,
		&quote.UserID,
		&quote.Title,
		&quote.PriceVersion,
		&lines,
		&params,
		&result,
		&quote.TotalFixedEUR,
		&quote.SharedCostEUR,
		&quote.MissCount,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	quote.Lines = lines
	quote.Params = params
	quote.Result = result
	return quote, err
}
