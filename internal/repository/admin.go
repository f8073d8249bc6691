package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ai-tour-quote/backend/internal/models"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

type AdminUser struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ExtractionFilter struct {
	UserID  *uuid.UUID
	Success *bool
	Source  *models.ExtractionSource
}

type DailyCount struct {
	Day   time.Time
	Count int
}

type UsageStats struct {
	Users             int
	Quotes            int
	Extractions       int
	ExtractionSuccess int
	ExtractionFail    int
	QuotesByDay       []DailyCount
}

// NewAdminRepository создает репозиторий для админских запросов.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListUsers возвращает список сотрудников с пагинацией.
func (r *AdminRepository) ListUsers(ctx context.Context, limit, offset int) ([]AdminUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, name, created_at, updated_at
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]AdminUser, 0)
	for rows.Next() {
		var user AdminUser
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CountUsers возвращает общее количество сотрудников.
func (r *AdminRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListExtractions возвращает журнал извлечений с фильтрацией.
func (r *AdminRepository) ListExtractions(ctx context.Context, filter ExtractionFilter, limit, offset int, includePayloads bool) ([]models.ExtractionRequest, error) {
	where, args := buildExtractionWhere(filter)

	columns := "id, user_id, provider, model, source, document_length, line_count, success, error_message, created_at"
	if includePayloads {
		columns += ", prompt, response_payload, raw_response"
	}

	query := fmt.Sprintf("SELECT %s FROM extraction_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		columns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.ExtractionRequest, 0)
	for rows.Next() {
		var record models.ExtractionRequest
		var source string
		dest := []interface{}{
			&record.ID,
			&record.UserID,
			&record.Provider,
			&record.Model,
			&source,
			&record.DocumentLength,
			&record.LineCount,
			&record.Success,
			&record.ErrorMessage,
			&record.CreatedAt,
		}

		var payload []byte
		if includePayloads {
			dest = append(dest, &record.Prompt, &payload, &record.RawResponse)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record.Source = models.ExtractionSource(source)
		if len(payload) > 0 {
			record.ResponsePayload = payload
		}
		requests = append(requests, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// CountExtractions возвращает количество записей журнала по фильтру.
func (r *AdminRepository) CountExtractions(ctx context.Context, filter ExtractionFilter) (int, error) {
	where, args := buildExtractionWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM extraction_requests"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UsageStats возвращает агрегированную статистику за N дней.
func (r *AdminRepository) UsageStats(ctx context.Context, days int) (UsageStats, error) {
	stats := UsageStats{}
	if days <= 0 {
		return stats, ErrInvalid
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users); err != nil {
		return stats, err
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&stats.Quotes); err != nil {
		return stats, err
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE success),
		        COUNT(*) FILTER (WHERE NOT success)
		 FROM extraction_requests`,
	).Scan(&stats.Extractions, &stats.ExtractionSuccess, &stats.ExtractionFail); err != nil {
		return stats, err
	}

	start := time.Now().UTC().AddDate(0, 0, -days+1)
	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('day', created_at)::date AS day,
		        COUNT(*)
		 FROM quotes
		 WHERE created_at >= $1
		 GROUP BY day
		 ORDER BY day DESC`,
		start,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	stats.QuotesByDay = make([]DailyCount, 0)
	for rows.Next() {
		var row DailyCount
		if err := rows.Scan(&row.Day, &row.Count); err != nil {
			return stats, err
		}
		stats.QuotesByDay = append(stats.QuotesByDay, row)
	}

	if err := rows.Err(); err != nil {
		return stats, err
	}

	return stats, nil
}

func buildExtractionWhere(filter ExtractionFilter) (string, []interface{}) {
	clauses := make([]string, 0)
	args := make([]interface{}, 0)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if filter.Success != nil {
		args = append(args, *filter.Success)
		clauses = append(clauses, fmt.Sprintf("success = $%d", len(args)))
	}

	if filter.Source != nil {
		args = append(args, string(*filter.Source))
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
