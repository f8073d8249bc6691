package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ai-tour-quote/backend/internal/models"
)

type ExtractionRepository struct {
	db *pgxpool.Pool
}

type ExtractionLog struct {
	UserID          uuid.UUID
	Provider        string
	Model           string
	Source          models.ExtractionSource
	Prompt          string
	DocumentLength  int
	ResponsePayload []byte
	RawResponse     string
	LineCount       int
	Success         bool
	ErrorMessage    *string
}

// NewExtractionRepository создает репозиторий журнала извлечений.
func NewExtractionRepository(db *pgxpool.Pool) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

// LogRequest сохраняет запись об извлечении маршрута из документа.
func (r *ExtractionRepository) LogRequest(ctx context.Context, log ExtractionLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO extraction_requests
		 (user_id, provider, model, source, prompt, document_length, response_payload, raw_response, line_count, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::jsonb, $8, $9, $10, $11)`,
		log.UserID,
		log.Provider,
		log.Model,
		string(log.Source),
		log.Prompt,
		log.DocumentLength,
		string(log.ResponsePayload),
		log.RawResponse,
		log.LineCount,
		log.Success,
		log.ErrorMessage,
	)
	return err
}
