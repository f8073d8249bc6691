package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ExtractionSource string

const (
	ExtractionSourceAI       ExtractionSource = "ai"
	ExtractionSourceFallback ExtractionSource = "fallback"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SavedQuote: сохраненный расчет. Lines, Params и Result хранятся как JSONB.
type SavedQuote struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Title         string          `json:"title"`
	PriceVersion  string          `json:"price_version"`
	Lines         json.RawMessage `json:"lines"`
	Params        json.RawMessage `json:"params"`
	Result        json.RawMessage `json:"result"`
	TotalFixedEUR string          `json:"total_fixed_eur"`
	SharedCostEUR string          `json:"shared_cost_eur"`
	MissCount     int             `json:"miss_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ExtractionRequest struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	Provider        string           `json:"provider"`
	Model           string           `json:"model"`
	Source          ExtractionSource `json:"source"`
	Prompt          *string          `json:"prompt,omitempty"`
	DocumentLength  int              `json:"document_length"`
	ResponsePayload json.RawMessage  `json:"response_payload,omitempty"`
	RawResponse     *string          `json:"raw_response,omitempty"`
	LineCount       int              `json:"line_count"`
	Success         bool             `json:"success"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
