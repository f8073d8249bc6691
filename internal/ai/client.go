package ai

import (
	"context"
	"errors"
)

const defaultMaxTokens = 4096

var (
	// ErrEmptyDocument означает, что извлекать нечего.
	ErrEmptyDocument = errors.New("document text is empty")
	// ErrNoItinerary означает, что ответ модели не содержит дней маршрута.
	ErrNoItinerary = errors.New("ai response contains no itinerary days")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a chat-completion backend that answers with JSON text.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, []byte, error)
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}
