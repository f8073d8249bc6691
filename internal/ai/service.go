package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"example.com/ai-tour-quote/backend/internal/itinerary"
)

const systemPrompt = "You convert tour itinerary documents into tables. Respond with JSON only, without extra text."

type Service struct {
	client     Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// NewService создает сервис извлечения маршрута. limiter может быть nil.
func NewService(client Client, limiter *rate.Limiter, maxRetries int) *Service {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{
		client:     client,
		limiter:    limiter,
		maxRetries: maxRetries,
		backoff:    2 * time.Second,
	}
}

// ExtractItinerary просит модель разложить документ по дням и нормализует ответ к схеме таблицы.
func (s *Service) ExtractItinerary(ctx context.Context, input ExtractInput) (Extraction, string, []byte, error) {
	if strings.TrimSpace(input.DocumentText) == "" {
		return Extraction{}, "", nil, ErrEmptyDocument
	}

	prompt := buildExtractPrompt(input)
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}

	var (
		extraction Extraction
		raw        []byte
		err        error
	)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		extraction, raw, err = s.attempt(ctx, messages)
		if err == nil {
			return extraction, prompt, raw, nil
		}
		if errors.Is(err, ErrNoItinerary) || ctx.Err() != nil {
			break
		}

		slog.Warn("itinerary extraction attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		if attempt < s.maxRetries {
			if waitErr := sleepContext(ctx, time.Duration(attempt)*s.backoff); waitErr != nil {
				break
			}
		}
	}

	return Extraction{}, prompt, raw, err
}

func (s *Service) attempt(ctx context.Context, messages []Message) (Extraction, []byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Extraction{}, nil, err
		}
	}

	content, raw, err := s.client.Chat(ctx, messages)
	if err != nil {
		return Extraction{}, raw, err
	}

	days, err := parseDays(content)
	if err != nil {
		return Extraction{}, raw, err
	}

	records := itinerary.NormalizeRaw(days)
	if err := validateRecords(records); err != nil {
		return Extraction{}, raw, err
	}

	return Extraction{Records: records, Lines: itinerary.ToLines(records)}, raw, nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildExtractPrompt(input ExtractInput) string {
	hint := strings.TrimSpace(input.Hint)
	if hint == "" {
		hint = "none"
	}

	return fmt.Sprintf(`Convert the tour itinerary below into a day-by-day table as JSON.

Requirements:
- Output JSON only, no code fences, no extra text.
- Keep the source Traditional Chinese wording of every cell.
- Schema:
{
  "days": [
    {"天數": string, "城市": string, "午餐": string, "晚餐": string, "門票": string, "住宿": string, "備註": string}
  ]
}
- One object per day, in document order. "天數" is the day label, e.g. "D1" or "第1天".
- Several tickets on one day go into "門票" joined with " + ".
- Use "" for unknown cells and "自理" when the document says the meal is on the traveller's own.
- Do not invent prices.

Notes from the operator: %s

Document:
%s`, hint, strings.TrimSpace(input.DocumentText))
}

// parseDays принимает как {"days": [...]}, так и голый массив дней.
func parseDays(content string) ([]map[string]interface{}, error) {
	payload := extractJSON(content)
	if payload == "" {
		return nil, errors.New("ai response does not contain json")
	}

	if strings.HasPrefix(payload, "[") {
		var days []map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &days); err != nil {
			return nil, err
		}
		return days, nil
	}

	var response ItineraryResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		return nil, err
	}
	return response.Days, nil
}

func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "json")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	opening, closing := "{", "}"
	if objectAt := strings.Index(trimmed, "{"); objectAt == -1 || (strings.HasPrefix(trimmed, "[") && objectAt > 0) {
		opening, closing = "[", "]"
	}

	start := strings.Index(trimmed, opening)
	end := strings.LastIndex(trimmed, closing)
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return trimmed[start : end+1]
}

func validateRecords(records []itinerary.Record) error {
	for _, record := range records {
		for _, value := range record {
			if strings.TrimSpace(value) != "" {
				return nil
			}
		}
	}
	return ErrNoItinerary
}
