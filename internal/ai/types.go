package ai

import "example.com/ai-tour-quote/backend/internal/itinerary"

// ExtractInput: текст документа с программой тура.
type ExtractInput struct {
	DocumentText string `json:"document_text"`
	Hint         string `json:"hint,omitempty"`
}

// ItineraryResponse: ожидаемая форма JSON-ответа модели.
type ItineraryResponse struct {
	Days []map[string]interface{} `json:"days"`
}

// Extraction: нормализованный результат извлечения.
type Extraction struct {
	Records []itinerary.Record `json:"records"`
	Lines   []itinerary.Line   `json:"lines"`
}
