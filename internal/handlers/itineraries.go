package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/ai-tour-quote/backend/internal/ai"
	"example.com/ai-tour-quote/backend/internal/auth"
	"example.com/ai-tour-quote/backend/internal/itinerary"
	"example.com/ai-tour-quote/backend/internal/models"
	"example.com/ai-tour-quote/backend/internal/repository"
)

// Extractor извлекает маршрут из текста документа.
type Extractor interface {
	ExtractItinerary(ctx context.Context, input ai.ExtractInput) (ai.Extraction, string, []byte, error)
}

// ExtractionLogger пишет журнал извлечений.
type ExtractionLogger interface {
	LogRequest(ctx context.Context, log repository.ExtractionLog) error
}

type ItineraryHandler struct {
	Extractor Extractor
	Log       ExtractionLogger
	Provider  string
	Model     string
}

// NewItineraryHandler создает обработчик разбора и извлечения маршрутов.
func NewItineraryHandler(extractor Extractor, log ExtractionLogger, provider, model string) *ItineraryHandler {
	return &ItineraryHandler{
		Extractor: extractor,
		Log:       log,
		Provider:  provider,
		Model:     model,
	}
}

type ParseItineraryRequest struct {
	Text    string                   `json:"text" validate:"max=200000"`
	Records []map[string]interface{} `json:"records"`
	Expand  bool                     `json:"expand"`
}

type ExtractItineraryRequest struct {
	DocumentText string `json:"document_text" validate:"required,max=200000"`
	Hint         string `json:"hint" validate:"max=500"`
	Expand       bool   `json:"expand"`
}

type ItineraryResponse struct {
	Source  models.ExtractionSource `json:"source,omitempty"`
	Warning string                  `json:"warning,omitempty"`
	Lines   []itinerary.Line        `json:"lines"`
	Days    []itinerary.Day         `json:"days"`
	Issues  []itinerary.Issue       `json:"issues"`
}

// Parse разбирает вставленную таблицу или JSON-записи в строки маршрута.
func (h *ItineraryHandler) Parse(c echo.Context) error {
	var req ParseItineraryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	var lines []itinerary.Line
	switch {
	case len(req.Records) > 0:
		lines = itinerary.ToLines(itinerary.NormalizeRaw(req.Records))
	case strings.TrimSpace(req.Text) != "":
		lines = itinerary.ParseLines(req.Text)
	default:
		return badRequest(c, "text or records is required")
	}

	if len(lines) == 0 {
		return badRequest(c, "no itinerary rows found")
	}

	return c.JSON(http.StatusOK, buildItineraryResponse("", lines, req.Expand))
}

// Extract извлекает маршрут из документа через AI. Если модель не справилась,
// документ разбирается как таблица; неудача обоих путей дает 502.
func (h *ItineraryHandler) Extract(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ExtractItineraryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ctx := c.Request().Context()
	input := ai.ExtractInput{
		DocumentText: req.DocumentText,
		Hint:         strings.TrimSpace(req.Hint),
	}

	extraction, prompt, raw, err := h.Extractor.ExtractItinerary(ctx, input)
	if errors.Is(err, ai.ErrEmptyDocument) {
		return badRequest(c, "document_text is empty")
	}

	entry := repository.ExtractionLog{
		UserID:         userID,
		Provider:       h.Provider,
		Model:          h.Model,
		Source:         models.ExtractionSourceAI,
		Prompt:         prompt,
		DocumentLength: len([]rune(req.DocumentText)),
		RawResponse:    string(raw),
	}

	if err == nil {
		entry.Success = true
		entry.LineCount = len(extraction.Lines)
		if payload, marshalErr := json.Marshal(extraction.Records); marshalErr == nil {
			entry.ResponsePayload = payload
		}
		h.logExtraction(ctx, entry)

		return c.JSON(http.StatusOK, buildItineraryResponse(models.ExtractionSourceAI, extraction.Lines, req.Expand))
	}

	slog.Warn("ai extraction failed, parsing document as table",
		slog.String("user_id", userID.String()),
		slog.String("error", err.Error()),
	)

	message := err.Error()
	entry.ErrorMessage = &message
	entry.Source = models.ExtractionSourceFallback

	lines := itinerary.ParseTableLines(req.DocumentText)
	entry.LineCount = len(lines)
	entry.Success = len(lines) > 0
	h.logExtraction(ctx, entry)

	if len(lines) == 0 {
		return badGateway(c, "itinerary extraction failed")
	}

	response := buildItineraryResponse(models.ExtractionSourceFallback, lines, req.Expand)
	response.Warning = "ai extraction failed; rows were parsed from the document table"
	return c.JSON(http.StatusOK, response)
}

func (h *ItineraryHandler) logExtraction(ctx context.Context, entry repository.ExtractionLog) {
	if h.Log == nil {
		return
	}
	if err := h.Log.LogRequest(ctx, entry); err != nil {
		slog.Error("failed to log extraction request", slog.String("error", err.Error()))
	}
}

func buildItineraryResponse(source models.ExtractionSource, lines []itinerary.Line, expand bool) ItineraryResponse {
	if expand {
		lines = itinerary.Expand(lines)
	}

	return ItineraryResponse{
		Source: source,
		Lines:  lines,
		Days:   itinerary.Group(lines),
		Issues: itinerary.ValidateLines(lines),
	}
}
