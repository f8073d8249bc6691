package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/ai-tour-quote/backend/internal/auth"
	"example.com/ai-tour-quote/backend/internal/models"
	"example.com/ai-tour-quote/backend/internal/repository"
)

type AdminHandler struct {
	Repo *repository.AdminRepository
}

// NewAdminHandler создает обработчик админских эндпоинтов.
func NewAdminHandler(repo *repository.AdminRepository) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

type AdminUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type AdminUsersResponse struct {
	Total int                 `json:"total"`
	Users []AdminUserResponse `json:"users"`
}

type AdminExtractionResponse struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	Provider        string                  `json:"provider"`
	Model           string                  `json:"model"`
	Source          models.ExtractionSource `json:"source"`
	DocumentLength  int                     `json:"document_length"`
	LineCount       int                     `json:"line_count"`
	Success         bool                    `json:"success"`
	ErrorMessage    *string                 `json:"error_message,omitempty"`
	CreatedAt       string                  `json:"created_at"`
	Prompt          *string                 `json:"prompt,omitempty"`
	ResponsePayload json.RawMessage         `json:"response_payload,omitempty"`
	RawResponse     *string                 `json:"raw_response,omitempty"`
}

type AdminExtractionsResponse struct {
	Total       int                       `json:"total"`
	Extractions []AdminExtractionResponse `json:"extractions"`
}

type AdminUsageDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AdminUsageResponse struct {
	Users             int             `json:"users"`
	Quotes            int             `json:"quotes"`
	Extractions       int             `json:"extractions"`
	ExtractionSuccess int             `json:"extraction_success"`
	ExtractionFail    int             `json:"extraction_fail"`
	QuotesByDay       []AdminUsageDay `json:"quotes_by_day"`
}

// ListUsers возвращает список сотрудников для админки.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	users, err := h.Repo.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Repo.CountUsers(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	response := make([]AdminUserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, AdminUserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt.Format(timeLayout),
			UpdatedAt: user.UpdatedAt.Format(timeLayout),
		})
	}

	return c.JSON(http.StatusOK, AdminUsersResponse{
		Total: total,
		Users: response,
	})
}

// ListExtractions возвращает журнал извлечений маршрутов с фильтрами.
func (h *AdminHandler) ListExtractions(c echo.Context) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := repository.ExtractionFilter{}
	if raw := strings.TrimSpace(c.QueryParam("user_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		filter.UserID = &parsed
	}

	if raw := strings.TrimSpace(c.QueryParam("success")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "invalid success")
		}
		filter.Success = &parsed
	}

	if raw := strings.TrimSpace(c.QueryParam("source")); raw != "" {
		source := models.ExtractionSource(strings.ToLower(raw))
		if source != models.ExtractionSourceAI && source != models.ExtractionSourceFallback {
			return badRequest(c, "invalid source")
		}
		filter.Source = &source
	}

	includePayloads := false
	if raw := strings.TrimSpace(c.QueryParam("include_payloads")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "invalid include_payloads")
		}
		includePayloads = parsed
	}

	requests, err := h.Repo.ListExtractions(c.Request().Context(), filter, limit, offset, includePayloads)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Repo.CountExtractions(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	response := make([]AdminExtractionResponse, 0, len(requests))
	for _, req := range requests {
		item := AdminExtractionResponse{
			ID:             req.ID,
			UserID:         req.UserID,
			Provider:       req.Provider,
			Model:          req.Model,
			Source:         req.Source,
			DocumentLength: req.DocumentLength,
			LineCount:      req.LineCount,
			Success:        req.Success,
			ErrorMessage:   req.ErrorMessage,
			CreatedAt:      req.CreatedAt.Format(timeLayout),
		}

		if includePayloads {
			item.Prompt = req.Prompt
			if len(req.ResponsePayload) > 0 {
				item.ResponsePayload = req.ResponsePayload
			}
			item.RawResponse = req.RawResponse
		}
		response = append(response, item)
	}

	return c.JSON(http.StatusOK, AdminExtractionsResponse{
		Total:       total,
		Extractions: response,
	})
}

// Usage возвращает агрегированную статистику использования.
func (h *AdminHandler) Usage(c echo.Context) error {
	days := 7
	if raw := strings.TrimSpace(c.QueryParam("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return badRequest(c, "invalid days")
		}
		if parsed > 30 {
			parsed = 30
		}
		days = parsed
	}

	stats, err := h.Repo.UsageStats(c.Request().Context(), days)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid days")
		}
		return serverError(c)
	}

	daysResponse := make([]AdminUsageDay, 0, len(stats.QuotesByDay))
	for _, day := range stats.QuotesByDay {
		daysResponse = append(daysResponse, AdminUsageDay{
			Date:  day.Day.Format("2006-01-02"),
			Count: day.Count,
		})
	}

	return c.JSON(http.StatusOK, AdminUsageResponse{
		Users:             stats.Users,
		Quotes:            stats.Quotes,
		Extractions:       stats.Extractions,
		ExtractionSuccess: stats.ExtractionSuccess,
		ExtractionFail:    stats.ExtractionFail,
		QuotesByDay:       daysResponse,
	})
}

// AdminMiddleware пускает в админские роуты только сотрудников из списка ADMIN_EMAILS.
func AdminMiddleware(users *repository.UserRepository, emails []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		trimmed := strings.ToLower(strings.TrimSpace(email))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := auth.UserIDFromContext(c)
			if !ok {
				return unauthorized(c)
			}

			if len(allowed) == 0 {
				return forbidden(c)
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return forbidden(c)
				}
				return serverError(c)
			}

			email := strings.ToLower(strings.TrimSpace(user.Email))
			if _, ok := allowed[email]; !ok {
				return forbidden(c)
			}

			return next(c)
		}
	}
}

func parsePagination(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if parsed > maxLimit {
			parsed = maxLimit
		}
		limit = parsed
	}

	offset := 0
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	return limit, offset, nil
}
