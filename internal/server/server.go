package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"example.com/ai-tour-quote/backend/internal/ai"
	"example.com/ai-tour-quote/backend/internal/auth"
	"example.com/ai-tour-quote/backend/internal/config"
	"example.com/ai-tour-quote/backend/internal/handlers"
	"example.com/ai-tour-quote/backend/internal/notifications"
	"example.com/ai-tour-quote/backend/internal/pricing"
	"example.com/ai-tour-quote/backend/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями. redisClient может быть nil:
// тогда снимок прайса кэшируется в памяти процесса.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, db *pgxpool.Pool, redisClient *redis.Client) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	userRepo := repository.NewUserRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	notificationHub := notifications.NewHub()

	source, writer, err := newPriceSource(ctx, cfg.Pricing, priceRepo)
	if err != nil {
		return nil, err
	}

	var cache pricing.Cache = pricing.NewMemoryCache()
	checks := map[string]handlers.Pinger{"postgres": db}
	if redisClient != nil {
		cache = pricing.NewRedisCache(redisClient)
		checks["redis"] = redisPinger{client: redisClient}
	}
	prices := pricing.NewCachedSource(source, cache, cfg.Pricing.CacheTTL)

	logger.Info("pricing source configured",
		slog.String("source", cfg.Pricing.Source),
		slog.Bool("redis_cache", redisClient != nil),
		slog.Duration("cache_ttl", cfg.Pricing.CacheTTL),
	)

	aiService := ai.NewService(newAIClient(cfg.AI), aiCallLimiter(cfg.AI), cfg.AI.MaxRetries)

	healthHandler := handlers.NewHealthHandler(checks)
	authHandler := handlers.NewAuthHandler(userRepo, tokenManager)
	priceHandler := handlers.NewPriceHandler(prices, writer, notificationHub)
	itineraryHandler := handlers.NewItineraryHandler(aiService, extractionRepo, cfg.AI.Provider, cfg.AI.Model)
	quoteHandler := handlers.NewQuoteHandler(prices, quoteRepo, cfg.Quote.Params(), notificationHub)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)
	adminHandler := handlers.NewAdminHandler(adminRepo)

	registerRoutes(
		e,
		healthHandler,
		authHandler,
		priceHandler,
		itineraryHandler,
		quoteHandler,
		notificationHandler,
		adminHandler,
		auth.JWTMiddleware(tokenManager),
		handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
		authRateLimiter(cfg.Auth),
		aiRateLimiter(cfg.AI),
	)

	return e, nil
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// newPriceSource выбирает источник прайса. Для Google Sheets запись через API недоступна,
// поэтому writer равен nil.
func newPriceSource(ctx context.Context, cfg config.PricingConfig, repo *repository.PriceRepository) (pricing.Source, handlers.PriceWriter, error) {
	if cfg.Source != config.PricingSourceSheets {
		return pricing.NewStoreSource(repo), repo, nil
	}

	reader, err := pricing.NewGoogleSheetsReader(ctx, cfg.CredentialsFile, cfg.APIKey)
	if err != nil {
		return nil, nil, err
	}

	return pricing.NewSheetsSource(reader, pricing.SheetsConfig{
		SpreadsheetID:   cfg.SpreadsheetID,
		FixedWorksheet:  cfg.FixedWorksheet,
		SharedWorksheet: cfg.SharedWorksheet,
		DailyWorksheet:  cfg.DailyWorksheet,
	}), nil, nil
}

func newAIClient(cfg config.AIConfig) ai.Client {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return ai.NewGeminiClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	case "openai":
		return ai.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	default:
		return ai.NewGroqClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	}
}

// aiCallLimiter ограничивает частоту обращений к модели на весь процесс, включая ретраи.
func aiCallLimiter(cfg config.AIConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60.0), cfg.RateLimitBurst)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if userID, ok := auth.UserIDFromContext(c); ok {
				attrs = append(attrs, slog.String("user_id", userID.String()))
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	return rateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

// aiRateLimiter ограничивает извлечение маршрутов по IP до того, как запрос дойдет до модели.
func aiRateLimiter(cfg config.AIConfig) echo.MiddlewareFunc {
	return rateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60.0),
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
