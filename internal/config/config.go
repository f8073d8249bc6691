package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/quote"
)

const (
	PricingSourceSheets   = "sheets"
	PricingSourcePostgres = "postgres"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Pricing  PricingConfig
	Redis    RedisConfig
	Quote    QuoteConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
	MaxRetries         int
}

// PricingConfig описывает, откуда читать прайс и сколько его кэшировать.
type PricingConfig struct {
	Source          string
	SpreadsheetID   string
	CredentialsFile string
	APIKey          string
	FixedWorksheet  string
	SharedWorksheet string
	DailyWorksheet  string
	CacheTTL        time.Duration
}

// RedisConfig: пустой Addr означает кэш в памяти процесса.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QuoteConfig: значения расчета по умолчанию, если запрос их не передал.
type QuoteConfig struct {
	ExchangeRate    decimal.Decimal
	BaseAirfare     decimal.Decimal
	AirfareTax      decimal.Decimal
	DailyIncidental decimal.Decimal
	TargetProfit    decimal.Decimal
	TaxMarkup       decimal.Decimal
	PaxTiers        []int
}

type AdminConfig struct {
	Emails []string
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	var err error
	if cfg.Server, err = loadServer(); err != nil {
		return cfg, err
	}
	if cfg.Database, err = loadDatabase(); err != nil {
		return cfg, err
	}
	if cfg.Auth, err = loadAuth(); err != nil {
		return cfg, err
	}
	if cfg.AI, err = loadAI(); err != nil {
		return cfg, err
	}
	if cfg.Pricing, err = loadPricing(); err != nil {
		return cfg, err
	}
	if cfg.Redis, err = loadRedis(); err != nil {
		return cfg, err
	}
	if cfg.Quote, err = loadQuote(); err != nil {
		return cfg, err
	}

	cfg.Admin = AdminConfig{
		Emails: parseCSVEnv("ADMIN_EMAILS"),
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadServer() (ServerConfig, error) {
	port, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return ServerConfig{}, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	// Извлечение маршрута может идти дольше обычного запроса.
	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 90*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadDatabase() (DatabaseConfig, error) {
	port, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            port,
		User:            getEnv("DB_USER", "tour"),
		Password:        getEnv("DB_PASSWORD", "tour"),
		Name:            getEnv("DB_NAME", "tour_quote"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}, nil
}

func loadAuth() (AuthConfig, error) {
	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 12*time.Hour)
	if err != nil {
		return AuthConfig{}, err
	}

	perMinute, err := parseIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return AuthConfig{}, err
	}

	burst, err := parseIntEnv("AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "tour-quote"),
		AccessTokenTTL:     accessTTL,
		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,
	}, nil
}

func loadAI() (AIConfig, error) {
	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	perMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return AIConfig{}, err
	}

	burst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 3)
	if err != nil {
		return AIConfig{}, err
	}

	maxOutputTokens, err := parseIntEnv("AI_MAX_OUTPUT_TOKENS", 8192)
	if err != nil {
		return AIConfig{}, err
	}

	maxRetries, err := parseIntEnv("AI_MAX_RETRIES", 3)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnv("AI_PROVIDER", "gemini"))
	var defaultBaseURL, defaultModel, providerKey string
	switch provider {
	case "gemini":
		defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
		defaultModel = "gemini-1.5-flash"
		providerKey = "GEMINI_API_KEY"
	case "openai":
		defaultBaseURL = ""
		defaultModel = "gpt-4o-mini"
		providerKey = "OPENAI_API_KEY"
	default:
		defaultBaseURL = "https://api.groq.com/openai/v1"
		defaultModel = "llama-3.1-8b-instant"
		providerKey = "GROQ_API_KEY"
	}

	apiKey := getEnv("AI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv(providerKey, "")
	}

	return AIConfig{
		Provider:           provider,
		APIKey:             apiKey,
		BaseURL:            getEnv("AI_BASE_URL", defaultBaseURL),
		Model:              getEnv("AI_MODEL", defaultModel),
		Timeout:            timeout,
		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,
		MaxOutputTokens:    maxOutputTokens,
		MaxRetries:         maxRetries,
	}, nil
}

func loadPricing() (PricingConfig, error) {
	cacheTTL, err := parseDurationEnv("PRICING_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return PricingConfig{}, err
	}

	return PricingConfig{
		Source:          strings.ToLower(getEnv("PRICING_SOURCE", PricingSourcePostgres)),
		SpreadsheetID:   getEnv("PRICING_SPREADSHEET_ID", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		APIKey:          getEnv("GOOGLE_API_KEY", ""),
		FixedWorksheet:  getEnv("PRICING_FIXED_WORKSHEET", "每人固定"),
		SharedWorksheet: getEnv("PRICING_SHARED_WORKSHEET", "均攤成本"),
		DailyWorksheet:  getEnv("PRICING_DAILY_WORKSHEET", "天數計價"),
		CacheTTL:        cacheTTL,
	}, nil
}

func loadRedis() (RedisConfig, error) {
	db, err := parseNonNegativeIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}, nil
}

func loadQuote() (QuoteConfig, error) {
	cfg := QuoteConfig{}

	fields := []struct {
		key      string
		fallback string
		target   *decimal.Decimal
	}{
		{"QUOTE_EXCHANGE_RATE", "35.0", &cfg.ExchangeRate},
		{"QUOTE_BASE_AIRFARE", "32000", &cfg.BaseAirfare},
		{"QUOTE_AIRFARE_TAX", "7500", &cfg.AirfareTax},
		{"QUOTE_DAILY_INCIDENTAL", "550", &cfg.DailyIncidental},
		{"QUOTE_TARGET_PROFIT", "8000", &cfg.TargetProfit},
		{"QUOTE_TAX_MARKUP", "1.05", &cfg.TaxMarkup},
	}
	for _, field := range fields {
		value, err := parseDecimalEnv(field.key, decimal.RequireFromString(field.fallback))
		if err != nil {
			return cfg, err
		}
		*field.target = value
	}

	tiers, err := parseTiersEnv("QUOTE_PAX_TIERS", quote.DefaultTiers)
	if err != nil {
		return cfg, err
	}
	cfg.PaxTiers = tiers

	return cfg, nil
}

// Params возвращает параметры расчета по умолчанию.
func (c QuoteConfig) Params() quote.Params {
	return quote.Params{
		ExchangeRate:    c.ExchangeRate,
		BaseAirfare:     c.BaseAirfare,
		AirfareTax:      c.AirfareTax,
		DailyIncidental: c.DailyIncidental,
		TargetProfit:    c.TargetProfit,
		TaxMarkup:       c.TaxMarkup,
		PaxTiers:        append([]int(nil), c.PaxTiers...),
	}
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.AI.Provider {
	case "gemini", "groq", "openai":
	default:
		return fmt.Errorf("AI_PROVIDER must be one of gemini, groq, openai")
	}

	switch c.Pricing.Source {
	case PricingSourcePostgres:
	case PricingSourceSheets:
		if c.Pricing.SpreadsheetID == "" {
			return fmt.Errorf("PRICING_SPREADSHEET_ID is required when PRICING_SOURCE=sheets")
		}
	default:
		return fmt.Errorf("PRICING_SOURCE must be sheets or postgres")
	}

	if !c.Quote.ExchangeRate.IsPositive() {
		return fmt.Errorf("QUOTE_EXCHANGE_RATE must be greater than 0")
	}

	if !c.Quote.TaxMarkup.IsPositive() {
		return fmt.Errorf("QUOTE_TAX_MARKUP must be greater than 0")
	}

	if err := quote.ValidateTiers(c.Quote.PaxTiers); err != nil {
		return fmt.Errorf("QUOTE_PAX_TIERS: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseNonNegativeIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDecimalEnv(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number: %w", key, err)
	}

	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", key)
	}

	return parsed, nil
}

func parseTiersEnv(key string, fallback []int) ([]int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return append([]int(nil), fallback...), nil
	}

	parts := strings.Split(value, ",")
	tiers := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		pax, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma-separated list of integers: %w", key, err)
		}
		tiers = append(tiers, pax)
	}

	return tiers, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
