package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTTTL          = "24h"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultCacheTTL        = "5m"
	defaultCacheMaxEntries = "1024"
	defaultNotifyMode      = NotifyModeRealtime
	defaultTypingTTL       = "5s"
	defaultCurrency        = "usd"
	defaultMailDriver      = MailDriverLog
	defaultSMTPPort        = "587"
	defaultMailFrom        = "no-reply@equiprent.local"
	defaultMailFromName    = "Equiprent"
	defaultAMQPExchange    = "equiprent.events"
	defaultUploadDir       = "./uploads"
	defaultUploadMaxBytes  = "10485760"
	defaultRateLimitRPS    = "10"
	defaultRateLimitBurst  = "20"
	defaultQueryTimeout    = "5s"
)

const (
	NotifyModeRealtime = "realtime"
	NotifyModePolling  = "polling"

	MailDriverLog        = "log"
	MailDriverSMTP       = "smtp"
	MailDriverMailerSend = "mailersend"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL  string
	QueryTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTL        time.Duration
	CacheMaxEntries int

	NotifyMode string
	TypingTTL  time.Duration

	// SameDayHandover lets a booking start on the day another one ends.
	SameDayHandover bool

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	MailDriver       string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	MailFrom         string
	MailFromName     string
	MailerSendAPIKey string

	AMQPURL      string
	AMQPExchange string

	UploadDir      string
	UploadMaxBytes int64

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.NotifyMode = strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_MODE", defaultNotifyMode)))
	cfg.SameDayHandover = parseBoolEnv("SAME_DAY_HANDOVER", "false")
	cfg.StripeSecretKey = strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))
	cfg.StripeWebhookSecret = strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET"))
	cfg.PaymentCurrency = strings.ToLower(strings.TrimSpace(getEnv("PAYMENT_CURRENCY", defaultCurrency)))
	cfg.MailDriver = strings.ToLower(strings.TrimSpace(getEnv("MAIL_DRIVER", defaultMailDriver)))
	cfg.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailFrom = strings.TrimSpace(getEnv("MAIL_FROM", defaultMailFrom))
	cfg.MailFromName = strings.TrimSpace(getEnv("MAIL_FROM_NAME", defaultMailFromName))
	cfg.MailerSendAPIKey = strings.TrimSpace(os.Getenv("MAILERSEND_API_KEY"))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.AMQPExchange = strings.TrimSpace(getEnv("AMQP_EXCHANGE", defaultAMQPExchange))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = parseDurationEnv("QUERY_TIMEOUT", defaultQueryTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.TypingTTL, err = parseDurationEnv("TYPING_TTL", defaultTypingTTL); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = parseIntEnv("CACHE_MAX_ENTRIES", defaultCacheMaxEntries); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = parseIntEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseIntEnv("RATE_LIMIT_BURST", defaultRateLimitBurst); err != nil {
		return nil, err
	}

	maxBytes, err := parseIntEnv("UPLOAD_MAX_BYTES", defaultUploadMaxBytes)
	if err != nil {
		return nil, err
	}
	cfg.UploadMaxBytes = int64(maxBytes)

	rps := strings.TrimSpace(getEnv("RATE_LIMIT_RPS", defaultRateLimitRPS))
	cfg.RateLimitRPS, err = strconv.ParseFloat(rps, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS value %q: %w", rps, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be > 0")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be > 0")
	}
	if c.TypingTTL <= 0 {
		return fmt.Errorf("TYPING_TTL must be > 0")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be > 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	if c.NotifyMode != NotifyModeRealtime && c.NotifyMode != NotifyModePolling {
		return fmt.Errorf("NOTIFY_MODE must be one of: realtime, polling")
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST must be set when MAIL_DRIVER=smtp")
		}
	case MailDriverMailerSend:
		if c.MailerSendAPIKey == "" {
			return fmt.Errorf("MAILERSEND_API_KEY must be set when MAIL_DRIVER=mailersend")
		}
	default:
		return fmt.Errorf("MAIL_DRIVER must be one of: log, smtp, mailersend")
	}

	if isProdLike(c.AppEnv) {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/staging JWT_SECRET must be set and not default")
		}
		if c.StripeSecretKey == "" {
			return fmt.Errorf("in prod/staging STRIPE_SECRET_KEY must be set")
		}
	}
	return nil
}

// IsProd reports whether the app runs in a production-like environment.
func (c *Config) IsProd() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "staging"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
