package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Email      EmailConfig
	Stripe     StripeConfig
	Redis      RedisConfig
	Storage    StorageConfig
	AI         AIConfig
	Moderation ModerationConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	PublicURL      string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	MFAEncryptionKey   string
	MFAIssuer          string
	AdminEmail         string
	AdminPassword      string
}

type EmailConfig struct {
	Provider    string // "ses" or "log"
	Region      string
	FromAddress string
	AdminAlerts []string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PricePremium  string
	PriceFeatured string
	SuccessURL    string
	CancelURL     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	Region          string
	DocumentsBucket string
	PhotosBucket    string
	PublicBaseURL   string
}

type AIConfig struct {
	AnthropicAPIKey string
	Model           string
	Timeout         time.Duration
}

type ModerationConfig struct {
	ResubmissionMaxAttempts int
	ResubmissionCooldown    time.Duration
	ReportIssuePerMinute    int
	SuspensionSweepInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "texaslobby"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			PublicURL:      getEnv("PUBLIC_URL", "https://texaslobby.org"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			MFAEncryptionKey:   getEnv("MFA_ENCRYPTION_KEY", ""),
			MFAIssuer:          getEnv("MFA_ISSUER", "TexasLobby.org"),
			AdminEmail:         getEnv("ADMIN_EMAIL", ""),
			AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		},
		Email: EmailConfig{
			Provider:    getEnv("EMAIL_PROVIDER", "log"),
			Region:      getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", "TexasLobby.org <noreply@texaslobby.org>"),
			AdminAlerts: getEnvAsList("ADMIN_ALERT_EMAILS"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PricePremium:  getEnv("STRIPE_PRICE_PREMIUM", ""),
			PriceFeatured: getEnv("STRIPE_PRICE_FEATURED", ""),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "https://texaslobby.org/dashboard?checkout=success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "https://texaslobby.org/pricing"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:       getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:       getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			DocumentsBucket: getEnv("STORAGE_DOCUMENTS_BUCKET", "verification-documents"),
			PhotosBucket:    getEnv("STORAGE_PHOTOS_BUCKET", "profile-photos"),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		},
		AI: AIConfig{
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			Model:           getEnv("AI_MODEL", "claude-3-5-haiku-latest"),
			Timeout:         getEnvAsDuration("AI_TIMEOUT", 10*time.Second),
		},
		Moderation: ModerationConfig{
			ResubmissionMaxAttempts: getEnvAsInt("RESUBMISSION_MAX_ATTEMPTS", 3),
			ResubmissionCooldown:    getEnvAsDuration("RESUBMISSION_COOLDOWN", 24*time.Hour),
			ReportIssuePerMinute:    getEnvAsInt("REPORT_ISSUE_PER_MINUTE", 10),
			SuspensionSweepInterval: getEnvAsDuration("SUSPENSION_SWEEP_INTERVAL", 15*time.Minute),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Moderation.ResubmissionMaxAttempts < 1 {
		return nil, fmt.Errorf("RESUBMISSION_MAX_ATTEMPTS must be positive")
	}

	if env == "production" && cfg.Stripe.SecretKey != "" && cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when Stripe is enabled in production")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// PriceForTier maps a paid tier to its configured processor price.
func (c *StripeConfig) PriceForTier(tier string) string {
	switch tier {
	case "premium":
		return c.PricePremium
	case "featured":
		return c.PriceFeatured
	}
	return ""
}

// TierForPrice is the inverse of PriceForTier; unknown prices map to free.
func (c *StripeConfig) TierForPrice(priceID string) string {
	switch {
	case priceID != "" && priceID == c.PricePremium:
		return "premium"
	case priceID != "" && priceID == c.PriceFeatured:
		return "featured"
	}
	return "free"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		origins := getEnvAsList("ALLOWED_ORIGINS")
		if origins == nil {
			return []string{"https://texaslobby.org", "https://www.texaslobby.org"}
		}
		return origins
	}

	return []string{
		"http://localhost:4321", // Astro dev server
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:4321",
		"http://127.0.0.1:3000",
	}
}
