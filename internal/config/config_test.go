package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 3, cfg.Moderation.ResubmissionMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Moderation.ResubmissionCooldown)
	assert.Equal(t, 10, cfg.Moderation.ReportIssuePerMinute)
	assert.Equal(t, "log", cfg.Email.Provider)
}

func TestLoad_ModerationOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RESUBMISSION_MAX_ATTEMPTS", "5")
	t.Setenv("RESUBMISSION_COOLDOWN", "48h")
	t.Setenv("REPORT_ISSUE_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Moderation.ResubmissionMaxAttempts)
	assert.Equal(t, 48*time.Hour, cfg.Moderation.ResubmissionCooldown)
	assert.Equal(t, 10, cfg.Moderation.ReportIssuePerMinute, "invalid values fall back to the default")
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_PASSWORD is required")
}

func TestLoad_ProductionStripeNeedsWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-production-secret-that-is-long-enough")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_x")

	_, err := Load()
	assert.ErrorContains(t, err, "STRIPE_WEBHOOK_SECRET")
}

func TestValidateJWTSecret(t *testing.T) {
	assert.Error(t, validateJWTSecret("short", "development"))
	assert.Error(t, validateJWTSecret("sixteen-chars-ok", "production"))
	assert.NoError(t, validateJWTSecret("sixteen-chars-ok", "development"))
}

func TestStripeConfig_TierPriceMapping(t *testing.T) {
	c := StripeConfig{PricePremium: "price_p", PriceFeatured: "price_f"}

	assert.Equal(t, "price_p", c.PriceForTier("premium"))
	assert.Equal(t, "price_f", c.PriceForTier("featured"))
	assert.Equal(t, "", c.PriceForTier("free"))

	assert.Equal(t, "premium", c.TierForPrice("price_p"))
	assert.Equal(t, "featured", c.TierForPrice("price_f"))
	assert.Equal(t, "free", c.TierForPrice("price_unknown"))
	assert.Equal(t, "free", (&StripeConfig{}).TierForPrice(""))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("ADMIN_ALERT_EMAILS", " a@example.com, ,b@example.com ")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, getEnvAsList("ADMIN_ALERT_EMAILS"))
}
