package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_URL", "https://demo-shop.myshopify.com/")
	t.Setenv("SHOPIFY_API_TOKEN", "shpat_test")
	t.Setenv("FYGARO_BUTTON_URL", "https://fygaro.com/en/pb/abc/")
	t.Setenv("FYGARO_API_SECRET", "link-secret")
	t.Setenv("FYGARO_API_KEY", "key-123")
	t.Setenv("FYGARO_HOOK_SECRET", "hook-secret")
}

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APP_ENV", "test")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("FYGARO_HOOK_SECRET_PREVIOUS", "old-hook-secret")
		t.Setenv("ORDER_SERVICE_TIMEOUT", "5s")
		t.Setenv("DATABASE_URL", "postgres://localhost/fygaro")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "demo-shop.myshopify.com", cfg.ShopifyStoreURL)
		assert.Equal(t, "shpat_test", cfg.ShopifyAPIToken)
		assert.Equal(t, "2024-10", cfg.ShopifyAPIVersion)
		assert.Equal(t, "key-123", cfg.FygaroAPIKey)
		assert.Equal(t, "old-hook-secret", cfg.FygaroHookSecretPrevious)
		assert.Equal(t, 5*time.Second, cfg.OrderTimeout)
		assert.Equal(t, 300*time.Second, cfg.WebhookTolerance)
		assert.Equal(t, 24*time.Hour, cfg.DeliveryTTL)
		assert.Equal(t, "postgres://localhost/fygaro", cfg.DatabaseURL)
	})

	t.Run("Defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APP_PORT", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "3000", cfg.AppPort)
		assert.Equal(t, 15*time.Second, cfg.OrderTimeout)
	})

	t.Run("Missing secrets", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("FYGARO_API_SECRET", "")
		t.Setenv("FYGARO_HOOK_SECRET", "")

		cfg, err := LoadConfig()
		assert.Nil(t, cfg)
		assert.True(t, errors.Is(err, ErrMissingConfiguration))
		assert.Contains(t, err.Error(), "FYGARO_API_SECRET")
		assert.Contains(t, err.Error(), "FYGARO_HOOK_SECRET")
	})

	t.Run("Invalid duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WEBHOOK_TOLERANCE", "five minutes")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "WEBHOOK_TOLERANCE")
	})

	t.Run("Negative duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DELIVERY_TTL", "-1h")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "must be positive")
	})
}

func TestFallbackOrdersURL(t *testing.T) {
	cfg := &Config{ShopifyStoreURL: "demo-shop.myshopify.com"}
	assert.Equal(t, "https://demo-shop.myshopify.com/account/orders", cfg.FallbackOrdersURL())
}
