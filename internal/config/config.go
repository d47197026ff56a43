package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfiguration is returned when a required setting is absent.
// The server must not start serving traffic when it sees this.
var ErrMissingConfiguration = errors.New("missing configuration")

const (
	defaultAppPort          = "3000"
	defaultShopifyVersion   = "2024-10"
	defaultOrderTimeout     = 15 * time.Second
	defaultWebhookTolerance = 300 * time.Second
	defaultDeliveryTTL      = 24 * time.Hour
)

type Config struct {
	AppEnv  string
	AppPort string

	ShopifyStoreURL   string
	ShopifyAPIToken   string
	ShopifyAPIVersion string
	OrderTimeout      time.Duration

	FygaroButtonURL          string
	FygaroAPISecret          string
	FygaroAPIKey             string
	FygaroHookSecret         string
	FygaroHookSecretPrevious string
	WebhookTolerance         time.Duration

	DatabaseURL string
	DeliveryTTL time.Duration
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:                   os.Getenv("APP_ENV"),
		AppPort:                  getEnv("APP_PORT", defaultAppPort),
		ShopifyStoreURL:          normalizeStore(os.Getenv("SHOPIFY_STORE_URL")),
		ShopifyAPIToken:          os.Getenv("SHOPIFY_API_TOKEN"),
		ShopifyAPIVersion:        getEnv("SHOPIFY_API_VERSION", defaultShopifyVersion),
		FygaroButtonURL:          os.Getenv("FYGARO_BUTTON_URL"),
		FygaroAPISecret:          os.Getenv("FYGARO_API_SECRET"),
		FygaroAPIKey:             os.Getenv("FYGARO_API_KEY"),
		FygaroHookSecret:         os.Getenv("FYGARO_HOOK_SECRET"),
		FygaroHookSecretPrevious: os.Getenv("FYGARO_HOOK_SECRET_PREVIOUS"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
	}

	var err error
	if cfg.OrderTimeout, err = getDuration("ORDER_SERVICE_TIMEOUT", defaultOrderTimeout); err != nil {
		return nil, err
	}
	if cfg.WebhookTolerance, err = getDuration("WEBHOOK_TOLERANCE", defaultWebhookTolerance); err != nil {
		return nil, err
	}
	if cfg.DeliveryTTL, err = getDuration("DELIVERY_TTL", defaultDeliveryTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every required setting that is empty.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SHOPIFY_STORE_URL", c.ShopifyStoreURL},
		{"SHOPIFY_API_TOKEN", c.ShopifyAPIToken},
		{"FYGARO_BUTTON_URL", c.FygaroButtonURL},
		{"FYGARO_API_SECRET", c.FygaroAPISecret},
		{"FYGARO_API_KEY", c.FygaroAPIKey},
		{"FYGARO_HOOK_SECRET", c.FygaroHookSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// FallbackOrdersURL is where redirect endpoints send the shopper when the
// order status page cannot be resolved.
func (c *Config) FallbackOrdersURL() string {
	return "https://" + c.ShopifyStoreURL + "/account/orders"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

// normalizeStore accepts both "shop.myshopify.com" and a full URL.
func normalizeStore(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}
