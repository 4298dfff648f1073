package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/config"
)

// Config holds all configuration for the shop server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"shop"`

	// HTTP server
	HTTPPort         int           `env:"HTTP_PORT" envDefault:"8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	CORSOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// MongoDB
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase     string        `env:"MONGO_DATABASE" envDefault:"shop"`
	MongoTransactions bool          `env:"MONGO_TRANSACTIONS" envDefault:"false"`
	MongoMaxPoolSize  uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"50"`
	SlowOpThreshold   time.Duration `env:"MONGO_SLOW_OP_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Payment gateway stub and webhook verification
	PaymentGatewayURL string        `env:"PAYMENT_GATEWAY_URL" envDefault:"https://sandbox.demogateway.test/pay"`
	PaymentMethod     string        `env:"PAYMENT_METHOD" envDefault:"DemoGateway"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET" envDefault:"dev-webhook-secret"`
	WebhookTolerance  time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
	WebhookReplayTTL  time.Duration `env:"WEBHOOK_REPLAY_TTL" envDefault:"24h"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Debug
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom is like Load but reads from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if c.IsProduction() {
		if c.JWTSecret == "dev-secret-change-me" || c.WebhookSecret == "dev-webhook-secret" {
			return fmt.Errorf("development secrets must not be used in production")
		}
	}
	if c.WebhookTolerance <= 0 {
		return fmt.Errorf("invalid webhook tolerance: %s", c.WebhookTolerance)
	}
	if c.WebhookReplayTTL < c.WebhookTolerance {
		return fmt.Errorf("webhook replay TTL (%s) must cover the tolerance window (%s)", c.WebhookReplayTTL, c.WebhookTolerance)
	}
	if u, err := url.Parse(c.PaymentGatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PAYMENT_GATEWAY_URL: %q", c.PaymentGatewayURL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTelSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	return nil
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
