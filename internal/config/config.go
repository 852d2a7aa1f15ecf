// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC health server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// DatabaseURL is the Postgres DSN for the user directory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RedisAddr is the host:port of the OTP store.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// StoreTimeout bounds every OTP store and user directory call (e.g. "2s").
	StoreTimeout string `mapstructure:"STORE_TIMEOUT"`

	// OTPDigits is the length of generated codes (4–10).
	OTPDigits int `mapstructure:"OTP_DIGITS"`
	// OTPTTLRaw is the code lifetime (e.g. "5m").
	OTPTTLRaw string `mapstructure:"OTP_TTL"`
	// OTPRateLimit is the number of code requests allowed per phone within OTPRateWindow.
	OTPRateLimit int `mapstructure:"OTP_RATE_LIMIT"`
	// OTPRateWindowRaw is the rate window (e.g. "1h").
	OTPRateWindowRaw string `mapstructure:"OTP_RATE_WINDOW"`
	// DeliveryTimeoutRaw bounds a single SMS delivery call (e.g. "15s").
	DeliveryTimeoutRaw string `mapstructure:"DELIVERY_TIMEOUT"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// JWTAnonTTL is the anonymous token lifetime (e.g. "24h").
	JWTAnonTTL string `mapstructure:"JWT_ANON_TTL"`
	// RequireAnonToken when true makes the pre-authentication routes demand an anonymous bearer token.
	RequireAnonToken bool `mapstructure:"REQUIRE_ANON_TOKEN"`

	// SMSLocalAPIKey is the API key for SMS Local. Required unless OTPReturnToClient is set.
	SMSLocalAPIKey  string `mapstructure:"SMS_LOCAL_API_KEY"`
	SMSLocalSender  string `mapstructure:"SMS_LOCAL_SENDER"`
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// OTPReturnToClient when true enables dev OTP mode: no SMS, codes readable at GET /dev/otp.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// EventKafkaBrokers is a comma-separated list of Kafka brokers for the auth event log.
	EventKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	EventKafkaTopic   string `mapstructure:"EVENT_KAFKA_TOPIC"`
	// EventSerializerFormat is "json" or "protobuf".
	EventSerializerFormat string `mapstructure:"EVENT_SERIALIZER_FORMAT"`

	// Worker-only: Loki URL for the event worker to push logs (e.g. http://localhost:3100).
	LokiURL      string `mapstructure:"LOKI_URL"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORE_TIMEOUT", "2s")
	v.SetDefault("OTP_DIGITS", 6)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_RATE_LIMIT", 5)
	v.SetDefault("OTP_RATE_WINDOW", "1h")
	v.SetDefault("DELIVERY_TIMEOUT", "15s")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "otpauth")
	v.SetDefault("JWT_AUDIENCE", "otpauth-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("JWT_ANON_TTL", "24h")
	v.SetDefault("REQUIRE_ANON_TOKEN", true)
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENT_KAFKA_TOPIC", "otpauth-events")
	v.SetDefault("EVENT_SERIALIZER_FORMAT", "json")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "otpauth-event-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and ranges. Load calls it; tests may call it on hand-built configs.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.OTPReturnToClient && c.Env == "production" {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if c.OTPDigits == 0 {
		c.OTPDigits = 6
	}
	if c.OTPDigits < 4 || c.OTPDigits > 10 {
		return errors.New("config: OTP_DIGITS must be between 4 and 10")
	}
	if c.OTPRateLimit < 1 {
		return errors.New("config: OTP_RATE_LIMIT must be at least 1")
	}
	switch c.EventSerializerFormat {
	case "", "json", "protobuf":
	default:
		return errors.New("config: EVENT_SERIALIZER_FORMAT must be json or protobuf")
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		return errors.New("config: LOG_FORMAT must be json or text")
	}
	return nil
}

// OTPTTL parses OTPTTLRaw. Returns 5m if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseDuration(c.OTPTTLRaw, 5*time.Minute)
}

// OTPRateWindow parses OTPRateWindowRaw. Returns 1h if unset or invalid.
func (c *Config) OTPRateWindow() time.Duration {
	return parseDuration(c.OTPRateWindowRaw, time.Hour)
}

// StoreTimeoutDuration parses StoreTimeout. Returns 2s if unset or invalid.
func (c *Config) StoreTimeoutDuration() time.Duration {
	return parseDuration(c.StoreTimeout, 2*time.Second)
}

// DeliveryTimeout parses DeliveryTimeoutRaw. Returns 15s if unset or invalid.
func (c *Config) DeliveryTimeout() time.Duration {
	return parseDuration(c.DeliveryTimeoutRaw, 15*time.Second)
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 168*time.Hour)
}

// AnonTTL parses JWTAnonTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) AnonTTL() time.Duration {
	return parseDuration(c.JWTAnonTTL, 24*time.Hour)
}

// EventKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means events are not sent to Kafka.
func (c *Config) EventKafkaBrokersList() []string {
	if c == nil || c.EventKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.EventKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
