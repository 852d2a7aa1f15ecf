package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	if cfg.JWTIssuer != "otpauth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "otpauth")
	}
	if cfg.JWTAudience != "otpauth-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "otpauth-api")
	}
	if cfg.OTPDigits != 6 {
		t.Errorf("OTPDigits = %d, want 6", cfg.OTPDigits)
	}
	if cfg.OTPRateLimit != 5 {
		t.Errorf("OTPRateLimit = %d, want 5", cfg.OTPRateLimit)
	}
	if cfg.OTPTTL() != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.OTPTTL())
	}
	if cfg.OTPRateWindow() != time.Hour {
		t.Errorf("OTPRateWindow = %v, want 1h", cfg.OTPRateWindow())
	}
	if cfg.StoreTimeoutDuration() != 2*time.Second {
		t.Errorf("StoreTimeoutDuration = %v, want 2s", cfg.StoreTimeoutDuration())
	}
	if !cfg.RequireAnonToken {
		t.Error("RequireAnonToken should default to true")
	}
	if cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should default to false")
	}
	if cfg.EventSerializerFormat != "json" {
		t.Errorf("EventSerializerFormat = %q, want json", cfg.EventSerializerFormat)
	}
	if cfg.EventKafkaTopic != "otpauth-events" {
		t.Errorf("EventKafkaTopic = %q, want otpauth-events", cfg.EventKafkaTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("JWT_ISSUER", "custom-issuer")
	t.Setenv("OTP_RATE_LIMIT", "3")
	t.Setenv("OTP_RATE_WINDOW", "10m")
	t.Setenv("REQUIRE_ANON_TOKEN", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.OTPRateLimit != 3 {
		t.Errorf("OTPRateLimit = %d, want 3", cfg.OTPRateLimit)
	}
	if cfg.OTPRateWindow() != 10*time.Minute {
		t.Errorf("OTPRateWindow = %v, want 10m", cfg.OTPRateWindow())
	}
	if cfg.RequireAnonToken {
		t.Error("RequireAnonToken should be false")
	}
}

func TestLoad_OTPDigitsRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "10", 10, false},
		{"too low", "3", 0, true},
		{"too high", "11", 0, true},
		{"zero", "0", 6, false}, // defaults to 6
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("OTP_DIGITS", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.OTPDigits != tc.want {
				t.Errorf("OTPDigits = %d, want %d", cfg.OTPDigits, tc.want)
			}
		})
	}
}

func TestLoad_RateLimitMustBePositive(t *testing.T) {
	os.Clearenv()
	t.Setenv("OTP_RATE_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject OTP_RATE_LIMIT=0")
	}
}

func TestLoad_SerializerFormat(t *testing.T) {
	os.Clearenv()
	t.Setenv("EVENT_SERIALIZER_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject unknown serializer format")
	}

	os.Clearenv()
	t.Setenv("EVENT_SERIALIZER_FORMAT", "protobuf")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EventSerializerFormat != "protobuf" {
		t.Errorf("EventSerializerFormat = %q, want protobuf", cfg.EventSerializerFormat)
	}
}

func TestLoad_OTPReturnToClientProduction(t *testing.T) {
	os.Clearenv()
	t.Setenv("OTP_RETURN_TO_CLIENT", "true")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when OTP_RETURN_TO_CLIENT=true and APP_ENV=production")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
	if err.Error() != "config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production" {
		t.Errorf("error = %q, want production message", err.Error())
	}
}

func TestLoad_OTPReturnToClientDevelopment(t *testing.T) {
	os.Clearenv()
	t.Setenv("OTP_RETURN_TO_CLIENT", "true")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should be true")
	}
}

func TestDurations_FallBackOnInvalid(t *testing.T) {
	cfg := &Config{
		OTPTTLRaw:          "invalid",
		OTPRateWindowRaw:   "0",
		StoreTimeout:       "-1s",
		DeliveryTimeoutRaw: "",
		JWTAccessTTL:       "nope",
		JWTRefreshTTL:      "-1h",
		JWTAnonTTL:         "0",
	}
	cases := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"OTPTTL", cfg.OTPTTL(), 5 * time.Minute},
		{"OTPRateWindow", cfg.OTPRateWindow(), time.Hour},
		{"StoreTimeout", cfg.StoreTimeoutDuration(), 2 * time.Second},
		{"DeliveryTimeout", cfg.DeliveryTimeout(), 15 * time.Second},
		{"AccessTTL", cfg.AccessTTL(), 15 * time.Minute},
		{"RefreshTTL", cfg.RefreshTTL(), 168 * time.Hour},
		{"AnonTTL", cfg.AnonTTL(), 24 * time.Hour},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v (default)", c.name, c.got, c.want)
		}
	}
}

func TestDurations_ValidValues(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "336h", OTPTTLRaw: "2m"}
	if cfg.AccessTTL() != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 14*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 336h", cfg.RefreshTTL())
	}
	if cfg.OTPTTL() != 2*time.Minute {
		t.Errorf("OTPTTL = %v, want 2m", cfg.OTPTTL())
	}
}

func TestEventKafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if got := nilCfg.EventKafkaBrokersList(); got != nil {
		t.Errorf("nil config brokers = %v, want nil", got)
	}
	cfg := &Config{EventKafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.EventKafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("brokers = %v, want [a:9092 b:9092]", got)
	}
}
