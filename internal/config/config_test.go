package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                "test",
		HTTPPort:           "8080",
		DatabaseURL:        "postgres://localhost/docshare",
		SessionHMACSecret:  strings.Repeat("s", 32),
		SessionTTL:         15 * time.Minute,
		OTPTTL:             5 * time.Minute,
		JournalOTPTTL:      10 * time.Minute,
		StorageAccessKey:   "access",
		StorageSecretKey:   "secret",
		StorageBucket:      "docs",
		OTPRateLimitPerMin: 10,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cases := map[string]func(*Config){
		"missing database url": func(c *Config) { c.DatabaseURL = "" },
		"short hmac secret":    func(c *Config) { c.SessionHMACSecret = "short" },
		"zero session ttl":     func(c *Config) { c.SessionTTL = 0 },
		"oversized otp ttl":    func(c *Config) { c.OTPTTL = time.Hour },
		"missing storage keys": func(c *Config) { c.StorageAccessKey = "" },
		"zero rate limit":      func(c *Config) { c.OTPRateLimitPerMin = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadParsesEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/docshare")
	t.Setenv("SESSION_HMAC_SECRET", strings.Repeat("s", 32))
	t.Setenv("STORAGE_ACCESS_KEY", "ak")
	t.Setenv("STORAGE_SECRET_KEY", "sk")
	t.Setenv("SESSION_TTL", "10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_PREFIX_MAP", `{"DFJ_DK":"dk/customer-documents"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Fatalf("unexpected session ttl: %v", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StoragePrefixMap["DFJ_DK"] != "dk/customer-documents" {
		t.Fatalf("unexpected prefix map: %v", cfg.StoragePrefixMap)
	}
}

func TestLoadRejectsBadPrefixMap(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/docshare")
	t.Setenv("SESSION_HMAC_SECRET", strings.Repeat("s", 32))
	t.Setenv("STORAGE_ACCESS_KEY", "ak")
	t.Setenv("STORAGE_SECRET_KEY", "sk")
	t.Setenv("STORAGE_PREFIX_MAP", "{not-json")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed STORAGE_PREFIX_MAP")
	}
}
