package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at process start and passed by reference everywhere.
// Nothing mutates it after Load returns.
type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	SessionHMACSecret string
	SessionTTL        time.Duration
	OTPTTL            time.Duration
	JournalOTPTTL     time.Duration

	CORSAllowedOrigins []string

	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	// StoragePrefixMap maps market units to object key prefixes, e.g.
	// {"DFJ_DK":"dk/customer-documents"}.
	StoragePrefixMap map[string]string

	OTPRateLimitPerMin int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SessionHMACSecret:  os.Getenv("SESSION_HMAC_SECRET"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:   os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:   os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:      getEnv("STORAGE_BUCKET", "docshare-documents"),
		StorageUseSSL:      getEnvBool("STORAGE_USE_SSL", true),
		OTPRateLimitPerMin: getEnvInt("OTP_RATE_LIMIT_PER_MIN", 10),
	}

	var err error
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", "15m"); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDurationEnv("OTP_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.JournalOTPTTL, err = parseDurationEnv("JOURNAL_OTP_TTL", "10m"); err != nil {
		return nil, err
	}

	raw := os.Getenv("STORAGE_PREFIX_MAP")
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.StoragePrefixMap); err != nil {
			return nil, fmt.Errorf("parse STORAGE_PREFIX_MAP: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.SessionHMACSecret) < 32 {
		errs = append(errs, "SESSION_HMAC_SECRET must be at least 32 chars")
	}
	if c.SessionTTL <= 0 || c.SessionTTL > time.Hour {
		errs = append(errs, "SESSION_TTL must be between 1s and 1h")
	}
	if c.OTPTTL <= 0 || c.OTPTTL > 30*time.Minute {
		errs = append(errs, "OTP_TTL must be between 1s and 30m")
	}
	if c.JournalOTPTTL <= 0 || c.JournalOTPTTL > time.Hour {
		errs = append(errs, "JOURNAL_OTP_TTL must be between 1s and 1h")
	}
	if c.StorageAccessKey == "" || c.StorageSecretKey == "" {
		errs = append(errs, "STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required")
	}
	if c.OTPRateLimitPerMin <= 0 {
		errs = append(errs, "OTP_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
