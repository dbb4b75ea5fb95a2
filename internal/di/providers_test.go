package di

import (
	"testing"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/config"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/middleware"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/router"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideLimiterFallsBackWithoutRedis(t *testing.T) {
	client, err := provideRedisClient(&config.Config{})
	if err != nil {
		t.Fatalf("provideRedisClient: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client without REDIS_URL")
	}
	if limiter := provideLimiter(client); limiter == nil {
		t.Fatal("expected in-process limiter fallback")
	}
}

func TestProvideRedisClientRejectsBadURL(t *testing.T) {
	if _, err := provideRedisClient(&config.Config{RedisURL: "://nope"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		OTPRateLimitPerMin: 10,
	}
	dep := provideRouterDependencies(nil, nil, nil, nil, middleware.NewLocalFixedWindowLimiter(), cfg)
	if dep.OTPRateLimitRPM != 10 {
		t.Fatalf("unexpected rate limit: %+v", dep)
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
	_ = router.Dependencies(dep)
}
