package di

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/app"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/config"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/database"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/handler"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/middleware"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/router"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(provideLogger)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

var RuntimeInfraSet = wire.NewSet(
	provideOpenDB,
	provideRedisClient,
	provideLimiter,
	provideStorage,
	provideObjectKeys,
)

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

// provideRedisClient returns nil when no Redis is configured; the limiter
// provider falls back to the in-process window in that case.
func provideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func provideLimiter(client redis.UniversalClient) middleware.Limiter {
	if client == nil {
		return middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRedisFixedWindowLimiter(client, "rl")
}

func provideStorage(cfg *config.Config) (service.StorageService, error) {
	return service.NewMinIOStorageService(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
		cfg.SessionTTL,
	)
}

func provideObjectKeys(cfg *config.Config) *service.ObjectKeyBuilder {
	return service.NewObjectKeyBuilder(cfg.StoragePrefixMap)
}

var RepositorySet = wire.NewSet(
	repository.NewJournalRepository,
	repository.NewDocumentRepository,
	repository.NewOTPRepository,
	repository.NewImpersonationLinkRepository,
	repository.NewChatRepository,
)

var SecuritySet = wire.NewSet(provideTokenCodec)

func provideTokenCodec(cfg *config.Config) *security.TokenCodec {
	return security.NewTokenCodec(cfg.SessionHMACSecret)
}

var ServiceSet = wire.NewSet(
	provideNotifier,
	provideOTPService,
	provideImpersonationService,
	provideJournalAuthService,
	provideDocumentService,
	service.NewChatService,
)

// provideNotifier wires the logging notifier. Real delivery runs through the
// messaging platform upstream of this service; the code only needs to reach
// operator logs in development.
func provideNotifier(logger *slog.Logger) service.OTPNotifier {
	return service.NewDevOTPNotifier(logger)
}

func provideOTPService(
	otps repository.OTPRepository,
	notifier service.OTPNotifier,
	codec *security.TokenCodec,
	cfg *config.Config,
	logger *slog.Logger,
) *service.OTPService {
	return service.NewOTPService(otps, notifier, codec, cfg.OTPTTL, cfg.SessionTTL, logger)
}

func provideImpersonationService(
	links repository.ImpersonationLinkRepository,
	codec *security.TokenCodec,
	cfg *config.Config,
	logger *slog.Logger,
) *service.ImpersonationService {
	return service.NewImpersonationService(links, codec, cfg.SessionTTL, logger)
}

func provideJournalAuthService(
	journals repository.JournalRepository,
	notifier service.OTPNotifier,
	cfg *config.Config,
	logger *slog.Logger,
) *service.JournalAuthService {
	return service.NewJournalAuthService(journals, notifier, cfg.JournalOTPTTL, logger)
}

func provideDocumentService(
	documents repository.DocumentRepository,
	journals repository.JournalRepository,
	storage service.StorageService,
	keys *service.ObjectKeyBuilder,
	logger *slog.Logger,
) *service.DocumentService {
	return service.NewDocumentService(documents, journals, storage, keys, logger)
}

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewDocumentHandler,
	handler.NewChatHandler,
	provideRouterDependencies,
	provideRouter,
	provideHTTPServer,
)

func provideRouterDependencies(
	auth *handler.AuthHandler,
	documents *handler.DocumentHandler,
	chat *handler.ChatHandler,
	codec *security.TokenCodec,
	limiter middleware.Limiter,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		Auth:            auth,
		Documents:       documents,
		Chat:            chat,
		Codec:           codec,
		Limiter:         limiter,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		OTPRateLimitRPM: cfg.OTPRateLimitPerMin,
	}
}

func provideRouter(dep router.Dependencies) http.Handler {
	return router.New(dep)
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

var AppSet = wire.NewSet(app.New)

// MigrationRunner applies the schema without starting the HTTP surface.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
