package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"tracehub/internal/archive"
	"tracehub/internal/audit"
	"tracehub/internal/auth"
	"tracehub/internal/config"
	"tracehub/internal/middleware"
	"tracehub/internal/models"
	"tracehub/internal/queue"
	"tracehub/internal/ratelimit"
	"tracehub/internal/storage"
	"tracehub/internal/usage"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	DB           *storage.DB
	APIKeys      auth.APIKeyStore
	RateLimit    ratelimit.Limiter
	Recorder     *audit.Recorder
	ArchiveSink  archive.Sink
	IngestWorker *storage.IngestWorker
}

// archivingAuditStore forwards committed audit entries to the archive sink
// after the database insert. The entry carries its id and created_at by then.
type archivingAuditStore struct {
	store audit.Store
	sink  archive.Sink
}

func (s *archivingAuditStore) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	if err := s.store.Insert(ctx, entry); err != nil {
		return err
	}
	_ = s.sink.Enqueue(entry)
	return nil
}

// NewRouter creates an HTTP router with all dependencies wired up
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	// Initialize database
	db, err := storage.NewDB(storage.DBConfig{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		APIKeyCacheSize: cfg.Cache.APIKeyCacheSize,
		APIKeyCacheTTL:  cfg.Cache.APIKeyCacheTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	// Initialize repositories
	apiKeyRepo := db.NewAPIKeyRepository()
	traceRepo := db.NewTraceRepository()
	usageRepo := db.NewUsageRepository()
	auditRepo := db.NewAuditLogRepository()

	// Initialize ingest queue and worker
	queueCfg := queue.DefaultConfig("events")
	queueCfg.BatchSize = cfg.Ingest.BatchSize
	queueCfg.BatchTimeout = cfg.Ingest.BatchTimeout
	queueCfg.MaxRetries = cfg.Ingest.MaxRetries
	queueCfg.RetryBackoff = cfg.Ingest.RetryBackoff
	queueCfg.UseRedis = cfg.Ingest.UseRedis
	queueCfg.RedisAddr = cfg.Ingest.RedisAddr
	queueCfg.RedisPassword = cfg.Ingest.RedisPassword
	queueCfg.RedisDB = cfg.Ingest.RedisDB

	eventQueue, eventDLQ, err := queue.New(queueCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ingest queue: %w", err)
	}

	ingestWorker := storage.NewIngestWorker(eventQueue, eventDLQ, storage.NewEventWriter(db), queueCfg)
	ingestWorker.Start(context.Background())

	// Initialize rate limiter. Sliding-window limiting needs Redis; without it
	// ingest runs unlimited.
	var rateLimiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if cfg.Ingest.RatePerMinute > 0 && cfg.Ingest.UseRedis {
		rateLimiter = ratelimit.NewRateLimiter(redis.NewClient(&redis.Options{
			Addr:     cfg.Ingest.RedisAddr,
			Password: cfg.Ingest.RedisPassword,
			DB:       cfg.Ingest.RedisDB,
		}))
	}

	// Initialize audit archive sink
	var sink archive.Sink = archive.NewNoopSink()
	if cfg.Archive.Enabled {
		writer, err := archive.NewS3Writer(
			context.Background(),
			cfg.Archive.S3Bucket,
			cfg.Archive.S3Region,
			cfg.Archive.S3Prefix,
			cfg.Archive.Instance,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create archive writer: %w", err)
		}
		sink = archive.NewBufferedSink(writer, archive.BufferedSinkConfig{
			BufferSize:    cfg.Archive.BufferSize,
			FlushSize:     cfg.Archive.FlushSize,
			FlushInterval: cfg.Archive.FlushInterval,
		})
	}

	recorder := audit.NewRecorder(&archivingAuditStore{store: auditRepo, sink: sink})

	deps := &Dependencies{
		DB:           db,
		APIKeys:      apiKeyRepo,
		RateLimit:    rateLimiter,
		Recorder:     recorder,
		ArchiveSink:  sink,
		IngestWorker: ingestWorker,
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg, traceRepo, usageRepo, auditRepo, apiKeyRepo)

	return mux, deps, nil
}

func registerRoutes(
	mux *http.ServeMux,
	deps *Dependencies,
	cfg *config.Config,
	traceRepo *storage.TraceRepository,
	usageRepo *storage.UsageRepository,
	auditRepo *storage.AuditLogRepository,
	apiKeyRepo *storage.APIKeyRepository,
) {
	// Event ingestion - protected with API key middleware
	apiKeyMiddleware := middleware.APIKeyMiddleware(deps.APIKeys)
	ingestHandler := NewIngestHandler(deps.IngestWorker, deps.RateLimit, cfg.Ingest.RatePerMinute)
	mux.Handle("/v1/ingest", apiKeyMiddleware(ingestHandler))

	// Health check endpoint - public
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session-protected read endpoints - require at least VIEWER role
	viewer := middleware.SessionMiddleware(cfg.SessionSecret, auth.RoleViewer)
	usageHandler := NewUsageHandler(usage.NewService(usageRepo))
	mux.Handle("/v1/usage/users", viewer(http.HandlerFunc(usageHandler.HandleList)))
	mux.Handle("/v1/usage/users/", viewer(http.HandlerFunc(usageHandler.HandleGet)))

	auditLogsHandler := NewAuditLogsHandler(auditRepo)
	mux.Handle("/v1/audit-logs", viewer(http.HandlerFunc(auditLogsHandler.HandleList)))

	// Trace reads and deletes - require at least MEMBER role
	member := middleware.SessionMiddleware(cfg.SessionSecret, auth.RoleMember)
	tracesHandler := NewTracesHandler(traceRepo, deps.Recorder)
	mux.Handle("/v1/traces/", member(http.HandlerFunc(tracesHandler.HandleItem)))

	// API key management - require ADMIN role
	admin := middleware.SessionMiddleware(cfg.SessionSecret, auth.RoleAdmin)
	apiKeysHandler := NewAPIKeysHandler(apiKeyRepo, deps.Recorder)
	mux.Handle("/v1/api-keys", admin(http.HandlerFunc(apiKeysHandler.HandleCollection)))
	mux.Handle("/v1/api-keys/", admin(http.HandlerFunc(apiKeysHandler.HandleItem)))
}
