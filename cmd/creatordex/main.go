package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/config"
	"github.com/fanlore-io/creatordex/internal/db"
	dbRedis "github.com/fanlore-io/creatordex/internal/db/redis"
	"github.com/fanlore-io/creatordex/internal/domain"
	logpkg "github.com/fanlore-io/creatordex/internal/logger"
	"github.com/fanlore-io/creatordex/internal/metrics"
	budgetrepo "github.com/fanlore-io/creatordex/internal/repository/budget"
	creatorsrepo "github.com/fanlore-io/creatordex/internal/repository/creators"
	"github.com/fanlore-io/creatordex/internal/repository/embcache"
	"github.com/fanlore-io/creatordex/internal/repository/snapcache"
	"github.com/fanlore-io/creatordex/internal/transport/ops"
	openaiEmb "github.com/fanlore-io/creatordex/internal/transport/openai"
	"github.com/fanlore-io/creatordex/internal/usecase/embedding"
	healthuc "github.com/fanlore-io/creatordex/internal/usecase/health"
	keyworduc "github.com/fanlore-io/creatordex/internal/usecase/keyword"
	usageuc "github.com/fanlore-io/creatordex/internal/usecase/usage"
	"github.com/fanlore-io/creatordex/internal/version"
)

const readinessPollInterval = 500 * time.Millisecond

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting creatordex ops server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	readyCtx, cancelReady := context.WithTimeout(ctx, sec(cfg.Database.ReadinessTimeout))
	err = store.WaitForReady(readyCtx, readinessPollInterval)
	cancelReady()
	if err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Register metrics explicitly (no init())
	metrics.RegisterEngineMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Ensure the creators search index exists before the first snapshot
	// load; every tier below depends on it.
	creatorsRepo := creatorsrepo.New(store)
	if err := creatorsRepo.EnsureIndex(ctx, cfg.Index.VectorDim); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}

	// Build query embedder chain from the first configured vectorizer.
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	// Single BudgetTracker shared between the embedder chain and the usage
	// endpoint. Counters persist in the store, so this daemon also reports
	// tokens spent by sibling engine processes.
	var budget *embedding.BudgetTracker
	if provCfg.Budget.DailyTokenLimit > 0 || provCfg.Budget.MonthlyTokenLimit > 0 {
		action := embedding.BudgetActionWarn
		if provCfg.Budget.Action == "reject" {
			action = embedding.BudgetActionReject
		}
		budget = embedding.NewBudgetTracker(
			provName, provCfg.Budget.DailyTokenLimit, provCfg.Budget.MonthlyTokenLimit, action, logger,
		)
		budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker embedding.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	var queryEmbedder domain.Embedder
	if provName != "" {
		queryEmbedder = buildEmbedder(provName, provCfg, vecCfg, store, budgetChecker, logger)
		logger.Info("Query embedder created",
			zap.String("provider", provName),
			zap.String("model", vecCfg.Model),
		)
	}

	// Cache stack: snapshot cache over the store, keyword index over the
	// snapshot. The store doubles as the distributed tier.
	snapshots := snapcache.New(
		creatorsRepo,
		store,
		snapcache.Config{TTL: sec(cfg.Cache.SnapshotTTLSec), RemoteTTL: sec(cfg.Cache.RemoteTTLSec)},
		metrics.SnapshotResolutionsTotal,
		metrics.CacheWritebackFailuresTotal,
		logger,
	)
	keywords, err := keyworduc.New(snapshots, store, keyworduc.Config{
		Weights:          cfg.Search.Keyword.Weights,
		Threshold:        cfg.Search.Keyword.Threshold,
		FilteredTTL:      sec(cfg.Cache.FilteredTTLSec),
		FilteredCapacity: cfg.Cache.FilteredCapacity,
		RemoteTTL:        sec(cfg.Cache.RemoteTTLSec),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create keyword service", zap.Error(err))
	}

	// Warmup: resolve the snapshot and build the full index so the first
	// engine request and the readiness probe find them hot. Not fatal; an
	// empty store warms on the next refresh.
	if err := keywords.Warm(ctx); err != nil {
		logger.Warn("Initial warmup failed", zap.Error(err))
	} else {
		logger.Info("Caches warmed")
	}

	stopRefresh := startRefreshLoop(keywords, sec(cfg.Cache.RefreshIntervalSec), logger)
	defer stopRefresh()

	usageSvc := usageuc.New(budgetReader(budget))
	healthSvc := healthuc.New(store, snapshots, embeddingChecker(queryEmbedder), sec(cfg.Cache.MaxSnapshotAgeSec))

	server := ops.NewServer(healthSvc, usageSvc)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", server.Healthz)
	mux.HandleFunc("GET /readyz", server.Readyz)
	mux.HandleFunc("GET /usage", server.Usage)
	mux.HandleFunc("GET /metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      metrics.Middleware()(requestLogMiddleware(logger)(mux)),
		ReadTimeout:  sec(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: sec(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sec(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// requestLogMiddleware emits a canonical log line per request and propagates
// X-Request-ID. The request-scoped logger rides the context for handlers.
func requestLogMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = newRequestID()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sr.status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}

// startRefreshLoop re-warms the snapshot and full index on an interval.
// Zero disables the loop; the returned stop function is then a no-op.
func startRefreshLoop(keywords *keyworduc.Service, interval time.Duration, logger *zap.Logger) func() {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if err := keywords.Warm(ctx); err != nil {
					logger.Warn("Background re-warm failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
	logger.Info("Background re-warm enabled", zap.Duration("interval", interval))
	return func() { close(done) }
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	store db.Store,
	budget embedding.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	embedder = embedding.NewInstrumentedEmbedder(embedder, provName, vecCfg.Model, budget, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if vecCfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, vecCfg.QueryInstruction)
	}
	return embedder
}

func budgetReader(budget *embedding.BudgetTracker) usageuc.BudgetReader {
	if budget == nil {
		return nil
	}
	return budget
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func embeddingChecker(embedder domain.Embedder) healthuc.EmbeddingChecker {
	if embedder == nil {
		return nil
	}
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	hc, ok := h.embedder.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

func sec(n int) time.Duration {
	return time.Duration(n) * time.Second
}
