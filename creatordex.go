// Package creatordex is a hybrid search and multi-tier caching engine for
// creator-profile discovery, backed by Redis Stack. It blends vector
// similarity with fuzzy keyword matching over an in-process snapshot of
// published creators, and resolves "similar creators" through a staged
// fallback chain with opportunistic cache write-back.
package creatordex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/db"
	dbRedis "github.com/fanlore-io/creatordex/internal/db/redis"
	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/metrics"
	budgetrepo "github.com/fanlore-io/creatordex/internal/repository/budget"
	creatorsrepo "github.com/fanlore-io/creatordex/internal/repository/creators"
	"github.com/fanlore-io/creatordex/internal/repository/embcache"
	"github.com/fanlore-io/creatordex/internal/repository/snapcache"
	openaiEmb "github.com/fanlore-io/creatordex/internal/transport/openai"
	embeddinguc "github.com/fanlore-io/creatordex/internal/usecase/embedding"
	healthuc "github.com/fanlore-io/creatordex/internal/usecase/health"
	indexeruc "github.com/fanlore-io/creatordex/internal/usecase/indexer"
	keyworduc "github.com/fanlore-io/creatordex/internal/usecase/keyword"
	searchuc "github.com/fanlore-io/creatordex/internal/usecase/search"
	similaruc "github.com/fanlore-io/creatordex/internal/usecase/similar"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	readinessPollInterval   = 500 * time.Millisecond

	defaultVectorDim   = 1536
	defaultSnapshotTTL = 300 * time.Second
	defaultRemoteTTL   = 600 * time.Second
)

// ErrCreatorNotFound signals a missing creator record.
var ErrCreatorNotFound = domain.ErrCreatorNotFound

// ErrInvalidRequest signals malformed query parameters.
var ErrInvalidRequest = domain.ErrInvalidRequest

// Engine is the creatordex entry point. Construct one per process with New
// and share it across requests; every cache tier it owns is safe for
// concurrent use.
type Engine struct {
	store     db.Store
	cache     db.Store // distributed tier; may alias store, nil when disabled
	ownsCache bool

	creators  *creatorsrepo.Repo
	snapshots *snapcache.Cache
	keywords  *keyworduc.Service
	searcher  *searchuc.Service
	similar   *similaruc.Service
	ingester  *indexeruc.Service
	health    *healthuc.Service

	vectorDim int
	logger    *zap.Logger
}

// New connects to the document store and wires the engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{vectorDim: defaultVectorDim}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.snapshotTTL <= 0 {
		cfg.snapshotTTL = defaultSnapshotTTL
	}
	if cfg.remoteTTL <= 0 {
		cfg.remoteTTL = defaultRemoteTTL
	}
	if cfg.store == nil && cfg.redisAddr == "" {
		return nil, errors.New("creatordex: redis address required (use WithRedis)")
	}

	store := cfg.store
	if store == nil {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Username: cfg.redisUsername,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("creatordex: create store: %w", err)
		}
		readyCtx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
		defer cancel()
		if err := s.WaitForReady(readyCtx, readinessPollInterval); err != nil {
			s.Close()
			return nil, fmt.Errorf("creatordex: store not ready: %w", err)
		}
		store = s
	}

	e := &Engine{
		store:     store,
		vectorDim: cfg.vectorDim,
		logger:    cfg.logger,
	}
	e.cache, e.ownsCache = openCacheTier(store, cfg)

	e.creators = creatorsrepo.New(store)
	e.snapshots = snapcache.New(
		e.creators,
		kvOrNil(e.cache),
		snapcache.Config{TTL: cfg.snapshotTTL, RemoteTTL: cfg.remoteTTL},
		metrics.SnapshotResolutionsTotal,
		metrics.CacheWritebackFailuresTotal,
		cfg.logger,
	)

	keywords, err := keyworduc.New(e.snapshots, kvOrNil(e.cache), keyworduc.Config{
		Weights:          cfg.keywordWeights,
		Threshold:        cfg.keywordThreshold,
		FilteredTTL:      cfg.filteredTTL,
		FilteredCapacity: cfg.filteredCapacity,
		RemoteTTL:        cfg.remoteTTL,
	}, cfg.logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("creatordex: keyword service: %w", err)
	}
	e.keywords = keywords

	embedder := buildEmbedder(cfg, e.cache)
	e.searcher = searchuc.New(embedder, e.creators, keywords, searchuc.Config{
		SemanticWeight: cfg.semanticWeight,
		EmbedTimeout:   cfg.embedTimeout,
	}, cfg.logger)
	e.similar = similaruc.New(e.creators, cfg.logger)
	e.ingester = indexeruc.New(e.creators, embedder)
	e.health = healthuc.New(store, e.snapshots, embeddingChecker(embedder), cfg.maxSnapshotAge)

	return e, nil
}

// openCacheTier resolves the distributed cache client: disabled, dedicated,
// or shared with the primary store. A dedicated client that cannot be
// created only forfeits the tier; it never fails construction.
func openCacheTier(store db.Store, cfg *engineConfig) (db.Store, bool) {
	if cfg.cacheDisabled {
		return nil, false
	}
	if cfg.cacheAddr == "" {
		return store, false
	}
	c, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{cfg.cacheAddr}, Password: cfg.cachePassword})
	if err != nil {
		cfg.logger.Warn("Distributed cache unavailable, tier disabled", zap.Error(err))
		return nil, false
	}
	return c, true
}

func kvOrNil(cache db.Store) db.KVStore {
	if cache == nil {
		return nil
	}
	return cache
}

// buildEmbedder assembles the decorator chain:
// provider -> cached -> instrumented(budget) -> instruction.
func buildEmbedder(cfg *engineConfig, cache db.Store) domain.Embedder {
	provider := "custom"
	model := ""

	var base domain.Embedder
	switch {
	case cfg.embedder != nil:
		base = &embedderAdapter{inner: cfg.embedder}
	case cfg.openAI != nil:
		provider = "openai"
		model = cfg.openAI.model
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAI.apiKey,
			BaseURL:    cfg.openAI.baseURL,
			Model:      cfg.openAI.model,
			Dimensions: cfg.openAI.dimensions,
			Provider:   provider,
			Logger:     cfg.logger,
		})
	default:
		return noopEmbedder{}
	}

	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, metrics.EmbeddingCacheTotal, cfg.logger)
	}

	var checker embeddinguc.BudgetChecker
	if cfg.dailyTokenBudget > 0 || cfg.monthlyTokenBudget > 0 {
		tracker := embeddinguc.NewBudgetTracker(
			provider, cfg.dailyTokenBudget, cfg.monthlyTokenBudget,
			embeddinguc.BudgetActionReject, cfg.logger,
		)
		if cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			tracker.WithStore(ctx, budgetrepo.New(cache, 48*time.Hour, 62*24*time.Hour))
			cancel()
		}
		checker = tracker
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provider, model, checker, cfg.logger)

	if cfg.openAI != nil && cfg.openAI.queryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.openAI.queryInstruction)
	}
	return embedder
}

// embeddingChecker exposes the provider's health probe to the health
// service, when it has one.
func embeddingChecker(e domain.Embedder) healthuc.EmbeddingChecker {
	if _, ok := e.(noopEmbedder); ok {
		return nil
	}
	return &healthAdapter{embedder: e}
}

type healthAdapter struct {
	embedder domain.Embedder
}

func (h *healthAdapter) HealthCheck(ctx context.Context) error {
	hc, ok := h.embedder.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// embedderAdapter lifts a public Embedder into the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder serves engines without an embedding provider: keyword search
// works, the semantic path degrades or fails per mode.
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"no embedding provider configured (use WithOpenAI or WithEmbedder): %w",
		domain.ErrEmbeddingProviderError,
	)
}

// Close releases the store connections.
func (e *Engine) Close() {
	if e.ownsCache && e.cache != nil {
		e.cache.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// Ping checks document-store connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
