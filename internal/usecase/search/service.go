// Package search ranks creators for a text query across semantic, keyword,
// and hybrid modes. The semantic path embeds the query and runs vector KNN
// against the document store; the keyword path queries the in-process fuzzy
// index; hybrid runs both concurrently and blends the scores.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/match"
	"github.com/fanlore-io/creatordex/internal/domain/search/mode"
	"github.com/fanlore-io/creatordex/internal/domain/search/request"
	"github.com/fanlore-io/creatordex/internal/metrics"
)

const (
	// DefaultSemanticWeight is the hybrid blend share given to the semantic
	// path when neither config nor request override it.
	DefaultSemanticWeight = 0.7
	// DefaultEmbedTimeout bounds the query-embedding call. A timeout fails
	// only the semantic path in hybrid mode.
	DefaultEmbedTimeout = 5 * time.Second

	// Over-fetch multipliers. The semantic path post-filters in memory, so it
	// pulls more candidates than the final limit; the keyword path only needs
	// headroom for the merge.
	semanticOverfetch = 4
	keywordOverfetch  = 2
)

// Config holds the search service settings. Zero fields take defaults.
type Config struct {
	SemanticWeight float64
	EmbedTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.SemanticWeight <= 0 || c.SemanticWeight > 1 {
		c.SemanticWeight = DefaultSemanticWeight
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = DefaultEmbedTimeout
	}
	return c
}

// Service handles creator search across semantic, keyword, and hybrid modes.
type Service struct {
	embed    Embedder
	vectors  VectorSearcher
	keywords KeywordSearcher
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service.
func New(embed Embedder, vectors VectorSearcher, keywords KeywordSearcher, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		embed:    embed,
		vectors:  vectors,
		keywords: keywords,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Search executes the request and returns up to its limit of ranked matches.
// In hybrid mode a semantic-path failure degrades the result to keyword
// contributions only; keyword-path failures always propagate.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]match.Match, error) {
	start := time.Now()
	modeLabel := string(req.Mode())

	matches, degraded, err := s.search(ctx, req)

	metrics.SearchDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.SearchRequestsTotal.WithLabelValues(modeLabel, "error").Inc()
		return nil, err
	case degraded:
		metrics.SearchRequestsTotal.WithLabelValues(modeLabel, "degraded").Inc()
	default:
		metrics.SearchRequestsTotal.WithLabelValues(modeLabel, "ok").Inc()
	}
	return matches, nil
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]match.Match, bool, error) {
	switch req.Mode() {
	case mode.Semantic:
		sem, err := s.searchSemantic(ctx, req)
		if err != nil {
			return nil, false, err
		}
		return s.merge(req, sem, nil), false, nil

	case mode.Keyword:
		kw, err := s.searchKeyword(ctx, req)
		if err != nil {
			return nil, false, err
		}
		return s.merge(req, nil, kw), false, nil

	case mode.Hybrid:
		sem, kw, degraded, err := s.searchBoth(ctx, req)
		if err != nil {
			return nil, false, err
		}
		return s.merge(req, sem, kw), degraded, nil

	default:
		return nil, false, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
}

// searchSemantic embeds the query, over-fetches KNN candidates, and
// post-filters them in memory. The index cannot combine vector search with
// the filter predicates, hence the over-fetch.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) ([]creator.Scored, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	embRes, err := s.embed.Embed(embedCtx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	candidates, err := s.vectors.SearchKNN(ctx, embRes.Embedding, semanticOverfetch*req.Limit())
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	filters := req.Filters()
	out := make([]creator.Scored, 0, req.Limit())
	for _, c := range candidates {
		if !c.Record.Published() || !filters.Match(&c.Record) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// searchKeyword queries the fuzzy index with merge headroom.
func (s *Service) searchKeyword(ctx context.Context, req *request.Request) ([]creator.Scored, error) {
	scored, err := s.keywords.Search(ctx, req.Query(), req.Filters(), keywordOverfetch*req.Limit())
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return scored, nil
}

// searchBoth runs the two paths concurrently. A keyword failure fails the
// request; a semantic failure only degrades it.
func (s *Service) searchBoth(ctx context.Context, req *request.Request) (sem, kw []creator.Scored, degraded bool, err error) {
	type pathResult struct {
		scored []creator.Scored
		err    error
	}

	semCh := make(chan pathResult, 1)
	kwCh := make(chan pathResult, 1)
	go func() {
		scored, err := s.searchSemantic(ctx, req)
		semCh <- pathResult{scored, err}
	}()
	go func() {
		scored, err := s.searchKeyword(ctx, req)
		kwCh <- pathResult{scored, err}
	}()
	semRes, kwRes := <-semCh, <-kwCh

	if kwRes.err != nil {
		return nil, nil, false, kwRes.err
	}
	if semRes.err != nil {
		s.logger.Warn("Semantic path failed, degrading to keyword-only", zap.Error(semRes.err))
		return nil, kwRes.scored, true, nil
	}
	return semRes.scored, kwRes.scored, false, nil
}

// semanticShare resolves the blend weight for the request. Single-path modes
// pin it so the combined score equals that path's score.
func (s *Service) semanticShare(req *request.Request) float64 {
	switch req.Mode() {
	case mode.Keyword:
		return 0
	case mode.Hybrid:
		if w, ok := req.Weight(); ok {
			return w
		}
		return s.cfg.SemanticWeight
	default:
		return 1
	}
}

func (s *Service) merge(req *request.Request, sem, kw []creator.Scored) []match.Match {
	return mergeScored(sem, kw, s.semanticShare(req), req.Limit())
}
