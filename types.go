package creatordex

import (
	"context"
	"time"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/match"
	"github.com/fanlore-io/creatordex/internal/usecase/health"
	"github.com/fanlore-io/creatordex/internal/usecase/similar"
)

// Mode selects the search strategy.
type Mode string

// Search modes. An empty mode on a request defaults to hybrid.
const (
	ModeHybrid   Mode = "hybrid"
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
)

// Creator is the public shape of a creator record. On engine output the
// Embedding field is always nil; it is only consumed on ingest.
type Creator struct {
	ID          string
	Name        string
	Slug        string
	Categories  []string
	Category    string
	Topics      []string
	Region      string
	Languages   []string
	Gender      string
	Published   bool
	DisplayName string
	ShortBio    string
	Bio         string

	// Embedding optionally carries a precomputed vector on ingest. Records
	// arriving without one are vectorized from their profile text.
	Embedding []float32
}

// SearchRequest describes one search query.
type SearchRequest struct {
	Query string
	// Mode selects the strategy; empty means hybrid.
	Mode Mode
	// Filter dimensions; empty string leaves a dimension unset.
	Category string
	Region   string
	Language string
	Gender   string
	// Limit caps the result count; 0 applies the default, values clamp to
	// the engine bounds.
	Limit int
	// SemanticWeight overrides the configured hybrid blend share, in [0,1].
	SemanticWeight *float64
}

// Match is one ranked search hit.
type Match struct {
	ID            string
	Name          string
	Slug          string
	SemanticScore float64
	KeywordScore  float64
	CombinedScore float64
	Creator       Creator
}

// SimilarCreator is one entry of a similarity result.
type SimilarCreator struct {
	ID    string
	Score float64
	Slug  string
	Name  string
}

// SimilarResult carries resolved similar creators and how they were produced.
type SimilarResult struct {
	Entries []SimilarCreator
	// Precomputed is set when the entries came from the similarity cache on
	// the source record.
	Precomputed bool
	// Fallback is set when no vector path was available; entries (if any)
	// share the source's first category and carry no real scores.
	Fallback bool
}

// IngestResult is the per-record outcome of an Ingest call.
type IngestResult struct {
	ID  string
	Err error
}

// HealthReport is the aggregated component health.
type HealthReport struct {
	// Status is "ok", "degraded" or "error".
	Status string
	// Checks maps component name to "ok" or "error".
	Checks map[string]string
	// SnapshotAge is the age of the in-process snapshot, zero when none is
	// loaded.
	SnapshotAge time.Duration
	// SnapshotSize is the record count of the in-process snapshot.
	SnapshotSize int
}

// EmbeddingResult is the outcome of one embedding call.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder turns text into a fixed-length vector. Implement it to plug in a
// provider other than the built-in OpenAI adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

func creatorFromRecord(r *creator.Record) Creator {
	return Creator{
		ID:          r.ID(),
		Name:        r.Name(),
		Slug:        r.Slug(),
		Categories:  r.Categories(),
		Category:    r.Category(),
		Topics:      r.Topics(),
		Region:      r.Region(),
		Languages:   r.Languages(),
		Gender:      r.Gender(),
		Published:   r.Published(),
		DisplayName: r.Profile().DisplayName(),
		ShortBio:    r.Profile().ShortBio(),
		Bio:         r.Profile().Bio(),
	}
}

func recordFromCreator(c Creator) (creator.Record, error) {
	rec, err := creator.New(c.ID, c.Name, c.Slug, c.Published)
	if err != nil {
		return creator.Record{}, err
	}
	rec = rec.WithAttributes(c.Categories, c.Category, c.Topics, c.Region, c.Languages, c.Gender)
	rec = rec.WithProfile(creator.NewProfile(c.DisplayName, c.ShortBio, c.Bio))
	if len(c.Embedding) > 0 {
		rec = rec.WithEmbedding(c.Embedding)
	}
	return rec, nil
}

func matchFromDomain(m *match.Match) Match {
	rec := m.Record()
	return Match{
		ID:            m.ID(),
		Name:          m.Name(),
		Slug:          m.Slug(),
		SemanticScore: m.SemanticScore(),
		KeywordScore:  m.KeywordScore(),
		CombinedScore: m.CombinedScore(),
		Creator:       creatorFromRecord(&rec),
	}
}

func similarFromDomain(res similar.Result) SimilarResult {
	out := SimilarResult{
		Entries:     make([]SimilarCreator, len(res.Entries)),
		Precomputed: res.Precomputed,
		Fallback:    res.Fallback,
	}
	for i, e := range res.Entries {
		out.Entries[i] = SimilarCreator{ID: e.ID, Score: e.Score, Slug: e.Slug, Name: e.Name}
	}
	return out
}

func healthFromDomain(r health.Report) HealthReport {
	out := HealthReport{
		Status:       string(r.Status),
		Checks:       make(map[string]string, len(r.Checks)),
		SnapshotAge:  r.SnapshotAge,
		SnapshotSize: r.SnapshotSize,
	}
	for k, v := range r.Checks {
		out.Checks[k] = string(v)
	}
	return out
}
