package match

import "github.com/fanlore-io/creatordex/internal/domain/creator"

// Match is a single ranked search hit with its per-path scores.
type Match struct {
	id            string
	name          string
	slug          string
	semanticScore float64
	keywordScore  float64
	combinedScore float64
	record        creator.Record
}

// New creates a Match. The attached record always has its embedding stripped;
// vectors never leave the engine on search results.
func New(record creator.Record, semanticScore, keywordScore, combinedScore float64) Match {
	rec := record.WithoutEmbedding()
	return Match{
		id:            rec.ID(),
		name:          rec.Name(),
		slug:          rec.Slug(),
		semanticScore: semanticScore,
		keywordScore:  keywordScore,
		combinedScore: combinedScore,
		record:        rec,
	}
}

// ID returns the creator identifier.
func (m *Match) ID() string { return m.id }

// Name returns the creator name.
func (m *Match) Name() string { return m.name }

// Slug returns the creator slug.
func (m *Match) Slug() string { return m.slug }

// SemanticScore returns the vector-path similarity (0 when the path did not
// return this creator).
func (m *Match) SemanticScore() float64 { return m.semanticScore }

// KeywordScore returns the fuzzy-match similarity (0 when the path did not
// return this creator).
func (m *Match) KeywordScore() float64 { return m.keywordScore }

// CombinedScore returns the blended ranking score.
func (m *Match) CombinedScore() float64 { return m.combinedScore }

// Record returns the attached record snapshot (embedding always stripped).
func (m *Match) Record() creator.Record { return m.record }
