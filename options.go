package creatordex

import (
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/db"
)

type openAIConfig struct {
	apiKey           string
	baseURL          string
	model            string
	dimensions       int
	queryInstruction string
}

type engineConfig struct {
	redisAddr     string
	redisUsername string
	redisPassword string

	cacheAddr     string
	cachePassword string
	cacheDisabled bool

	openAI   *openAIConfig
	embedder Embedder

	dailyTokenBudget   int64
	monthlyTokenBudget int64

	snapshotTTL      time.Duration
	remoteTTL        time.Duration
	filteredTTL      time.Duration
	filteredCapacity int
	maxSnapshotAge   time.Duration

	semanticWeight   float64
	embedTimeout     time.Duration
	keywordWeights   map[string]float64
	keywordThreshold float64

	vectorDim int

	logger *zap.Logger
	store  db.Store
}

// Option customizes engine construction.
type Option func(*engineConfig)

// WithRedis sets the Redis Stack address the engine connects to.
func WithRedis(addr string) Option {
	return func(c *engineConfig) { c.redisAddr = addr }
}

// WithRedisCredentials sets authentication for the primary connection.
func WithRedisCredentials(username, password string) Option {
	return func(c *engineConfig) {
		c.redisUsername = username
		c.redisPassword = password
	}
}

// WithDistributedCache points the distributed cache tier at a dedicated
// Redis instance. Without this option the tier shares the primary
// connection.
func WithDistributedCache(addr, password string) Option {
	return func(c *engineConfig) {
		c.cacheAddr = addr
		c.cachePassword = password
	}
}

// WithoutDistributedCache disables the distributed cache tier entirely.
// Snapshot and index reads then go straight to the document store once the
// in-process entries expire.
func WithoutDistributedCache() Option {
	return func(c *engineConfig) { c.cacheDisabled = true }
}

// WithOpenAI configures the built-in OpenAI embedding provider.
func WithOpenAI(apiKey, model string, dimensions int) Option {
	return func(c *engineConfig) {
		if c.openAI == nil {
			c.openAI = &openAIConfig{}
		}
		c.openAI.apiKey = apiKey
		c.openAI.model = model
		c.openAI.dimensions = dimensions
	}
}

// WithOpenAIBaseURL overrides the OpenAI API endpoint, for compatible
// providers.
func WithOpenAIBaseURL(url string) Option {
	return func(c *engineConfig) {
		if c.openAI == nil {
			c.openAI = &openAIConfig{}
		}
		c.openAI.baseURL = url
	}
}

// WithQueryInstruction prefixes every query embedding with an instruction,
// for models trained with instruction-tagged inputs.
func WithQueryInstruction(instruction string) Option {
	return func(c *engineConfig) {
		if c.openAI == nil {
			c.openAI = &openAIConfig{}
		}
		c.openAI.queryInstruction = instruction
	}
}

// WithEmbedder plugs in a custom embedding provider instead of the built-in
// OpenAI adapter. The caching and budget decorators still apply.
func WithEmbedder(e Embedder) Option {
	return func(c *engineConfig) { c.embedder = e }
}

// WithTokenBudget caps embedding token consumption per day and per month.
// Zero disables the respective bound. Exceeding a bound fails embedding
// calls until the period rolls over.
func WithTokenBudget(daily, monthly int64) Option {
	return func(c *engineConfig) {
		c.dailyTokenBudget = daily
		c.monthlyTokenBudget = monthly
	}
}

// WithSnapshotTTL sets how long the in-process snapshot stays fresh.
func WithSnapshotTTL(d time.Duration) Option {
	return func(c *engineConfig) { c.snapshotTTL = d }
}

// WithRemoteCacheTTL sets the expiry written on distributed cache entries
// (snapshot mirror and serialized keyword index).
func WithRemoteCacheTTL(d time.Duration) Option {
	return func(c *engineConfig) { c.remoteTTL = d }
}

// WithFilteredIndexTTL bounds reuse of a filter-scoped keyword sub-index.
func WithFilteredIndexTTL(d time.Duration) Option {
	return func(c *engineConfig) { c.filteredTTL = d }
}

// WithFilteredIndexCapacity caps the filtered sub-index LRU cache.
func WithFilteredIndexCapacity(n int) Option {
	return func(c *engineConfig) { c.filteredCapacity = n }
}

// WithMaxSnapshotAge marks the engine degraded in health reports once the
// snapshot is older than d. Zero disables the bound.
func WithMaxSnapshotAge(d time.Duration) Option {
	return func(c *engineConfig) { c.maxSnapshotAge = d }
}

// WithSemanticWeight sets the default semantic share of hybrid scores,
// in [0,1].
func WithSemanticWeight(w float64) Option {
	return func(c *engineConfig) { c.semanticWeight = w }
}

// WithEmbedTimeout bounds the query-embedding call during search.
func WithEmbedTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.embedTimeout = d }
}

// WithKeywordWeights overrides the per-field keyword search weights.
func WithKeywordWeights(weights map[string]float64) Option {
	return func(c *engineConfig) { c.keywordWeights = weights }
}

// WithKeywordThreshold sets the fuzzy-match acceptance threshold, in (0,1].
func WithKeywordThreshold(t float64) Option {
	return func(c *engineConfig) { c.keywordThreshold = t }
}

// WithVectorDim sets the embedding dimensionality of the search index.
func WithVectorDim(n int) Option {
	return func(c *engineConfig) { c.vectorDim = n }
}

// WithLogger sets the engine logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithStore injects a pre-built store, bypassing connection setup. Intended
// for tests; the distributed cache tier shares the injected store unless
// disabled.
func WithStore(s db.Store) Option {
	return func(c *engineConfig) { c.store = s }
}
