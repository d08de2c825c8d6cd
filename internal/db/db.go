// Package db defines storage interfaces for the engine's document store
// and distributed cache tiers.
package db

import "context"

// Pinger checks connectivity to the underlying store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides operations on JSON documents.
type JSONStore interface {
	// JSONSet stores data at path within a JSON document.
	// Use "$" as the path to set the root document.
	JSONSet(ctx context.Context, key, path string, data []byte) error
	// JSONSetMulti applies several JSONSet operations in one round trip.
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	// JSONGet retrieves parts of a JSON document. With no paths the root
	// document is returned. Returns ErrKeyNotFound if the key is absent.
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONGetMulti retrieves the same path from several documents in one
	// round trip. The result has one entry per key; missing documents
	// yield a nil entry rather than an error.
	JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error)
	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// JSONSetItem is a single document write for JSONSetMulti.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// KVStore provides plain key-value operations with optional expiry.
type KVStore interface {
	// Get retrieves a value. Returns ErrKeyNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value without expiry.
	Set(ctx context.Context, key string, value []byte) error
	// SetWithTTL stores a value that expires after ttlSeconds.
	SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int64) error
	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// IncrBy atomically increments the integer value at key.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// Expire sets a TTL on key. With nx true the TTL is only set when the
	// key has none. Returns false if the key does not exist.
	Expire(ctx context.Context, key string, ttlSeconds int64, nx bool) (bool, error)
}

// IndexManager manages search indices over stored documents.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher executes queries against a search index.
type Searcher interface {
	// SearchKNN runs a k-nearest-neighbour query over a vector field.
	// Entries come back ordered by ascending distance.
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	// SearchTags runs a conjunctive tag query with pagination.
	SearchTags(ctx context.Context, q *TagQuery) (*SearchResult, error)
	// Count returns the number of documents matching a tag query.
	Count(ctx context.Context, q *TagQuery) (int, error)
}

// KNNQuery describes a vector similarity search. Attribute filtering is
// intentionally absent: callers over-fetch and filter in memory.
type KNNQuery struct {
	Index string
	// Vector is the query embedding.
	Vector []float32
	// K is the number of neighbours to return.
	K int
	// ReturnFields limits which document fields are loaded. The vector
	// field itself should not be listed here.
	ReturnFields []string
}

// TagQuery describes a conjunctive tag match with optional prefix matching
// on one field. An empty query matches all documents.
type TagQuery struct {
	Index string
	// Tags maps field name to the exact tag value it must carry.
	Tags map[string]string
	// Prefix optionally matches one tag field by prefix.
	Prefix *TagPrefix
	// Offset and Limit page through results.
	Offset int
	Limit  int
	// ReturnFields limits which document fields are loaded.
	ReturnFields []string
}

// TagPrefix matches tag values starting with Value.
type TagPrefix struct {
	Field string
	Value string
}

// SearchResult is a page of matching documents.
type SearchResult struct {
	// Total is the number of matches in the index, not the page size.
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single matching document.
type SearchEntry struct {
	Key string
	// Score is the similarity for KNN queries, in [0,1] where higher is
	// closer. Zero for tag queries.
	Score float64
	// Fields holds the requested return fields as raw strings.
	Fields map[string]string
}

// Store combines the capabilities of a document store backend.
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexManager
	Searcher
	Close()
}
