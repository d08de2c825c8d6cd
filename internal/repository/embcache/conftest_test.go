package embcache

import (
	"context"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/db"
	"github.com/fanlore-io/creatordex/internal/domain"
)

// mockEmbedder counts calls and auto-generates deterministic vectors
// unless a custom fn is installed.
type mockEmbedder struct {
	embedFn    func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchFn    func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	embedCalls int
	batchCalls int
	lastBatch  []string
}

// vecFor derives a vector from the text alone so tests can predict it
// regardless of batch composition.
func vecFor(text string) []float32 {
	return []float32{float32(len(text)), 0.25}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{
		Embedding:    vecFor(text),
		PromptTokens: 7,
		TotalTokens:  7,
	}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.lastBatch = append([]string(nil), texts...)
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vecFor(text)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: len(texts) * 7,
		TotalTokens:  len(texts) * 7,
	}, nil
}

type mockKVStore struct {
	data     map[string][]byte
	getCalls int
	setCalls int
	getFn    func(key string) ([]byte, error)
	setFn    func(key string, value []byte) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.NewError(db.OpGet, db.ErrKeyNotFound)
	}
	return v, nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	m.setCalls++
	if m.setFn != nil {
		return m.setFn(key, value)
	}
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(inner domain.Embedder, s store) *CachedEmbedder {
	return New(inner, s, nil, zap.NewNop())
}
