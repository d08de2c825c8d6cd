package similar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/request"
	"github.com/fanlore-io/creatordex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEngineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockRepo struct {
	mu sync.Mutex

	source    creator.Record
	sourceErr error

	knnResults []creator.Scored
	knnErr     error
	knnCalled  bool
	lastK      int

	catResults   []creator.Record
	catErr       error
	catCalled    bool
	lastCategory string
	lastExclude  string

	setErr         error
	setCalls       int
	lastSetID      string
	lastSetEntries []creator.SimilarEntry
}

func (m *mockRepo) GetByID(_ context.Context, id string) (creator.Record, error) {
	if m.sourceErr != nil {
		return creator.Record{}, m.sourceErr
	}
	if m.source.ID() != id {
		return creator.Record{}, fmt.Errorf("creator %s: %w", id, domain.ErrCreatorNotFound)
	}
	return m.source, nil
}

func (m *mockRepo) SearchKNN(_ context.Context, _ []float32, k int) ([]creator.Scored, error) {
	m.knnCalled = true
	m.lastK = k
	return m.knnResults, m.knnErr
}

func (m *mockRepo) ByCategory(_ context.Context, category, excludeID string, _ int) ([]creator.Record, error) {
	m.catCalled = true
	m.lastCategory = category
	m.lastExclude = excludeID
	return m.catResults, m.catErr
}

func (m *mockRepo) SetSimilar(_ context.Context, id string, entries []creator.SimilarEntry, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.lastSetID = id
	m.lastSetEntries = entries
	return m.setErr
}

func newTestService(repo *mockRepo) *Service {
	svc := New(repo, zap.NewNop())
	// Run write-backs inline so tests can observe them deterministically.
	svc.spawn = func(fn func()) { fn() }
	return svc
}

func makeSimilarRequest(t *testing.T, id string, limit int) *request.SimilarRequest {
	t.Helper()
	r, err := request.NewSimilar(id, limit)
	if err != nil {
		t.Fatalf("request.NewSimilar: %v", err)
	}
	return &r
}

func makeRecord(t *testing.T, id, name string, published bool) creator.Record {
	t.Helper()
	rec, err := creator.New(id, name, "slug-"+id, published)
	if err != nil {
		t.Fatalf("make record %s: %v", id, err)
	}
	return rec
}

func withCategories(rec creator.Record, categories ...string) creator.Record {
	return rec.WithAttributes(categories, "", nil, "", nil, "")
}

// --- Stage 1: precomputed ---

func TestSimilar_PrecomputedTerminal(t *testing.T) {
	cached := []creator.SimilarEntry{
		{ID: "b", Score: 0.9, Slug: "slug-b", Name: "B"},
		{ID: "c", Score: 0.8, Slug: "slug-c", Name: "C"},
		{ID: "d", Score: 0.7, Slug: "slug-d", Name: "D"},
	}
	source := makeRecord(t, "a", "A", true).
		WithEmbedding([]float32{0.1, 0.2}).
		WithSimilar(cached, time.Now())
	repo := &mockRepo{source: source}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Precomputed || got.Fallback {
		t.Errorf("expected precomputed result, got %+v", got)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected limit-truncated 2 entries, got %d", len(got.Entries))
	}
	if got.Entries[0].ID != "b" || got.Entries[1].ID != "c" {
		t.Errorf("expected cached order [b c], got [%s %s]", got.Entries[0].ID, got.Entries[1].ID)
	}
	if repo.knnCalled {
		t.Error("KNN must not run when precomputed entries exist")
	}
	if repo.catCalled {
		t.Error("category fallback must not run when precomputed entries exist")
	}
	if repo.setCalls != 0 {
		t.Errorf("expected no write-back for precomputed, got %d", repo.setCalls)
	}
}

func TestSimilar_SourceNotFound(t *testing.T) {
	repo := &mockRepo{source: makeRecord(t, "other", "Other", true)}
	svc := newTestService(repo)

	_, err := svc.Similar(context.Background(), makeSimilarRequest(t, "missing", 5))
	if !errors.Is(err, domain.ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}
}

// --- Stage 2: live KNN ---

func TestSimilar_LiveKNN(t *testing.T) {
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1, 0.2})
	repo := &mockRepo{
		source: source,
		knnResults: []creator.Scored{
			{Record: makeRecord(t, "a", "A", true), Score: 1.0},
			{Record: makeRecord(t, "b", "B", true), Score: 0.9},
			{Record: makeRecord(t, "hidden", "Hidden", false), Score: 0.85},
			{Record: makeRecord(t, "c", "C", true), Score: 0.8},
		},
	}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Precomputed || got.Fallback {
		t.Errorf("expected live KNN result, got %+v", got)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected source and unpublished dropped, got %d entries", len(got.Entries))
	}
	if got.Entries[0].ID != "b" || got.Entries[1].ID != "c" {
		t.Errorf("expected [b c], got [%s %s]", got.Entries[0].ID, got.Entries[1].ID)
	}
	if got.Entries[0].Score != 0.9 || got.Entries[0].Slug != "slug-b" || got.Entries[0].Name != "B" {
		t.Errorf("expected entry fields carried over, got %+v", got.Entries[0])
	}
	if repo.lastK != 12 {
		t.Errorf("expected over-fetch 2*(limit+1) = 12, got %d", repo.lastK)
	}
	if repo.catCalled {
		t.Error("category fallback must not run after the KNN stage")
	}
}

func TestSimilar_LiveKNNWritesBack(t *testing.T) {
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1})
	repo := &mockRepo{
		source: source,
		knnResults: []creator.Scored{
			{Record: makeRecord(t, "b", "B", true), Score: 0.9},
		},
	}
	svc := newTestService(repo)

	if _, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.setCalls != 1 {
		t.Fatalf("expected one write-back, got %d", repo.setCalls)
	}
	if repo.lastSetID != "a" {
		t.Errorf("expected write-back onto source a, got %s", repo.lastSetID)
	}
	if len(repo.lastSetEntries) != 1 || repo.lastSetEntries[0].ID != "b" {
		t.Errorf("expected written entries [b], got %+v", repo.lastSetEntries)
	}
}

func TestSimilar_LiveKNNTruncatesToLimit(t *testing.T) {
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1})
	repo := &mockRepo{
		source: source,
		knnResults: []creator.Scored{
			{Record: makeRecord(t, "b", "B", true), Score: 0.9},
			{Record: makeRecord(t, "c", "C", true), Score: 0.8},
			{Record: makeRecord(t, "d", "D", true), Score: 0.7},
		},
	}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Entries))
	}
}

func TestSimilar_LiveKNNEmptyIsTerminal(t *testing.T) {
	// Even with zero usable candidates, an embedding on the source means the
	// vector stage answers; the category fallback never runs.
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1})
	source = withCategories(source, "gaming")
	repo := &mockRepo{
		source: source,
		knnResults: []creator.Scored{
			{Record: makeRecord(t, "a", "A", true), Score: 1.0},
			{Record: makeRecord(t, "hidden", "Hidden", false), Score: 0.9},
		},
	}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 0 {
		t.Fatalf("expected empty entries, got %+v", got.Entries)
	}
	if got.Fallback {
		t.Error("empty KNN stage must not report fallback")
	}
	if repo.catCalled {
		t.Error("category fallback must not run after the KNN stage")
	}
	if repo.setCalls != 0 {
		t.Errorf("expected no write-back for empty result, got %d", repo.setCalls)
	}
}

func TestSimilar_KNNErrorPropagates(t *testing.T) {
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1})
	repo := &mockRepo{source: source, knnErr: errors.New("store down")}
	svc := newTestService(repo)

	if _, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5)); err == nil {
		t.Fatal("expected KNN failure to propagate")
	}
}

func TestSimilar_WriteBackFailureAbsorbed(t *testing.T) {
	source := makeRecord(t, "a", "A", true).WithEmbedding([]float32{0.1})
	repo := &mockRepo{
		source: source,
		knnResults: []creator.Scored{
			{Record: makeRecord(t, "b", "B", true), Score: 0.9},
		},
		setErr: errors.New("store down"),
	}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5))
	if err != nil {
		t.Fatalf("expected success despite write-back failure: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
}

// --- Stage 3: category fallback ---

func TestSimilar_CategoryFallback(t *testing.T) {
	source := withCategories(makeRecord(t, "a", "A", true), "x")
	repo := &mockRepo{
		source:     source,
		catResults: []creator.Record{withCategories(makeRecord(t, "b", "B", true), "x")},
	}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Fallback || got.Precomputed {
		t.Errorf("expected fallback result, got %+v", got)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
	if got.Entries[0].ID != "b" || got.Entries[0].Score != 0 {
		t.Errorf("expected [{b, score 0}], got %+v", got.Entries[0])
	}
	if repo.lastCategory != "x" || repo.lastExclude != "a" {
		t.Errorf("expected category query (x, excluding a), got (%s, %s)",
			repo.lastCategory, repo.lastExclude)
	}
	if repo.knnCalled {
		t.Error("KNN must not run without an embedding")
	}
	if repo.setCalls != 0 {
		t.Errorf("expected no write-back for fallback, got %d", repo.setCalls)
	}
}

func TestSimilar_CategoryFallbackUsesFirstCategory(t *testing.T) {
	source := withCategories(makeRecord(t, "a", "A", true), "x", "y", "z")
	repo := &mockRepo{source: source}
	svc := newTestService(repo)

	if _, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastCategory != "x" {
		t.Errorf("expected first category x, got %s", repo.lastCategory)
	}
}

func TestSimilar_NoCategoryReturnsEmptyFallback(t *testing.T) {
	repo := &mockRepo{source: makeRecord(t, "a", "A", true)}
	svc := newTestService(repo)

	got, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Fallback {
		t.Error("expected fallback flag on empty result")
	}
	if len(got.Entries) != 0 {
		t.Errorf("expected no entries, got %+v", got.Entries)
	}
	if repo.knnCalled || repo.catCalled {
		t.Error("no resolution query should run without embedding or category")
	}
}

func TestSimilar_CategoryErrorPropagates(t *testing.T) {
	source := withCategories(makeRecord(t, "a", "A", true), "x")
	repo := &mockRepo{source: source, catErr: errors.New("store down")}
	svc := newTestService(repo)

	if _, err := svc.Similar(context.Background(), makeSimilarRequest(t, "a", 5)); err == nil {
		t.Fatal("expected category query failure to propagate")
	}
}
