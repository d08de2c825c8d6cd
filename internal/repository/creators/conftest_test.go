package creators

import (
	"context"
	"fmt"

	"github.com/fanlore-io/creatordex/internal/db"
)

// fakeStore implements the package's store interface with canned replies.
type fakeStore struct {
	jsonDocs map[string][]byte // key -> JSON.GET "$" reply

	tagResults []*db.SearchResult // popped per SearchTags call
	tagErr     error
	tagQueries []*db.TagQuery

	knnResult *db.SearchResult
	knnErr    error
	knnQuery  *db.KNNQuery

	countResult int
	countErr    error

	setItems  [][]db.JSONSetItem
	setErr    error
	jsonSets  []string // "key path" per JSONSet call
	jsonGetErr error

	indexExists bool
	existsErr   error
	createdDef  *db.IndexDefinition
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{jsonDocs: make(map[string][]byte)}
}

func (f *fakeStore) JSONSet(_ context.Context, key, path string, data []byte) error {
	f.jsonSets = append(f.jsonSets, key+" "+path)
	f.jsonDocs[key] = data
	return f.setErr
}

func (f *fakeStore) JSONSetMulti(_ context.Context, items []db.JSONSetItem) error {
	f.setItems = append(f.setItems, items)
	return f.setErr
}

func (f *fakeStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if f.jsonGetErr != nil {
		return nil, f.jsonGetErr
	}
	data, ok := f.jsonDocs[key]
	if !ok {
		return nil, db.NewError(db.OpJSONGet, db.ErrKeyNotFound)
	}
	return data, nil
}

func (f *fakeStore) JSONGetMulti(_ context.Context, keys []string, _ string) ([][]byte, error) {
	if f.jsonGetErr != nil {
		return nil, f.jsonGetErr
	}
	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = f.jsonDocs[key] // nil for missing
	}
	return out, nil
}

func (f *fakeStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.knnQuery = q
	if f.knnErr != nil {
		return nil, f.knnErr
	}
	if f.knnResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.knnResult, nil
}

func (f *fakeStore) SearchTags(_ context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	f.tagQueries = append(f.tagQueries, q)
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	if len(f.tagResults) == 0 {
		return &db.SearchResult{}, nil
	}
	res := f.tagResults[0]
	f.tagResults = f.tagResults[1:]
	return res, nil
}

func (f *fakeStore) Count(_ context.Context, _ *db.TagQuery) (int, error) {
	return f.countResult, f.countErr
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.createdDef = def
	return f.createErr
}

func (f *fakeStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return f.indexExists, f.existsErr
}

// liteFields builds an FT.SEARCH return-field map for a published creator.
func liteFields(id string) map[string]string {
	return map[string]string{
		"id":           id,
		"name":         "Name " + id,
		"slug":         "slug-" + id,
		"categories":   fmt.Sprintf(`["cat-%s"]`, id),
		"topics":       `["topic"]`,
		"languages":    `["en"]`,
		"region":       "EU",
		"published":    "true",
		"display_name": "Display " + id,
	}
}
