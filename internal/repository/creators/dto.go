package creators

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// creatorDoc is the JSON document stored at cdx:creator:<id>.
type creatorDoc struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Slug              string       `json:"slug"`
	Categories        []string     `json:"categories,omitempty"`
	Category          string       `json:"category,omitempty"`
	Topics            []string     `json:"topics,omitempty"`
	Region            string       `json:"region,omitempty"`
	Languages         []string     `json:"languages,omitempty"`
	Gender            string       `json:"gender,omitempty"`
	Published         bool         `json:"published"`
	Profile           profileDoc   `json:"profile"`
	Embedding         []float32    `json:"embedding,omitempty"`
	Similar           []similarDoc `json:"similar,omitempty"`
	SimilarComputedAt int64        `json:"similar_computed_at,omitempty"`
}

type profileDoc struct {
	DisplayName string `json:"display_name,omitempty"`
	ShortBio    string `json:"short_bio,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

type similarDoc struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
}

func docFromRecord(r creator.Record) creatorDoc {
	doc := creatorDoc{
		ID:         r.ID(),
		Name:       r.Name(),
		Slug:       r.Slug(),
		Categories: r.Categories(),
		Category:   r.Category(),
		Topics:     r.Topics(),
		Region:     r.Region(),
		Languages:  r.Languages(),
		Gender:     r.Gender(),
		Published:  r.Published(),
		Profile: profileDoc{
			DisplayName: r.Profile().DisplayName(),
			ShortBio:    r.Profile().ShortBio(),
			Bio:         r.Profile().Bio(),
		},
		Embedding: r.Embedding(),
	}
	if sim := r.Similar(); len(sim) > 0 {
		doc.Similar = similarDocs(sim)
		doc.SimilarComputedAt = r.SimilarComputedAt().Unix()
	}
	return doc
}

func similarDocs(entries []creator.SimilarEntry) []similarDoc {
	out := make([]similarDoc, len(entries))
	for i, e := range entries {
		out[i] = similarDoc{ID: e.ID, Score: e.Score, Slug: e.Slug, Name: e.Name}
	}
	return out
}

func recordFromDoc(doc creatorDoc) creator.Record {
	var computedAt time.Time
	if doc.SimilarComputedAt > 0 {
		computedAt = time.Unix(doc.SimilarComputedAt, 0).UTC()
	}
	similar := make([]creator.SimilarEntry, len(doc.Similar))
	for i, s := range doc.Similar {
		similar[i] = creator.SimilarEntry{ID: s.ID, Score: s.Score, Slug: s.Slug, Name: s.Name}
	}
	if len(similar) == 0 {
		similar = nil
	}
	return creator.Reconstruct(creator.RecordData{
		ID:                doc.ID,
		Name:              doc.Name,
		Slug:              doc.Slug,
		Categories:        doc.Categories,
		Category:          doc.Category,
		Topics:            doc.Topics,
		Region:            doc.Region,
		Languages:         doc.Languages,
		Gender:            doc.Gender,
		Published:         doc.Published,
		Profile:           creator.NewProfile(doc.Profile.DisplayName, doc.Profile.ShortBio, doc.Profile.Bio),
		Embedding:         doc.Embedding,
		Similar:           similar,
		SimilarComputedAt: computedAt,
	})
}

// recordFromPathData parses a JSON.GET reply issued with an explicit "$"
// path, which wraps the document in a one-element array.
func recordFromPathData(data []byte) (creator.Record, error) {
	var docs []creatorDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return creator.Record{}, fmt.Errorf("decode creator document: %w", err)
	}
	if len(docs) == 0 {
		return creator.Record{}, fmt.Errorf("empty creator document")
	}
	return recordFromDoc(docs[0]), nil
}

// liteReturnFields is the RETURN clause of the lightweight projection, as
// raw FT.SEARCH tokens. Arrays come back JSON-encoded under DIALECT 2.
var liteReturnFields = []string{
	"$.id", "AS", "id",
	"$.name", "AS", "name",
	"$.slug", "AS", "slug",
	"$.categories", "AS", "categories",
	"$.category", "AS", "category",
	"$.topics", "AS", "topics",
	"$.region", "AS", "region",
	"$.languages", "AS", "languages",
	"$.gender", "AS", "gender",
	"$.published", "AS", "published",
	"$.profile.display_name", "AS", "display_name",
	"$.profile.short_bio", "AS", "short_bio",
	"$.profile.bio", "AS", "bio",
}

// recordFromFields hydrates a lightweight record from FT.SEARCH return
// fields. Absent fields stay zero; only the identifier is mandatory.
func recordFromFields(fields map[string]string) (creator.Record, error) {
	id := fields["id"]
	if id == "" {
		return creator.Record{}, fmt.Errorf("search entry missing id")
	}

	categories, err := parseStringArray(fields["categories"])
	if err != nil {
		return creator.Record{}, fmt.Errorf("creator %s: categories: %w", id, err)
	}
	topics, err := parseStringArray(fields["topics"])
	if err != nil {
		return creator.Record{}, fmt.Errorf("creator %s: topics: %w", id, err)
	}
	languages, err := parseStringArray(fields["languages"])
	if err != nil {
		return creator.Record{}, fmt.Errorf("creator %s: languages: %w", id, err)
	}

	published := false
	if raw := fields["published"]; raw != "" {
		published, err = strconv.ParseBool(raw)
		if err != nil {
			return creator.Record{}, fmt.Errorf("creator %s: published: %w", id, err)
		}
	}

	return creator.Reconstruct(creator.RecordData{
		ID:         id,
		Name:       fields["name"],
		Slug:       fields["slug"],
		Categories: categories,
		Category:   fields["category"],
		Topics:     topics,
		Region:     fields["region"],
		Languages:  languages,
		Gender:     fields["gender"],
		Published:  published,
		Profile:    creator.NewProfile(fields["display_name"], fields["short_bio"], fields["bio"]),
	}), nil
}

func parseStringArray(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
