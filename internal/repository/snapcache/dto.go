package snapcache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// snapshotDoc is the distributed-cache mirror payload: the lightweight
// projection of every published creator, plus when it was saved.
type snapshotDoc struct {
	SavedAt int64       `json:"saved_at"`
	Records []recordDoc `json:"records"`
}

type recordDoc struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Categories  []string `json:"categories,omitempty"`
	Category    string   `json:"category,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Region      string   `json:"region,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Published   bool     `json:"published"`
	DisplayName string   `json:"display_name,omitempty"`
	ShortBio    string   `json:"short_bio,omitempty"`
	Bio         string   `json:"bio,omitempty"`
}

func marshalSnapshot(snap *creator.Snapshot) ([]byte, error) {
	records := snap.Records()
	doc := snapshotDoc{
		SavedAt: snap.LoadedAt().Unix(),
		Records: make([]recordDoc, len(records)),
	}
	for i := range records {
		r := &records[i]
		doc.Records[i] = recordDoc{
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
	return json.Marshal(doc)
}

// unmarshalSnapshot rebuilds a snapshot from mirror data. The adoption
// timestamp is loadedAt, not the mirror's save time; the local TTL clock
// restarts on adoption.
func unmarshalSnapshot(data []byte, loadedAt time.Time) (*creator.Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	records := make([]creator.Record, len(doc.Records))
	for i, r := range doc.Records {
		records[i] = creator.Reconstruct(creator.RecordData{
			ID:         r.ID,
			Name:       r.Name,
			Slug:       r.Slug,
			Categories: r.Categories,
			Category:   r.Category,
			Topics:     r.Topics,
			Region:     r.Region,
			Languages:  r.Languages,
			Gender:     r.Gender,
			Published:  r.Published,
			Profile:    creator.NewProfile(r.DisplayName, r.ShortBio, r.Bio),
		})
	}
	return creator.NewSnapshot(records, loadedAt), nil
}
