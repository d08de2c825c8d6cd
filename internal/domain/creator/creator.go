// Package creator holds the creator-profile domain model: the immutable
// Record value object, the snapshot collection served by the cache, and the
// filter tuple applied to search and index operations.
package creator

import (
	"fmt"
	"regexp"
	"time"
)

var (
	idRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Profile is the nested free-text block of a creator record.
type Profile struct {
	displayName string
	shortBio    string
	bio         string
}

// NewProfile creates a Profile.
func NewProfile(displayName, shortBio, bio string) Profile {
	return Profile{displayName: displayName, shortBio: shortBio, bio: bio}
}

// DisplayName returns the public display name.
func (p Profile) DisplayName() string { return p.displayName }

// ShortBio returns the one-line bio.
func (p Profile) ShortBio() string { return p.shortBio }

// Bio returns the long-form bio.
func (p Profile) Bio() string { return p.bio }

// SimilarEntry is one precomputed similar-creator reference stored on a record.
type SimilarEntry struct {
	ID    string
	Score float64
	Slug  string
	Name  string
}

// Record is the creator aggregate (immutable value object).
// Records are never mutated after construction; refresh cycles replace whole
// snapshots instead, so a snapshot reference doubles as its version.
type Record struct {
	id         string
	name       string
	slug       string
	categories []string
	category   string
	topics     []string
	region     string
	languages  []string
	gender     string
	published  bool
	profile    Profile

	// Full-read fields, absent on lightweight projections.
	embedding         []float32
	similar           []SimilarEntry
	similarComputedAt time.Time
}

// RecordData is the hydration carrier for Reconstruct.
type RecordData struct {
	ID                string
	Name              string
	Slug              string
	Categories        []string
	Category          string
	Topics            []string
	Region            string
	Languages         []string
	Gender            string
	Published         bool
	Profile           Profile
	Embedding         []float32
	Similar           []SimilarEntry
	SimilarComputedAt time.Time
}

// New validates and creates a Record.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Slug: lowercase kebab-case.
func New(id, name, slug string, published bool) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("creator ID is required")
	}
	if len(id) > 256 {
		return Record{}, fmt.Errorf("creator ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("creator ID must be alphanumeric with underscores and hyphens")
	}
	if name == "" {
		return Record{}, fmt.Errorf("name is required")
	}
	if slug == "" {
		return Record{}, fmt.Errorf("slug is required")
	}
	if !slugRegex.MatchString(slug) {
		return Record{}, fmt.Errorf("slug must be lowercase kebab-case")
	}

	return Record{id: id, name: name, slug: slug, published: published}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(d RecordData) Record {
	return Record{
		id:                d.ID,
		name:              d.Name,
		slug:              d.Slug,
		categories:        d.Categories,
		category:          d.Category,
		topics:            d.Topics,
		region:            d.Region,
		languages:         d.Languages,
		gender:            d.Gender,
		published:         d.Published,
		profile:           d.Profile,
		embedding:         d.Embedding,
		similar:           d.Similar,
		similarComputedAt: d.SimilarComputedAt,
	}
}

// ID returns the stable creator identifier.
func (r *Record) ID() string { return r.id }

// Name returns the creator name.
func (r *Record) Name() string { return r.name }

// Slug returns the URL slug.
func (r *Record) Slug() string { return r.slug }

// Categories returns the ordered category set. Callers must not modify it.
func (r *Record) Categories() []string { return r.categories }

// Category returns the optional single category ("" when unset).
func (r *Record) Category() string { return r.category }

// Topics returns the topic list. Callers must not modify it.
func (r *Record) Topics() []string { return r.topics }

// Region returns the creator region.
func (r *Record) Region() string { return r.region }

// Languages returns the language set. Callers must not modify it.
func (r *Record) Languages() []string { return r.languages }

// Gender returns the creator gender ("" when unset).
func (r *Record) Gender() string { return r.gender }

// Published reports whether the record is publicly visible.
func (r *Record) Published() bool { return r.published }

// Profile returns the nested profile block.
func (r *Record) Profile() Profile { return r.profile }

// Embedding returns the embedding vector (nil on lightweight projections).
func (r Record) Embedding() []float32 { return r.embedding }

// Similar returns the precomputed similar-creator entries, if any.
func (r *Record) Similar() []SimilarEntry { return r.similar }

// SimilarComputedAt returns when the similar entries were resolved.
func (r *Record) SimilarComputedAt() time.Time { return r.similarComputedAt }

// FirstCategory returns the first entry of the category set, or "".
func (r *Record) FirstCategory() string {
	if len(r.categories) == 0 {
		return ""
	}
	return r.categories[0]
}

// WithAttributes returns a copy with the classification fields set.
func (r Record) WithAttributes(categories []string, category string, topics []string, region string, languages []string, gender string) Record {
	r.categories = categories
	r.category = category
	r.topics = topics
	r.region = region
	r.languages = languages
	r.gender = gender
	return r
}

// WithProfile returns a copy with the profile block set.
func (r Record) WithProfile(p Profile) Record {
	r.profile = p
	return r
}

// WithEmbedding returns a copy with the embedding vector set.
func (r Record) WithEmbedding(v []float32) Record {
	r.embedding = v
	return r
}

// WithoutEmbedding returns a copy with the embedding vector stripped.
// Search results carry records through this before leaving the engine.
func (r Record) WithoutEmbedding() Record {
	r.embedding = nil
	return r
}

// WithSimilar returns a copy with the similarity cache field set.
func (r Record) WithSimilar(entries []SimilarEntry, computedAt time.Time) Record {
	r.similar = entries
	r.similarComputedAt = computedAt
	return r
}
