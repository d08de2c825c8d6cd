// Package textindex implements a weighted fuzzy token index over small
// document sets. Documents carry named text fields with per-field weights;
// queries score in [0,1] where higher is better.
package textindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

const (
	// prefixCredit is the similarity granted when a query token is a
	// strict prefix of an indexed token and beats the fuzzy score.
	prefixCredit = 0.9
	// minPrefixLen keeps single characters from prefix-matching the
	// whole vocabulary.
	minPrefixLen = 2
)

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

// Hit is a single scored document.
type Hit struct {
	ID    string
	Score float64
}

// Index is a fuzzy token index. It is built once and read-only afterwards;
// concurrent Search calls are safe once building is done.
type Index struct {
	weights     map[string]float64
	maxWeight   float64
	threshold   float64
	fingerprint string

	ids       []string
	docTokens []map[string]float64
	postings  map[string]map[int]float64
}

// New creates an empty index. Weights map field names to relative
// importance; at least one must be positive. The threshold is the minimum
// Jaro-Winkler similarity for a fuzzy token match. The fingerprint
// identifies the document set the index was built from.
func New(weights map[string]float64, threshold float64, fingerprint string) (*Index, error) {
	if len(weights) == 0 {
		return nil, errors.New("textindex: no field weights")
	}
	w := make(map[string]float64, len(weights))
	var maxW float64
	for field, weight := range weights {
		w[field] = weight
		if weight > maxW {
			maxW = weight
		}
	}
	if maxW <= 0 {
		return nil, errors.New("textindex: all field weights are non-positive")
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("textindex: threshold must be in (0,1], got %v", threshold)
	}
	return &Index{
		weights:     w,
		maxWeight:   maxW,
		threshold:   threshold,
		fingerprint: fingerprint,
		postings:    make(map[string]map[int]float64),
	}, nil
}

// Add indexes one document. Fields absent from the weight map are ignored.
// Insertion order is the tie order for equal scores.
func (ix *Index) Add(id string, fields map[string]string) {
	tokens := make(map[string]float64)
	for field, text := range fields {
		weight, ok := ix.weights[field]
		if !ok || weight <= 0 {
			continue
		}
		for _, tok := range tokenize(text) {
			if weight > tokens[tok] {
				tokens[tok] = weight
			}
		}
	}
	ix.addTokens(id, tokens)
}

func (ix *Index) addTokens(id string, tokens map[string]float64) {
	doc := len(ix.ids)
	ix.ids = append(ix.ids, id)
	ix.docTokens = append(ix.docTokens, tokens)
	for tok, weight := range tokens {
		m := ix.postings[tok]
		if m == nil {
			m = make(map[int]float64)
			ix.postings[tok] = m
		}
		m[doc] = weight
	}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// Fingerprint returns the document-set identity the index was built from.
func (ix *Index) Fingerprint() string {
	return ix.fingerprint
}

// CompatibleWith reports whether the index was built with the same weights
// and threshold. Used to reject restored indices after a config change.
func (ix *Index) CompatibleWith(weights map[string]float64, threshold float64) bool {
	if ix.threshold != threshold || len(ix.weights) != len(weights) {
		return false
	}
	for field, w := range weights {
		if ix.weights[field] != w {
			return false
		}
	}
	return true
}

// Search returns up to limit documents scored against the query, sorted by
// descending score. Ties keep insertion order. A document's score is the
// mean over query tokens of its best token similarity scaled by the matched
// token's normalized field weight.
func (ix *Index) Search(query string, limit int) []Hit {
	qtokens := tokenize(query)
	if len(qtokens) == 0 || len(ix.ids) == 0 || limit <= 0 {
		return nil
	}

	scores := make([]float64, len(ix.ids))
	matched := make([]bool, len(ix.ids))
	best := make([]float64, len(ix.ids))
	for _, qt := range qtokens {
		for i := range best {
			best[i] = 0
		}
		for tok, docs := range ix.postings {
			sim := ix.tokenSim(qt, tok)
			if sim == 0 {
				continue
			}
			for doc, weight := range docs {
				if c := sim * (weight / ix.maxWeight); c > best[doc] {
					best[doc] = c
					matched[doc] = true
				}
			}
		}
		for i, b := range best {
			scores[i] += b
		}
	}

	n := float64(len(qtokens))
	hits := make([]Hit, 0, limit)
	for i, ok := range matched {
		if ok {
			hits = append(hits, Hit{ID: ix.ids[i], Score: scores[i] / n})
		}
	}
	// hits are already in insertion order, so a stable sort keeps
	// first-built documents ahead on equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (ix *Index) tokenSim(query, token string) float64 {
	if query == token {
		return 1
	}
	var sim float64
	if jw := smetrics.JaroWinkler(query, token, 0.7, 4); jw >= ix.threshold {
		sim = jw
	}
	if len(query) >= minPrefixLen && strings.HasPrefix(token, query) && prefixCredit > sim {
		sim = prefixCredit
	}
	return sim
}

func tokenize(text string) []string {
	var tokens []string
	for _, tok := range tokenSplitRe.Split(strings.ToLower(text), -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

type payload struct {
	Fingerprint string             `json:"fingerprint"`
	Threshold   float64            `json:"threshold"`
	Weights     map[string]float64 `json:"weights"`
	Docs        []docPayload       `json:"docs"`
}

type docPayload struct {
	ID     string             `json:"id"`
	Tokens map[string]float64 `json:"tokens"`
}

// Serialize encodes the index for distributed-cache storage.
func (ix *Index) Serialize() ([]byte, error) {
	p := payload{
		Fingerprint: ix.fingerprint,
		Threshold:   ix.threshold,
		Weights:     ix.weights,
		Docs:        make([]docPayload, len(ix.ids)),
	}
	for i, id := range ix.ids {
		p.Docs[i] = docPayload{ID: id, Tokens: ix.docTokens[i]}
	}
	return json.Marshal(p)
}

// Deserialize rebuilds a serialized index. Callers must still check
// Fingerprint and CompatibleWith before adopting it.
func Deserialize(data []byte) (*Index, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("textindex: decode: %w", err)
	}
	ix, err := New(p.Weights, p.Threshold, p.Fingerprint)
	if err != nil {
		return nil, err
	}
	for _, doc := range p.Docs {
		ix.addTokens(doc.ID, doc.Tokens)
	}
	return ix, nil
}
