package search

import (
	"sort"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/match"
)

// mergeScored blends the two result sets over the union of their identifiers.
// combined(d) = w*semantic(d) + (1-w)*keyword(d), where a side that did not
// return d contributes 0. When a creator appears in both lists, the
// semantic-path record is kept. Output is sorted by combined score descending
// (ties keep first-seen order) and truncated to limit.
func mergeScored(sem, kw []creator.Scored, w float64, limit int) []match.Match {
	type scores struct {
		rec     creator.Record
		sem, kw float64
	}

	order := make([]string, 0, len(sem)+len(kw))
	byID := make(map[string]*scores, len(sem)+len(kw))

	for _, c := range sem {
		id := c.Record.ID()
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = &scores{rec: c.Record, sem: c.Score}
		order = append(order, id)
	}
	for _, c := range kw {
		id := c.Record.ID()
		if existing, ok := byID[id]; ok {
			existing.kw = c.Score
			continue
		}
		byID[id] = &scores{rec: c.Record, kw: c.Score}
		order = append(order, id)
	}

	out := make([]match.Match, 0, len(order))
	for _, id := range order {
		s := byID[id]
		combined := w*s.sem + (1-w)*s.kw
		out = append(out, match.New(s.rec, s.sem, s.kw, combined))
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CombinedScore() > out[b].CombinedScore()
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
