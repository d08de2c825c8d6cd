package creator

import "strings"

// filterKeyDelim joins the filter tuple into a cache key. Filter values come
// from a controlled vocabulary; a value containing the delimiter would
// collide, which is accepted here rather than escaped.
const filterKeyDelim = "|"

// Filters is the conjunctive filter tuple applied to searches.
// Empty string means the dimension is unset.
type Filters struct {
	Category string
	Region   string
	Language string
	Gender   string
}

// Empty reports whether no dimension is set.
func (f Filters) Empty() bool {
	return f.Category == "" && f.Region == "" && f.Language == "" && f.Gender == ""
}

// Key derives the deterministic cache key for this tuple.
func (f Filters) Key() string {
	return strings.Join([]string{f.Category, f.Region, f.Language, f.Gender}, filterKeyDelim)
}

// Match reports whether the record satisfies every set dimension.
// Category and Language match against the record's sets; Region and Gender
// are equality checks.
func (f Filters) Match(r *Record) bool {
	if f.Category != "" && !containsString(r.Categories(), f.Category) && r.Category() != f.Category {
		return false
	}
	if f.Region != "" && r.Region() != f.Region {
		return false
	}
	if f.Language != "" && !containsString(r.Languages(), f.Language) {
		return false
	}
	if f.Gender != "" && r.Gender() != f.Gender {
		return false
	}
	return true
}

// FilterRecords applies the filter tuple to a record list without mutating it.
func FilterRecords(records []Record, f Filters) []Record {
	if f.Empty() {
		return records
	}
	out := make([]Record, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
