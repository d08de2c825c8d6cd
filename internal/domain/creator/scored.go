package creator

// Scored pairs a record with a single-path similarity score in [0,1].
// Both search paths produce these before the merge step combines them.
type Scored struct {
	Record Record
	Score  float64
}
