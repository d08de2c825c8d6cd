package creator

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Snapshot is an immutable point-in-time collection of published creator
// records. Snapshots are replaced wholesale on refresh; pointer identity is
// the staleness signal downstream indices rely on.
type Snapshot struct {
	records     []Record
	byID        map[string]*Record
	loadedAt    time.Time
	fingerprint string
}

// NewSnapshot builds a Snapshot over the given records.
// The slice is owned by the snapshot afterwards.
func NewSnapshot(records []Record, loadedAt time.Time) *Snapshot {
	byID := make(map[string]*Record, len(records))
	h := sha256.New()
	for i := range records {
		byID[records[i].id] = &records[i]
		h.Write([]byte(records[i].id))
		h.Write([]byte{0})
	}
	return &Snapshot{
		records:     records,
		byID:        byID,
		loadedAt:    loadedAt,
		fingerprint: hex.EncodeToString(h.Sum(nil)),
	}
}

// Records returns the underlying record list. Callers must not modify it.
func (s *Snapshot) Records() []Record { return s.records }

// ByID returns the record with the given identifier, if present.
func (s *Snapshot) ByID(id string) (*Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// LoadedAt returns when the snapshot was adopted into this process.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Age returns the time elapsed since the snapshot was adopted.
func (s *Snapshot) Age() time.Duration { return time.Since(s.loadedAt) }

// Fingerprint is a digest over the record identifiers in order. Serialized
// keyword indices carry it so a restored index can be checked against the
// snapshot it is about to serve.
func (s *Snapshot) Fingerprint() string { return s.fingerprint }
