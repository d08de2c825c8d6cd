package db

import "regexp"

// Storage selects the document type an index covers.
type Storage string

const (
	StorageJSON Storage = "JSON"
	StorageHash Storage = "HASH"
)

// FieldType is the index type of a single field.
type FieldType string

const (
	FieldTag    FieldType = "TAG"
	FieldText   FieldType = "TEXT"
	FieldVector FieldType = "VECTOR"
)

// VectorAlgorithm selects the ANN algorithm for a vector field.
type VectorAlgorithm string

const (
	VectorFlat VectorAlgorithm = "FLAT"
	VectorHNSW VectorAlgorithm = "HNSW"
)

// DistanceMetric selects the distance function for a vector field.
type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "COSINE"
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
)

// IndexField describes one indexed attribute.
type IndexField struct {
	// Name is the attribute path, e.g. "$.slug" for JSON storage.
	Name string
	// As aliases the attribute for query syntax. Required for JSON paths.
	As   string
	Type FieldType
	// Separator splits multi-value tag fields. Only valid for tags.
	Separator string
	// Vector options. Only valid for vector fields.
	Algorithm VectorAlgorithm
	Dim       int
	Metric    DistanceMetric
}

// IndexDefinition is a complete index schema.
type IndexDefinition struct {
	Name    string
	Prefix  string
	Storage Storage
	Fields  []IndexField
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_:-]*$`)

// IsValidIdentifier reports whether s is usable as an index or alias name.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}
