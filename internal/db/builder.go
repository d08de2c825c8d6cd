package db

import (
	"errors"
	"fmt"
)

// IndexBuilder assembles an IndexDefinition with validation. Errors are
// collected and reported once from Build.
type IndexBuilder struct {
	def  IndexDefinition
	errs []error
}

// NewIndexBuilder starts a definition for the named index.
func NewIndexBuilder(name string) *IndexBuilder {
	b := &IndexBuilder{}
	if !IsValidIdentifier(name) {
		b.errs = append(b.errs, fmt.Errorf("invalid index name %q", name))
	}
	b.def.Name = name
	b.def.Storage = StorageJSON
	return b
}

// Prefix restricts the index to keys with the given prefix.
func (b *IndexBuilder) Prefix(prefix string) *IndexBuilder {
	if prefix == "" {
		b.errs = append(b.errs, errors.New("empty key prefix"))
	}
	b.def.Prefix = prefix
	return b
}

// Tag adds a tag field.
func (b *IndexBuilder) Tag(path, as string) *IndexBuilder {
	return b.field(IndexField{Name: path, As: as, Type: FieldTag})
}

// TagSeparated adds a multi-value tag field split on sep.
func (b *IndexBuilder) TagSeparated(path, as, sep string) *IndexBuilder {
	if len(sep) != 1 {
		b.errs = append(b.errs, fmt.Errorf("tag separator must be one character, got %q", sep))
	}
	return b.field(IndexField{Name: path, As: as, Type: FieldTag, Separator: sep})
}

// Text adds a full-text field.
func (b *IndexBuilder) Text(path, as string) *IndexBuilder {
	return b.field(IndexField{Name: path, As: as, Type: FieldText})
}

// VectorHNSW adds an HNSW vector field.
func (b *IndexBuilder) VectorHNSW(path, as string, dim int, metric DistanceMetric) *IndexBuilder {
	return b.vector(path, as, VectorHNSW, dim, metric)
}

// VectorFlat adds a flat (exact) vector field.
func (b *IndexBuilder) VectorFlat(path, as string, dim int, metric DistanceMetric) *IndexBuilder {
	return b.vector(path, as, VectorFlat, dim, metric)
}

func (b *IndexBuilder) vector(path, as string, algo VectorAlgorithm, dim int, metric DistanceMetric) *IndexBuilder {
	if dim <= 0 {
		b.errs = append(b.errs, fmt.Errorf("vector field %q: dimension must be positive, got %d", as, dim))
	}
	switch metric {
	case DistanceCosine, DistanceL2, DistanceIP:
	default:
		b.errs = append(b.errs, fmt.Errorf("vector field %q: unknown metric %q", as, metric))
	}
	return b.field(IndexField{Name: path, As: as, Type: FieldVector, Algorithm: algo, Dim: dim, Metric: metric})
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	if f.Name == "" {
		b.errs = append(b.errs, errors.New("empty field path"))
	}
	if !IsValidIdentifier(f.As) {
		b.errs = append(b.errs, fmt.Errorf("invalid field alias %q", f.As))
	}
	for _, existing := range b.def.Fields {
		if existing.As == f.As {
			b.errs = append(b.errs, fmt.Errorf("duplicate field alias %q", f.As))
		}
	}
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build returns the definition or the accumulated validation errors.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if len(b.def.Fields) == 0 {
		b.errs = append(b.errs, errors.New("index has no fields"))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	def := b.def
	return &def, nil
}
