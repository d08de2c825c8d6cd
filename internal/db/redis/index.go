package redis

import (
	"context"
	"strconv"

	"github.com/fanlore-io/creatordex/internal/db"
)

// CreateIndex creates a search index from the definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args := buildCreateArgs(def)
	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.NewError(db.OpFTCreate, db.ErrIndexExists)
		}
		return db.NewError(db.OpFTCreate, err)
	}
	return nil
}

// DropIndex removes a search index. Documents are left intact.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return db.NewError(db.OpFTDrop, db.ErrIndexNotFound)
		}
		return db.NewError(db.OpFTDrop, err)
	}
	return nil
}

// IndexExists reports whether the named index exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, db.NewError(db.OpFTInfo, err)
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) []string {
	args := []string{def.Name, "ON", string(def.Storage), "PREFIX", "1", def.Prefix, "SCHEMA"}
	for _, f := range def.Fields {
		args = append(args, f.Name, "AS", f.As)
		switch f.Type {
		case db.FieldTag:
			args = append(args, "TAG")
			if f.Separator != "" {
				args = append(args, "SEPARATOR", f.Separator)
			}
		case db.FieldText:
			args = append(args, "TEXT")
		case db.FieldVector:
			args = append(args,
				"VECTOR", string(f.Algorithm), "6",
				"TYPE", "FLOAT32",
				"DIM", strconv.Itoa(f.Dim),
				"DISTANCE_METRIC", string(f.Metric),
			)
		default:
			args = append(args, string(f.Type))
		}
	}
	return args
}
