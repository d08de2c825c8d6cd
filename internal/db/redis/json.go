package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/fanlore-io/creatordex/internal/db"
)

// JSONSet stores data at path within a JSON document.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().JsonSet().Key(key).Path(path).Value(rueidis.BinaryString(data)).Build()
	_, err := s.do(ctx, db.OpJSONSet, cmd)
	return err
}

// JSONSetMulti applies several JSONSet operations in one round trip.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if len(items) == 0 {
		return nil
	}
	cmds := make(rueidis.Commands, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, s.b().JsonSet().Key(it.Key).Path(it.Path).Value(rueidis.BinaryString(it.Data)).Build())
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return db.NewError(db.OpJSONSet, err)
		}
	}
	return nil
}

// JSONGet retrieves parts of a JSON document. With no paths the root
// document is returned.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	b := s.b().JsonGet().Key(key)
	var cmd rueidis.Completed
	if len(paths) > 0 {
		cmd = b.Path(paths...).Build()
	} else {
		cmd = b.Build()
	}
	resp, err := s.do(ctx, db.OpJSONGet, cmd)
	if err != nil {
		return nil, err
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, db.NewError(db.OpJSONGet, err)
	}
	return data, nil
}

// JSONGetMulti retrieves the same path from several documents in one round
// trip. Missing documents yield a nil entry.
func (s *Store) JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make(rueidis.Commands, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, s.b().JsonGet().Key(key).Path(path).Build())
	}
	out := make([][]byte, len(keys))
	for i, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, db.NewError(db.OpJSONGet, err)
		}
		data, err := resp.AsBytes()
		if err != nil {
			return nil, db.NewError(db.OpJSONGet, err)
		}
		out[i] = data
	}
	return out, nil
}
