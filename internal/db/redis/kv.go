package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/fanlore-io/creatordex/internal/db"
)

// Get retrieves a plain value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.do(ctx, db.OpGet, s.b().Get().Key(key).Build())
	if err != nil {
		return nil, err
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, db.NewError(db.OpGet, err)
	}
	return data, nil
}

// Set stores a plain value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	_, err := s.do(ctx, db.OpSet, cmd)
	return err
}

// SetWithTTL stores a plain value that expires after ttlSeconds.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int64) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).ExSeconds(ttlSeconds).Build()
	_, err := s.do(ctx, db.OpSet, cmd)
	return err
}

// Del removes keys. Missing keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.do(ctx, db.OpDel, s.b().Del().Key(keys...).Build())
	return err
}

// Exists reports whether the key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.do(ctx, db.OpExists, s.b().Exists().Key(key).Build())
	if err != nil {
		return false, err
	}
	n, err := resp.AsInt64()
	if err != nil {
		return false, db.NewError(db.OpExists, err)
	}
	return n > 0, nil
}

// IncrBy atomically increments the integer at key and returns the new value.
func (s *Store) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	resp, err := s.do(ctx, db.OpIncrBy, s.b().Incrby().Key(key).Increment(delta).Build())
	if err != nil {
		return 0, err
	}
	n, err := resp.AsInt64()
	if err != nil {
		return 0, db.NewError(db.OpIncrBy, err)
	}
	return n, nil
}

// Expire sets a TTL on key. With nx true the TTL is only applied when the
// key has no expiry yet.
func (s *Store) Expire(ctx context.Context, key string, ttlSeconds int64, nx bool) (bool, error) {
	base := s.b().Expire().Key(key).Seconds(ttlSeconds)
	var cmd rueidis.Completed
	if nx {
		cmd = base.Nx().Build()
	} else {
		cmd = base.Build()
	}
	resp, err := s.do(ctx, db.OpExpire, cmd)
	if err != nil {
		return false, err
	}
	n, err := resp.AsInt64()
	if err != nil {
		return false, db.NewError(db.OpExpire, err)
	}
	return n == 1, nil
}
