// Package redis implements db.Store on top of Redis Stack using rueidis.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/fanlore-io/creatordex/internal/db"
)

// Config holds connection settings for a Redis backend.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store backed by Redis Stack (RedisJSON + RediSearch).
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis and returns a Store.
func NewStore(cfg Config) (*Store, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
		// Client-side caching is not used; the engine layers its own caches.
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreForTest wraps an existing rueidis client, typically a mock.
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func (s *Store) do(ctx context.Context, op string, cmd rueidis.Completed) (rueidis.RedisResult, error) {
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return resp, db.NewError(op, db.ErrKeyNotFound)
		}
		return resp, db.NewError(op, err)
	}
	return resp, nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, db.OpPing, s.b().Ping().Build())
	if err != nil {
		return err
	}
	msg, err := resp.ToString()
	if err != nil {
		return db.NewError(db.OpPing, err)
	}
	if msg != "PONG" {
		return db.NewError(db.OpPing, fmt.Errorf("unexpected reply %q", msg))
	}
	return nil
}

// WaitForReady polls the store until it responds or ctx expires.
func (s *Store) WaitForReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("store not ready: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the underlying connection.
func (s *Store) Close() {
	s.client.Close()
}

// isRedisErr reports whether err is a Redis error containing substr,
// case-insensitively. Used to classify FT module errors.
func isRedisErr(err error, substr string) bool {
	if err == nil {
		return false
	}
	return containsIgnoreCase(err.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
