// Package redisstore wraps the Redis client used for per-user rate
// limiting on the chat endpoints.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Allow counts one request for the user against a fixed one-minute window
// and reports whether they are within the limit.
func (s *Store) Allow(ctx context.Context, userID string, perMinute int) (bool, error) {
	key := fmt.Sprintf("ratelimit:chat:%s:%s", userID, time.Now().UTC().Format("200601021504"))

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// first hit in the window owns the expiry
		if err := s.rdb.Expire(ctx, key, 2*time.Minute).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(perMinute), nil
}
