package binding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a [Store] backed by Redis string keys with native expiry.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	space  string
}

// NewRedisStore builds a store whose keys are namespaced under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gg"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		space:  bindingSpace,
	}
}

// Namespace returns a store on the same client writing <prefix>:<space>:<key>.
func (s *RedisStore) Namespace(space string) Store {
	return &RedisStore{redis: s.redis, prefix: s.prefix, space: space}
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (s *RedisStore) Touch(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	ok, err := s.redis.Expire(ctx, s.key(key), ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrMiss
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Rebind writes value under newKey and removes oldKey inside MULTI/EXEC, so
// no observer sees both keys live or neither key live.
func (s *RedisStore) Rebind(ctx context.Context, oldKey, newKey, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(newKey), value, ttl)
		pipe.Del(ctx, s.key(oldKey))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// TTL reports the remaining lifetime of key. It exists for diagnostics and
// tests; the engine never reads expiry.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl < 0 {
		return 0, ErrMiss
	}
	return ttl, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + s.space + ":" + k
}
