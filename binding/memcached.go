package binding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	// memcached rejects keys longer than 250 bytes; refresh tokens are longer.
	maxMemcachedKey = 250
	// memcached reads expirations above 30 days as absolute unix times.
	maxRelativeExpiration = 30 * 24 * time.Hour
)

type memcacheClient interface {
	Set(item *memcache.Item) error
	Get(key string) (*memcache.Item, error)
	Touch(key string, seconds int32) error
	Delete(key string) error
}

// MemcachedStore is a [Store] backed by memcached.
type MemcachedStore struct {
	client memcacheClient
	prefix string
	space  string
	now    func() time.Time
}

func NewMemcachedStore(client *memcache.Client, prefix string) *MemcachedStore {
	return newMemcachedStore(client, prefix)
}

func newMemcachedStore(client memcacheClient, prefix string) *MemcachedStore {
	if prefix == "" {
		prefix = "gg"
	}
	return &MemcachedStore{client: client, prefix: prefix, space: bindingSpace, now: time.Now}
}

// Namespace returns a store on the same client writing <prefix>:<space>:<key>.
func (s *MemcachedStore) Namespace(space string) Store {
	return &MemcachedStore{client: s.client, prefix: s.prefix, space: space, now: s.now}
}

func (s *MemcachedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	err := s.client.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      []byte(value),
		Expiration: s.expiration(ttl),
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *MemcachedStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable(err)
	}
	item, err := s.client.Get(s.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return "", ErrMiss
		}
		return "", unavailable(err)
	}
	return string(item.Value), nil
}

func (s *MemcachedStore) Touch(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if err := s.client.Touch(s.key(key), s.expiration(ttl)); err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return ErrMiss
		}
		return unavailable(err)
	}
	return nil
}

func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if err := s.client.Delete(s.key(key)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return unavailable(err)
	}
	return nil
}

func (s *MemcachedStore) key(k string) string {
	full := s.prefix + ":" + s.space + ":" + k
	if len(full) <= maxMemcachedKey {
		return full
	}
	sum := sha256.Sum256([]byte(full))
	return s.prefix + ":h:" + hex.EncodeToString(sum[:])
}

// expiration rounds ttl up to whole seconds. TTLs past the 30 day window are
// sent as an absolute unix time.
func (s *MemcachedStore) expiration(ttl time.Duration) int32 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	if ttl > maxRelativeExpiration {
		secs += s.now().Unix()
	}
	return int32(secs)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
