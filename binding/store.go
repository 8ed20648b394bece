package binding

import (
	"context"
	"errors"
	"time"
)

// bindingSpace holds CSRF keys. Other namespaces must not reuse it.
const bindingSpace = "b"

var (
	// ErrMiss is returned when an entry is absent or expired.
	ErrMiss = errors.New("binding miss")
	// ErrUnavailable wraps every backend failure that is not a miss.
	ErrUnavailable = errors.New("binding store unavailable")
	// ErrInvalidTTL is returned for non-positive TTLs.
	ErrInvalidTTL = errors.New("binding ttl must be positive")
)

// Store is the key/value contract the engine relies on. Implementations must
// be safe for concurrent use.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Touch(ctx context.Context, key string, ttl time.Duration) error
	// Delete is idempotent; deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
}

// Rebinder is implemented by stores that can move a value to a new key and
// drop the old key in a single round trip.
type Rebinder interface {
	Rebind(ctx context.Context, oldKey, newKey, value string, ttl time.Duration) error
}

// Namespacer is implemented by stores that can hand out a sibling store on
// the same backend whose keys never collide with binding keys.
type Namespacer interface {
	Namespace(space string) Store
}
