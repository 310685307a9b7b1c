// Package cache provides result caching for layout and detection runs.
//
// A graph snapshot is pure input: the same action applied to the same
// snapshot always yields the same result, so results are cached under a key
// derived from the action name and a hash of the canonical graph JSON.
//
// Backends:
//   - FileCache: directory-backed, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - MongoCache: persistent cache with TTL-indexed expiry
//   - NullCache: disables caching
package cache

import (
	"context"
	"time"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache stores serialized results under string keys. Implementations must be
// safe for concurrent use. A zero ttl means the entry never expires.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given time-to-live.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// Key Derivation
// =============================================================================

// Keyer derives cache keys from request content.
type Keyer interface {
	// ResultKey derives the key for an action applied to a graph snapshot,
	// identified by the hash of its canonical JSON.
	ResultKey(action, graphHash string) string
}

// DefaultKeyer derives content-addressed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ResultKey generates a key for a cached action result.
func (k *DefaultKeyer) ResultKey(action, graphHash string) string {
	return hashKey("result", action, graphHash)
}
