// pkg/kvstore/kvstore.go
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a transient key-value store with per-key expiration. Values are
// short-lived (OAuth state tokens, one-shot credential handoffs); nothing in
// it is durable.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
