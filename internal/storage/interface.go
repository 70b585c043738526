package storage

import (
	"context"

	"github.com/julianstephens/routinely/internal/storage/sqlite"
)

// ErrNotInitialized is returned by Load when the backing store does not exist yet.
var ErrNotInitialized = sqlite.ErrNotInitialized

// KeyValueStore is the persistence contract the services depend on. Values
// are opaque strings; a missing key is reported through ok, not an error.
// Writes to different keys are not atomic with respect to each other.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type Provider interface {
	KeyValueStore

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Keys lists every stored key in ascending order
	Keys(ctx context.Context) ([]string, error)

	// Utils
	GetConfigPath() string
}
