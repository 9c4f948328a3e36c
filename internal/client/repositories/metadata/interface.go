// Package metadata is the client's durable key/value store. It holds the
// persisted session (bearer token and user record) and plays the role a
// browser's local storage plays for a web client.
package metadata

import (
	"context"
)

// Repository reads and writes raw values by key.
// Get returns (nil, nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// SetMany and DeleteMany apply all keys in one transaction.
	SetMany(ctx context.Context, values map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
}
