package ports

import "context"

// KeyValueStore is the durable medium behind the selection: a string value per key.
type KeyValueStore interface {
	// Get returns the value for key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
