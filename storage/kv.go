package storage

import "context"

// KV is the durable key-value collaborator the ledger and user store
// persist through. Implementations must be safe for concurrent use;
// serialization of read-modify-write cycles is the caller's concern.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}
