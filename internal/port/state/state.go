// Package state defines the port for durable client-side session storage.
package state

import "context"

// Session storage keys. All three must be present and parse cleanly for a
// persisted session to be considered restorable.
const (
	KeyToken      = "auth_token"
	KeyTenantSlug = "tenant_slug"
	KeyUser       = "user"
)

// Store is the durable key-value storage behind the session manager.
// Only the session manager writes these keys; other readers must go through
// its accessors.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetMany writes all entries atomically: either every key is committed
	// or none is.
	SetMany(ctx context.Context, entries map[string]string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}
