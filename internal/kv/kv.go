// Package kv provides the string key-value persistence used by the identity
// layer. Keys are namespaced by the caller (role name, address). Backends are
// interchangeable: in-memory for tests and single-session use, redis for
// durable sessions.
package kv

import "context"

// Store is a minimal get/set/delete surface over string keys.
//
// Error contract:
// - Get returns ("", sentinel.ErrNotFound) for missing keys
// - infrastructure failures are wrapped sentinel.ErrUnavailable
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns all keys with the given prefix. Order is unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
