package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, chain clients, and other
// infrastructure layers return these (optionally wrapped) so services can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write lost to a concurrent/previous owner
// - ErrInvalidState: entity in wrong state for requested operation (e.g. SOLD listing)
// - ErrUnavailable: collaborator (RPC node, redis, pinning service) unreachable
// - ErrTimeout: bounded wait elapsed without a definite answer
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
)
