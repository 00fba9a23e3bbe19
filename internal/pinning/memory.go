package pinning

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"

	"lading/pkg/platform/sentinel"
)

// MemoryStore is a deterministic in-memory content store for tests and
// offline development. Addresses are CIDv1-shaped (base32 of the sha256) so
// they pass the same format validation as real ones.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	pinned  map[string]bool
}

// NewMemoryStore constructs an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		pinned:  make(map[string]bool),
	}
}

func (m *MemoryStore) Store(_ context.Context, data []byte, _ string, _ map[string]string) (string, error) {
	digest := sha256.Sum256(data)
	encoded := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(digest[:]))
	cid := "bafy" + encoded

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[cid] = stored
	return cid, nil
}

func (m *MemoryStore) Fetch(_ context.Context, cid string) ([]byte, error) {
	if !ValidCID(cid) {
		return nil, fmt.Errorf("malformed content address %q: %w", cid, sentinel.ErrNotFound)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[cid]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", cid, sentinel.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) Pin(_ context.Context, cid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[cid]; !ok {
		return fmt.Errorf("content %s: %w", cid, sentinel.ErrNotFound)
	}
	m.pinned[cid] = true
	return nil
}

// Pinned reports whether a cid has been pinned; test helper.
func (m *MemoryStore) Pinned(cid string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pinned[cid]
}
