package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"lading/internal/kv"
	"lading/internal/roles"
	"lading/pkg/platform/sentinel"
)

// Key namespaces inside the kv backend. Role mappings and wallet labels are
// intentionally separate: a label never carries secret material.
const (
	identityPrefix = "identity:"
	labelPrefix    = "label:"
	activeKey      = "session:active"
)

// storedIdentity is the kv wire format. Secret material is base64; it is only
// ever present on the private-network path.
type storedIdentity struct {
	Role    string `json:"role"`
	Address string `json:"address"`
	Secret  string `json:"secret,omitempty"`
}

// Store is the durable role→identity mapping plus the active session pointer.
//
// Failure semantics: when the kv backend is unavailable, reads report "unset"
// and writes are no-ops. Callers must treat "no identity" as a valid, common
// state, not an error.
type Store struct {
	kv     kv.Store
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]chan SessionChange
	next int
}

// NewStore constructs a Store over the given kv backend.
func NewStore(backend kv.Store, logger *slog.Logger) *Store {
	return &Store{
		kv:     backend,
		logger: logger,
		subs:   make(map[int]chan SessionChange),
	}
}

// AssignAddressToRole writes the role→identity mapping. Any other role
// currently owning the address is unassigned first, keeping the role→address
// mapping injective. Re-assignment is not an error; last write wins.
func (s *Store) AssignAddressToRole(ctx context.Context, role roles.Role, address string, secret ed25519.PrivateKey) {
	for _, other := range roles.All() {
		if other == role {
			continue
		}
		existing, ok := s.Identity(ctx, other)
		if ok && existing.Address == address {
			s.delete(ctx, identityPrefix+other.String())
		}
	}

	rec := storedIdentity{Role: role.String(), Address: address}
	if len(secret) > 0 {
		rec.Secret = base64.StdEncoding.EncodeToString(secret)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal identity", "role", role, "error", err)
		return
	}
	s.set(ctx, identityPrefix+role.String(), string(raw))
}

// Identity returns the identity assigned to a role, if any.
func (s *Store) Identity(ctx context.Context, role roles.Role) (Identity, bool) {
	raw, ok := s.get(ctx, identityPrefix+role.String())
	if !ok {
		return Identity{}, false
	}
	var rec storedIdentity
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.WarnContext(ctx, "corrupt identity record", "role", role, "error", err)
		return Identity{}, false
	}
	ident := Identity{Role: role, Address: rec.Address}
	if rec.Secret != "" {
		sk, err := base64.StdEncoding.DecodeString(rec.Secret)
		if err != nil {
			s.logger.WarnContext(ctx, "corrupt secret material", "role", role, "error", err)
			return Identity{}, false
		}
		ident.PrivateKey = ed25519.PrivateKey(sk)
	}
	return ident, true
}

// SetActive overwrites the active session pointer and notifies subscribers so
// dependent readers never poll for role changes.
func (s *Store) SetActive(ctx context.Context, role roles.Role, address string) {
	raw, err := json.Marshal(storedIdentity{Role: role.String(), Address: address})
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal active session", "role", role, "error", err)
		return
	}
	s.set(ctx, activeKey, string(raw))
	s.notify(SessionChange{Session: Session{Role: role, Address: address}})
}

// ActiveSession returns the current active session pointer, if set.
func (s *Store) ActiveSession(ctx context.Context) (Session, bool) {
	raw, ok := s.get(ctx, activeKey)
	if !ok {
		return Session{}, false
	}
	var rec storedIdentity
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.WarnContext(ctx, "corrupt active session record", "error", err)
		return Session{}, false
	}
	return Session{Role: roles.Role(rec.Role), Address: rec.Address}, true
}

// ClearActive unsets the active session pointer (wallet disconnect).
func (s *Store) ClearActive(ctx context.Context) {
	s.delete(ctx, activeKey)
	s.notify(SessionChange{Cleared: true})
}

// SetLabel remembers which role an external wallet address last acted as.
// The association is a label, not ownership.
func (s *Store) SetLabel(ctx context.Context, address string, role roles.Role) {
	s.set(ctx, labelPrefix+address, role.String())
}

// LabelForAddress returns the remembered role label for an external address.
func (s *Store) LabelForAddress(ctx context.Context, address string) (roles.Role, bool) {
	raw, ok := s.get(ctx, labelPrefix+address)
	if !ok {
		return "", false
	}
	role := roles.Role(raw)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// ClearAll erases every role mapping, wallet label, and the active session
// pointer. Irreversible; callers must confirm before invoking.
func (s *Store) ClearAll(ctx context.Context) {
	for _, prefix := range []string{identityPrefix, labelPrefix} {
		keys, err := s.kv.Keys(ctx, prefix)
		if err != nil {
			s.logger.WarnContext(ctx, "kv keys unavailable during clear", "prefix", prefix, "error", err)
			continue
		}
		for _, k := range keys {
			s.delete(ctx, k)
		}
	}
	s.delete(ctx, activeKey)
	s.notify(SessionChange{Cleared: true})
}

// Subscribe registers for session change notifications. The returned cancel
// function must be called to release the subscription. Slow subscribers miss
// intermediate changes rather than blocking role switches.
func (s *Store) Subscribe() (<-chan SessionChange, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan SessionChange, 8)
	s.subs[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Store) notify(change SessionChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "kv read unavailable", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (s *Store) set(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "kv write dropped", "key", key, "error", err)
	}
}

func (s *Store) delete(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "kv delete dropped", "key", key, "error", err)
	}
}
