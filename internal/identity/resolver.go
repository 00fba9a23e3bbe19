package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"lading/internal/roles"
	dErrors "lading/pkg/domain-errors"
)

// SignerFunc produces signed transaction bytes for a transaction list.
// A nil indices slice means "sign all". Entries not selected are returned as
// nil placeholders at the same index, so a caller assembling a mixed-signer
// group always gets an aligned result slice.
//
// Signers are capabilities, not data: they must be re-resolved from the
// Source immediately before use, never cached across role switches.
type SignerFunc func(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error)

// Source is the single seam the orchestrator depends on. It decouples "which
// network mode" from "how do I get a signer". Implementations return ok=false
// rather than an error when no identity is connected; callers translate that
// into a connect/select prompt.
type Source interface {
	ActiveAddress(ctx context.Context) (string, bool)
	ActiveRole(ctx context.Context) (roles.Role, bool)
	Signer(ctx context.Context) (SignerFunc, bool)
	SwitchToRole(ctx context.Context, role roles.Role) error
}

// selected normalizes an indices slice into a membership test over n entries.
func selected(indices []int, n int) map[int]bool {
	if indices == nil {
		all := make(map[int]bool, n)
		for i := 0; i < n; i++ {
			all[i] = true
		}
		return all
	}
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}

// LocalSource resolves identities from provisioned local keypairs on the
// private network. Signing happens in-process with the role's held secret.
type LocalSource struct {
	store  *Store
	logger *slog.Logger
}

// NewLocalSource constructs the private-network identity source.
func NewLocalSource(store *Store, logger *slog.Logger) *LocalSource {
	return &LocalSource{store: store, logger: logger}
}

func (s *LocalSource) ActiveAddress(ctx context.Context) (string, bool) {
	session, ok := s.store.ActiveSession(ctx)
	if !ok {
		return "", false
	}
	return session.Address, true
}

func (s *LocalSource) ActiveRole(ctx context.Context) (roles.Role, bool) {
	session, ok := s.store.ActiveSession(ctx)
	if !ok || !session.Role.IsValid() {
		return "", false
	}
	return session.Role, true
}

// Signer resolves the current active role's keypair. The resolution happens
// here, at call time: a signer obtained before a role switch signs with the
// old key, which is why every operation re-resolves first.
func (s *LocalSource) Signer(ctx context.Context) (SignerFunc, bool) {
	session, ok := s.store.ActiveSession(ctx)
	if !ok {
		return nil, false
	}
	ident, ok := s.store.Identity(ctx, session.Role)
	if !ok || !ident.HasSecret() {
		return nil, false
	}
	sk := ident.PrivateKey

	return func(_ context.Context, txns []types.Transaction, indices []int) ([][]byte, error) {
		pick := selected(indices, len(txns))
		out := make([][]byte, len(txns))
		for i, txn := range txns {
			if !pick[i] {
				continue
			}
			_, stx, err := crypto.SignTransaction(sk, txn)
			if err != nil {
				return nil, fmt.Errorf("sign txn %d: %w", i, err)
			}
			out[i] = stx
		}
		return out, nil
	}, true
}

// SwitchToRole makes the given provisioned role the active identity. The
// change is immediate local state and propagates through the store's change
// notification before the next orchestrated operation begins.
func (s *LocalSource) SwitchToRole(ctx context.Context, role roles.Role) error {
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	ident, ok := s.store.Identity(ctx, role)
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "role %s has no provisioned identity", role)
	}
	s.store.SetActive(ctx, role, ident.Address)
	s.logger.InfoContext(ctx, "switched active role", "role", role, "address", ident.Address)
	return nil
}

// WalletClient is the external wallet collaborator on the public network.
// Untrusted with respect to timing (the user may cancel or delay
// indefinitely), trusted with respect to the signatures it produces.
//
// SignTransactions receives msgpack-encoded unsigned transactions and must
// return a result slice aligned with the input, nil for unsigned entries.
type WalletClient interface {
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	SignTransactions(ctx context.Context, txns [][]byte, indices []int) ([][]byte, error)
}

// WalletSource resolves identities from an externally-connected wallet on the
// public network. It cannot change which address is active; switching roles
// only records a remembered label for the connected address.
type WalletSource struct {
	wallet WalletClient
	store  *Store
	logger *slog.Logger

	mu        sync.RWMutex
	connected string
}

// NewWalletSource constructs the public-network identity source.
func NewWalletSource(wallet WalletClient, store *Store, logger *slog.Logger) *WalletSource {
	return &WalletSource{wallet: wallet, store: store, logger: logger}
}

// Connect asks the wallet for its active address. If the address carries a
// remembered role label from a previous session, the session pointer is
// restored immediately.
func (s *WalletSource) Connect(ctx context.Context) (string, error) {
	address, err := s.wallet.Connect(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeConnectivity, "wallet connect failed")
	}
	if _, err := types.DecodeAddress(address); err != nil {
		return "", dErrors.Newf(dErrors.CodeValidation, "wallet returned invalid address %q", address)
	}

	s.mu.Lock()
	s.connected = address
	s.mu.Unlock()

	if label, ok := s.store.LabelForAddress(ctx, address); ok {
		s.store.SetActive(ctx, label, address)
	}
	s.logger.InfoContext(ctx, "wallet connected", "address", address)
	return address, nil
}

// Disconnect drops the wallet session and clears the active pointer.
func (s *WalletSource) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = ""
	s.mu.Unlock()

	if err := s.wallet.Disconnect(ctx); err != nil {
		s.logger.WarnContext(ctx, "wallet disconnect failed", "error", err)
	}
	s.store.ClearActive(ctx)
	return nil
}

func (s *WalletSource) ActiveAddress(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.connected == "" {
		return "", false
	}
	return s.connected, true
}

func (s *WalletSource) ActiveRole(ctx context.Context) (roles.Role, bool) {
	s.mu.RLock()
	address := s.connected
	s.mu.RUnlock()
	if address == "" {
		return "", false
	}
	return s.store.LabelForAddress(ctx, address)
}

// Signer delegates to the connected wallet. The wallet prompt may take
// arbitrarily long; the passed context bounds the wait.
func (s *WalletSource) Signer(context.Context) (SignerFunc, bool) {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	if connected == "" {
		return nil, false
	}

	return func(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error) {
		encoded := make([][]byte, len(txns))
		for i, txn := range txns {
			encoded[i] = msgpack.Encode(&txn)
		}
		signed, err := s.wallet.SignTransactions(ctx, encoded, indices)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConnectivity, "wallet signing failed")
		}
		if len(signed) != len(txns) {
			return nil, dErrors.Newf(dErrors.CodeInternal,
				"wallet returned %d results for %d transactions", len(signed), len(txns))
		}
		return signed, nil
	}, true
}

// SwitchToRole records a role label for the connected address and persists it
// per address so the association survives sessions. It cannot change which
// address is active; only a wallet disconnect/reconnect can do that.
func (s *WalletSource) SwitchToRole(ctx context.Context, role roles.Role) error {
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	s.mu.RLock()
	address := s.connected
	s.mu.RUnlock()
	if address == "" {
		return dErrors.New(dErrors.CodeNoIdentity, "no wallet connected")
	}
	s.store.SetLabel(ctx, address, role)
	s.store.SetActive(ctx, role, address)
	s.logger.InfoContext(ctx, "labeled wallet address", "role", role, "address", address)
	return nil
}
