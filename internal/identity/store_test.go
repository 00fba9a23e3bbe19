package identity

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"lading/internal/kv"
	"lading/internal/roles"
	"lading/pkg/platform/sentinel"
)

type IdentityStoreSuite struct {
	suite.Suite
	store *Store
}

func (s *IdentityStoreSuite) SetupTest() {
	s.store = NewStore(kv.NewMemory(), slog.New(slog.DiscardHandler))
}

func TestIdentityStoreSuite(t *testing.T) {
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) TestRoleAddressMappingIsInjective() {
	ctx := context.Background()

	s.store.AssignAddressToRole(ctx, roles.Exporter, "ADDR_A", nil)
	s.store.AssignAddressToRole(ctx, roles.Carrier, "ADDR_B", nil)

	exporter, ok := s.store.Identity(ctx, roles.Exporter)
	s.Require().True(ok)
	carrier, ok := s.store.Identity(ctx, roles.Carrier)
	s.Require().True(ok)
	s.NotEqual(exporter.Address, carrier.Address)

	// Reassigning ADDR_A to the carrier must strip it from the exporter.
	s.store.AssignAddressToRole(ctx, roles.Carrier, "ADDR_A", nil)

	_, ok = s.store.Identity(ctx, roles.Exporter)
	s.False(ok, "exporter should lose the address it no longer owns")
	carrier, ok = s.store.Identity(ctx, roles.Carrier)
	s.Require().True(ok)
	s.Equal("ADDR_A", carrier.Address)
}

func (s *IdentityStoreSuite) TestReassignmentLastWriteWins() {
	ctx := context.Background()
	s.store.AssignAddressToRole(ctx, roles.Exporter, "OLD", nil)
	s.store.AssignAddressToRole(ctx, roles.Exporter, "NEW", nil)

	ident, ok := s.store.Identity(ctx, roles.Exporter)
	s.Require().True(ok)
	s.Equal("NEW", ident.Address)
}

func (s *IdentityStoreSuite) TestSecretMaterialRoundTrip() {
	ctx := context.Background()
	secret := make([]byte, 64)
	for i := range secret {
		secret[i] = byte(i)
	}
	s.store.AssignAddressToRole(ctx, roles.Regulator, "ADDR_R", secret)

	ident, ok := s.store.Identity(ctx, roles.Regulator)
	s.Require().True(ok)
	s.True(ident.HasSecret())
	s.Equal(secret, []byte(ident.PrivateKey))
}

func (s *IdentityStoreSuite) TestActiveSessionPointer() {
	ctx := context.Background()

	_, ok := s.store.ActiveSession(ctx)
	s.False(ok, "pointer defaults to unset")

	changes, cancel := s.store.Subscribe()
	defer cancel()

	s.store.SetActive(ctx, roles.Exporter, "ADDR_A")
	session, ok := s.store.ActiveSession(ctx)
	s.Require().True(ok)
	s.Equal(roles.Exporter, session.Role)
	s.Equal("ADDR_A", session.Address)

	change := <-changes
	s.False(change.Cleared)
	s.Equal(roles.Exporter, change.Session.Role)

	s.store.ClearActive(ctx)
	_, ok = s.store.ActiveSession(ctx)
	s.False(ok)
	change = <-changes
	s.True(change.Cleared)
}

func (s *IdentityStoreSuite) TestWalletLabels() {
	ctx := context.Background()

	_, ok := s.store.LabelForAddress(ctx, "WALLET_X")
	s.False(ok)

	s.store.SetLabel(ctx, "WALLET_X", roles.Buyer1)
	label, ok := s.store.LabelForAddress(ctx, "WALLET_X")
	s.Require().True(ok)
	s.Equal(roles.Buyer1, label)

	// Labels are per address, not exclusive across addresses.
	s.store.SetLabel(ctx, "WALLET_Y", roles.Buyer1)
	label, ok = s.store.LabelForAddress(ctx, "WALLET_X")
	s.Require().True(ok)
	s.Equal(roles.Buyer1, label)
}

func (s *IdentityStoreSuite) TestClearAllErasesEverything() {
	ctx := context.Background()
	s.store.AssignAddressToRole(ctx, roles.Exporter, "ADDR_A", nil)
	s.store.SetLabel(ctx, "WALLET_X", roles.Buyer1)
	s.store.SetActive(ctx, roles.Exporter, "ADDR_A")

	s.store.ClearAll(ctx)

	_, ok := s.store.Identity(ctx, roles.Exporter)
	s.False(ok)
	_, ok = s.store.LabelForAddress(ctx, "WALLET_X")
	s.False(ok)
	_, ok = s.store.ActiveSession(ctx)
	s.False(ok)
}

// unavailableKV simulates a persistence backend that is down.
type unavailableKV struct{}

func (unavailableKV) Get(context.Context, string) (string, error) {
	return "", fmt.Errorf("backend down: %w", sentinel.ErrUnavailable)
}
func (unavailableKV) Set(context.Context, string, string) error {
	return fmt.Errorf("backend down: %w", sentinel.ErrUnavailable)
}
func (unavailableKV) Delete(context.Context, string) error {
	return fmt.Errorf("backend down: %w", sentinel.ErrUnavailable)
}
func (unavailableKV) Keys(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("backend down: %w", sentinel.ErrUnavailable)
}

func (s *IdentityStoreSuite) TestUnavailableBackendReadsAsUnset() {
	ctx := context.Background()
	store := NewStore(unavailableKV{}, slog.New(slog.DiscardHandler))

	// Writes are no-ops, reads report unset; no errors surface.
	store.AssignAddressToRole(ctx, roles.Exporter, "ADDR_A", nil)
	_, ok := store.Identity(ctx, roles.Exporter)
	s.False(ok)

	store.SetActive(ctx, roles.Exporter, "ADDR_A")
	_, ok = store.ActiveSession(ctx)
	s.False(ok)

	store.ClearAll(ctx)
}
