package identity

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/suite"

	"lading/internal/chain"
	"lading/internal/kv"
	"lading/internal/roles"
	dErrors "lading/pkg/domain-errors"
)

// fakeChain is an in-memory ledger good enough for funding flows: it records
// submissions, confirms instantly, and credits balances from payment txns.
type fakeChain struct {
	mu        sync.Mutex
	balances  map[string]uint64
	submitted int
	// failFundingFor makes submissions to these receivers fail.
	failFundingFor map[string]bool
	paramsErr      error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:       make(map[string]uint64),
		failFundingFor: make(map[string]bool),
	}
}

func (f *fakeChain) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	if f.paramsErr != nil {
		return types.SuggestedParams{}, f.paramsErr
	}
	return testParams(), nil
}

func (f *fakeChain) SendRawTransaction(_ context.Context, stx []byte) (string, error) {
	var signed types.SignedTxn
	if err := msgpack.Decode(stx, &signed); err != nil {
		return "", fmt.Errorf("decode submitted txn: %v", err)
	}
	receiver := signed.Txn.Receiver.String()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFundingFor[receiver] {
		return "", errors.New("node rejected submission")
	}
	f.submitted++
	f.balances[receiver] += uint64(signed.Txn.Amount)
	return crypto.GetTxID(signed.Txn), nil
}

func (f *fakeChain) WaitForConfirmation(_ context.Context, _ string, _ uint64) (chain.Confirmation, error) {
	return chain.Confirmation{Round: 7}, nil
}

func (f *fakeChain) AccountBalance(_ context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[address], nil
}

// recordingImporter captures imported keys and optionally fails.
type recordingImporter struct {
	mu       sync.Mutex
	imported int
	err      error
}

func (r *recordingImporter) ImportKey(context.Context, ed25519.PrivateKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported++
	return r.err
}

type ProvisionerSuite struct {
	suite.Suite
	store    *Store
	chain    *fakeChain
	importer *recordingImporter
	faucet   Faucet
}

func (s *ProvisionerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.store = NewStore(kv.NewMemory(), logger)
	s.chain = newFakeChain()
	s.importer = &recordingImporter{}
	faucetAccount := crypto.GenerateAccount()
	s.faucet = Faucet{Address: faucetAccount.Address.String(), PrivateKey: faucetAccount.PrivateKey}
}

func (s *ProvisionerSuite) newProvisioner() *Provisioner {
	return NewProvisioner(s.store, s.chain, s.faucet, s.importer, 10_000_000, 8, slog.New(slog.DiscardHandler))
}

func TestProvisionerSuite(t *testing.T) {
	suite.Run(t, new(ProvisionerSuite))
}

func (s *ProvisionerSuite) TestProvisionAllFundsEveryRole() {
	ctx := context.Background()
	result, err := s.newProvisioner().ProvisionAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(result.Accounts, len(roles.All()))
	s.Empty(result.Warnings)

	addresses := make(map[string]bool)
	for _, role := range roles.All() {
		provisioned, ok := result.Accounts[role]
		s.Require().True(ok, "missing entry for %s", role)
		s.False(addresses[provisioned.Address], "duplicate address for %s", role)
		addresses[provisioned.Address] = true

		balance, err := s.chain.AccountBalance(ctx, provisioned.Address)
		s.Require().NoError(err)
		s.Equal(uint64(10_000_000), balance)

		ident, ok := s.store.Identity(ctx, role)
		s.Require().True(ok)
		s.Equal(provisioned.Address, ident.Address)
		s.True(ident.HasSecret())
	}
	s.Equal(len(roles.All()), s.importer.imported)
}

func (s *ProvisionerSuite) TestFundingFailuresAreReportedPerRole() {
	ctx := context.Background()
	provisioner := s.newProvisioner()

	// Make exactly one generated address unfundable. Keygen is intercepted so
	// the test knows which address belongs to which role.
	var intercepted []crypto.Account
	provisioner.generate = func() crypto.Account {
		account := crypto.GenerateAccount()
		intercepted = append(intercepted, account)
		// roles.All() ordering: index 1 is the carrier.
		if len(intercepted) == 2 {
			s.chain.failFundingFor[account.Address.String()] = true
		}
		return account
	}

	result, err := provisioner.ProvisionAll(ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProvisioning))

	var provErr *ProvisioningError
	s.Require().ErrorAs(err, &provErr)
	s.Equal(StageFunding, provErr.Stage)
	s.Require().Len(provErr.Failures, 1)
	s.Contains(provErr.Failures, roles.Carrier)

	// Every other role was still funded and is usable.
	s.Len(result.Accounts, len(roles.All())-1)
	s.NotContains(result.Accounts, roles.Carrier)
}

func (s *ProvisionerSuite) TestKeygenDuplicateCommitsNothing() {
	ctx := context.Background()
	provisioner := s.newProvisioner()

	duplicate := crypto.GenerateAccount()
	provisioner.generate = func() crypto.Account { return duplicate }

	_, err := provisioner.ProvisionAll(ctx)
	s.Require().Error(err)

	var provErr *ProvisioningError
	s.Require().ErrorAs(err, &provErr)
	s.Equal(StageKeygen, provErr.Stage)

	// Nothing was persisted and nothing was submitted.
	for _, role := range roles.All() {
		_, ok := s.store.Identity(ctx, role)
		s.False(ok, "role %s must not be committed", role)
	}
	s.Equal(0, s.chain.submitted)
}

func (s *ProvisionerSuite) TestImporterFailureIsAWarningNotAnError() {
	s.importer.err = errors.New("kmd unreachable")

	result, err := s.newProvisioner().ProvisionAll(context.Background())
	s.Require().NoError(err)
	s.Len(result.Accounts, len(roles.All()))
	s.Len(result.Warnings, len(roles.All()))
}

func (s *ProvisionerSuite) TestParamsFailureIsProvisioningError() {
	s.chain.paramsErr = errors.New("node down")

	_, err := s.newProvisioner().ProvisionAll(context.Background())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProvisioning))
}

func (s *ProvisionerSuite) TestReprovisioningOverwritesMappings() {
	ctx := context.Background()
	provisioner := s.newProvisioner()

	first, err := provisioner.ProvisionAll(ctx)
	s.Require().NoError(err)
	second, err := provisioner.ProvisionAll(ctx)
	s.Require().NoError(err)

	for _, role := range roles.All() {
		s.NotEqual(first.Accounts[role].Address, second.Accounts[role].Address)
		ident, ok := s.store.Identity(ctx, role)
		s.Require().True(ok)
		s.Equal(second.Accounts[role].Address, ident.Address)
	}
}
