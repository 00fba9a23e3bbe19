package identity

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"golang.org/x/sync/errgroup"

	"lading/internal/chain"
	"lading/internal/roles"
	dErrors "lading/pkg/domain-errors"
)

// ProvisionStage names the provisioning stage that failed.
type ProvisionStage string

const (
	StageKeygen    ProvisionStage = "keygen"
	StageFunding   ProvisionStage = "funding"
	StageKMDImport ProvisionStage = "kmd_import"
)

// ProvisioningError reports per-role failures for one stage, so the caller
// can see exactly which roles are usable.
type ProvisioningError struct {
	Stage    ProvisionStage
	Failures map[roles.Role]error
}

func (e *ProvisioningError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for role, err := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", role, err))
	}
	sort.Strings(parts)
	return fmt.Sprintf("provisioning stage %s failed: %s", e.Stage, strings.Join(parts, "; "))
}

// Provisioned is one funded identity produced by ProvisionAll.
type Provisioned struct {
	Role        roles.Role
	Address     string
	PrivateKey  ed25519.PrivateKey
	FundedRound uint64
}

// ProvisionResult is the full outcome of one provisioning run. Warnings carry
// best-effort failures (KMD import) that did not fail the run.
type ProvisionResult struct {
	Accounts map[roles.Role]Provisioned
	Warnings []string
}

// Faucet is the process-wide funding identity for the private network. It is
// publicly known, used only by the provisioner, and never selectable as a role.
type Faucet struct {
	Address    string
	PrivateKey ed25519.PrivateKey
}

// KeyImporter pushes a secret key into an external signing daemon. Import is
// a convenience; failures are warnings, never fatal.
type KeyImporter interface {
	ImportKey(ctx context.Context, sk ed25519.PrivateKey) error
}

// Provisioner materializes one funded identity per declared role on the
// private network. Re-running it produces fresh keypairs and overwrites the
// prior mappings; funds on the old addresses become unreachable from the UI,
// an accepted re-provisioning cost.
type Provisioner struct {
	store    *Store
	client   chain.Client
	faucet   Faucet
	importer KeyImporter
	logger   *slog.Logger

	// fundingAmount is the microalgo stake each new address receives.
	fundingAmount uint64
	// confirmRounds bounds the per-transaction confirmation wait.
	confirmRounds uint64

	// generate is swappable in tests.
	generate func() crypto.Account
}

// NewProvisioner constructs a Provisioner. The importer may be nil when no
// signing daemon is configured.
func NewProvisioner(store *Store, client chain.Client, faucet Faucet, importer KeyImporter, fundingAmount, confirmRounds uint64, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		store:         store,
		client:        client,
		faucet:        faucet,
		importer:      importer,
		logger:        logger,
		fundingAmount: fundingAmount,
		confirmRounds: confirmRounds,
		generate:      crypto.GenerateAccount,
	}
}

// ProvisionAll generates, persists, funds, and (best effort) imports a fresh
// keypair for every declared role.
//
// Stages:
//  1. keygen — all keypairs are generated up front; nothing is persisted if
//     any generation fails or produces a duplicate address.
//  2. commit — all role mappings are written in one pass.
//  3. funding — every address is funded from the faucet; failures are
//     collected per address and reported together.
//  4. kmd import — best effort; failures become warnings on the result.
//
// On a funding failure the successfully funded accounts are still returned
// alongside the ProvisioningError so the caller can see which roles work.
func (p *Provisioner) ProvisionAll(ctx context.Context) (ProvisionResult, error) {
	result := ProvisionResult{Accounts: make(map[roles.Role]Provisioned)}

	// Stage 1: generate everything before touching the store.
	generated := make(map[roles.Role]crypto.Account, len(roles.All()))
	seen := make(map[string]roles.Role)
	for _, role := range roles.All() {
		account := p.generate()
		address := account.Address.String()
		if prior, dup := seen[address]; dup {
			return result, dErrors.Wrap(
				&ProvisioningError{Stage: StageKeygen, Failures: map[roles.Role]error{
					role: fmt.Errorf("address %s already generated for %s", address, prior),
				}},
				dErrors.CodeProvisioning, "key generation failed")
		}
		seen[address] = role
		generated[role] = account
	}

	// Stage 2: commit all mappings in one pass, never half of them.
	for _, role := range roles.All() {
		account := generated[role]
		p.store.AssignAddressToRole(ctx, role, account.Address.String(), account.PrivateKey)
	}

	// Stage 3: fund every address, even when earlier ones fail.
	params, err := p.client.SuggestedParams(ctx)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeProvisioning, "funding stage: suggested params")
	}

	var (
		mu       sync.Mutex
		failures = make(map[roles.Role]error)
	)
	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, role := range roles.All() {
		role := role
		account := generated[role]
		g.Go(func() error {
			round, err := p.fund(ctx, account.Address.String(), params)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[role] = err
				return nil
			}
			result.Accounts[role] = Provisioned{
				Role:        role,
				Address:     account.Address.String(),
				PrivateKey:  account.PrivateKey,
				FundedRound: round,
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return result, dErrors.Wrap(
			&ProvisioningError{Stage: StageFunding, Failures: failures},
			dErrors.CodeProvisioning, "funding failed for some roles")
	}

	// Stage 4: best-effort signing daemon import.
	if p.importer != nil {
		for _, role := range roles.All() {
			if err := p.importer.ImportKey(ctx, generated[role].PrivateKey); err != nil {
				warning := fmt.Sprintf("kmd import for %s failed: %v", role, err)
				result.Warnings = append(result.Warnings, warning)
				p.logger.WarnContext(ctx, "kmd import failed", "role", role, "error", err)
			}
		}
	}

	p.logger.InfoContext(ctx, "provisioned all roles", "count", len(result.Accounts), "warnings", len(result.Warnings))
	return result, nil
}

// fund sends one faucet payment and waits for it to land with a non-zero
// balance.
func (p *Provisioner) fund(ctx context.Context, address string, params types.SuggestedParams) (uint64, error) {
	txn, err := transaction.MakePaymentTxn(p.faucet.Address, address, p.fundingAmount, []byte("lading: role funding"), "", params)
	if err != nil {
		return 0, fmt.Errorf("build funding txn: %w", err)
	}
	_, stx, err := crypto.SignTransaction(p.faucet.PrivateKey, txn)
	if err != nil {
		return 0, fmt.Errorf("sign funding txn: %w", err)
	}
	txid, err := p.client.SendRawTransaction(ctx, stx)
	if err != nil {
		return 0, fmt.Errorf("submit funding txn: %w", err)
	}
	confirmation, err := p.client.WaitForConfirmation(ctx, txid, p.confirmRounds)
	if err != nil {
		return 0, fmt.Errorf("confirm funding txn %s: %w", txid, err)
	}
	balance, err := p.client.AccountBalance(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("check funded balance: %w", err)
	}
	if balance == 0 {
		return 0, fmt.Errorf("address %s funded but balance is zero", address)
	}
	return confirmation.Round, nil
}
