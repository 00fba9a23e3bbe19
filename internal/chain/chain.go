// Package chain wraps the Algorand RPC surface the core depends on. The rest
// of the system consumes the Client interface so tests can substitute fakes
// and never touch a node.
package chain

import (
	"context"
	"errors"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Network selects which chain the core talks to and therefore which identity
// path is in effect: localnet uses locally-held keypairs, testnet uses an
// externally-connected wallet.
type Network string

const (
	Localnet Network = "localnet"
	Testnet  Network = "testnet"
)

// Valid reports whether n is a supported network mode.
func (n Network) Valid() bool { return n == Localnet || n == Testnet }

// ErrRejected marks a definite on-chain rejection (pool error). It is distinct
// from sentinel.ErrTimeout (bounded wait elapsed, txn may still land) and from
// sentinel.ErrUnavailable (node unreachable) so callers can decide whether a
// resubmission is safe.
var ErrRejected = errors.New("transaction rejected")

// Confirmation is the on-chain result of a confirmed transaction.
type Confirmation struct {
	Round      uint64
	AssetIndex uint64
	AppIndex   uint64
}

// Client is the RPC surface consumed by the provisioner and the orchestrator.
//
// Error contract:
// - connectivity failures wrap sentinel.ErrUnavailable
// - WaitForConfirmation wraps sentinel.ErrTimeout after maxRounds, ErrRejected
//   on a pool error, and never silently retries past the bound
type Client interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	// SendRawTransaction submits signed bytes (a single transaction or a
	// concatenated atomic group) and returns the transaction id.
	SendRawTransaction(ctx context.Context, stx []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (Confirmation, error)
	AccountBalance(ctx context.Context, address string) (uint64, error)
}

// ExplorerTxURL builds the block-explorer link for a transaction on the given
// network.
func ExplorerTxURL(network Network, txid string) string {
	switch network {
	case Testnet:
		return "https://lora.algokit.io/testnet/transaction/" + txid
	default:
		return "https://lora.algokit.io/localnet/transaction/" + txid
	}
}

// ExplorerAssetURL builds the block-explorer link for an asset.
func ExplorerAssetURL(network Network, assetID uint64) string {
	base := "https://lora.algokit.io/localnet/asset/"
	if network == Testnet {
		base = "https://lora.algokit.io/testnet/asset/"
	}
	return base + strconv.FormatUint(assetID, 10)
}
