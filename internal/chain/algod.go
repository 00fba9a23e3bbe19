package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"lading/pkg/platform/sentinel"
)

// AlgodClient implements Client over a v2 algod node.
type AlgodClient struct {
	algod  *algod.Client
	logger *slog.Logger
}

// NewAlgodClient dials an algod node. The token may be empty for public API
// providers.
func NewAlgodClient(url, token string, logger *slog.Logger) (*AlgodClient, error) {
	c, err := algod.MakeClient(url, token)
	if err != nil {
		return nil, fmt.Errorf("make algod client: %w", err)
	}
	return &AlgodClient{algod: c, logger: logger}, nil
}

func (c *AlgodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("suggested params: %v: %w", err, sentinel.ErrUnavailable)
	}
	return sp, nil
}

func (c *AlgodClient) SendRawTransaction(ctx context.Context, stx []byte) (string, error) {
	txid, err := c.algod.SendRawTransaction(stx).Do(ctx)
	if err != nil {
		return "", fmt.Errorf("send raw transaction: %v: %w", err, sentinel.ErrUnavailable)
	}
	return txid, nil
}

// WaitForConfirmation polls the pending pool for up to maxRounds rounds.
// A pool error is a definite rejection; elapsing the bound is a timeout, and
// the transaction may still land afterwards.
func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (Confirmation, error) {
	status, err := c.algod.Status().Do(ctx)
	if err != nil {
		return Confirmation{}, fmt.Errorf("node status: %v: %w", err, sentinel.ErrUnavailable)
	}

	current := status.LastRound
	deadline := current + maxRounds
	for current <= deadline {
		if err := ctx.Err(); err != nil {
			return Confirmation{}, err
		}

		pending, _, err := c.algod.PendingTransactionInformation(txid).Do(ctx)
		if err != nil {
			return Confirmation{}, fmt.Errorf("pending txn %s: %v: %w", txid, err, sentinel.ErrUnavailable)
		}
		if pending.PoolError != "" {
			return Confirmation{}, fmt.Errorf("txn %s: %s: %w", txid, pending.PoolError, ErrRejected)
		}
		if pending.ConfirmedRound > 0 {
			return Confirmation{
				Round:      pending.ConfirmedRound,
				AssetIndex: pending.AssetIndex,
				AppIndex:   pending.ApplicationIndex,
			}, nil
		}

		if _, err := c.algod.StatusAfterBlock(current).Do(ctx); err != nil {
			return Confirmation{}, fmt.Errorf("wait round %d: %v: %w", current, err, sentinel.ErrUnavailable)
		}
		current++
	}

	c.logger.WarnContext(ctx, "confirmation wait elapsed", "txid", txid, "max_rounds", maxRounds)
	return Confirmation{}, fmt.Errorf("txn %s not confirmed within %d rounds: %w", txid, maxRounds, sentinel.ErrTimeout)
}

func (c *AlgodClient) AccountBalance(ctx context.Context, address string) (uint64, error) {
	info, err := c.algod.AccountInformation(address).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("account information %s: %v: %w", address, err, sentinel.ErrUnavailable)
	}
	return info.Amount, nil
}
