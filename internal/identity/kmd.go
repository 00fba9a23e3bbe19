package identity

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/kmd"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// KMDImporter imports provisioned keys into a local kmd daemon so they show
// up in node tooling. Convenience only: the core signs in-process and never
// reads keys back from kmd.
type KMDImporter struct {
	client     kmd.Client
	walletName string
	walletPass string
}

// NewKMDImporter dials the kmd daemon.
func NewKMDImporter(url, token, walletName, walletPass string) (*KMDImporter, error) {
	client, err := kmd.MakeClient(url, token)
	if err != nil {
		return nil, fmt.Errorf("make kmd client: %w", err)
	}
	return &KMDImporter{client: client, walletName: walletName, walletPass: walletPass}, nil
}

// ImportKey imports one secret key into the configured wallet, creating the
// wallet on first use.
func (k *KMDImporter) ImportKey(_ context.Context, sk ed25519.PrivateKey) error {
	walletID, err := k.walletID()
	if err != nil {
		return err
	}
	handle, err := k.client.InitWalletHandle(walletID, k.walletPass)
	if err != nil {
		return fmt.Errorf("init wallet handle: %w", err)
	}
	defer func() { _, _ = k.client.ReleaseWalletHandle(handle.WalletHandleToken) }()

	if _, err := k.client.ImportKey(handle.WalletHandleToken, sk); err != nil {
		return fmt.Errorf("import key: %w", err)
	}
	return nil
}

func (k *KMDImporter) walletID() (string, error) {
	wallets, err := k.client.ListWallets()
	if err != nil {
		return "", fmt.Errorf("list wallets: %w", err)
	}
	for _, w := range wallets.Wallets {
		if w.Name == k.walletName {
			return w.ID, nil
		}
	}
	created, err := k.client.CreateWallet(k.walletName, k.walletPass, kmd.DefaultWalletDriver, types.MasterDerivationKey{})
	if err != nil {
		return "", fmt.Errorf("create wallet %q: %w", k.walletName, err)
	}
	return created.Wallet.ID, nil
}
