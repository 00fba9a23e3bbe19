package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"lading/internal/chain"
)

// Config captures the full environment-driven configuration so main stays
// lean. Localnet defaults match an algokit sandbox.
type Config struct {
	Addr    string
	Network chain.Network

	AlgodURL   string
	AlgodToken string

	KMDURL        string
	KMDToken      string
	KMDWalletName string
	KMDWalletPass string

	IPFSURL   string
	IPFSToken string

	// WalletBridgeURL is the local wallet bridge daemon used on testnet.
	WalletBridgeURL string

	RedisURL    string
	PostgresURL string

	KafkaBrokers []string
	KafkaTopic   string

	// FaucetMnemonic is the process-wide funding identity for localnet
	// provisioning. Publicly known on sandboxes; never a selectable role.
	FaucetMnemonic string
	// FundingAmount is microalgos given to each provisioned address.
	FundingAmount uint64
	// ConfirmRounds bounds every confirmation wait.
	ConfirmRounds uint64

	// RegistryAppID and MarketplaceAppID are the deployed application IDs.
	// Zero means not deployed; operations fall back to anchored payments.
	RegistryAppID    uint64
	MarketplaceAppID uint64

	// USDCAssetID is the ASA that settles USDC-priced listings. Zero means
	// USDC settlement is not available on this deployment.
	USDCAssetID uint64

	// OperatorTokenHash is the bcrypt hash of the operator API token that
	// guards provisioning and clear-all endpoints.
	OperatorTokenHash string
	// JWTSigningKey signs short-lived operator session tokens.
	JWTSigningKey string

	ShutdownTimeout time.Duration
}

// sandbox defaults; see algokit localnet docs.
const (
	defaultAlgodURL   = "http://localhost:4001"
	defaultAlgodToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	defaultKMDURL     = "http://localhost:4002"
	defaultIPFSURL    = "http://localhost:5001"
)

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	network := chain.Network(envOr("LADING_NETWORK", string(chain.Localnet)))
	if !network.Valid() {
		network = chain.Localnet
	}
	return Config{
		Addr:    envOr("LADING_ADDR", ":8080"),
		Network: network,

		AlgodURL:   envOr("ALGOD_URL", defaultAlgodURL),
		AlgodToken: envOr("ALGOD_TOKEN", defaultAlgodToken),

		KMDURL:        envOr("KMD_URL", defaultKMDURL),
		KMDToken:      envOr("KMD_TOKEN", defaultAlgodToken),
		KMDWalletName: envOr("KMD_WALLET", "lading"),
		KMDWalletPass: os.Getenv("KMD_WALLET_PASSWORD"),

		IPFSURL:   envOr("IPFS_URL", defaultIPFSURL),
		IPFSToken: os.Getenv("IPFS_TOKEN"),

		WalletBridgeURL: envOr("WALLET_BRIDGE_URL", "http://localhost:9340"),

		RedisURL:    os.Getenv("REDIS_URL"),
		PostgresURL: os.Getenv("POSTGRES_URL"),

		KafkaBrokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOr("KAFKA_AUDIT_TOPIC", "lading.audit"),

		RegistryAppID:    envUint("REGISTRY_APP_ID", 0),
		MarketplaceAppID: envUint("MARKETPLACE_APP_ID", 0),
		USDCAssetID:      envUint("USDC_ASSET_ID", 0),

		FaucetMnemonic: os.Getenv("FAUCET_MNEMONIC"),
		FundingAmount:  envUint("FUNDING_AMOUNT", 10_000_000),
		ConfirmRounds:  envUint("CONFIRM_ROUNDS", 8),

		OperatorTokenHash: os.Getenv("OPERATOR_TOKEN_HASH"),
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),

		ShutdownTimeout: 10 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
