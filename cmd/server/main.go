package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/jackc/pgx/v5/pgxpool"

	"lading/internal/archive"
	"lading/internal/audit"
	"lading/internal/chain"
	"lading/internal/identity"
	"lading/internal/kv"
	"lading/internal/marketplace"
	"lading/internal/orchestrator"
	"lading/internal/pinning"
	"lading/internal/platform/config"
	"lading/internal/platform/httpserver"
	"lading/internal/platform/logger"
	"lading/internal/platform/metrics"
	platformredis "lading/internal/platform/redis"
	"lading/internal/tokens"
	httptransport "lading/internal/transport/http"
)

// main wires the dependency graph and owns the server lifecycle. Business
// logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	m := metrics.New()

	// Identity persistence: redis when configured, in-memory otherwise.
	var backend kv.Store = kv.NewMemory()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		backend = kv.NewRedis(redisClient.Client, "lading:")
		defer redisClient.Close()
		log.Info("identity store backed by redis")
	}
	store := identity.NewStore(backend, log)

	algod, err := chain.NewAlgodClient(cfg.AlgodURL, cfg.AlgodToken, log)
	if err != nil {
		log.Error("algod client", "error", err)
		os.Exit(1)
	}

	pins := pinning.NewIPFSClient(cfg.IPFSURL, cfg.IPFSToken, log)
	ledger := marketplace.NewLedger()

	// Audit trail: kafka when brokers are configured, in-memory otherwise.
	var sink audit.Sink = audit.NewMemorySink()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events published to kafka", "topic", cfg.KafkaTopic)
	}
	publisher := audit.NewPublisher(sink, log)

	// Operation archive is optional; without postgres the history endpoint
	// is disabled and completed results are not persisted.
	var (
		archiver orchestrator.Archiver
		history  httptransport.HistoryStore
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archiveStore := archive.New(pool)
		if err := archiveStore.EnsureSchema(ctx); err != nil {
			log.Error("archive schema", "error", err)
			os.Exit(1)
		}
		archiver = archiveStore
		history = archiveStore
		log.Info("operation archive backed by postgres")
	}

	source, wallet, provisioner, err := buildIdentityPath(cfg, store, algod, log)
	if err != nil {
		log.Error("identity path", "error", err, "network", cfg.Network)
		os.Exit(1)
	}

	orch := orchestrator.New(orchestrator.Config{
		Network:          cfg.Network,
		Chain:            algod,
		Source:           source,
		Pins:             pins,
		Ledger:           ledger,
		Archive:          archiver,
		Audit:            publisher,
		Metrics:          m,
		Logger:           log,
		ConfirmRounds:    cfg.ConfirmRounds,
		RegistryAppID:    cfg.RegistryAppID,
		MarketplaceAppID: cfg.MarketplaceAppID,
		USDCAssetID:      cfg.USDCAssetID,
	})

	identityService := identity.NewService(store, source, wallet, provisioner, publisher, m, log)
	tokenService := tokens.NewService(cfg.JWTSigningKey, "lading")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Network:           cfg.Network,
		Identity:          identityService,
		Operations:        orch,
		History:           history,
		Ledger:            ledger,
		Tokens:            tokenService,
		OperatorTokenHash: cfg.OperatorTokenHash,
		Logger:            log,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting lading core", "addr", cfg.Addr, "network", cfg.Network)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildIdentityPath assembles the network-specific identity collaborators:
// localnet resolves signers from locally-held keypairs and can provision
// accounts from the faucet; testnet delegates both address and signatures to
// the wallet bridge.
func buildIdentityPath(cfg config.Config, store *identity.Store, client chain.Client, log *slog.Logger) (identity.Source, identity.Wallet, *identity.Provisioner, error) {
	if cfg.Network == chain.Testnet {
		bridge := identity.NewBridgeClient(cfg.WalletBridgeURL)
		source := identity.NewWalletSource(bridge, store, log)
		return source, source, nil, nil
	}

	source := identity.NewLocalSource(store, log)
	if cfg.FaucetMnemonic == "" {
		log.Warn("FAUCET_MNEMONIC not set; provisioning disabled")
		return source, nil, nil, nil
	}

	sk, err := mnemonic.ToPrivateKey(cfg.FaucetMnemonic)
	if err != nil {
		return nil, nil, nil, err
	}
	address, err := crypto.GenerateAddressFromSK(sk)
	if err != nil {
		return nil, nil, nil, err
	}
	faucet := identity.Faucet{Address: address.String(), PrivateKey: sk}

	// KMD import is a convenience for local debugging; the server runs fine
	// without it.
	var importer identity.KeyImporter
	kmd, err := identity.NewKMDImporter(cfg.KMDURL, cfg.KMDToken, cfg.KMDWalletName, cfg.KMDWalletPass)
	if err != nil {
		log.Warn("kmd unavailable, skipping key import", "error", err)
	} else {
		importer = kmd
	}

	provisioner := identity.NewProvisioner(store, client, faucet, importer, cfg.FundingAmount, cfg.ConfirmRounds, log)
	return source, nil, provisioner, nil
}
