// Package orchestrator turns high-level trade-finance intents into signed,
// submitted, confirmed transaction groups and translates confirmations into
// marketplace ledger entities. It owns the retry/fallback policy: settlement
// is never blocked by an unavailable auxiliary collaborator, and the ledger
// is only written after on-chain confirmation.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"

	"lading/internal/archive"
	"lading/internal/audit"
	"lading/internal/chain"
	"lading/internal/identity"
	"lading/internal/marketplace"
	"lading/internal/pinning"
	"lading/internal/platform/metrics"
	dErrors "lading/pkg/domain-errors"
	"lading/pkg/platform/sentinel"
)

// Kind names an orchestrated operation.
type Kind string

const (
	KindSubmitDocument   Kind = "submit_document"
	KindCreateInstrument Kind = "create_instrument"
	KindTokenize         Kind = "tokenize"
	KindInvest           Kind = "invest"
	KindListForSale      Kind = "list_for_sale"
	KindPurchase         Kind = "purchase"
)

// State is one step of the per-operation state machine. Operations move
// Idle → Validating → Building → Signing → Submitting → Confirming →
// Complete | Failed; every network call sits between two states so a failure
// always has a precise location.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateBuilding   State = "building"
	StateSigning    State = "signing"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Result is the uniform record of a completed operation. Immutable once
// produced; the ledger entity it describes is already appended.
type Result struct {
	Kind           Kind   `json:"kind"`
	TransactionID  string `json:"transaction_id"`
	ConfirmedRound uint64 `json:"confirmed_round"`
	ExplorerURL    string `json:"explorer_url"`
	// Payload is operation-specific: the created submission, instrument,
	// tokenization, investment, listing, or sale.
	Payload any `json:"payload"`
	// Degraded marks results produced through a reduced-feature path. A
	// degraded result is still a genuine on-chain confirmation; it is never
	// fabricated data.
	Degraded bool     `json:"degraded,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Archiver persists completed results. A nil Archiver skips persistence.
type Archiver interface {
	Insert(ctx context.Context, record archive.Record) error
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Network chain.Network
	Chain   chain.Client
	Source  identity.Source
	Pins    pinning.Store
	Ledger  *marketplace.Ledger
	Archive Archiver
	Audit   *audit.Publisher
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// ConfirmRounds bounds the confirmation wait per submission.
	ConfirmRounds uint64
	// RegistryAppID is the instrument-registry application. Zero means not
	// deployed; instrument creation and listing fall back to the degraded
	// note-payment path.
	RegistryAppID uint64
	// MarketplaceAppID is the settlement application. Zero means not
	// deployed; investments and purchases settle by plain payment.
	MarketplaceAppID uint64
	// USDCAssetID is the ASA used for USDC settlement. Zero means no such
	// asset is configured and USDC prices are rejected up front.
	USDCAssetID uint64
}

// Orchestrator executes the six trade-finance operations on top of the
// identity resolver's signer. It does not serialize callers: issuing two
// operations concurrently from the same identity risks conflicting groups
// and is the caller's responsibility to avoid.
type Orchestrator struct {
	network          chain.Network
	chain            chain.Client
	source           identity.Source
	pins             pinning.Store
	ledger           *marketplace.Ledger
	archive          Archiver
	audit            *audit.Publisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	confirmRounds    uint64
	registryAppID    uint64
	marketplaceAppID uint64
	usdcAssetID      uint64
}

// New constructs an Orchestrator.
func New(cfg Config) *Orchestrator {
	rounds := cfg.ConfirmRounds
	if rounds == 0 {
		rounds = 8
	}
	return &Orchestrator{
		network:          cfg.Network,
		chain:            cfg.Chain,
		source:           cfg.Source,
		pins:             cfg.Pins,
		ledger:           cfg.Ledger,
		archive:          cfg.Archive,
		audit:            cfg.Audit,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		confirmRounds:    rounds,
		registryAppID:    cfg.RegistryAppID,
		marketplaceAppID: cfg.MarketplaceAppID,
		usdcAssetID:      cfg.USDCAssetID,
	}
}

// Ledger exposes the projection for read-side queries.
func (o *Orchestrator) Ledger() *marketplace.Ledger { return o.ledger }

// Network reports which chain the orchestrator settles on.
func (o *Orchestrator) Network() chain.Network { return o.network }

// operation is one run of the state machine. The closures let each of the
// six operations share the same validate/build/confirm/commit skeleton.
type operation struct {
	kind Kind
	// validate checks inputs against the ledger. Runs before any network
	// call; failures are terminal and synchronous.
	validate func(ctx context.Context, actor string) error
	// build constructs the transaction group. It may consult auxiliary
	// collaborators and degrade via run.degrade.
	build func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error)
	// commit appends the confirmed outcome to the ledger and returns the
	// operation payload.
	commit func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error)
}

// run carries the mutable per-operation context across states.
type run struct {
	degraded bool
	warnings []string
}

// degrade records a reduced-feature fallback. The operation continues.
func (r *run) degrade(warning string) {
	r.degraded = true
	r.warnings = append(r.warnings, warning)
}

func (r *run) warn(warning string) {
	r.warnings = append(r.warnings, warning)
}

// execute drives one operation through the state machine. The signer is
// resolved fresh inside, never accepted from the caller, so the operation
// always signs as the identity active at call time.
func (o *Orchestrator) execute(ctx context.Context, op operation) (Result, error) {
	result, err := o.executeInner(ctx, op)
	status := "complete"
	if err != nil {
		status = "failed"
	}
	if o.metrics != nil {
		o.metrics.OperationsTotal.WithLabelValues(string(op.kind), status).Inc()
	}
	return result, err
}

func (o *Orchestrator) executeInner(ctx context.Context, op operation) (Result, error) {
	run := &run{}

	o.transition(ctx, op.kind, StateValidating)
	actor, ok := o.source.ActiveAddress(ctx)
	if !ok {
		return Result{}, o.fail(ctx, op.kind, actor, dErrors.New(dErrors.CodeNoIdentity, "no active identity; connect a wallet or select a role"))
	}
	if op.validate != nil {
		if err := op.validate(ctx, actor); err != nil {
			return Result{}, o.fail(ctx, op.kind, actor, err)
		}
	}

	o.transition(ctx, op.kind, StateBuilding)
	params, err := o.chain.SuggestedParams(ctx)
	if err != nil {
		return Result{}, o.fail(ctx, op.kind, actor, dErrors.Wrap(err, dErrors.CodeConnectivity, "node unreachable while fetching transaction parameters"))
	}
	txns, err := op.build(ctx, run, actor, params)
	if err != nil {
		return Result{}, o.fail(ctx, op.kind, actor, err)
	}
	if len(txns) > 1 {
		gid, err := crypto.ComputeGroupID(txns)
		if err != nil {
			return Result{}, o.fail(ctx, op.kind, actor, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute group id"))
		}
		for i := range txns {
			txns[i].Group = gid
		}
	}

	o.transition(ctx, op.kind, StateSigning)
	signer, ok := o.source.Signer(ctx)
	if !ok {
		return Result{}, o.fail(ctx, op.kind, actor, dErrors.New(dErrors.CodeNoIdentity, "no signer available for the active identity"))
	}
	signed, err := signer(ctx, txns, nil)
	if err != nil {
		// Signer errors keep their own code (wallet bridge outages come in
		// as connectivity); only uncoded failures default to no_identity.
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal {
			code = dErrors.CodeNoIdentity
		}
		return Result{}, o.fail(ctx, op.kind, actor, dErrors.Wrap(err, code, "signing failed"))
	}

	o.transition(ctx, op.kind, StateSubmitting)
	var raw []byte
	for _, stx := range signed {
		raw = append(raw, stx...)
	}
	txid, err := o.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		return Result{}, o.fail(ctx, op.kind, actor, translateChainErr(err))
	}

	o.transition(ctx, op.kind, StateConfirming)
	started := time.Now()
	conf, err := o.chain.WaitForConfirmation(ctx, txid, o.confirmRounds)
	if o.metrics != nil {
		o.metrics.ConfirmationSeconds.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return Result{}, o.fail(ctx, op.kind, actor, translateChainErr(err))
	}

	payload, err := op.commit(ctx, run, actor, txid, conf)
	if err != nil {
		return Result{}, o.fail(ctx, op.kind, actor, err)
	}

	o.transition(ctx, op.kind, StateComplete)
	result := Result{
		Kind:           op.kind,
		TransactionID:  txid,
		ConfirmedRound: conf.Round,
		ExplorerURL:    chain.ExplorerTxURL(o.network, txid),
		Payload:        payload,
		Degraded:       run.degraded,
		Warnings:       run.warnings,
	}
	o.record(ctx, actor, result, conf)
	return result, nil
}

func (o *Orchestrator) transition(ctx context.Context, kind Kind, state State) {
	o.logger.DebugContext(ctx, "operation state", "kind", kind, "state", state)
}

// fail logs and audits the terminal failure. Every failure carries a coded
// reason so the caller can distinguish a retryable connectivity problem from
// a definite rejection.
func (o *Orchestrator) fail(ctx context.Context, kind Kind, actor string, err error) error {
	o.transition(ctx, kind, StateFailed)
	o.logger.ErrorContext(ctx, "operation failed", "kind", kind, "code", dErrors.CodeOf(err), "error", err)
	o.audit.Emit(ctx, audit.Event{
		Action:  string(kind),
		Actor:   actor,
		Outcome: "failed",
		Reason:  dErrors.ReasonOf(err),
	})
	return err
}

// record archives and audits a completed result. Both are best effort.
func (o *Orchestrator) record(ctx context.Context, actor string, result Result, conf chain.Confirmation) {
	role := ""
	if r, ok := o.source.ActiveRole(ctx); ok {
		role = string(r)
	}
	o.audit.Emit(ctx, audit.Event{
		Action:   string(result.Kind),
		Actor:    actor,
		Role:     role,
		TxID:     result.TransactionID,
		Outcome:  "complete",
		Degraded: result.Degraded,
	})
	if o.archive == nil {
		return
	}
	payload, err := json.Marshal(result.Payload)
	if err != nil {
		payload = nil
	}
	record := archive.Record{
		ID:             uuid.New(),
		Kind:           string(result.Kind),
		Actor:          actor,
		Role:           role,
		TxID:           result.TransactionID,
		ConfirmedRound: result.ConfirmedRound,
		AssetIndex:     conf.AssetIndex,
		AppIndex:       conf.AppIndex,
		Degraded:       result.Degraded,
		Payload:        payload,
	}
	if err := o.archive.Insert(ctx, record); err != nil {
		o.logger.WarnContext(ctx, "operation archive failed", "kind", result.Kind, "txid", result.TransactionID, "error", err)
	}
}

// translateChainErr maps RPC outcomes onto the domain taxonomy. Connectivity
// and timeout stay distinguishable from a definite rejection so callers know
// whether a resubmission is safe.
func translateChainErr(err error) error {
	switch {
	case errors.Is(err, chain.ErrRejected):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "transaction rejected on-chain")
	case errors.Is(err, sentinel.ErrTimeout):
		return dErrors.Wrap(err, dErrors.CodeConfirmationTimeout, "not confirmed within the wait bound; check status before resubmitting")
	default:
		return dErrors.Wrap(err, dErrors.CodeConnectivity, "node unreachable")
	}
}

// decodeAddress is a build-step helper; a malformed address at this point is
// an internal error, addresses are validated at the identity boundary.
func decodeAddress(addr string) (types.Address, error) {
	decoded, err := types.DecodeAddress(addr)
	if err != nil {
		return types.Address{}, dErrors.Wrap(err, dErrors.CodeInternal, "malformed address")
	}
	return decoded, nil
}
