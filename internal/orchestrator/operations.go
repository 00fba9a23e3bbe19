package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"

	"lading/internal/chain"
	"lading/internal/marketplace"
	dErrors "lading/pkg/domain-errors"
	"lading/pkg/platform/sentinel"
)

// note is the JSON payload attached to every transaction the orchestrator
// submits, so a chain observer can classify them without the ledger.
type note struct {
	Kind         string `json:"kind"`
	DocType      string `json:"doc_type,omitempty"`
	Reference    string `json:"reference,omitempty"`
	CID          string `json:"cid,omitempty"`
	SHA256       string `json:"sha256,omitempty"`
	InstrumentID string `json:"instrument_id,omitempty"`
	ListingID    string `json:"listing_id,omitempty"`
	Shares       uint64 `json:"shares,omitempty"`
}

func (n note) encode() []byte {
	encoded, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	return encoded
}

// SubmitDocumentRequest carries one trade document for on-chain anchoring.
type SubmitDocumentRequest struct {
	DocType     string
	FileName    string
	ContentType string
	Content     []byte
}

// SubmissionPayload is the domain payload of a completed document submission.
type SubmissionPayload struct {
	SubmissionID string `json:"submission_id"`
	ContentCID   string `json:"content_cid,omitempty"`
	SHA256       string `json:"sha256"`
}

// SubmitDocument pins the document off-chain and anchors its content address
// in a zero-amount self-payment note. When pinning is unavailable the anchor
// carries only the content hash and the result is marked degraded.
func (o *Orchestrator) SubmitDocument(ctx context.Context, req SubmitDocumentRequest) (Result, error) {
	var cid string
	digest := sha256.Sum256(req.Content)
	hash := hex.EncodeToString(digest[:])

	return o.execute(ctx, operation{
		kind: KindSubmitDocument,
		validate: func(ctx context.Context, actor string) error {
			if req.DocType == "" {
				return dErrors.New(dErrors.CodeValidation, "doc type is required")
			}
			if len(req.Content) == 0 {
				return dErrors.New(dErrors.CodeValidation, "document content is empty")
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			stored, err := o.pins.Store(ctx, req.Content, req.ContentType, map[string]string{
				"doc_type":  req.DocType,
				"file_name": req.FileName,
				"submitter": actor,
			})
			if err != nil {
				run.degrade("document pinning unavailable; anchored content hash only")
				o.logger.WarnContext(ctx, "pinning unavailable", "doc_type", req.DocType, "error", err)
			} else {
				cid = stored
			}
			anchor := note{Kind: "doc_submission", DocType: req.DocType, CID: cid, SHA256: hash}.encode()
			txn, err := transaction.MakePaymentTxn(actor, actor, 0, anchor, "", params)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build anchor transaction")
			}
			return []types.Transaction{txn}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			submissionID := uuid.NewString()
			o.ledger.AppendSubmission(marketplace.DocumentSubmission{
				ID:          submissionID,
				Submitter:   actor,
				DocType:     req.DocType,
				ContentCID:  cid,
				TxID:        txid,
				Status:      marketplace.SubmissionPending,
				SubmittedAt: time.Now(),
			})
			return SubmissionPayload{SubmissionID: submissionID, ContentCID: cid, SHA256: hash}, nil
		},
	})
}

// CreateInstrumentRequest describes a new Bill of Lading.
type CreateInstrumentRequest struct {
	Reference string
	Carrier   string
	// Metadata is the cargo detail pinned off-chain (ports, goods, weight).
	Metadata map[string]string
}

// InstrumentPayload is the domain payload of a completed instrument creation.
type InstrumentPayload struct {
	InstrumentID string `json:"instrument_id"`
	MetadataCID  string `json:"metadata_cid,omitempty"`
}

// CreateInstrument pins the instrument metadata and registers the instrument
// with the registry application. Without a deployed registry the registration
// degrades to a note-payment anchor.
func (o *Orchestrator) CreateInstrument(ctx context.Context, req CreateInstrumentRequest) (Result, error) {
	var cid string

	return o.execute(ctx, operation{
		kind: KindCreateInstrument,
		validate: func(ctx context.Context, actor string) error {
			if req.Reference == "" {
				return dErrors.New(dErrors.CodeValidation, "instrument reference is required")
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			meta, err := json.Marshal(req.Metadata)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeValidation, "metadata is not serializable")
			}
			stored, err := o.pins.Store(ctx, meta, "application/json", map[string]string{
				"reference": req.Reference,
				"exporter":  actor,
			})
			if err != nil {
				run.degrade("metadata pinning unavailable; instrument created without content address")
				o.logger.WarnContext(ctx, "pinning unavailable", "reference", req.Reference, "error", err)
			} else {
				cid = stored
			}

			anchor := note{Kind: "instrument", Reference: req.Reference, CID: cid}.encode()
			if o.registryAppID == 0 {
				run.degrade("registry application not deployed; anchored by note payment")
				txn, err := transaction.MakePaymentTxn(actor, actor, 0, anchor, "", params)
				if err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build anchor transaction")
				}
				return []types.Transaction{txn}, nil
			}

			sender, err := decodeAddress(actor)
			if err != nil {
				return nil, err
			}
			appArgs := [][]byte{[]byte("create_instrument"), []byte(req.Reference), []byte(cid)}
			txn, err := transaction.MakeApplicationNoOpTx(o.registryAppID, appArgs, nil, nil, nil,
				params, sender, anchor, types.Digest{}, [32]byte{}, types.ZeroAddress)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build registry call")
			}
			return []types.Transaction{txn}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			instrumentID := uuid.NewString()
			o.ledger.AppendInstrument(marketplace.Instrument{
				ID:           instrumentID,
				Reference:    req.Reference,
				Exporter:     actor,
				Carrier:      req.Carrier,
				MetadataCID:  cid,
				TxID:         txid,
				CreatedRound: conf.Round,
				CreatedAt:    time.Now(),
				Degraded:     run.degraded,
			})
			return InstrumentPayload{InstrumentID: instrumentID, MetadataCID: cid}, nil
		},
	})
}

// TokenizeRequest derives a fractional-share offering from an instrument.
type TokenizeRequest struct {
	InstrumentID string
	TotalShares  uint64
	// PricePerShare is in microalgos.
	PricePerShare uint64
	UnitName      string
	AssetName     string
}

// TokenizationPayload is the domain payload of a completed tokenization.
type TokenizationPayload struct {
	AssetID     uint64 `json:"asset_id"`
	TotalShares uint64 `json:"total_shares"`
	ExplorerURL string `json:"explorer_url"`
}

// Tokenize creates the instrument's share asset on-chain. The created asset
// id comes from the confirmation, never invented.
func (o *Orchestrator) Tokenize(ctx context.Context, req TokenizeRequest) (Result, error) {
	return o.execute(ctx, operation{
		kind: KindTokenize,
		validate: func(ctx context.Context, actor string) error {
			if req.TotalShares == 0 {
				return dErrors.New(dErrors.CodeValidation, "total shares must be positive")
			}
			if req.PricePerShare == 0 {
				return dErrors.New(dErrors.CodeValidation, "price per share must be positive")
			}
			if req.TotalShares > math.MaxUint64/req.PricePerShare {
				return dErrors.New(dErrors.CodeValidation, "total value exceeds the representable settlement amount")
			}
			instrument, err := o.ledger.Instrument(req.InstrumentID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "unknown instrument")
			}
			if instrument.Exporter != actor {
				return dErrors.New(dErrors.CodeInvalidState, "only the instrument's exporter can tokenize it")
			}
			if _, err := o.ledger.Tokenization(req.InstrumentID); err == nil {
				return dErrors.New(dErrors.CodeConflict, "instrument is already tokenized")
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			unitName := req.UnitName
			if unitName == "" {
				unitName = "eBL"
			}
			anchor := note{Kind: "tokenization", InstrumentID: req.InstrumentID, Shares: req.TotalShares}.encode()
			txn, err := transaction.MakeAssetCreateTxn(actor, anchor, params,
				req.TotalShares, 0, false, actor, actor, actor, actor,
				unitName, req.AssetName, "", "")
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build asset create transaction")
			}
			return []types.Transaction{txn}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			if conf.AssetIndex == 0 {
				return nil, dErrors.New(dErrors.CodeInternal, "confirmation carried no asset index")
			}
			err := o.ledger.AppendTokenization(marketplace.Tokenization{
				InstrumentID:    req.InstrumentID,
				AssetID:         conf.AssetIndex,
				TotalShares:     req.TotalShares,
				AvailableShares: req.TotalShares,
				PricePerShare:   req.PricePerShare,
				TxID:            txid,
				CreatedAt:       time.Now(),
			})
			if err != nil {
				return nil, translateLedgerErr(err)
			}
			return TokenizationPayload{
				AssetID:     conf.AssetIndex,
				TotalShares: req.TotalShares,
				ExplorerURL: chain.ExplorerAssetURL(o.network, conf.AssetIndex),
			}, nil
		},
	})
}

// InvestRequest buys shares in a tokenized instrument.
type InvestRequest struct {
	InstrumentID string
	Shares       uint64
}

// InvestmentPayload is the domain payload of a settled investment.
type InvestmentPayload struct {
	InvestmentID string `json:"investment_id"`
	Shares       uint64 `json:"shares"`
	// Paid is in microalgos.
	Paid uint64 `json:"paid"`
}

// Invest settles a share purchase: a payment to the exporter grouped with a
// settlement-application call. Without a deployed settlement application the
// payment alone settles and the result is marked degraded.
func (o *Orchestrator) Invest(ctx context.Context, req InvestRequest) (Result, error) {
	var tokenization marketplace.Tokenization
	var instrument marketplace.Instrument

	return o.execute(ctx, operation{
		kind: KindInvest,
		validate: func(ctx context.Context, actor string) error {
			if req.Shares == 0 {
				return dErrors.New(dErrors.CodeValidation, "share count must be positive")
			}
			var err error
			instrument, err = o.ledger.Instrument(req.InstrumentID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "unknown instrument")
			}
			tokenization, err = o.ledger.Tokenization(req.InstrumentID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvalidState, "instrument is not tokenized")
			}
			if req.Shares > tokenization.AvailableShares {
				return dErrors.Newf(dErrors.CodeInvalidState, "%d shares requested, %d available", req.Shares, tokenization.AvailableShares)
			}
			if tokenization.PricePerShare != 0 && req.Shares > math.MaxUint64/tokenization.PricePerShare {
				return dErrors.New(dErrors.CodeValidation, "settlement amount exceeds the representable range")
			}
			if instrument.Exporter == actor {
				return dErrors.New(dErrors.CodeInvalidState, "the exporter cannot invest in its own instrument")
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			amount := req.Shares * tokenization.PricePerShare
			anchor := note{Kind: "investment", InstrumentID: req.InstrumentID, Shares: req.Shares}.encode()
			payment, err := transaction.MakePaymentTxn(actor, instrument.Exporter, amount, anchor, "", params)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build settlement payment")
			}
			if o.marketplaceAppID == 0 {
				run.degrade("settlement application not deployed; settled by plain payment")
				return []types.Transaction{payment}, nil
			}
			sender, err := decodeAddress(actor)
			if err != nil {
				return nil, err
			}
			appArgs := [][]byte{[]byte("invest"), []byte(req.InstrumentID)}
			call, err := transaction.MakeApplicationNoOpTx(o.marketplaceAppID, appArgs, nil, nil,
				[]uint64{tokenization.AssetID}, params, sender, nil, types.Digest{}, [32]byte{}, types.ZeroAddress)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build settlement call")
			}
			return []types.Transaction{payment, call}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			investmentID := uuid.NewString()
			paid := req.Shares * tokenization.PricePerShare
			err := o.ledger.AppendInvestment(marketplace.Investment{
				ID:           investmentID,
				InstrumentID: req.InstrumentID,
				Investor:     actor,
				Shares:       req.Shares,
				Paid:         paid,
				TxID:         txid,
				At:           time.Now(),
			})
			if err != nil {
				return nil, translateLedgerErr(err)
			}
			return InvestmentPayload{InvestmentID: investmentID, Shares: req.Shares, Paid: paid}, nil
		},
	})
}

// ListForSaleRequest offers an instrument's asset on the marketplace.
type ListForSaleRequest struct {
	InstrumentID string
	Prices       []marketplace.Price
}

// ListingPayload is the domain payload of a completed listing.
type ListingPayload struct {
	ListingID string `json:"listing_id"`
}

// ListForSale announces an active listing. The announcement goes through the
// registry application, or a note-payment anchor when it is not deployed.
func (o *Orchestrator) ListForSale(ctx context.Context, req ListForSaleRequest) (Result, error) {
	return o.execute(ctx, operation{
		kind: KindListForSale,
		validate: func(ctx context.Context, actor string) error {
			if len(req.Prices) == 0 {
				return dErrors.New(dErrors.CodeValidation, "at least one price is required")
			}
			seen := map[marketplace.Currency]bool{}
			for _, price := range req.Prices {
				if price.Amount == 0 {
					return dErrors.New(dErrors.CodeValidation, "price amount must be positive")
				}
				if price.Currency != marketplace.CurrencyAlgo && price.Currency != marketplace.CurrencyUSDC {
					return dErrors.Newf(dErrors.CodeValidation, "unsupported currency %q", price.Currency)
				}
				if price.Currency == marketplace.CurrencyUSDC && o.usdcAssetID == 0 {
					return dErrors.New(dErrors.CodeInvalidState, "no settlement asset configured for USDC")
				}
				if seen[price.Currency] {
					return dErrors.Newf(dErrors.CodeValidation, "duplicate price for currency %q", price.Currency)
				}
				seen[price.Currency] = true
			}
			if _, err := o.ledger.Instrument(req.InstrumentID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "unknown instrument")
			}
			for _, listing := range o.ledger.ActiveListings() {
				if listing.InstrumentID == req.InstrumentID {
					return dErrors.New(dErrors.CodeConflict, "instrument already has an active listing")
				}
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			anchor := note{Kind: "listing", InstrumentID: req.InstrumentID}.encode()
			if o.registryAppID == 0 {
				run.degrade("registry application not deployed; anchored by note payment")
				txn, err := transaction.MakePaymentTxn(actor, actor, 0, anchor, "", params)
				if err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build anchor transaction")
				}
				return []types.Transaction{txn}, nil
			}
			sender, err := decodeAddress(actor)
			if err != nil {
				return nil, err
			}
			appArgs := [][]byte{[]byte("list"), []byte(req.InstrumentID)}
			txn, err := transaction.MakeApplicationNoOpTx(o.registryAppID, appArgs, nil, nil, nil,
				params, sender, anchor, types.Digest{}, [32]byte{}, types.ZeroAddress)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build registry call")
			}
			return []types.Transaction{txn}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			listingID := uuid.NewString()
			err := o.ledger.AppendListing(marketplace.Listing{
				ID:           listingID,
				InstrumentID: req.InstrumentID,
				Seller:       actor,
				Prices:       req.Prices,
				Status:       marketplace.ListingActive,
				TxID:         txid,
				ListedAt:     time.Now(),
			})
			if err != nil {
				return nil, translateLedgerErr(err)
			}
			return ListingPayload{ListingID: listingID}, nil
		},
	})
}

// PurchaseRequest buys an active listing outright.
type PurchaseRequest struct {
	ListingID string
	Currency  marketplace.Currency
}

// PurchasePayload is the domain payload of a settled purchase.
type PurchasePayload struct {
	SaleID    string `json:"sale_id"`
	ListingID string `json:"listing_id"`
	// Paid is in the chosen currency's base units.
	Paid uint64 `json:"paid"`
}

// Purchase settles a listing as one atomic group: the payment to the seller
// and the marketplace-application call either both apply or neither does.
// The listing flips to SOLD only after the group confirms.
func (o *Orchestrator) Purchase(ctx context.Context, req PurchaseRequest) (Result, error) {
	var listing marketplace.Listing
	var price uint64

	return o.execute(ctx, operation{
		kind: KindPurchase,
		validate: func(ctx context.Context, actor string) error {
			if req.Currency == "" {
				return dErrors.New(dErrors.CodeValidation, "settlement currency is required")
			}
			var err error
			listing, err = o.ledger.Listing(req.ListingID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "unknown listing")
			}
			if listing.Status != marketplace.ListingActive {
				return dErrors.Newf(dErrors.CodeInvalidState, "listing is %s", listing.Status)
			}
			if listing.Seller == actor {
				return dErrors.New(dErrors.CodeInvalidState, "the seller cannot purchase its own listing")
			}
			var offered bool
			price, offered = listing.PriceIn(req.Currency)
			if !offered {
				return dErrors.Newf(dErrors.CodeValidation, "listing is not offered in %s", req.Currency)
			}
			if req.Currency != marketplace.CurrencyAlgo && o.usdcAssetID == 0 {
				return dErrors.Newf(dErrors.CodeInvalidState, "no settlement asset configured for %s", req.Currency)
			}
			return nil
		},
		build: func(ctx context.Context, run *run, actor string, params types.SuggestedParams) ([]types.Transaction, error) {
			anchor := note{Kind: "purchase", ListingID: req.ListingID}.encode()

			// The settlement leg moves the chosen currency: microalgos by
			// payment, anything else by asset transfer of its ASA.
			var settle types.Transaction
			var err error
			if req.Currency == marketplace.CurrencyAlgo {
				settle, err = transaction.MakePaymentTxn(actor, listing.Seller, price, anchor, "", params)
			} else {
				settle, err = transaction.MakeAssetTransferTxn(actor, listing.Seller, price, anchor, params, "", o.usdcAssetID)
			}
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build settlement transfer")
			}
			if o.marketplaceAppID == 0 {
				run.degrade("settlement application not deployed; settled by plain transfer")
				return []types.Transaction{settle}, nil
			}
			sender, err := decodeAddress(actor)
			if err != nil {
				return nil, err
			}
			var foreignAssets []uint64
			if req.Currency != marketplace.CurrencyAlgo {
				foreignAssets = []uint64{o.usdcAssetID}
			}
			appArgs := [][]byte{[]byte("purchase"), []byte(req.ListingID)}
			call, err := transaction.MakeApplicationNoOpTx(o.marketplaceAppID, appArgs,
				[]string{listing.Seller}, nil, foreignAssets, params, sender, nil,
				types.Digest{}, [32]byte{}, types.ZeroAddress)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build settlement call")
			}
			return []types.Transaction{settle, call}, nil
		},
		commit: func(ctx context.Context, run *run, actor, txid string, conf chain.Confirmation) (any, error) {
			saleID := uuid.NewString()
			if err := o.ledger.MarkListingSold(req.ListingID, actor, saleID, txid); err != nil {
				return nil, translateLedgerErr(err)
			}
			return PurchasePayload{SaleID: saleID, ListingID: req.ListingID, Paid: price}, nil
		},
	})
}

// translateLedgerErr maps projection failures onto the domain taxonomy.
func translateLedgerErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "ledger entity not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "ledger entity already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "ledger entity is in the wrong state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger append failed")
	}
}
