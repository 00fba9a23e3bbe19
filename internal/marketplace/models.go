// Package marketplace holds the session projection of created instruments,
// tokenizations, investments, and listings. Entities exist only as a side
// effect of confirmed on-chain operations; the orchestrator is the sole
// writer.
package marketplace

import "time"

// SubmissionStatus tracks a document submission through review.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionVerified SubmissionStatus = "VERIFIED"
)

// ListingStatus tracks a marketplace listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingSold      ListingStatus = "SOLD"
	ListingCancelled ListingStatus = "CANCELLED"
)

// Currency identifies a settlement currency for a listing price.
type Currency string

const (
	CurrencyAlgo Currency = "ALGO"
	CurrencyUSDC Currency = "USDC"
)

// DocumentSubmission is one submitted trade document awaiting verification.
type DocumentSubmission struct {
	ID          string
	Submitter   string
	DocType     string
	ContentCID  string
	TxID        string
	Status      SubmissionStatus
	SubmittedAt time.Time
}

// Instrument is one Bill of Lading eligible for financing.
type Instrument struct {
	ID           string
	Reference    string
	Exporter     string
	Carrier      string
	MetadataCID  string
	TxID         string
	CreatedRound uint64
	CreatedAt    time.Time
	// Degraded marks instruments created through a fallback path (e.g. the
	// registry application was not deployed). Never conflated with genuine
	// full-path confirmations.
	Degraded bool
}

// Tokenization is the fractional-share offering derived from an instrument.
// At most one per instrument.
type Tokenization struct {
	InstrumentID    string
	AssetID         uint64
	TotalShares     uint64
	AvailableShares uint64
	// PricePerShare is in microalgos.
	PricePerShare uint64
	// FundingProgress is 100 * sold / total, recomputed on every investment
	// append, never stored stale.
	FundingProgress float64
	TxID            string
	CreatedAt       time.Time
}

// Investment is one settled purchase of shares in a tokenization.
type Investment struct {
	ID           string
	InstrumentID string
	Investor     string
	Shares       uint64
	// Paid is in microalgos.
	Paid uint64
	TxID string
	At   time.Time
}

// Price is one settlement option on a listing.
type Price struct {
	Currency Currency
	// Amount is in the currency's base units (microalgos for ALGO).
	Amount uint64
}

// Listing is an active offer to sell an instrument's asset. At most one
// active listing per instrument.
type Listing struct {
	ID           string
	InstrumentID string
	Seller       string
	Prices       []Price
	Status       ListingStatus
	TxID         string
	ListedAt     time.Time

	// Set when the listing is sold.
	SaleID   string
	Buyer    string
	SoldTxID string
}

// PriceIn returns the listing price in the given currency, if offered.
func (l Listing) PriceIn(currency Currency) (uint64, bool) {
	for _, p := range l.Prices {
		if p.Currency == currency {
			return p.Amount, true
		}
	}
	return 0, false
}
