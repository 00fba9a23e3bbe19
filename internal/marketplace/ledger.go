package marketplace

import (
	"fmt"
	"sync"

	"lading/pkg/platform/sentinel"
)

// Ledger is the in-memory projection the UI reads. Writes happen only after
// on-chain confirmation; queries are pure reads and never mutate state.
type Ledger struct {
	mu            sync.RWMutex
	submissions   []DocumentSubmission
	instruments   map[string]*Instrument
	order         []string
	tokenizations map[string]*Tokenization
	investments   []Investment
	listings      map[string]*Listing
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		instruments:   make(map[string]*Instrument),
		tokenizations: make(map[string]*Tokenization),
		listings:      make(map[string]*Listing),
	}
}

// AppendSubmission records a confirmed document submission.
func (l *Ledger) AppendSubmission(submission DocumentSubmission) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submissions = append(l.submissions, submission)
}

// SubmissionsBySubmitter returns submissions scoped to one address.
func (l *Ledger) SubmissionsBySubmitter(address string) []DocumentSubmission {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []DocumentSubmission
	for _, s := range l.submissions {
		if s.Submitter == address {
			out = append(out, s)
		}
	}
	return out
}

// AppendInstrument records a confirmed instrument creation.
func (l *Ledger) AppendInstrument(instrument Instrument) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := instrument
	l.instruments[instrument.ID] = &copied
	l.order = append(l.order, instrument.ID)
}

// Instrument returns one instrument by id.
func (l *Ledger) Instrument(id string) (Instrument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	inst, ok := l.instruments[id]
	if !ok {
		return Instrument{}, fmt.Errorf("instrument %s: %w", id, sentinel.ErrNotFound)
	}
	return *inst, nil
}

// Instruments returns every instrument in creation order.
func (l *Ledger) Instruments() []Instrument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Instrument, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.instruments[id])
	}
	return out
}

// InstrumentsByExporter returns instruments created by one exporter address.
func (l *Ledger) InstrumentsByExporter(address string) []Instrument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Instrument
	for _, id := range l.order {
		if inst := l.instruments[id]; inst.Exporter == address {
			out = append(out, *inst)
		}
	}
	return out
}

// InstrumentsByCarrier returns instruments naming one carrier address.
func (l *Ledger) InstrumentsByCarrier(address string) []Instrument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Instrument
	for _, id := range l.order {
		if inst := l.instruments[id]; inst.Carrier == address {
			out = append(out, *inst)
		}
	}
	return out
}

// AppendTokenization records a confirmed tokenization. At most one per
// instrument.
func (l *Ledger) AppendTokenization(tokenization Tokenization) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.instruments[tokenization.InstrumentID]; !ok {
		return fmt.Errorf("instrument %s: %w", tokenization.InstrumentID, sentinel.ErrNotFound)
	}
	if _, ok := l.tokenizations[tokenization.InstrumentID]; ok {
		return fmt.Errorf("instrument %s already tokenized: %w", tokenization.InstrumentID, sentinel.ErrConflict)
	}
	copied := tokenization
	copied.FundingProgress = fundingProgress(copied.TotalShares, copied.AvailableShares)
	l.tokenizations[tokenization.InstrumentID] = &copied
	return nil
}

// Tokenization returns the tokenization for an instrument, if any.
func (l *Ledger) Tokenization(instrumentID string) (Tokenization, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tok, ok := l.tokenizations[instrumentID]
	if !ok {
		return Tokenization{}, fmt.Errorf("tokenization for %s: %w", instrumentID, sentinel.ErrNotFound)
	}
	return *tok, nil
}

// Tokenizations returns every tokenization keyed by instrument.
func (l *Ledger) Tokenizations() []Tokenization {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Tokenization, 0, len(l.tokenizations))
	for _, id := range l.order {
		if tok, ok := l.tokenizations[id]; ok {
			out = append(out, *tok)
		}
	}
	return out
}

// AppendInvestment records a settled investment, decrements available shares,
// and recomputes funding progress in the same critical section.
func (l *Ledger) AppendInvestment(investment Investment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.tokenizations[investment.InstrumentID]
	if !ok {
		return fmt.Errorf("tokenization for %s: %w", investment.InstrumentID, sentinel.ErrNotFound)
	}
	if investment.Shares > tok.AvailableShares {
		return fmt.Errorf("%d shares requested, %d available: %w",
			investment.Shares, tok.AvailableShares, sentinel.ErrInvalidState)
	}
	tok.AvailableShares -= investment.Shares
	tok.FundingProgress = fundingProgress(tok.TotalShares, tok.AvailableShares)
	l.investments = append(l.investments, investment)
	return nil
}

// InvestmentsByInstrument returns investments into one instrument.
func (l *Ledger) InvestmentsByInstrument(instrumentID string) []Investment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Investment
	for _, inv := range l.investments {
		if inv.InstrumentID == instrumentID {
			out = append(out, inv)
		}
	}
	return out
}

// InvestmentsByInvestor returns investments made by one address.
func (l *Ledger) InvestmentsByInvestor(address string) []Investment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Investment
	for _, inv := range l.investments {
		if inv.Investor == address {
			out = append(out, inv)
		}
	}
	return out
}

// AppendListing records a confirmed listing. Rejected when the instrument
// already has an active listing.
func (l *Ledger) AppendListing(listing Listing) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.instruments[listing.InstrumentID]; !ok {
		return fmt.Errorf("instrument %s: %w", listing.InstrumentID, sentinel.ErrNotFound)
	}
	for _, existing := range l.listings {
		if existing.InstrumentID == listing.InstrumentID && existing.Status == ListingActive {
			return fmt.Errorf("instrument %s already listed: %w", listing.InstrumentID, sentinel.ErrConflict)
		}
	}
	copied := listing
	l.listings[listing.ID] = &copied
	return nil
}

// Listing returns one listing by id.
func (l *Ledger) Listing(id string) (Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	listing, ok := l.listings[id]
	if !ok {
		return Listing{}, fmt.Errorf("listing %s: %w", id, sentinel.ErrNotFound)
	}
	return *listing, nil
}

// ActiveListings returns every listing still open for purchase.
func (l *Ledger) ActiveListings() []Listing {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Listing
	for _, id := range l.order {
		for _, listing := range l.listings {
			if listing.InstrumentID == id && listing.Status == ListingActive {
				out = append(out, *listing)
			}
		}
	}
	return out
}

// ListingsBySeller returns listings created by one seller address.
func (l *Ledger) ListingsBySeller(address string) []Listing {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Listing
	for _, id := range l.order {
		for _, listing := range l.listings {
			if listing.InstrumentID == id && listing.Seller == address {
				out = append(out, *listing)
			}
		}
	}
	return out
}

// MarkListingSold settles a listing. Only an ACTIVE listing can be sold.
func (l *Ledger) MarkListingSold(listingID, buyer, saleID, txid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	listing, ok := l.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	if listing.Status != ListingActive {
		return fmt.Errorf("listing %s is %s: %w", listingID, listing.Status, sentinel.ErrInvalidState)
	}
	listing.Status = ListingSold
	listing.Buyer = buyer
	listing.SaleID = saleID
	listing.SoldTxID = txid
	return nil
}

func fundingProgress(total, available uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(total-available) / float64(total)
}
