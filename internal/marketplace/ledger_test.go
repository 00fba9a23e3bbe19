package marketplace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lading/pkg/platform/sentinel"
)

type LedgerSuite struct {
	suite.Suite
	ledger *Ledger
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewLedger()
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) addInstrument(id, exporter string) {
	s.ledger.AppendInstrument(Instrument{
		ID:        id,
		Reference: "BL-" + id,
		Exporter:  exporter,
		TxID:      "TX" + id,
		CreatedAt: time.Now(),
	})
}

func (s *LedgerSuite) TestInstrumentQueriesAreRoleScoped() {
	s.addInstrument("a", "EXPORTER_1")
	s.addInstrument("b", "EXPORTER_1")
	s.addInstrument("c", "EXPORTER_2")

	mine := s.ledger.InstrumentsByExporter("EXPORTER_1")
	s.Require().Len(mine, 2)
	s.Equal("a", mine[0].ID)
	s.Equal("b", mine[1].ID)

	s.Empty(s.ledger.InstrumentsByExporter("SOMEONE_ELSE"))
	s.Len(s.ledger.Instruments(), 3)
}

func (s *LedgerSuite) TestTokenizationIsAtMostOnePerInstrument() {
	s.addInstrument("a", "EXP")

	err := s.ledger.AppendTokenization(Tokenization{InstrumentID: "missing", TotalShares: 10, AvailableShares: 10})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.ledger.AppendTokenization(Tokenization{
		InstrumentID: "a", AssetID: 101, TotalShares: 100, AvailableShares: 100, PricePerShare: 5_000_000,
	}))
	err = s.ledger.AppendTokenization(Tokenization{InstrumentID: "a", TotalShares: 10, AvailableShares: 10})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *LedgerSuite) TestFundingProgressIsExact() {
	s.addInstrument("a", "EXP")
	s.Require().NoError(s.ledger.AppendTokenization(Tokenization{
		InstrumentID: "a", AssetID: 101, TotalShares: 80, AvailableShares: 80,
	}))

	s.Require().NoError(s.ledger.AppendInvestment(Investment{ID: "i1", InstrumentID: "a", Investor: "INV_1", Shares: 20}))
	tok, err := s.ledger.Tokenization("a")
	s.Require().NoError(err)
	s.Equal(uint64(60), tok.AvailableShares)
	s.InEpsilon(25.0, tok.FundingProgress, 1e-9)

	s.Require().NoError(s.ledger.AppendInvestment(Investment{ID: "i2", InstrumentID: "a", Investor: "INV_2", Shares: 60}))
	tok, err = s.ledger.Tokenization("a")
	s.Require().NoError(err)
	s.Equal(uint64(0), tok.AvailableShares)
	s.InEpsilon(100.0, tok.FundingProgress, 1e-9)

	// Oversubscription is rejected and leaves the projection untouched.
	err = s.ledger.AppendInvestment(Investment{ID: "i3", InstrumentID: "a", Investor: "INV_3", Shares: 1})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	s.Len(s.ledger.InvestmentsByInstrument("a"), 2)
}

func (s *LedgerSuite) TestInvestorScopedQueries() {
	s.addInstrument("a", "EXP")
	s.Require().NoError(s.ledger.AppendTokenization(Tokenization{InstrumentID: "a", TotalShares: 10, AvailableShares: 10}))
	s.Require().NoError(s.ledger.AppendInvestment(Investment{ID: "i1", InstrumentID: "a", Investor: "INV_1", Shares: 4}))
	s.Require().NoError(s.ledger.AppendInvestment(Investment{ID: "i2", InstrumentID: "a", Investor: "INV_2", Shares: 3}))

	s.Len(s.ledger.InvestmentsByInvestor("INV_1"), 1)
	s.Len(s.ledger.InvestmentsByInvestor("INV_2"), 1)
	s.Empty(s.ledger.InvestmentsByInvestor("INV_3"))
}

func (s *LedgerSuite) TestOneActiveListingPerInstrument() {
	s.addInstrument("a", "EXP")

	s.Require().NoError(s.ledger.AppendListing(Listing{
		ID: "l1", InstrumentID: "a", Seller: "EXP",
		Prices: []Price{{Currency: CurrencyAlgo, Amount: 50_000_000}},
		Status: ListingActive,
	}))
	err := s.ledger.AppendListing(Listing{ID: "l2", InstrumentID: "a", Seller: "EXP", Status: ListingActive})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	// Once sold, a new listing may be created.
	s.Require().NoError(s.ledger.MarkListingSold("l1", "BUYER", "sale-1", "TXSALE"))
	s.Require().NoError(s.ledger.AppendListing(Listing{ID: "l3", InstrumentID: "a", Seller: "BUYER", Status: ListingActive}))
}

func (s *LedgerSuite) TestPurchaseRemovesListingFromActiveSet() {
	s.addInstrument("a", "EXP")
	s.addInstrument("b", "EXP")
	s.Require().NoError(s.ledger.AppendListing(Listing{
		ID: "la", InstrumentID: "a", Seller: "EXP",
		Prices: []Price{{Currency: CurrencyAlgo, Amount: 50_000_000}},
		Status: ListingActive,
	}))
	s.Require().NoError(s.ledger.AppendListing(Listing{
		ID: "lb", InstrumentID: "b", Seller: "EXP",
		Prices: []Price{{Currency: CurrencyAlgo, Amount: 75_000_000}},
		Status: ListingActive,
	}))

	s.Require().NoError(s.ledger.MarkListingSold("la", "BUYER", "sale-1", "TXSALE"))

	active := s.ledger.ActiveListings()
	s.Require().Len(active, 1)
	s.Equal("lb", active[0].ID)

	sold, err := s.ledger.Listing("la")
	s.Require().NoError(err)
	s.Equal(ListingSold, sold.Status)
	s.Equal("BUYER", sold.Buyer)
	s.Equal("sale-1", sold.SaleID)

	// A second purchase of the same listing is an invalid state.
	err = s.ledger.MarkListingSold("la", "BUYER_2", "sale-2", "TX2")
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *LedgerSuite) TestSubmissionsScopedBySubmitter() {
	s.ledger.AppendSubmission(DocumentSubmission{ID: "d1", Submitter: "EXP", DocType: "INVOICE", Status: SubmissionPending})
	s.ledger.AppendSubmission(DocumentSubmission{ID: "d2", Submitter: "CAR", DocType: "BILL_OF_LADING", Status: SubmissionPending})

	mine := s.ledger.SubmissionsBySubmitter("EXP")
	s.Require().Len(mine, 1)
	s.Equal("d1", mine[0].ID)
}

func (s *LedgerSuite) TestPriceIn() {
	listing := Listing{Prices: []Price{{Currency: CurrencyAlgo, Amount: 10}, {Currency: CurrencyUSDC, Amount: 7}}}
	amount, ok := listing.PriceIn(CurrencyUSDC)
	s.True(ok)
	s.Equal(uint64(7), amount)
	_, ok = listing.PriceIn(Currency("EUR"))
	s.False(ok)
}
