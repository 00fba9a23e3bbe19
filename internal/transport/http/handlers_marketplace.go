package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lading/internal/marketplace"
	"lading/internal/transport/http/shared"
	dErrors "lading/pkg/domain-errors"
)

// MarketplaceHandler serves the read-side projection. All endpoints are pure
// queries over the in-memory ledger.
type MarketplaceHandler struct {
	ledger *marketplace.Ledger
}

// NewMarketplaceHandler creates a MarketplaceHandler.
func NewMarketplaceHandler(ledger *marketplace.Ledger) *MarketplaceHandler {
	return &MarketplaceHandler{ledger: ledger}
}

// Register registers the marketplace query routes.
func (h *MarketplaceHandler) Register(r chi.Router) {
	r.Get("/marketplace/instruments", h.handleInstruments)
	r.Get("/marketplace/instruments/{instrumentID}", h.handleInstrument)
	r.Get("/marketplace/instruments/{instrumentID}/tokenization", h.handleTokenization)
	r.Get("/marketplace/instruments/{instrumentID}/investments", h.handleInvestments)
	r.Get("/marketplace/listings", h.handleListings)
	r.Get("/marketplace/submissions", h.handleSubmissions)
	r.Get("/marketplace/investments", h.handleInvestmentsByInvestor)
}

func (h *MarketplaceHandler) handleInstruments(w http.ResponseWriter, r *http.Request) {
	var out []marketplace.Instrument
	switch {
	case r.URL.Query().Get("exporter") != "":
		out = h.ledger.InstrumentsByExporter(r.URL.Query().Get("exporter"))
	case r.URL.Query().Get("carrier") != "":
		out = h.ledger.InstrumentsByCarrier(r.URL.Query().Get("carrier"))
	default:
		out = h.ledger.Instruments()
	}
	if out == nil {
		out = []marketplace.Instrument{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *MarketplaceHandler) handleInstrument(w http.ResponseWriter, r *http.Request) {
	instrument, err := h.ledger.Instrument(chi.URLParam(r, "instrumentID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown instrument"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, instrument)
}

func (h *MarketplaceHandler) handleTokenization(w http.ResponseWriter, r *http.Request) {
	tokenization, err := h.ledger.Tokenization(chi.URLParam(r, "instrumentID"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "instrument is not tokenized"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenization)
}

func (h *MarketplaceHandler) handleInvestments(w http.ResponseWriter, r *http.Request) {
	out := h.ledger.InvestmentsByInstrument(chi.URLParam(r, "instrumentID"))
	if out == nil {
		out = []marketplace.Investment{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *MarketplaceHandler) handleListings(w http.ResponseWriter, r *http.Request) {
	var out []marketplace.Listing
	if seller := r.URL.Query().Get("seller"); seller != "" {
		out = h.ledger.ListingsBySeller(seller)
	} else {
		out = h.ledger.ActiveListings()
	}
	if out == nil {
		out = []marketplace.Listing{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *MarketplaceHandler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	submitter := r.URL.Query().Get("submitter")
	if submitter == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "submitter query parameter is required"))
		return
	}
	out := h.ledger.SubmissionsBySubmitter(submitter)
	if out == nil {
		out = []marketplace.DocumentSubmission{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *MarketplaceHandler) handleInvestmentsByInvestor(w http.ResponseWriter, r *http.Request) {
	investor := r.URL.Query().Get("investor")
	if investor == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "investor query parameter is required"))
		return
	}
	out := h.ledger.InvestmentsByInvestor(investor)
	if out == nil {
		out = []marketplace.Investment{}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
