package httptransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lading/internal/archive"
	"lading/internal/marketplace"
	"lading/internal/orchestrator"
	"lading/internal/platform/middleware"
	"lading/internal/transport/http/shared"
	dErrors "lading/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_operations.go -destination=mocks/operation-mocks.go -package=mocks OperationService,HistoryStore

// OperationService defines the orchestrated operations the HTTP layer
// exposes.
type OperationService interface {
	SubmitDocument(ctx context.Context, req orchestrator.SubmitDocumentRequest) (orchestrator.Result, error)
	CreateInstrument(ctx context.Context, req orchestrator.CreateInstrumentRequest) (orchestrator.Result, error)
	Tokenize(ctx context.Context, req orchestrator.TokenizeRequest) (orchestrator.Result, error)
	Invest(ctx context.Context, req orchestrator.InvestRequest) (orchestrator.Result, error)
	ListForSale(ctx context.Context, req orchestrator.ListForSaleRequest) (orchestrator.Result, error)
	Purchase(ctx context.Context, req orchestrator.PurchaseRequest) (orchestrator.Result, error)
}

// HistoryStore reads archived operation results. Nil disables the history
// endpoint.
type HistoryStore interface {
	ByActor(ctx context.Context, actor string, limit int) ([]archive.Record, error)
	Recent(ctx context.Context, limit int) ([]archive.Record, error)
}

// OperationsHandler handles the orchestrated operation endpoints.
type OperationsHandler struct {
	service OperationService
	history HistoryStore
	logger  *slog.Logger
}

// NewOperationsHandler creates an OperationsHandler.
func NewOperationsHandler(service OperationService, history HistoryStore, logger *slog.Logger) *OperationsHandler {
	return &OperationsHandler{service: service, history: history, logger: logger}
}

// Register registers the operation routes.
func (h *OperationsHandler) Register(r chi.Router) {
	r.Post("/operations/documents", h.handleSubmitDocument)
	r.Post("/operations/instruments", h.handleCreateInstrument)
	r.Post("/operations/instruments/{instrumentID}/tokenize", h.handleTokenize)
	r.Post("/operations/instruments/{instrumentID}/invest", h.handleInvest)
	r.Post("/operations/instruments/{instrumentID}/list", h.handleListForSale)
	r.Post("/operations/listings/{listingID}/purchase", h.handlePurchase)
	r.Get("/operations/history", h.handleHistory)
}

type submitDocumentRequest struct {
	DocType     string `json:"doc_type"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	// Content is base64-encoded file bytes.
	Content string `json:"content"`
}

func (h *OperationsHandler) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	var req submitDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "content must be base64"))
		return
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.SubmitDocument(ctx, orchestrator.SubmitDocumentRequest{
			DocType:     req.DocType,
			FileName:    req.FileName,
			ContentType: req.ContentType,
			Content:     content,
		})
	})
}

type createInstrumentRequest struct {
	Reference string            `json:"reference"`
	Carrier   string            `json:"carrier,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (h *OperationsHandler) handleCreateInstrument(w http.ResponseWriter, r *http.Request) {
	var req createInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.CreateInstrument(ctx, orchestrator.CreateInstrumentRequest{
			Reference: req.Reference,
			Carrier:   req.Carrier,
			Metadata:  req.Metadata,
		})
	})
}

type tokenizeRequest struct {
	TotalShares   uint64 `json:"total_shares"`
	PricePerShare uint64 `json:"price_per_share"`
	UnitName      string `json:"unit_name,omitempty"`
	AssetName     string `json:"asset_name,omitempty"`
}

func (h *OperationsHandler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")
	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.Tokenize(ctx, orchestrator.TokenizeRequest{
			InstrumentID:  instrumentID,
			TotalShares:   req.TotalShares,
			PricePerShare: req.PricePerShare,
			UnitName:      req.UnitName,
			AssetName:     req.AssetName,
		})
	})
}

type investRequest struct {
	Shares uint64 `json:"shares"`
}

func (h *OperationsHandler) handleInvest(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")
	var req investRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.Invest(ctx, orchestrator.InvestRequest{
			InstrumentID: instrumentID,
			Shares:       req.Shares,
		})
	})
}

type listForSaleRequest struct {
	Prices []struct {
		Currency string `json:"currency"`
		Amount   uint64 `json:"amount"`
	} `json:"prices"`
}

func (h *OperationsHandler) handleListForSale(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")
	var req listForSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	prices := make([]marketplace.Price, 0, len(req.Prices))
	for _, p := range req.Prices {
		prices = append(prices, marketplace.Price{
			Currency: marketplace.Currency(p.Currency),
			Amount:   p.Amount,
		})
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.ListForSale(ctx, orchestrator.ListForSaleRequest{
			InstrumentID: instrumentID,
			Prices:       prices,
		})
	})
}

type purchaseRequest struct {
	Currency string `json:"currency"`
}

func (h *OperationsHandler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	h.respond(w, r, func(ctx context.Context) (orchestrator.Result, error) {
		return h.service.Purchase(ctx, orchestrator.PurchaseRequest{
			ListingID: listingID,
			Currency:  marketplace.Currency(req.Currency),
		})
	})
}

func (h *OperationsHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.history == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "operation history is not enabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	actor := r.URL.Query().Get("actor")

	var records []archive.Record
	var err error
	if actor != "" {
		records, err = h.history.ByActor(ctx, actor, limit)
	} else {
		records, err = h.history.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "history query failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "history query failed"))
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

// respond runs the operation and writes the uniform result envelope.
func (h *OperationsHandler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context) (orchestrator.Result, error)) {
	ctx := r.Context()
	result, err := op(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "operation rejected",
			"code", dErrors.CodeOf(err),
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
