package httptransport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lading/internal/archive"
	"lading/internal/marketplace"
	"lading/internal/orchestrator"
	"lading/internal/transport/http/mocks"
	dErrors "lading/pkg/domain-errors"
)

type OperationsHandlerSuite struct {
	suite.Suite
}

func TestOperationsHandlerSuite(t *testing.T) {
	suite.Run(t, new(OperationsHandlerSuite))
}

func (s *OperationsHandlerSuite) newHandler(t *testing.T) (*mocks.MockOperationService, *mocks.MockHistoryStore, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockOperationService(ctrl)
	mockHistory := mocks.NewMockHistoryStore(ctrl)
	router := chi.NewRouter()
	NewOperationsHandler(mockService, mockHistory, slog.New(slog.DiscardHandler)).Register(router)
	return mockService, mockHistory, router
}

func (s *OperationsHandlerSuite) do(t *testing.T, router chi.Router, method, path, body string) (int, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func (s *OperationsHandlerSuite) TestHandler_SubmitDocument() {
	s.T().Run("decodes base64 content and returns the result - 200", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		content := []byte("the shipment contents")
		mockService.EXPECT().SubmitDocument(gomock.Any(), orchestrator.SubmitDocumentRequest{
			DocType:     "INVOICE",
			FileName:    "invoice.pdf",
			ContentType: "application/pdf",
			Content:     content,
		}).Return(orchestrator.Result{
			Kind:           orchestrator.KindSubmitDocument,
			TransactionID:  "TX123",
			ConfirmedRound: 12,
		}, nil)

		body := fmt.Sprintf(`{"doc_type":"INVOICE","file_name":"invoice.pdf","content_type":"application/pdf","content":%q}`,
			base64.StdEncoding.EncodeToString(content))
		status, got := s.do(t, router, http.MethodPost, "/operations/documents", body)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "TX123", got["transaction_id"])
		assert.Equal(t, float64(12), got["confirmed_round"])
	})

	s.T().Run("returns 400 when content is not base64", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().SubmitDocument(gomock.Any(), gomock.Any()).Times(0)

		status, got := s.do(t, router, http.MethodPost, "/operations/documents",
			`{"doc_type":"INVOICE","content":"not base64!!!"}`)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(dErrors.CodeValidation), got["error"])
	})

	s.T().Run("returns 400 when body is invalid json", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().SubmitDocument(gomock.Any(), gomock.Any()).Times(0)

		status, got := s.do(t, router, http.MethodPost, "/operations/documents", "{bad-json")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(dErrors.CodeValidation), got["error"])
	})

	s.T().Run("surfaces degraded results with warnings", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().SubmitDocument(gomock.Any(), gomock.Any()).Return(orchestrator.Result{
			Kind:          orchestrator.KindSubmitDocument,
			TransactionID: "TX124",
			Degraded:      true,
			Warnings:      []string{"content pinning unavailable, anchored hash only"},
		}, nil)

		status, got := s.do(t, router, http.MethodPost, "/operations/documents",
			fmt.Sprintf(`{"doc_type":"INVOICE","content":%q}`, base64.StdEncoding.EncodeToString([]byte("x"))))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, got["degraded"])
		assert.Len(t, got["warnings"], 1)
	})

	s.T().Run("returns 401 when no identity is active", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().SubmitDocument(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeNoIdentity, "no active identity"))

		status, got := s.do(t, router, http.MethodPost, "/operations/documents",
			fmt.Sprintf(`{"doc_type":"INVOICE","content":%q}`, base64.StdEncoding.EncodeToString([]byte("x"))))

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, string(dErrors.CodeNoIdentity), got["error"])
	})
}

func (s *OperationsHandlerSuite) TestHandler_Tokenize() {
	s.T().Run("passes the path instrument id through - 200", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		instrumentID := uuid.NewString()
		mockService.EXPECT().Tokenize(gomock.Any(), orchestrator.TokenizeRequest{
			InstrumentID:  instrumentID,
			TotalShares:   100,
			PricePerShare: 250_000,
			UnitName:      "eBL",
		}).Return(orchestrator.Result{
			Kind:          orchestrator.KindTokenize,
			TransactionID: "TXTOKEN",
		}, nil)

		status, got := s.do(t, router, http.MethodPost,
			"/operations/instruments/"+instrumentID+"/tokenize",
			`{"total_shares":100,"price_per_share":250000,"unit_name":"eBL"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "TXTOKEN", got["transaction_id"])
	})

	s.T().Run("double tokenization - 409", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().Tokenize(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeConflict, "instrument is already tokenized"))

		status, got := s.do(t, router, http.MethodPost,
			"/operations/instruments/"+uuid.NewString()+"/tokenize",
			`{"total_shares":100,"price_per_share":1}`)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(dErrors.CodeConflict), got["error"])
	})

	s.T().Run("node outage - 502", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().Tokenize(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeConnectivity, "node unreachable"))

		status, got := s.do(t, router, http.MethodPost,
			"/operations/instruments/"+uuid.NewString()+"/tokenize",
			`{"total_shares":100,"price_per_share":1}`)

		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, string(dErrors.CodeConnectivity), got["error"])
	})

	s.T().Run("confirmation timeout - 504", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().Tokenize(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeConfirmationTimeout, "transaction not confirmed in time"))

		status, got := s.do(t, router, http.MethodPost,
			"/operations/instruments/"+uuid.NewString()+"/tokenize",
			`{"total_shares":100,"price_per_share":1}`)

		assert.Equal(t, http.StatusGatewayTimeout, status)
		assert.Equal(t, string(dErrors.CodeConfirmationTimeout), got["error"])
	})
}

func (s *OperationsHandlerSuite) TestHandler_ListForSale() {
	s.T().Run("maps price entries onto the request - 200", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		instrumentID := uuid.NewString()
		mockService.EXPECT().ListForSale(gomock.Any(), orchestrator.ListForSaleRequest{
			InstrumentID: instrumentID,
			Prices: []marketplace.Price{
				{Currency: marketplace.CurrencyAlgo, Amount: 5_000_000},
				{Currency: marketplace.CurrencyUSDC, Amount: 1_200},
			},
		}).Return(orchestrator.Result{Kind: orchestrator.KindListForSale, TransactionID: "TXLIST"}, nil)

		status, got := s.do(t, router, http.MethodPost,
			"/operations/instruments/"+instrumentID+"/list",
			`{"prices":[{"currency":"ALGO","amount":5000000},{"currency":"USDC","amount":1200}]}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "TXLIST", got["transaction_id"])
	})
}

func (s *OperationsHandlerSuite) TestHandler_Purchase() {
	s.T().Run("purchases a listing - 200", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		listingID := uuid.NewString()
		mockService.EXPECT().Purchase(gomock.Any(), orchestrator.PurchaseRequest{
			ListingID: listingID,
			Currency:  marketplace.CurrencyAlgo,
		}).Return(orchestrator.Result{Kind: orchestrator.KindPurchase, TransactionID: "TXBUY"}, nil)

		status, got := s.do(t, router, http.MethodPost,
			"/operations/listings/"+listingID+"/purchase", `{"currency":"ALGO"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "TXBUY", got["transaction_id"])
	})

	s.T().Run("unknown listing - 404", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().Purchase(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeNotFound, "listing not found"))

		status, got := s.do(t, router, http.MethodPost,
			"/operations/listings/"+uuid.NewString()+"/purchase", `{"currency":"ALGO"}`)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, string(dErrors.CodeNotFound), got["error"])
	})

	s.T().Run("sold listing - 409", func(t *testing.T) {
		mockService, _, router := s.newHandler(t)
		mockService.EXPECT().Purchase(gomock.Any(), gomock.Any()).
			Return(orchestrator.Result{}, dErrors.New(dErrors.CodeInvalidState, "listing is no longer active"))

		status, got := s.do(t, router, http.MethodPost,
			"/operations/listings/"+uuid.NewString()+"/purchase", `{"currency":"ALGO"}`)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(dErrors.CodeInvalidState), got["error"])
	})
}

func (s *OperationsHandlerSuite) TestHandler_History() {
	record := archive.Record{
		ID:             uuid.New(),
		Kind:           string(orchestrator.KindTokenize),
		Actor:          "EXPORTERADDR",
		TxID:           "TXHIST",
		ConfirmedRound: 12,
		Payload:        json.RawMessage(`{"asset_id":9001}`),
		CreatedAt:      time.Now().UTC(),
	}

	s.T().Run("filters by actor when given", func(t *testing.T) {
		_, mockHistory, router := s.newHandler(t)
		mockHistory.EXPECT().ByActor(gomock.Any(), "EXPORTERADDR", 10).
			Return([]archive.Record{record}, nil)

		req := httptest.NewRequest(http.MethodGet, "/operations/history?actor=EXPORTERADDR&limit=10", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "TXHIST", got[0]["txid"])
	})

	s.T().Run("falls back to recent records without an actor", func(t *testing.T) {
		_, mockHistory, router := s.newHandler(t)
		mockHistory.EXPECT().Recent(gomock.Any(), 0).Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/operations/history", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	s.T().Run("returns 404 when history is not wired", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockOperationService(ctrl)
		router := chi.NewRouter()
		NewOperationsHandler(mockService, nil, slog.New(slog.DiscardHandler)).Register(router)

		status, got := s.do(t, router, http.MethodGet, "/operations/history", "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, string(dErrors.CodeNotFound), got["error"])
	})
}
