package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lading/internal/identity"
	"lading/internal/roles"
	"lading/internal/tokens"
	"lading/internal/transport/http/mocks"
	dErrors "lading/pkg/domain-errors"
)

type IdentityHandlerSuite struct {
	suite.Suite
	tokens *tokens.Service
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupSuite() {
	s.tokens = tokens.NewService("test-signing-key", "lading-test")
}

func (s *IdentityHandlerSuite) newHandler(t *testing.T) (*mocks.MockIdentityService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIdentityService(ctrl)
	router := chi.NewRouter()
	NewIdentityHandler(mockService, s.tokens, slog.New(slog.DiscardHandler)).Register(router)
	return mockService, router
}

func (s *IdentityHandlerSuite) operatorToken(t *testing.T) string {
	token, err := s.tokens.Issue("ops@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *IdentityHandlerSuite) do(t *testing.T, router chi.Router, method, path, body, token string) (int, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func (s *IdentityHandlerSuite) TestHandler_WhoAmI() {
	s.T().Run("returns the active identity - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().WhoAmI(gomock.Any()).Return(identity.Whoami{
			Connected: true,
			Role:      string(roles.Exporter),
			Nickname:  "Exporter",
			Address:   "EXPORTERADDR",
		})

		status, body := s.do(t, router, http.MethodGet, "/identity/whoami", "", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["connected"])
		assert.Equal(t, string(roles.Exporter), body["role"])
		assert.Equal(t, "EXPORTERADDR", body["address"])
	})

	s.T().Run("disconnected state serializes without role", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().WhoAmI(gomock.Any()).Return(identity.Whoami{})

		status, body := s.do(t, router, http.MethodGet, "/identity/whoami", "", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["connected"])
		assert.NotContains(t, body, "role")
		assert.NotContains(t, body, "address")
	})
}

func (s *IdentityHandlerSuite) TestHandler_SwitchRole() {
	s.T().Run("switches role - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().SwitchRole(gomock.Any(), "CARRIER").Return(identity.Whoami{
			Connected: true,
			Role:      string(roles.Carrier),
			Address:   "CARRIERADDR",
		}, nil)

		status, body := s.do(t, router, http.MethodPost, "/identity/switch-role", `{"role":"CARRIER"}`, "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, string(roles.Carrier), body["role"])
	})

	s.T().Run("returns 400 when body is invalid json", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().SwitchRole(gomock.Any(), gomock.Any()).Times(0)

		status, body := s.do(t, router, http.MethodPost, "/identity/switch-role", "{bad-json", "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(dErrors.CodeValidation), body["error"])
	})

	s.T().Run("returns 400 when the role is unknown", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().SwitchRole(gomock.Any(), "PIRATE").
			Return(identity.Whoami{}, dErrors.New(dErrors.CodeValidation, "unknown role"))

		status, body := s.do(t, router, http.MethodPost, "/identity/switch-role", `{"role":"PIRATE"}`, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(dErrors.CodeValidation), body["error"])
		assert.Equal(t, "unknown role", body["reason"])
	})
}

func (s *IdentityHandlerSuite) TestHandler_Wallet() {
	s.T().Run("connect returns the connected identity - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Connect(gomock.Any()).Return(identity.Whoami{
			Connected: true,
			Address:   "WALLETADDR",
		}, nil)

		status, body := s.do(t, router, http.MethodPost, "/identity/wallet/connect", "", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "WALLETADDR", body["address"])
	})

	s.T().Run("connect on the private network - 409", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Connect(gomock.Any()).
			Return(identity.Whoami{}, dErrors.New(dErrors.CodeInvalidState, "wallet connect is only available on the public network"))

		status, body := s.do(t, router, http.MethodPost, "/identity/wallet/connect", "", "")

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(dErrors.CodeInvalidState), body["error"])
	})

	s.T().Run("disconnect - 204", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Disconnect(gomock.Any()).Return(nil)

		status, _ := s.do(t, router, http.MethodPost, "/identity/wallet/disconnect", "", "")

		assert.Equal(t, http.StatusNoContent, status)
	})
}

func (s *IdentityHandlerSuite) TestHandler_Provision() {
	s.T().Run("requires an operator token - 401", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ProvisionAll(gomock.Any()).Times(0)

		status, body := s.do(t, router, http.MethodPost, "/identity/provision", "", "")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, string(dErrors.CodeUnauthorized), body["error"])
	})

	s.T().Run("rejects a garbage token - 401", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ProvisionAll(gomock.Any()).Times(0)

		status, body := s.do(t, router, http.MethodPost, "/identity/provision", "", "not-a-jwt")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, string(dErrors.CodeUnauthorized), body["error"])
	})

	s.T().Run("provisions and never serializes secret keys - 201", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ProvisionAll(gomock.Any()).Return(identity.ProvisionResult{
			Accounts: map[roles.Role]identity.Provisioned{
				roles.Exporter: {
					Role:        roles.Exporter,
					Address:     "EXPORTERADDR",
					PrivateKey:  []byte("super-secret-key-material"),
					FundedRound: 42,
				},
			},
			Warnings: []string{"kmd import skipped"},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/identity/provision", nil)
		req.Header.Set("Authorization", "Bearer "+s.operatorToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		raw := rec.Body.String()
		assert.Contains(t, raw, "EXPORTERADDR")
		assert.Contains(t, raw, `"funded_round":42`)
		assert.Contains(t, raw, "kmd import skipped")
		assert.NotContains(t, raw, "super-secret")
		assert.NotContains(t, raw, "private")
	})

	s.T().Run("returns 409 when provisioning is unavailable", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ProvisionAll(gomock.Any()).
			Return(identity.ProvisionResult{}, dErrors.New(dErrors.CodeInvalidState, "provisioning is only available on the private network"))

		status, body := s.do(t, router, http.MethodPost, "/identity/provision", "", s.operatorToken(t))

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(dErrors.CodeInvalidState), body["error"])
	})
}

func (s *IdentityHandlerSuite) TestHandler_ClearAll() {
	s.T().Run("requires an operator token - 401", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ClearAll(gomock.Any()).Times(0)

		status, _ := s.do(t, router, http.MethodPost, "/identity/clear-all", "", "")

		assert.Equal(t, http.StatusUnauthorized, status)
	})

	s.T().Run("clears all identities - 204", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ClearAll(gomock.Any()).Return(nil)

		status, _ := s.do(t, router, http.MethodPost, "/identity/clear-all", "", s.operatorToken(t))

		assert.Equal(t, http.StatusNoContent, status)
	})

	s.T().Run("returns 500 when the service fails", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ClearAll(gomock.Any()).Return(errors.New("boom"))

		status, body := s.do(t, router, http.MethodPost, "/identity/clear-all", "", s.operatorToken(t))

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, string(dErrors.CodeInternal), body["error"])
	})
}
