package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lading/internal/identity"
	"lading/internal/platform/middleware"
	"lading/internal/transport/http/shared"
	dErrors "lading/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_identity.go -destination=mocks/identity-mocks.go -package=mocks IdentityService

// IdentityService defines the identity operations the HTTP layer exposes.
type IdentityService interface {
	WhoAmI(ctx context.Context) identity.Whoami
	Roles(ctx context.Context) []identity.RoleSummary
	SwitchRole(ctx context.Context, role string) (identity.Whoami, error)
	Connect(ctx context.Context) (identity.Whoami, error)
	Disconnect(ctx context.Context) error
	ProvisionAll(ctx context.Context) (identity.ProvisionResult, error)
	ClearAll(ctx context.Context) error
}

// IdentityHandler handles session and provisioning endpoints.
type IdentityHandler struct {
	service   IdentityService
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// NewIdentityHandler creates an IdentityHandler.
func NewIdentityHandler(service IdentityService, validator middleware.TokenValidator, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{service: service, logger: logger, validator: validator}
}

// Register registers the identity routes. Provisioning and clear-all are
// operator-only: they mint keys and destroy state.
func (h *IdentityHandler) Register(r chi.Router) {
	r.Get("/identity/whoami", h.handleWhoAmI)
	r.Get("/identity/roles", h.handleRoles)
	r.Post("/identity/switch-role", h.handleSwitchRole)
	r.Post("/identity/wallet/connect", h.handleConnect)
	r.Post("/identity/wallet/disconnect", h.handleDisconnect)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator(h.validator, h.logger))
		r.Post("/identity/provision", h.handleProvision)
		r.Post("/identity/clear-all", h.handleClearAll)
	})
}

func (h *IdentityHandler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.service.WhoAmI(r.Context()))
}

func (h *IdentityHandler) handleRoles(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.service.Roles(r.Context()))
}

type switchRoleRequest struct {
	Role string `json:"role"`
}

func (h *IdentityHandler) handleSwitchRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req switchRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	who, err := h.service.SwitchRole(ctx, req.Role)
	if err != nil {
		h.logger.WarnContext(ctx, "role switch rejected",
			"role", req.Role,
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, who)
}

func (h *IdentityHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, err := h.service.Connect(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "wallet connect failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, who)
}

func (h *IdentityHandler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// provisionedAccount is the wire shape of one provisioned identity. Secret
// material never leaves the process.
type provisionedAccount struct {
	Role        string `json:"role"`
	Address     string `json:"address"`
	FundedRound uint64 `json:"funded_round"`
}

type provisionResponse struct {
	Accounts []provisionedAccount `json:"accounts"`
	Warnings []string             `json:"warnings,omitempty"`
}

func (h *IdentityHandler) handleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.ProvisionAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "provisioning failed",
			"error", err,
			"operator", middleware.GetOperator(ctx),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	resp := provisionResponse{Warnings: result.Warnings}
	for _, account := range result.Accounts {
		resp.Accounts = append(resp.Accounts, provisionedAccount{
			Role:        string(account.Role),
			Address:     account.Address,
			FundedRound: account.FundedRound,
		})
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}

func (h *IdentityHandler) handleClearAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.ClearAll(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "identities cleared",
		"operator", middleware.GetOperator(ctx),
		"request_id", middleware.GetRequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
