// Package httptransport is the thin HTTP layer over the identity and
// orchestration services. Handlers delegate to service interfaces and never
// embed business logic.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lading/internal/chain"
	"lading/internal/marketplace"
	"lading/internal/platform/middleware"
	"lading/internal/tokens"
	"lading/internal/transport/http/shared"
)

// RouterConfig wires the handlers and cross-cutting middleware.
type RouterConfig struct {
	Network    chain.Network
	Identity   IdentityService
	Operations OperationService
	History    HistoryStore
	Ledger     *marketplace.Ledger
	Tokens     *tokens.Service
	// OperatorTokenHash is the bcrypt hash guarding operator sessions.
	// Empty disables the session endpoint.
	OperatorTokenHash string
	Logger            *slog.Logger
}

// NewRouter builds the full route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))

	NewIdentityHandler(cfg.Identity, cfg.Tokens, cfg.Logger).Register(r)
	NewOperationsHandler(cfg.Operations, cfg.History, cfg.Logger).Register(r)
	NewMarketplaceHandler(cfg.Ledger).Register(r)
	NewOperatorHandler(cfg.OperatorTokenHash, cfg.Tokens, cfg.Logger).Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"network": string(cfg.Network),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
