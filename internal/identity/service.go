package identity

import (
	"context"
	"log/slog"

	"lading/internal/audit"
	"lading/internal/platform/metrics"
	"lading/internal/roles"
	dErrors "lading/pkg/domain-errors"
)

// Whoami describes the active session for the presentation layer.
type Whoami struct {
	Connected bool   `json:"connected"`
	Role      string `json:"role,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Color     string `json:"color,omitempty"`
	Address   string `json:"address,omitempty"`
}

// RoleSummary is one declared role with its assignment state.
type RoleSummary struct {
	Role     string `json:"role"`
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
	Address  string `json:"address,omitempty"`
	Assigned bool   `json:"assigned"`
}

// Wallet is the optional public-network connector. Nil on localnet.
type Wallet interface {
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
}

// Service is the identity façade behind the HTTP layer: session queries, role
// switching, wallet lifecycle, provisioning, and clear-all, with audit and
// metrics in one place.
type Service struct {
	store       *Store
	source      Source
	wallet      Wallet
	provisioner *Provisioner
	audit       *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewService constructs the identity Service. wallet and provisioner are
// nil for the network mode that does not use them.
func NewService(store *Store, source Source, wallet Wallet, provisioner *Provisioner,
	publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		source:      source,
		wallet:      wallet,
		provisioner: provisioner,
		audit:       publisher,
		metrics:     m,
		logger:      logger,
	}
}

// WhoAmI reports the active session. An unset session is a valid state, not
// an error.
func (s *Service) WhoAmI(ctx context.Context) Whoami {
	address, ok := s.source.ActiveAddress(ctx)
	if !ok {
		return Whoami{}
	}
	out := Whoami{Connected: true, Address: address}
	if role, ok := s.source.ActiveRole(ctx); ok {
		out.Role = string(role)
		if meta, ok := roles.Lookup(role); ok {
			out.Nickname = meta.Nickname
			out.Color = meta.Color
		}
	}
	return out
}

// Roles lists every declared role with its current assignment.
func (s *Service) Roles(ctx context.Context) []RoleSummary {
	out := make([]RoleSummary, 0, len(roles.All()))
	for _, role := range roles.All() {
		meta, _ := roles.Lookup(role)
		summary := RoleSummary{Role: string(role), Nickname: meta.Nickname, Color: meta.Color}
		if ident, ok := s.store.Identity(ctx, role); ok {
			summary.Address = ident.Address
			summary.Assigned = true
		}
		out = append(out, summary)
	}
	return out
}

// SwitchRole makes role the active identity (or labels the connected wallet
// address on the public network) and returns the resulting session.
func (s *Service) SwitchRole(ctx context.Context, roleName string) (Whoami, error) {
	role, err := roles.Parse(roleName)
	if err != nil {
		return Whoami{}, dErrors.Wrap(err, dErrors.CodeValidation, "unknown role")
	}
	if err := s.source.SwitchToRole(ctx, role); err != nil {
		return Whoami{}, err
	}
	if s.metrics != nil {
		s.metrics.RoleSwitchesTotal.Inc()
	}
	who := s.WhoAmI(ctx)
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionRoleSwitch,
		Actor:   who.Address,
		Role:    string(role),
		Outcome: "ok",
	})
	return who, nil
}

// Connect establishes the external wallet session. Only available on the
// public network.
func (s *Service) Connect(ctx context.Context) (Whoami, error) {
	if s.wallet == nil {
		return Whoami{}, dErrors.New(dErrors.CodeInvalidState, "wallet connect is only available on the public network")
	}
	address, err := s.wallet.Connect(ctx)
	if err != nil {
		return Whoami{}, err
	}
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionWalletConnect, Actor: address, Outcome: "ok"})
	return s.WhoAmI(ctx), nil
}

// Disconnect drops the external wallet session.
func (s *Service) Disconnect(ctx context.Context) error {
	if s.wallet == nil {
		return dErrors.New(dErrors.CodeInvalidState, "wallet disconnect is only available on the public network")
	}
	address, _ := s.source.ActiveAddress(ctx)
	if err := s.wallet.Disconnect(ctx); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionWalletDisconnect, Actor: address, Outcome: "ok"})
	return nil
}

// ProvisionAll materializes a funded identity for every declared role. Only
// available on the private network.
func (s *Service) ProvisionAll(ctx context.Context) (ProvisionResult, error) {
	if s.provisioner == nil {
		return ProvisionResult{}, dErrors.New(dErrors.CodeInvalidState, "provisioning is only available on the private network")
	}
	result, err := s.provisioner.ProvisionAll(ctx)
	if err != nil {
		s.audit.Emit(ctx, audit.Event{Action: audit.ActionProvision, Outcome: "failed", Reason: err.Error()})
		return ProvisionResult{}, err
	}
	if s.metrics != nil {
		s.metrics.AccountsProvisioned.Add(float64(len(result.Accounts)))
	}
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionProvision, Outcome: "ok"})
	return result, nil
}

// ClearAll erases every role mapping and the active session pointer.
// Irreversible; the caller confirms before invoking.
func (s *Service) ClearAll(ctx context.Context) error {
	s.store.ClearAll(ctx)
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionClearAll, Outcome: "ok"})
	s.logger.InfoContext(ctx, "cleared all identities")
	return nil
}
