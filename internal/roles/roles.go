// Package roles declares the static participant registry. Roles are fixed at
// compile time; they are never created or destroyed at runtime.
package roles

import dErrors "lading/pkg/domain-errors"

// Role identifies a participant category on the platform.
// Invariant: at most one active identity per role per session.
//
// Usage: construct via Parse at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

const (
	Exporter             Role = "EXPORTER"
	Carrier              Role = "CARRIER"
	InvestorSmall1       Role = "INVESTOR_SMALL_1"
	InvestorSmall2       Role = "INVESTOR_SMALL_2"
	InvestorSmall3       Role = "INVESTOR_SMALL_3"
	InvestorSmall4       Role = "INVESTOR_SMALL_4"
	InvestorSmall5       Role = "INVESTOR_SMALL_5"
	InvestorLarge        Role = "INVESTOR_LARGE"
	Buyer1               Role = "BUYER_1"
	Buyer2               Role = "BUYER_2"
	Regulator            Role = "REGULATOR"
	MarketplaceOperator  Role = "MARKETPLACE_OPERATOR"
)

// Meta carries display metadata for a role. Pure data, no state.
type Meta struct {
	Nickname string
	Color    string
}

// registry is the single source of truth for declared roles.
var registry = map[Role]Meta{
	Exporter:            {Nickname: "Exporter", Color: "#2563eb"},
	Carrier:             {Nickname: "Carrier", Color: "#0891b2"},
	InvestorSmall1:      {Nickname: "Investor S1", Color: "#16a34a"},
	InvestorSmall2:      {Nickname: "Investor S2", Color: "#15803d"},
	InvestorSmall3:      {Nickname: "Investor S3", Color: "#166534"},
	InvestorSmall4:      {Nickname: "Investor S4", Color: "#14532d"},
	InvestorSmall5:      {Nickname: "Investor S5", Color: "#052e16"},
	InvestorLarge:       {Nickname: "Investor L", Color: "#7c3aed"},
	Buyer1:              {Nickname: "Buyer 1", Color: "#ea580c"},
	Buyer2:              {Nickname: "Buyer 2", Color: "#c2410c"},
	Regulator:           {Nickname: "Regulator", Color: "#dc2626"},
	MarketplaceOperator: {Nickname: "Marketplace Ops", Color: "#475569"},
}

// ordered keeps a deterministic iteration order for provisioning and display.
var ordered = []Role{
	Exporter, Carrier,
	InvestorSmall1, InvestorSmall2, InvestorSmall3, InvestorSmall4, InvestorSmall5,
	InvestorLarge,
	Buyer1, Buyer2,
	Regulator, MarketplaceOperator,
}

// All returns every declared role in stable order.
func All() []Role {
	out := make([]Role, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup returns the display metadata for a role.
func Lookup(r Role) (Meta, bool) {
	m, ok := registry[r]
	return m, ok
}

// Parse constructs a Role from external input.
//
// Errors: returns CodeValidation when the value is empty or not a declared
// role; no other errors are expected.
func Parse(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is one of the declared enum values.
func (r Role) IsValid() bool {
	_, ok := registry[r]
	return ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
