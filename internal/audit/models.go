package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	// Action is what happened: role_switch, provision, operation kinds.
	Action string `json:"action"`
	// Actor is the address (or "operator") that triggered the action.
	Actor string `json:"actor,omitempty"`
	Role  string `json:"role,omitempty"`
	// TxID links the event to its on-chain transaction, when there is one.
	TxID     string `json:"txid,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Well-known actions.
const (
	ActionRoleSwitch       = "role_switch"
	ActionWalletConnect    = "wallet_connect"
	ActionWalletDisconnect = "wallet_disconnect"
	ActionProvision        = "provision_all"
	ActionClearAll         = "clear_all"
	ActionOperation        = "operation"
)
