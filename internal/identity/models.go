// Package identity unifies the two account models of the platform behind one
// signing abstraction: deterministically-provisioned local keypairs on the
// private network, and externally-connected wallets on the public network.
package identity

import (
	"crypto/ed25519"

	"lading/internal/roles"
)

// Identity binds a role to an address, optionally with locally-held signing
// secret material. On the wallet path PrivateKey is nil: the role is only a
// label associated with an external address.
type Identity struct {
	Role       roles.Role
	Address    string
	PrivateKey ed25519.PrivateKey
}

// HasSecret reports whether this identity can sign locally.
func (i Identity) HasSecret() bool { return len(i.PrivateKey) > 0 }

// Session is the active session pointer: which role and address the user is
// currently acting as. Exactly one per session; survives restarts through the
// kv backend.
type Session struct {
	Role    roles.Role
	Address string
}

// SessionChange is delivered to subscribers whenever the active session
// pointer moves. Cleared is true on disconnect/clear-all.
type SessionChange struct {
	Session Session
	Cleared bool
}
