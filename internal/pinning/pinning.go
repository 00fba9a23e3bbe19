// Package pinning is the off-chain content store collaborator. Documents and
// instrument metadata are stored by content address; the chain only carries
// the address.
package pinning

import "context"

// Store is the opaque content-addressed storage surface.
//
// Error contract: unreachable backends wrap sentinel.ErrUnavailable; a fetch
// of an unknown address wraps sentinel.ErrNotFound.
type Store interface {
	// Store persists data and returns its content address.
	Store(ctx context.Context, data []byte, contentType string, meta map[string]string) (string, error)
	// Fetch retrieves data by content address. The address must satisfy
	// ValidCID before it is trusted as a fetch key.
	Fetch(ctx context.Context, cid string) ([]byte, error)
	// Pin asks the backend to keep the content available.
	Pin(ctx context.Context, cid string) error
}

// ValidCID reports whether s looks like a well-formed IPFS content address:
// CIDv0 (base58btc, "Qm" + 44 chars) or CIDv1 (base32, "b" prefix). Format
// validation only; it does not prove the content exists.
func ValidCID(s string) bool {
	switch {
	case len(s) == 46 && s[0] == 'Q' && s[1] == 'm':
		return isBase58(s[2:])
	case len(s) >= 50 && s[0] == 'b':
		return isBase32Lower(s[1:])
	default:
		return false
	}
}

func isBase58(s string) bool {
	for _, c := range s {
		switch {
		case c >= '1' && c <= '9':
		case c >= 'A' && c <= 'H':
		case c >= 'J' && c <= 'N':
		case c >= 'P' && c <= 'Z':
		case c >= 'a' && c <= 'k':
		case c >= 'm' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

func isBase32Lower(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '2' && c <= '7':
		default:
			return false
		}
	}
	return true
}
