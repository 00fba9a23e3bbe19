// Package domainerrors provides coded errors for the domain layer. Services
// translate sentinel infrastructure errors into these; transports translate
// them into status codes. The code set mirrors the failure taxonomy of the
// identity and orchestration core.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks bad or missing input. No network call was made.
	CodeValidation Code = "validation"
	// CodeNoIdentity marks an operation attempted without a resolvable signer.
	CodeNoIdentity Code = "no_identity"
	// CodeProvisioning marks a keypair/funding/import failure during account
	// provisioning. The wrapped error carries per-address detail.
	CodeProvisioning Code = "provisioning"
	// CodeConnectivity marks an unreachable RPC node or storage collaborator.
	// Safe to retry once connectivity returns.
	CodeConnectivity Code = "connectivity"
	// CodeConfirmationTimeout marks a submitted transaction that was not
	// confirmed within the bounded wait. The transaction may still land;
	// callers must check its status before resubmitting.
	CodeConfirmationTimeout Code = "confirmation_timeout"
	// CodeInvalidState marks an operation against an entity in the wrong
	// state, e.g. purchasing an already-sold listing.
	CodeInvalidState Code = "invalid_state"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error. Reason is always human-readable so the
// presentation layer can show it directly or map the code to a remedy.
type Error struct {
	Code   Code
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a human-readable reason.
func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Newf creates a coded error with a formatted reason.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and reason to an underlying error, preserving the
// cause chain for errors.Is / errors.As.
func Wrap(err error, code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf returns the outermost human-readable reason, falling back to the
// error text for uncoded errors.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ToHTTPStatus maps a code onto an HTTP status for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNoIdentity, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeConnectivity:
		return http.StatusBadGateway
	case CodeConfirmationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
