// SPDX-License-Identifier: MPL-2.0

package engineerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for programmatic handling. Every Kind here
// corresponds to a distinct propagation policy (retried, surfaced
// immediately, etc.) — see the individual New<Kind> constructors.
type Kind int

const (
	// KindUnknown is the zero value; it should never be produced deliberately.
	KindUnknown Kind = iota
	// KindInvalidInput marks bad user input or a missing required field.
	KindInvalidInput
	// KindNotFound marks an unknown host/storage/skill/execution id.
	KindNotFound
	// KindIO marks a filesystem failure.
	KindIO
	// KindCommand marks a subprocess non-zero exit or spawn failure.
	KindCommand
	// KindNetwork marks a transient connect/timeout failure.
	KindNetwork
	// KindHTTP marks a non-2xx response from an HttpRequest operation.
	KindHTTP
	// KindMarketplaceAPI marks a marketplace protocol error.
	KindMarketplaceAPI
	// KindPermissionDenied marks a keychain or filesystem permission failure.
	KindPermissionDenied
	// KindInternal marks an invariant violation; the scheduler marks the
	// owning execution failed whenever this Kind surfaces.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	case KindCommand:
		return "command"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindMarketplaceAPI:
		return "marketplace_api"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the engine's uniform error shape: a Kind for programmatic
// handling, the Op (package/function) where the failure originated, and the
// wrapped cause. Op follows the "pkg.Func" convention throughout the engine.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, engineerr.KindNotFound.Sentinel()) style checks, or
// more commonly switch on KindOf(err).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// InvalidInput wraps err (or a message-only error) as KindInvalidInput.
func InvalidInput(op string, err error) *Error { return newErr(KindInvalidInput, op, err) }

// NotFound wraps err as KindNotFound.
func NotFound(op string, err error) *Error { return newErr(KindNotFound, op, err) }

// IO wraps err as KindIO.
func IO(op string, err error) *Error { return newErr(KindIO, op, err) }

// Command wraps err as KindCommand.
func Command(op string, err error) *Error { return newErr(KindCommand, op, err) }

// Network wraps err as KindNetwork.
func Network(op string, err error) *Error { return newErr(KindNetwork, op, err) }

// HTTP wraps err as KindHTTP.
func HTTP(op string, err error) *Error { return newErr(KindHTTP, op, err) }

// MarketplaceAPI wraps err as KindMarketplaceAPI.
func MarketplaceAPI(op string, err error) *Error { return newErr(KindMarketplaceAPI, op, err) }

// PermissionDenied wraps err as KindPermissionDenied.
func PermissionDenied(op string, err error) *Error { return newErr(KindPermissionDenied, op, err) }

// Internal wraps err as KindInternal.
func Internal(op string, err error) *Error { return newErr(KindInternal, op, err) }

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a Kind is eligible for the subprocess/HTTP
// layer's exponential-backoff retry (network transients and marketplace
// protocol errors); step-level retries are governed separately by each
// step's own retry policy regardless of Kind.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindMarketplaceAPI:
		return true
	default:
		return false
	}
}
