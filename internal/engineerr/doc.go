// SPDX-License-Identifier: MPL-2.0

// Package engineerr defines the engine-wide error taxonomy: a single typed
// *Error carrying a Kind, the failing operation name, and the wrapped cause.
// Every internal package that surfaces an error to a caller wraps it with
// one of the New<Kind> constructors so that callers can branch on Kind via
// errors.Is/errors.As without depending on package-specific error types.
package engineerr
