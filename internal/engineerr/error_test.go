// SPDX-License-Identifier: MPL-2.0

package engineerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindInvalidInput:     "invalid_input",
		KindNotFound:         "not_found",
		KindIO:               "io",
		KindCommand:          "command",
		KindNetwork:          "network",
		KindHTTP:             "http",
		KindMarketplaceAPI:   "marketplace_api",
		KindPermissionDenied: "permission_denied",
		KindInternal:         "internal",
		Kind(99):             "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestErrorUnwrapAndKindOf(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Network("hostresolve.Resolve", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf() = %v, want KindNetwork", KindOf(err))
	}
	if KindOf(cause) != KindUnknown {
		t.Errorf("KindOf(plain error) = %v, want KindUnknown", KindOf(cause))
	}
}

func TestErrorIs_MatchesByKind(t *testing.T) {
	t.Parallel()

	a := NotFound("storage.Get", errors.New("id missing"))
	b := NotFound("skill.Get", errors.New("different cause"))
	c := IO("logstore.Append", errors.New("disk full"))

	if !errors.Is(a, b) {
		t.Error("expected two NotFound errors to match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("expected NotFound and IO errors not to match")
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := Command("subproc.Run", fmt.Errorf("exit status 1"))
	want := "subproc.Run: command: exit status 1"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Kind: KindInternal, Op: "scheduler.run"}
	if got, want := bare.Error(), "scheduler.run: internal"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	if !IsRetryable(Network("x", errors.New("timeout"))) {
		t.Error("expected network errors to be retryable")
	}
	if !IsRetryable(MarketplaceAPI("x", errors.New("503"))) {
		t.Error("expected marketplace_api errors to be retryable")
	}
	if IsRetryable(InvalidInput("x", errors.New("bad"))) {
		t.Error("expected invalid_input errors not to be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("expected plain errors not to be retryable")
	}
}
