package scenario

import (
	"errors"
	"fmt"

	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

var (
	// ErrProbeDisagreement is returned when UDisks2 and the operating system report different state.
	// The two views are never reconciled: the disagreement itself is the failure.
	ErrProbeDisagreement = errors.New("service and system state disagree")
	// ErrUnexpectedState is returned when both views agree on a state other than the expected one.
	ErrUnexpectedState = errors.New("unexpected state")
	// ErrUnexpectedSuccess is returned when an operation expected to fail succeeded.
	ErrUnexpectedSuccess = errors.New("operation unexpectedly succeeded")
	// ErrUnexpectedError is returned when an operation failed differently than expected.
	ErrUnexpectedError = errors.New("operation failed with unexpected error")
	// ErrWorkerFailed is returned when a privilege-drop worker reports a failed verdict.
	ErrWorkerFailed = errors.New("privileged worker failed")
)

// expectError checks `err` is an expected negative outcome: a [*udisks.Error] of `kind`
// whose detail matches `pattern`. The kind is compared before the detail.
func expectError(err error, kind udisks.ErrorKind, pattern string) error {
	if err == nil {
		return fmt.Errorf("%w: expected %s error matching %q", ErrUnexpectedSuccess, kind, pattern)
	}
	ok, matchErr := udisks.Match(err, kind, pattern)
	if matchErr != nil {
		return matchErr
	}
	if !ok {
		return fmt.Errorf("%w: expected %s error matching %q, got: %w", ErrUnexpectedError, kind, pattern, err)
	}
	return nil
}

// compareViews checks the service view `remote` and the system view `system` of `what` both equal `want`.
func compareViews[T comparable](what string, want, remote, system T) error {
	if remote == want && system == want {
		return nil
	}
	if remote != system {
		return fmt.Errorf("%w: %s is %v according to UDisks2 but %v according to the system, expected %v",
			ErrProbeDisagreement, what, remote, system, want)
	}
	return fmt.Errorf("%w: %s is %v, expected %v", ErrUnexpectedState, what, remote, want)
}
