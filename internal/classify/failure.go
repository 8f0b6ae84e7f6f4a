package classify

import (
	"context"
	"errors"
	"fmt"
)

// FailureReason categorises a classification failure.
type FailureReason string

const (
	ReasonTimeout   FailureReason = "timeout"
	ReasonTransport FailureReason = "transport"
	ReasonMalformed FailureReason = "malformed"
	ReasonEmpty     FailureReason = "empty"
)

// Failure is returned instead of an Outcome when the service could not
// produce a usable classification. It is recoverable.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("classify: %s", f.Reason)
	}
	return fmt.Sprintf("classify: %s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure reports whether err is (or wraps) a *Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// transportFailure maps a call error to a Failure, distinguishing deadline
// expiry from other transport faults.
func transportFailure(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Reason: ReasonTimeout, Err: err}
	}
	return &Failure{Reason: ReasonTransport, Err: err}
}
