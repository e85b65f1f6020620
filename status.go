package maildirsync

import (
	"errors"
	"fmt"
)

// Status is the coarse-grained outcome of a driver operation (§7).
type Status int

const (
	// StatusOK indicates the operation completed and all invariants hold.
	StatusOK Status = iota

	// StatusMsgBad indicates one specific message is gone or corrupt; the
	// mailbox itself is still usable.
	StatusMsgBad

	// StatusBoxBad indicates the selected folder can no longer be used.
	// The store remains usable; another folder may be selected.
	StatusBoxBad

	// StatusStoreBad indicates the whole store is unusable.
	StatusStoreBad

	// StatusCanceled is emitted only in response to cancellation requested
	// by the façade; the driver itself never cancels in-flight work.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMsgBad:
		return "message bad"
	case StatusBoxBad:
		return "mailbox bad"
	case StatusStoreBad:
		return "store bad"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FailState is returned by a driver's FailState method to tell the engine
// whether and how soon it should retry a store that failed to connect.
type FailState int

const (
	// FailTemp indicates a transient failure; retry soon.
	FailTemp FailState = iota
	// FailWait indicates a failure that should be retried after a longer backoff.
	FailWait
	// FailFinal indicates the store is misconfigured and retrying is pointless
	// until the configuration changes.
	FailFinal
)

// StatusError pairs a Status with the underlying cause, so callers can both
// switch on the coarse status the contract requires and errors.Is/As the
// specific cause.
type StatusError struct {
	Status Status
	Cause  error
}

// NewStatusError wraps cause with status. If cause is nil, the returned
// error still reports status via Error() but Unwrap returns nil.
func NewStatusError(status Status, cause error) *StatusError {
	return &StatusError{Status: status, Cause: cause}
}

func (e *StatusError) Error() string {
	if e.Cause == nil {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *StatusError) Unwrap() error {
	return e.Cause
}

// StatusOf extracts the Status carried by err, defaulting to StatusBoxBad
// for an unrecognized non-nil error and StatusOK for nil.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusBoxBad
}
