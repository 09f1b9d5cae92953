package core

import (
	"errors"
	"fmt"
)

type AdmissionReason string

const (
	CallerBusy    AdmissionReason = "caller_busy"
	CalleeBusy    AdmissionReason = "callee_busy"
	CalleeOffline AdmissionReason = "callee_offline"
	SelfCall      AdmissionReason = "self_call"
)

// AdmissionError is returned when a call attempt is refused. It goes back to
// the caller only and never changes state.
type AdmissionError struct {
	Reason AdmissionReason
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("call not admitted: %s", e.Reason)
}

// Is lets errors.Is(err, ErrCalleeBusy) and friends match by reason.
func (e *AdmissionError) Is(target error) bool {
	t, ok := target.(*AdmissionError)
	return ok && t.Reason == e.Reason
}

var (
	ErrCallerBusy    = &AdmissionError{Reason: CallerBusy}
	ErrCalleeBusy    = &AdmissionError{Reason: CalleeBusy}
	ErrCalleeOffline = &AdmissionError{Reason: CalleeOffline}
	ErrSelfCall      = &AdmissionError{Reason: SelfCall}
)

var (
	ErrCallNotFound    = errors.New("call not found")
	ErrCallerGone      = errors.New("caller no longer online")
	ErrNotJoined       = errors.New("connection has not joined")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBackpressure    = errors.New("backpressure")
	ErrConnClosed      = errors.New("connection closed")
)

// IsBusy reports whether err is a busy refusal, from either side.
func IsBusy(err error) bool {
	return errors.Is(err, ErrCallerBusy) || errors.Is(err, ErrCalleeBusy)
}
