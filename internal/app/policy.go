package app

import "github.com/dkeye/VoiceCall/internal/domain"

type BackpressureAction int

const (
	DropMessage BackpressureAction = iota
	KickConnection
)

// Policy decides what happens to a connection whose send buffer is full.
// The message itself is always dropped; signaling is never queued beyond
// the connection's buffer.
type Policy interface {
	OnBackPressure(user domain.UserID) BackpressureAction
}

type SimplePolicy struct {
	// KickSlow disconnects a consumer that cannot keep up.
	KickSlow bool
}

func (p SimplePolicy) OnBackPressure(domain.UserID) BackpressureAction {
	if p.KickSlow {
		return KickConnection
	}
	return DropMessage
}
