package core

import "github.com/dkeye/VoiceCall/internal/domain"

// Kind names an outbound message.
type Kind string

const (
	KindJoined          Kind = "joined"
	KindPresenceUpdate  Kind = "presenceUpdate"
	KindRinging         Kind = "ringing"
	KindIncomingCall    Kind = "incomingCall"
	KindCallAccepted    Kind = "callAccepted"
	KindCallRejected    Kind = "callRejected"
	KindCallEnded       Kind = "callEnded"
	KindUserUnavailable Kind = "userUnavailable"
	KindUserBusy        Kind = "userBusy"
	KindRelaySignal     Kind = "relaySignal"
)

// Reasons attached to outbound messages.
const (
	ReasonOffline      = "offline"
	ReasonBusy         = "busy"
	ReasonSelfCall     = "self_call"
	ReasonRejected     = "rejected"
	ReasonHangup       = "hangup"
	ReasonDisconnected = "disconnected"
	ReasonNoAnswer     = "no_answer"
	ReasonTimeout      = "timeout"
)

// Message is a transport-agnostic outbound event. Only the fields relevant
// to Kind are set; the gateway picks them when encoding.
type Message struct {
	Kind        Kind
	CallID      domain.CallID
	From        domain.UserIdentity
	OnlineUsers []domain.UserIdentity
	Signal      Payload
	Meta        Payload
	Reason      string
}

// Delivery asks the gateway to send Msg to one user, or to every online user
// when Broadcast is set.
type Delivery struct {
	To        domain.UserID
	Broadcast bool
	Msg       Message
}

func To(id domain.UserID, msg Message) Delivery {
	return Delivery{To: id, Msg: msg}
}

func Broadcast(msg Message) Delivery {
	return Delivery{Broadcast: true, Msg: msg}
}
