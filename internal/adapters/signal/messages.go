package signal

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/dkeye/VoiceCall/internal/core"
	"github.com/dkeye/VoiceCall/internal/domain"
)

// Inbound message types.
const (
	typeJoin         = "join"
	typeInitiateCall = "initiateCall"
	typeAcceptCall   = "acceptCall"
	typeRejectCall   = "rejectCall"
	typeEndCall      = "endCall"
	typeRelaySignal  = "relaySignal"
	typePing         = "ping"
)

// Error codes sent in error frames and close reasons.
const (
	codeBadPayload    = "bad_payload"
	codeUnknownType   = "unknown_type"
	codeNotJoined     = "not_joined"
	codeAlreadyJoined = "already_joined"
	codeUnauthorized  = "unauthenticated"
	codeCallNotFound  = "call_not_found"
	codeRateLimited   = "rate_limited"
	codeJoinTimeout   = "join_timeout"
)

var errNoType = errors.New("missing type")

// inbound is the union of every client message. Older clients send
// signalData, callToUserId and id; they are folded into the current names.
type inbound struct {
	Type string `json:"type"`

	UserID string `json:"userId"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Token  string `json:"token"`

	ToUserID     string `json:"toUserId"`
	CallToUserID string `json:"callToUserId"`
	CallID       string `json:"callId"`

	Signal     json.RawMessage `json:"signal"`
	SignalData json.RawMessage `json:"signalData"`
	Meta       json.RawMessage `json:"meta"`
	Payload    json.RawMessage `json:"payload"`
}

func decodeInbound(data []byte) (inbound, error) {
	var m inbound
	if err := json.Unmarshal(data, &m); err != nil {
		return inbound{}, err
	}
	if m.Type == "" {
		return inbound{}, errNoType
	}
	if len(m.Signal) == 0 {
		m.Signal = m.SignalData
	}
	m.SignalData = nil
	if m.UserID == "" {
		m.UserID = m.ID
	}
	if m.ToUserID == "" {
		m.ToUserID = m.CallToUserID
	}
	if len(m.Payload) == 0 {
		m.Payload = m.Signal
	}
	return m, nil
}

func payload(raw json.RawMessage) core.Payload {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return core.Payload(raw)
}

func raw(p core.Payload) json.RawMessage {
	if len(p) == 0 {
		return nil
	}
	return json.RawMessage(p)
}

// encodeMessage renders a coordinator message as a wire frame.
func encodeMessage(m core.Message) (core.Frame, error) {
	var v any
	switch m.Kind {
	case core.KindJoined:
		v = struct {
			Type string              `json:"type"`
			Me   domain.UserIdentity `json:"me"`
		}{string(m.Kind), m.From}
	case core.KindPresenceUpdate:
		users := m.OnlineUsers
		if users == nil {
			users = []domain.UserIdentity{}
		}
		v = struct {
			Type        string                `json:"type"`
			OnlineUsers []domain.UserIdentity `json:"onlineUsers"`
		}{string(m.Kind), users}
	case core.KindRinging:
		v = struct {
			Type   string              `json:"type"`
			CallID domain.CallID       `json:"callId"`
			To     domain.UserIdentity `json:"to"`
		}{string(m.Kind), m.CallID, m.From}
	case core.KindIncomingCall:
		v = struct {
			Type   string              `json:"type"`
			CallID domain.CallID       `json:"callId"`
			From   domain.UserIdentity `json:"from"`
			Signal json.RawMessage     `json:"signal,omitempty"`
			Meta   json.RawMessage     `json:"meta,omitempty"`
		}{string(m.Kind), m.CallID, m.From, raw(m.Signal), raw(m.Meta)}
	case core.KindCallAccepted:
		v = struct {
			Type   string              `json:"type"`
			CallID domain.CallID       `json:"callId"`
			From   domain.UserIdentity `json:"from"`
			Signal json.RawMessage     `json:"signal,omitempty"`
		}{string(m.Kind), m.CallID, m.From, raw(m.Signal)}
	case core.KindCallRejected, core.KindCallEnded:
		v = struct {
			Type   string              `json:"type"`
			CallID domain.CallID       `json:"callId"`
			From   domain.UserIdentity `json:"from"`
			Reason string              `json:"reason,omitempty"`
		}{string(m.Kind), m.CallID, m.From, m.Reason}
	case core.KindUserUnavailable, core.KindUserBusy:
		v = struct {
			Type   string              `json:"type"`
			User   domain.UserIdentity `json:"user"`
			Reason string              `json:"reason"`
		}{string(m.Kind), m.From, m.Reason}
	case core.KindRelaySignal:
		v = struct {
			Type    string              `json:"type"`
			CallID  domain.CallID       `json:"callId"`
			From    domain.UserIdentity `json:"from"`
			Payload json.RawMessage     `json:"payload,omitempty"`
		}{string(m.Kind), m.CallID, m.From, raw(m.Signal)}
	default:
		return nil, errors.New("unknown message kind " + string(m.Kind))
	}
	return marshal(v)
}

// marshal encodes v without HTML escaping so relayed payloads keep their
// characters.
func marshal(v any) (core.Frame, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func errorFrame(code, message string) core.Frame {
	b, _ := marshal(struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message,omitempty"`
	}{"error", code, message})
	return b
}

var pongFrame = core.Frame(`{"type":"pong"}`)
