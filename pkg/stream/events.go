package stream

import "encoding/json"

// Inbound event names.
const (
	EventCreateStream    = "create-stream"
	EventStartStream     = "start-stream"
	EventPauseStream     = "pause-stream"
	EventStopStream      = "stop-stream"
	EventJoinStream      = "join-stream"
	EventLeaveStream     = "leave-stream"
	EventSendChatMessage = "send-chat-message"
	EventOffer           = "offer"
	EventAnswer          = "answer"
	EventIceCandidate    = "iceCandidate"
)

// Outbound event names.
const (
	EventConnected          = "connected-to-socket"
	EventStreamCreated      = "stream-created"
	EventStreamError        = "stream-error"
	EventStreamStarted      = "stream-started"
	EventStreamPaused       = "stream-paused"
	EventStreamStopped      = "stream-stopped"
	EventForceDisconnect    = "force-disconnect"
	EventJoinStreamResponse = "join-stream-response"
	EventNewUserJoined      = "new-user-joined"
	EventNewChatMessage     = "new-chat-message"
	EventOnOffer            = "onOffer"
	EventOnAccepted         = "onAccepted"
	EventOnIceCandidate     = "onIceCandidate"
	EventUserLeft           = "user-left"
	EventUserDisconnected   = "user-disconnected"
)

// relayedAs maps each signal kind to the event its destination receives.
var relayedAs = map[string]string{
	EventOffer:        EventOnOffer,
	EventAnswer:       EventOnAccepted,
	EventIceCandidate: EventOnIceCandidate,
}

// Event is an outbound notification. Data is marshalled as JSON by the
// transport.
type Event struct {
	Name string
	Data any
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// StatusPayload is used by stream-created, the lifecycle broadcasts and
// join-stream-response when the join was not admitted.
type StatusPayload struct {
	StreamID string `json:"streamId"`
	Status   Status `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// JoinSnapshot is the join-stream-response sent to an admitted joiner.
type JoinSnapshot struct {
	Status   Status        `json:"status"`
	StreamID string        `json:"streamId"`
	Members  []User        `json:"members"`
	Messages []ChatMessage `json:"messages"`
}

type UserJoinedPayload struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type UserDisconnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// ForceDisconnectPayload marshals to {}.
type ForceDisconnectPayload struct{}

// Signal is a relayed negotiation message. Every field except from is passed
// through untouched.
type Signal map[string]json.RawMessage

// From returns the sender stamped on a relayed signal.
func (s Signal) From() string {
	var from string
	_ = json.Unmarshal(s["from"], &from)
	return from
}
