package stream

import "github.com/samber/lo"

// Status is the lifecycle state of a stream as reported on the wire.
type Status string

const (
	StatusCreated Status = "created"
	StatusStarted Status = "started"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
	// StatusInvalid is only reported to a joiner naming an unknown stream.
	StatusInvalid Status = "invalid"
)

// User is a connection that has created or joined a stream.
type User struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	StreamID     string `json:"streamId"`
}

// ChatMessage is one entry of a stream's chat log. IDs are ULIDs, so they
// sort in append order.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Stream is a room: a host, a status, its members in join order and its
// append-only chat log.
type Stream struct {
	ID               string
	Status           Status
	Members          []User
	Messages         []ChatMessage
	HostConnectionID string
}

func newStream(id string, host User) *Stream {
	return &Stream{
		ID:               id,
		Status:           StatusCreated,
		Members:          []User{host},
		Messages:         []ChatMessage{},
		HostConnectionID: host.ConnectionID,
	}
}

// IsHost reports whether connectionID created the stream.
func (s *Stream) IsHost(connectionID string) bool {
	return s.HostConnectionID == connectionID
}

// HasMember reports whether connectionID is currently a member.
func (s *Stream) HasMember(connectionID string) bool {
	return lo.ContainsBy(s.Members, func(u User) bool {
		return u.ConnectionID == connectionID
	})
}

func (s *Stream) addMember(u User) {
	if s.HasMember(u.ConnectionID) {
		return
	}
	s.Members = append(s.Members, u)
}

func (s *Stream) removeMember(connectionID string) bool {
	before := len(s.Members)
	s.Members = lo.Filter(s.Members, func(u User, _ int) bool {
		return u.ConnectionID != connectionID
	})
	return len(s.Members) != before
}

func (s *Stream) appendMessage(m ChatMessage) {
	s.Messages = append(s.Messages, m)
}

// clone returns a copy that shares nothing with s.
func (s *Stream) clone() Stream {
	c := *s
	c.Members = append(make([]User, 0, len(s.Members)), s.Members...)
	c.Messages = append(make([]ChatMessage, 0, len(s.Messages)), s.Messages...)
	return c
}
