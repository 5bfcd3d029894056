package stream

import "fmt"

// ConnectionRegistry maps a live connection id to the user it registered as.
type ConnectionRegistry struct {
	users map[string]User
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{users: make(map[string]User)}
}

func (r *ConnectionRegistry) Get(connectionID string) (User, bool) {
	u, ok := r.users[connectionID]
	return u, ok
}

func (r *ConnectionRegistry) Put(u User) {
	r.users[u.ConnectionID] = u
}

func (r *ConnectionRegistry) Delete(connectionID string) {
	delete(r.users, connectionID)
}

func (r *ConnectionRegistry) Len() int {
	return len(r.users)
}

// StreamRegistry maps a stream id to its live Stream.
type StreamRegistry struct {
	streams map[string]*Stream
}

func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{streams: make(map[string]*Stream)}
}

func (r *StreamRegistry) Get(id string) (*Stream, bool) {
	s, ok := r.streams[id]
	return s, ok
}

// Add registers s, refusing ids that are already taken.
func (r *StreamRegistry) Add(s *Stream) error {
	if _, exists := r.streams[s.ID]; exists {
		return fmt.Errorf("add stream %q: %w", s.ID, ErrStreamExists)
	}
	r.streams[s.ID] = s
	return nil
}

func (r *StreamRegistry) Delete(id string) {
	delete(r.streams, id)
}

func (r *StreamRegistry) Len() int {
	return len(r.streams)
}
