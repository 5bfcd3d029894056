package stream

import "fmt"

// joinStream admits the requester only while the stream is started. Every
// outcome is answered with join-stream-response.
func (h *Hub) joinStream(connectionID string, cmd JoinStreamCommand) {
	s, ok := h.streams.Get(cmd.StreamID)
	if !ok {
		h.log.Debug("Join refused", "connection_id", connectionID, "stream_id", cmd.StreamID,
			"error", fmt.Errorf("join %q: %w", cmd.StreamID, ErrStreamNotFound))
		h.transport.Send(connectionID, Event{
			Name: EventJoinStreamResponse,
			Data: StatusPayload{StreamID: cmd.StreamID, Status: StatusInvalid},
		})
		return
	}
	if s.Status != StatusStarted {
		h.log.Debug("Join refused", "connection_id", connectionID, "stream_id", s.ID,
			"error", fmt.Errorf("join %q (%s): %w", s.ID, s.Status, ErrStreamNotStarted))
		h.transport.Send(connectionID, Event{
			Name: EventJoinStreamResponse,
			Data: StatusPayload{StreamID: s.ID, Status: s.Status},
		})
		return
	}

	rejoin := s.HasMember(connectionID)
	if !rejoin {
		h.detach(connectionID, s.ID)
		user := User{ConnectionID: connectionID, Name: cmd.Name, StreamID: s.ID}
		h.users.Put(user)
		s.addMember(user)
	}
	h.transport.JoinGroup(s.ID, connectionID)

	snapshot := s.clone()
	h.transport.Send(connectionID, Event{
		Name: EventJoinStreamResponse,
		Data: JoinSnapshot{
			Status:   snapshot.Status,
			StreamID: snapshot.ID,
			Members:  snapshot.Members,
			Messages: snapshot.Messages,
		},
	})
	if rejoin {
		return
	}

	h.log.Info("User joined", "connection_id", connectionID, "stream_id", s.ID, "members", len(s.Members))
	h.transport.Broadcast(s.ID, Event{
		Name: EventNewUserJoined,
		Data: UserJoinedPayload{ConnectionID: connectionID, Name: cmd.Name},
	}, connectionID)
}

func (h *Hub) leaveStream(connectionID string, cmd StreamCommand) {
	s, ok := h.streams.Get(cmd.StreamID)
	if !ok {
		h.ignore(connectionID, EventLeaveStream, fmt.Errorf("leave %q: %w", cmd.StreamID, ErrStreamNotFound))
		return
	}
	h.removeFromStream(s, connectionID, Event{
		Name: EventUserLeft,
		Data: UserLeftPayload{UserID: connectionID},
	})
	h.log.Info("User left", "connection_id", connectionID, "stream_id", s.ID, "members", len(s.Members))
}

// disconnect is idempotent: a connection without a user record is ignored.
func (h *Hub) disconnect(connectionID string) {
	u, ok := h.users.Get(connectionID)
	if !ok {
		return
	}
	if s, ok := h.streams.Get(u.StreamID); ok {
		h.removeFromStream(s, connectionID, Event{
			Name: EventUserDisconnected,
			Data: UserDisconnectedPayload{ConnectionID: connectionID},
		})
	}
	h.users.Delete(connectionID)
}

// detach makes the requester leave the stream it is registered in, unless
// that stream is target. A connection belongs to one stream at a time.
func (h *Hub) detach(connectionID, target string) {
	u, ok := h.users.Get(connectionID)
	if !ok || u.StreamID == target {
		return
	}
	if s, ok := h.streams.Get(u.StreamID); ok {
		h.removeFromStream(s, connectionID, Event{
			Name: EventUserLeft,
			Data: UserLeftPayload{UserID: connectionID},
		})
	} else {
		h.users.Delete(connectionID)
	}
}

// removeFromStream drops the member, notifies the rest of the group with
// notice and forgets the user record that points at s.
func (h *Hub) removeFromStream(s *Stream, connectionID string, notice Event) {
	s.removeMember(connectionID)
	h.transport.Broadcast(s.ID, notice, connectionID)
	h.transport.LeaveGroup(s.ID, connectionID)
	if u, ok := h.users.Get(connectionID); ok && u.StreamID == s.ID {
		h.users.Delete(connectionID)
	}
}
