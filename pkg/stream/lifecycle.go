package stream

import "fmt"

func (h *Hub) createStream(connectionID string, cmd CreateStreamCommand) error {
	if _, exists := h.streams.Get(cmd.StreamID); exists {
		return fmt.Errorf("create %q: %w", cmd.StreamID, ErrStreamExists)
	}

	h.detach(connectionID, cmd.StreamID)

	host := User{ConnectionID: connectionID, Name: cmd.Name, StreamID: cmd.StreamID}
	if err := h.streams.Add(newStream(cmd.StreamID, host)); err != nil {
		return err
	}
	h.users.Put(host)

	h.log.Info("Stream created", "stream_id", cmd.StreamID, "host", connectionID)
	h.transport.Send(connectionID, Event{
		Name: EventStreamCreated,
		Data: StatusPayload{StreamID: cmd.StreamID, Status: StatusCreated},
	})
	return nil
}

func (h *Hub) startStream(connectionID string, cmd StreamCommand) error {
	s, ok := h.streams.Get(cmd.StreamID)
	if !ok {
		return fmt.Errorf("start %q: %w", cmd.StreamID, ErrStreamNotFound)
	}
	if !s.IsHost(connectionID) {
		h.ignore(connectionID, EventStartStream, fmt.Errorf("start %q: %w", cmd.StreamID, ErrNotHost))
		return nil
	}

	s.Status = StatusStarted
	h.transport.JoinGroup(s.ID, connectionID)

	h.log.Info("Stream started", "stream_id", s.ID)
	h.transport.Broadcast(s.ID, Event{
		Name: EventStreamStarted,
		Data: StatusPayload{StreamID: s.ID, Status: StatusStarted},
	}, "")
	return nil
}

func (h *Hub) pauseStream(connectionID string, cmd StreamCommand) {
	s, ok := h.controlled(connectionID, EventPauseStream, cmd.StreamID)
	if !ok {
		return
	}

	s.Status = StatusPaused

	h.log.Info("Stream paused", "stream_id", s.ID)
	h.transport.Broadcast(s.ID, Event{
		Name: EventStreamPaused,
		Data: StatusPayload{StreamID: s.ID, Status: StatusPaused},
	}, "")
}

// stopStream tells the group the stream is over, asks every other member to
// disconnect and forgets the stream, its group and its users.
func (h *Hub) stopStream(connectionID string, cmd StreamCommand) {
	s, ok := h.controlled(connectionID, EventStopStream, cmd.StreamID)
	if !ok {
		return
	}

	h.transport.Broadcast(s.ID, Event{
		Name: EventStreamStopped,
		Data: StatusPayload{StreamID: s.ID, Status: StatusStopped},
	}, "")

	for _, member := range s.Members {
		if !s.IsHost(member.ConnectionID) {
			h.transport.Send(member.ConnectionID, Event{
				Name: EventForceDisconnect,
				Data: ForceDisconnectPayload{},
			})
		}
		if u, ok := h.users.Get(member.ConnectionID); ok && u.StreamID == s.ID {
			h.users.Delete(member.ConnectionID)
		}
	}

	h.streams.Delete(s.ID)
	h.messageCount.Add(-int64(len(s.Messages)))
	h.transport.DissolveGroup(s.ID)
	h.log.Info("Stream stopped", "stream_id", s.ID, "members", len(s.Members))
}

// controlled returns the stream if it exists and connectionID hosts it.
// Rejections go through ignore.
func (h *Hub) controlled(connectionID, event, streamID string) (*Stream, bool) {
	s, ok := h.streams.Get(streamID)
	if !ok {
		h.ignore(connectionID, event, fmt.Errorf("%s %q: %w", event, streamID, ErrStreamNotFound))
		return nil, false
	}
	if !s.IsHost(connectionID) {
		h.ignore(connectionID, event, fmt.Errorf("%s %q: %w", event, streamID, ErrNotHost))
		return nil, false
	}
	return s, true
}
