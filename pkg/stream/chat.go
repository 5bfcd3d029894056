package stream

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// idSource hands out strictly increasing ULIDs. Timestamps never go
// backwards, even when the wall clock does.
type idSource struct {
	entropy *ulid.MonotonicEntropy
	lastMs  uint64
}

func newIDSource() *idSource {
	return &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *idSource) next(t time.Time) string {
	ms := ulid.Timestamp(t)
	if ms < s.lastMs {
		ms = s.lastMs
	}
	for {
		id, err := ulid.New(ms, s.entropy)
		if err == nil {
			s.lastMs = ms
			return id.String()
		}
		if !errors.Is(err, ulid.ErrMonotonicOverflow) {
			panic(fmt.Sprintf("ulid: %v", err))
		}
		ms++
	}
}

func (h *Hub) sendChatMessage(connectionID string, cmd ChatCommand) {
	s, ok := h.streams.Get(cmd.StreamID)
	if !ok {
		h.ignore(connectionID, EventSendChatMessage, fmt.Errorf("chat %q: %w", cmd.StreamID, ErrStreamNotFound))
		return
	}

	now := h.now()
	msg := ChatMessage{
		ID:        h.ids.next(now),
		Sender:    cmd.Name,
		Message:   cmd.Message,
		Timestamp: now.UTC().Format(timestampLayout),
	}
	s.appendMessage(msg)
	h.messageCount.Add(1)

	h.transport.Broadcast(s.ID, Event{Name: EventNewChatMessage, Data: msg}, "")
}
