package stream

import (
	"encoding/json"
	"fmt"
)

// relay forwards an offer, answer or ICE candidate to the connection named
// in to. Sender and destination are not required to share a stream.
func (h *Hub) relay(connectionID, event string, data json.RawMessage) error {
	cmd, sig, err := decodeSignal(event, data)
	if err != nil {
		return err
	}

	from, err := json.Marshal(connectionID)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", event, err, ErrInvalidPayload)
	}
	sig["from"] = from

	h.log.Debug("Relaying signal", "event", event, "from", connectionID, "to", cmd.To)
	h.transport.Send(cmd.To, Event{Name: relayedAs[event], Data: sig})
	return nil
}
