package stream

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateStreamCommand struct {
	StreamID string `json:"streamId" validate:"required,max=256"`
	Name     string `json:"name" validate:"max=256"`
}

type JoinStreamCommand struct {
	StreamID string `json:"streamId" validate:"required,max=256"`
	Name     string `json:"name" validate:"max=256"`
}

// StreamCommand addresses a stream without further arguments: start, pause,
// stop and leave.
type StreamCommand struct {
	StreamID string `json:"streamId" validate:"required,max=256"`
}

type ChatCommand struct {
	StreamID string `json:"streamId" validate:"required,max=256"`
	Name     string `json:"name" validate:"max=256"`
	Message  string `json:"message"`
}

// SignalCommand is the routing part of an offer, answer or ICE candidate.
type SignalCommand struct {
	To string `json:"to" validate:"required"`
}

func decode[T any](event string, data json.RawMessage) (T, error) {
	var cmd T
	if len(data) == 0 {
		return cmd, fmt.Errorf("%s: empty data: %w", event, ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("%s: %v: %w", event, err, ErrInvalidPayload)
	}
	if err := validate.Struct(cmd); err != nil {
		return cmd, fmt.Errorf("%s: %v: %w", event, err, ErrInvalidPayload)
	}
	return cmd, nil
}

// decodeSignal returns the routing header together with the full payload so
// the opaque fields can be forwarded as received.
func decodeSignal(event string, data json.RawMessage) (SignalCommand, Signal, error) {
	cmd, err := decode[SignalCommand](event, data)
	if err != nil {
		return cmd, nil, err
	}
	var sig Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return cmd, nil, fmt.Errorf("%s: %v: %w", event, err, ErrInvalidPayload)
	}
	return cmd, sig, nil
}
