package main

import "encoding/json"

// SignalMessage is the envelope of every websocket frame, in both directions.
type SignalMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundMessage is SignalMessage with data still unmarshalled.
type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
