package stream

import "errors"

var (
	ErrStreamExists     = errors.New("stream id already exists")
	ErrStreamNotFound   = errors.New("stream not found")
	ErrNotHost          = errors.New("requester is not the stream host")
	ErrStreamNotStarted = errors.New("stream is not started")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrHubClosed        = errors.New("hub closed")
)

// wireMessage maps an operation error to the text carried by stream-error.
func wireMessage(err error) string {
	switch {
	case errors.Is(err, ErrStreamExists):
		return "Stream ID already exists"
	case errors.Is(err, ErrStreamNotFound):
		return "Invalid stream ID"
	case errors.Is(err, ErrNotHost):
		return "Only the host can control this stream"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid payload"
	default:
		return "Request failed"
	}
}
