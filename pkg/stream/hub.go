package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const defaultInboxSize = 1024

// Kind tells the Hub where an Inbound came from.
type Kind int

const (
	KindMessage Kind = iota
	KindConnect
	KindDisconnect
)

// Inbound is one event read from a connection, or a connect/disconnect
// notification from the transport.
type Inbound struct {
	Kind         Kind
	ConnectionID string
	Event        string
	Data         json.RawMessage
}

// Stats is a point-in-time view of the registries, safe to read from any
// goroutine. Messages counts the chat log entries of live streams.
type Stats struct {
	Streams  int64 `json:"streams"`
	Users    int64 `json:"users"`
	Messages int64 `json:"messages"`
}

// Hub owns the connection and stream registries. All mutations happen on the
// goroutine running Run (or the caller of Handle), one event at a time.
type Hub struct {
	log       *slog.Logger
	transport Transport
	users     *ConnectionRegistry
	streams   *StreamRegistry
	ids       *idSource
	now       func() time.Time
	strict    bool

	inbox chan Inbound
	done  chan struct{}

	streamCount  atomic.Int64
	userCount    atomic.Int64
	messageCount atomic.Int64
}

type Option func(*Hub)

// WithStrictErrors makes the Hub answer every rejected mutation with
// stream-error instead of ignoring the NotFound and Unauthorized cases.
func WithStrictErrors(strict bool) Option {
	return func(h *Hub) { h.strict = strict }
}

func WithInboxSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.inbox = make(chan Inbound, size)
		}
	}
}

// WithClock replaces time.Now for chat timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

func NewHub(log *slog.Logger, transport Transport, opts ...Option) *Hub {
	h := &Hub{
		log:       log,
		transport: transport,
		users:     NewConnectionRegistry(),
		streams:   NewStreamRegistry(),
		ids:       newIDSource(),
		now:       time.Now,
		inbox:     make(chan Inbound, defaultInboxSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes submitted events in arrival order until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-h.inbox:
			h.Handle(in)
		}
	}
}

// Submit queues in for Run. It blocks while the inbox is full.
func (h *Hub) Submit(ctx context.Context, in Inbound) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.inbox <- in:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Connect(ctx context.Context, connectionID string) error {
	return h.Submit(ctx, Inbound{Kind: KindConnect, ConnectionID: connectionID})
}

func (h *Hub) Disconnect(ctx context.Context, connectionID string) error {
	return h.Submit(ctx, Inbound{Kind: KindDisconnect, ConnectionID: connectionID})
}

func (h *Hub) Message(ctx context.Context, connectionID, event string, data json.RawMessage) error {
	return h.Submit(ctx, Inbound{Kind: KindMessage, ConnectionID: connectionID, Event: event, Data: data})
}

// Stats can be called from any goroutine.
func (h *Hub) Stats() Stats {
	return Stats{
		Streams:  h.streamCount.Load(),
		Users:    h.userCount.Load(),
		Messages: h.messageCount.Load(),
	}
}

// Lookup returns a copy of a live stream. Like Handle, it must not run
// concurrently with Run.
func (h *Hub) Lookup(streamID string) (Stream, bool) {
	s, ok := h.streams.Get(streamID)
	if !ok {
		return Stream{}, false
	}
	return s.clone(), true
}

// User returns the registered user for a connection. Must not run
// concurrently with Run.
func (h *Hub) User(connectionID string) (User, bool) {
	return h.users.Get(connectionID)
}

// Handle processes one inbound event to completion.
func (h *Hub) Handle(in Inbound) {
	switch in.Kind {
	case KindConnect:
		h.log.Info("Connection opened", "connection_id", in.ConnectionID)
		h.transport.Send(in.ConnectionID, Event{
			Name: EventConnected,
			Data: ConnectedPayload{ConnectionID: in.ConnectionID},
		})
	case KindDisconnect:
		h.log.Info("Connection closed", "connection_id", in.ConnectionID)
		h.disconnect(in.ConnectionID)
	default:
		h.log.Debug("Event received", "connection_id", in.ConnectionID, "event", in.Event)
		if err := h.dispatch(in); err != nil {
			h.fail(in.ConnectionID, in.Event, err)
		}
	}
	h.streamCount.Store(int64(h.streams.Len()))
	h.userCount.Store(int64(h.users.Len()))
}

// dispatch decodes and routes a client event. Errors it returns are always
// reported to the requester; operations swallow the ones that stay silent.
func (h *Hub) dispatch(in Inbound) error {
	from := in.ConnectionID
	switch in.Event {
	case EventCreateStream:
		cmd, err := decode[CreateStreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		return h.createStream(from, cmd)
	case EventStartStream:
		cmd, err := decode[StreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		return h.startStream(from, cmd)
	case EventPauseStream:
		cmd, err := decode[StreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		h.pauseStream(from, cmd)
	case EventStopStream:
		cmd, err := decode[StreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		h.stopStream(from, cmd)
	case EventJoinStream:
		cmd, err := decode[JoinStreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		h.joinStream(from, cmd)
	case EventLeaveStream:
		cmd, err := decode[StreamCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		h.leaveStream(from, cmd)
	case EventSendChatMessage:
		cmd, err := decode[ChatCommand](in.Event, in.Data)
		if err != nil {
			return err
		}
		h.sendChatMessage(from, cmd)
	case EventOffer, EventAnswer, EventIceCandidate:
		return h.relay(from, in.Event, in.Data)
	default:
		h.log.Debug("Unknown event ignored", "connection_id", from, "event", in.Event,
			"error", fmt.Errorf("%q: %w", in.Event, ErrUnknownEvent))
	}
	return nil
}

// fail reports err to the requester as stream-error.
func (h *Hub) fail(connectionID, event string, err error) {
	h.log.Debug("Event rejected", "connection_id", connectionID, "event", event, "error", err)
	h.transport.Send(connectionID, Event{
		Name: EventStreamError,
		Data: ErrorPayload{Message: wireMessage(err)},
	})
}

// ignore drops a rejected mutation without telling the requester, unless the
// Hub runs with strict errors.
func (h *Hub) ignore(connectionID, event string, err error) {
	if h.strict {
		h.fail(connectionID, event, err)
		return
	}
	h.log.Debug("Event ignored", "connection_id", connectionID, "event", event, "error", err)
}
