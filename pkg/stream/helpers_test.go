package stream_test

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"example.com/stream_signal/pkg/stream"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// fakeTransport behaves like the websocket transport: groups of connection
// ids, per-connection inboxes, and silent drops for unknown connections.
type fakeTransport struct {
	mu        sync.Mutex
	connected map[string]bool
	groups    map[string][]string
	inbox     map[string][]stream.Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected: make(map[string]bool),
		groups:    make(map[string][]string),
		inbox:     make(map[string][]stream.Event),
	}
}

func (f *fakeTransport) open(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected[id] = true
}

func (f *fakeTransport) close(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.connected, id)
	for group, members := range f.groups {
		f.groups[group] = lo.Without(members, id)
	}
}

func (f *fakeTransport) Send(id string, event stream.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver(id, event)
}

func (f *fakeTransport) deliver(id string, event stream.Event) {
	if !f.connected[id] {
		return
	}
	f.inbox[id] = append(f.inbox[id], event)
}

func (f *fakeTransport) Broadcast(group string, event stream.Event, except string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.groups[group] {
		if id != except {
			f.deliver(id, event)
		}
	}
}

func (f *fakeTransport) JoinGroup(group, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !lo.Contains(f.groups[group], id) {
		f.groups[group] = append(f.groups[group], id)
	}
}

func (f *fakeTransport) LeaveGroup(group, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[group] = lo.Without(f.groups[group], id)
}

func (f *fakeTransport) DissolveGroup(group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, group)
}

// drain returns and clears everything delivered to id.
func (f *fakeTransport) drain(id string) []stream.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.inbox[id]
	delete(f.inbox, id)
	return events
}

func (f *fakeTransport) group(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.groups[group]...)
}

type harness struct {
	t   *testing.T
	hub *stream.Hub
	tr  *fakeTransport
}

func newHarness(t *testing.T, opts ...stream.Option) *harness {
	tr := newFakeTransport()
	hub := stream.NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), tr, opts...)
	return &harness{t: t, hub: hub, tr: tr}
}

// connect opens each connection and discards its connected-to-socket event.
func (h *harness) connect(ids ...string) {
	for _, id := range ids {
		h.tr.open(id)
		h.hub.Handle(stream.Inbound{Kind: stream.KindConnect, ConnectionID: id})
		h.tr.drain(id)
	}
}

func (h *harness) disconnect(id string) {
	h.hub.Handle(stream.Inbound{Kind: stream.KindDisconnect, ConnectionID: id})
	h.tr.close(id)
}

func (h *harness) emit(from, event string, data any) {
	raw, err := json.Marshal(data)
	require.NoError(h.t, err)
	h.hub.Handle(stream.Inbound{Kind: stream.KindMessage, ConnectionID: from, Event: event, Data: raw})
}

func (h *harness) drain(id string) []stream.Event {
	return h.tr.drain(id)
}

// started creates and starts streamID with host as its host, then clears
// the host's inbox.
func (h *harness) started(host, hostName, streamID string) {
	h.emit(host, stream.EventCreateStream, stream.CreateStreamCommand{StreamID: streamID, Name: hostName})
	h.emit(host, stream.EventStartStream, stream.StreamCommand{StreamID: streamID})
	h.drain(host)
}

func (h *harness) join(id, name, streamID string) {
	h.emit(id, stream.EventJoinStream, stream.JoinStreamCommand{StreamID: streamID, Name: name})
}

func names(events []stream.Event) []string {
	return lo.Map(events, func(e stream.Event, _ int) string { return e.Name })
}

func memberIDs(s stream.Stream) []string {
	return lo.Map(s.Members, func(u stream.User, _ int) string { return u.ConnectionID })
}
