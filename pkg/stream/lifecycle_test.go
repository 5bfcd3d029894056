package stream_test

import (
	"testing"

	"example.com/stream_signal/pkg/stream"
	"github.com/stretchr/testify/require"
)

func TestHub_CreateStream_RegistersHost(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A")

	// When A creates a stream with a free id
	h.emit("A", stream.EventCreateStream, stream.CreateStreamCommand{StreamID: "r1", Name: "Alice"})

	// Then only A is told, and A hosts the stream
	req.Equal([]stream.Event{{
		Name: stream.EventStreamCreated,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusCreated},
	}}, h.drain("A"))

	s, ok := h.hub.Lookup("r1")
	req.True(ok)
	req.Equal("A", s.HostConnectionID)
	req.Equal(stream.StatusCreated, s.Status)
	req.Equal([]stream.User{{ConnectionID: "A", Name: "Alice", StreamID: "r1"}}, s.Members)
	req.Empty(s.Messages)

	u, ok := h.hub.User("A")
	req.True(ok)
	req.Equal("r1", u.StreamID)
}

func TestHub_CreateStream_DuplicateIDLeavesStreamUntouched(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B", "C")
	h.started("A", "Alice", "r1")
	h.join("C", "Carol", "r1")
	h.emit("C", stream.EventSendChatMessage, stream.ChatCommand{StreamID: "r1", Name: "Carol", Message: "hello"})
	h.drain("A")
	h.drain("C")
	before, _ := h.hub.Lookup("r1")

	// When B tries to create a stream with the same id
	h.emit("B", stream.EventCreateStream, stream.CreateStreamCommand{StreamID: "r1", Name: "Bob"})

	// Then only B receives an error
	req.Equal([]stream.Event{{
		Name: stream.EventStreamError,
		Data: stream.ErrorPayload{Message: "Stream ID already exists"},
	}}, h.drain("B"))
	req.Empty(h.drain("A"))
	req.Empty(h.drain("C"))

	// And the existing stream is unchanged
	after, _ := h.hub.Lookup("r1")
	req.Equal(before, after)
	_, registered := h.hub.User("B")
	req.False(registered)
}

func TestHub_StartStream_BroadcastsOnceToGroup(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A")
	h.emit("A", stream.EventCreateStream, stream.CreateStreamCommand{StreamID: "r1", Name: "Alice"})
	h.drain("A")

	// When the host starts the stream
	h.emit("A", stream.EventStartStream, stream.StreamCommand{StreamID: "r1"})

	// Then the group, made of the host alone, gets one stream-started
	req.Equal([]stream.Event{{
		Name: stream.EventStreamStarted,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusStarted},
	}}, h.drain("A"))
	req.Equal([]string{"A"}, h.tr.group("r1"))

	s, _ := h.hub.Lookup("r1")
	req.Equal(stream.StatusStarted, s.Status)
}

func TestHub_StartStream_UnknownStreamReportsError(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A")

	h.emit("A", stream.EventStartStream, stream.StreamCommand{StreamID: "nope"})

	req.Equal([]stream.Event{{
		Name: stream.EventStreamError,
		Data: stream.ErrorPayload{Message: "Invalid stream ID"},
	}}, h.drain("A"))
	req.Empty(h.tr.group("nope"))
}

func TestHub_StartStream_NonHostIsIgnored(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.emit("A", stream.EventCreateStream, stream.CreateStreamCommand{StreamID: "r1", Name: "Alice"})
	h.drain("A")

	h.emit("B", stream.EventStartStream, stream.StreamCommand{StreamID: "r1"})

	req.Empty(h.drain("A"))
	req.Empty(h.drain("B"))
	s, _ := h.hub.Lookup("r1")
	req.Equal(stream.StatusCreated, s.Status)
}

func TestHub_PauseStream_OnlyHostMayPause(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B", "C")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	// When a member who is not the host pauses
	h.emit("B", stream.EventPauseStream, stream.StreamCommand{StreamID: "r1"})

	// Then nothing happens and nobody is told
	req.Empty(h.drain("A"))
	req.Empty(h.drain("B"))
	s, _ := h.hub.Lookup("r1")
	req.Equal(stream.StatusStarted, s.Status)

	// When the host pauses
	h.emit("A", stream.EventPauseStream, stream.StreamCommand{StreamID: "r1"})

	// Then the whole group is told
	paused := stream.Event{
		Name: stream.EventStreamPaused,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusPaused},
	}
	req.Equal([]stream.Event{paused}, h.drain("A"))
	req.Equal([]stream.Event{paused}, h.drain("B"))

	// And joins are refused while paused
	h.join("C", "Carol", "r1")
	req.Equal([]stream.Event{{
		Name: stream.EventJoinStreamResponse,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusPaused},
	}}, h.drain("C"))
	s, _ = h.hub.Lookup("r1")
	req.Equal([]string{"A", "B"}, memberIDs(s))
}

func TestHub_PauseStream_UnknownStreamIsSilent(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A")

	h.emit("A", stream.EventPauseStream, stream.StreamCommand{StreamID: "nope"})
	h.emit("A", stream.EventStopStream, stream.StreamCommand{StreamID: "nope"})

	req.Empty(h.drain("A"))
}

func TestHub_StartStream_ResumesPausedStream(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.emit("A", stream.EventPauseStream, stream.StreamCommand{StreamID: "r1"})
	h.drain("A")

	h.emit("A", stream.EventStartStream, stream.StreamCommand{StreamID: "r1"})

	req.Equal([]string{stream.EventStreamStarted}, names(h.drain("A")))
	h.join("B", "Bob", "r1")
	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A", "B"}, memberIDs(s))
}

func TestHub_StopStream_RemovesStreamAndEvictsMembers(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B", "C")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.join("C", "Carol", "r1")
	h.drain("A")
	h.drain("B")
	h.drain("C")

	// When the host stops the stream
	h.emit("A", stream.EventStopStream, stream.StreamCommand{StreamID: "r1"})

	// Then the group learns it stopped and every non-host member is evicted
	stopped := stream.Event{
		Name: stream.EventStreamStopped,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusStopped},
	}
	forced := stream.Event{Name: stream.EventForceDisconnect, Data: stream.ForceDisconnectPayload{}}
	req.Equal([]stream.Event{stopped}, h.drain("A"))
	req.Equal([]stream.Event{stopped, forced}, h.drain("B"))
	req.Equal([]stream.Event{stopped, forced}, h.drain("C"))

	// And the stream, its group and its users are gone
	_, ok := h.hub.Lookup("r1")
	req.False(ok)
	req.Empty(h.tr.group("r1"))
	for _, id := range []string{"A", "B", "C"} {
		_, registered := h.hub.User(id)
		req.False(registered, id)
	}

	// And the id now behaves as unknown
	h.emit("A", stream.EventStartStream, stream.StreamCommand{StreamID: "r1"})
	req.Equal([]stream.Event{{
		Name: stream.EventStreamError,
		Data: stream.ErrorPayload{Message: "Invalid stream ID"},
	}}, h.drain("A"))
	h.join("B", "Bob", "r1")
	req.Equal([]stream.Event{{
		Name: stream.EventJoinStreamResponse,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusInvalid},
	}}, h.drain("B"))
}

func TestHub_StopStream_NonHostIsIgnored(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	h.emit("B", stream.EventStopStream, stream.StreamCommand{StreamID: "r1"})

	req.Empty(h.drain("A"))
	req.Empty(h.drain("B"))
	_, ok := h.hub.Lookup("r1")
	req.True(ok)
}

func TestHub_StrictErrors_ReportsSilentRejections(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, stream.WithStrictErrors(true))
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	notHost := stream.Event{
		Name: stream.EventStreamError,
		Data: stream.ErrorPayload{Message: "Only the host can control this stream"},
	}
	notFound := stream.Event{
		Name: stream.EventStreamError,
		Data: stream.ErrorPayload{Message: "Invalid stream ID"},
	}

	h.emit("B", stream.EventPauseStream, stream.StreamCommand{StreamID: "r1"})
	h.emit("B", stream.EventStopStream, stream.StreamCommand{StreamID: "r1"})
	h.emit("B", stream.EventStartStream, stream.StreamCommand{StreamID: "r1"})
	req.Equal([]stream.Event{notHost, notHost, notHost}, h.drain("B"))

	h.emit("A", stream.EventPauseStream, stream.StreamCommand{StreamID: "nope"})
	h.emit("A", stream.EventStopStream, stream.StreamCommand{StreamID: "nope"})
	h.emit("A", stream.EventLeaveStream, stream.StreamCommand{StreamID: "nope"})
	h.emit("A", stream.EventSendChatMessage, stream.ChatCommand{StreamID: "nope", Name: "Alice", Message: "hi"})
	req.Equal([]stream.Event{notFound, notFound, notFound, notFound}, h.drain("A"))
}
