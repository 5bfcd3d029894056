package stream_test

import (
	"fmt"
	"math/rand"
	"testing"

	"example.com/stream_signal/pkg/stream"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestHub_JoinStream_UnknownStream(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("B")

	h.join("B", "Bob", "r1")

	req.Equal([]stream.Event{{
		Name: stream.EventJoinStreamResponse,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusInvalid},
	}}, h.drain("B"))
	_, registered := h.hub.User("B")
	req.False(registered)
}

func TestHub_JoinStream_BeforeStartIsRefused(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.emit("A", stream.EventCreateStream, stream.CreateStreamCommand{StreamID: "r1", Name: "Alice"})
	h.drain("A")

	// When B joins a stream that was created but not started
	h.join("B", "Bob", "r1")

	// Then B is told the status and nobody else hears about it
	req.Equal([]stream.Event{{
		Name: stream.EventJoinStreamResponse,
		Data: stream.StatusPayload{StreamID: "r1", Status: stream.StatusCreated},
	}}, h.drain("B"))
	req.Empty(h.drain("A"))

	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A"}, memberIDs(s))
	_, registered := h.hub.User("B")
	req.False(registered)
}

func TestHub_JoinStream_StartedStream(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")

	// When B joins the started stream
	h.join("B", "Bob", "r1")

	// Then B receives a snapshot of members and history
	req.Equal([]stream.Event{{
		Name: stream.EventJoinStreamResponse,
		Data: stream.JoinSnapshot{
			Status:   stream.StatusStarted,
			StreamID: "r1",
			Members: []stream.User{
				{ConnectionID: "A", Name: "Alice", StreamID: "r1"},
				{ConnectionID: "B", Name: "Bob", StreamID: "r1"},
			},
			Messages: []stream.ChatMessage{},
		},
	}}, h.drain("B"))

	// And the rest of the group hears about B
	req.Equal([]stream.Event{{
		Name: stream.EventNewUserJoined,
		Data: stream.UserJoinedPayload{ConnectionID: "B", Name: "Bob"},
	}}, h.drain("A"))
	req.Equal([]string{"A", "B"}, h.tr.group("r1"))
}

func TestHub_JoinStream_SnapshotCarriesHistory(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.emit("A", stream.EventSendChatMessage, stream.ChatCommand{StreamID: "r1", Name: "Alice", Message: "first"})
	h.drain("A")

	h.join("B", "Bob", "r1")

	events := h.drain("B")
	req.Len(events, 1)
	snapshot, ok := events[0].Data.(stream.JoinSnapshot)
	req.True(ok)
	req.Len(snapshot.Messages, 1)
	req.Equal("first", snapshot.Messages[0].Message)
	req.Equal("Alice", snapshot.Messages[0].Sender)
}

func TestHub_JoinStream_RepeatJoinDoesNotDuplicate(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	h.join("B", "Bob", "r1")
	h.join("A", "Alice", "r1")

	req.Equal([]string{stream.EventJoinStreamResponse}, names(h.drain("B")))
	req.Equal([]string{stream.EventJoinStreamResponse}, names(h.drain("A")))
	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A", "B"}, memberIDs(s))
}

func TestHub_JoinStream_SwitchingStreamsLeavesThePreviousOne(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B", "C")
	h.started("A", "Alice", "r1")
	h.started("B", "Bob", "r2")
	h.join("C", "Carol", "r1")
	h.drain("A")
	h.drain("C")

	h.join("C", "Carol", "r2")

	req.Equal([]stream.Event{{
		Name: stream.EventUserLeft,
		Data: stream.UserLeftPayload{UserID: "C"},
	}}, h.drain("A"))
	r1, _ := h.hub.Lookup("r1")
	r2, _ := h.hub.Lookup("r2")
	req.Equal([]string{"A"}, memberIDs(r1))
	req.Equal([]string{"B", "C"}, memberIDs(r2))
	req.Equal([]string{"A"}, h.tr.group("r1"))
	u, _ := h.hub.User("C")
	req.Equal("r2", u.StreamID)
}

func TestHub_LeaveStream(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	// When B leaves
	h.emit("B", stream.EventLeaveStream, stream.StreamCommand{StreamID: "r1"})

	// Then the remaining members are told and B is no longer a member
	req.Equal([]stream.Event{{
		Name: stream.EventUserLeft,
		Data: stream.UserLeftPayload{UserID: "B"},
	}}, h.drain("A"))
	req.Empty(h.drain("B"))
	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A"}, memberIDs(s))
	_, registered := h.hub.User("B")
	req.False(registered)

	// And B no longer receives group traffic
	h.emit("A", stream.EventSendChatMessage, stream.ChatCommand{StreamID: "r1", Name: "Alice", Message: "still here?"})
	req.Empty(h.drain("B"))
	req.Len(h.drain("A"), 1)
}

func TestHub_LeaveStream_UnknownStreamIsSilent(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A")

	h.emit("A", stream.EventLeaveStream, stream.StreamCommand{StreamID: "nope"})

	req.Empty(h.drain("A"))
}

func TestHub_Disconnect(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")
	h.join("B", "Bob", "r1")
	h.drain("A")
	h.drain("B")

	// When B's connection drops
	h.disconnect("B")

	// Then the remaining members are told
	req.Equal([]stream.Event{{
		Name: stream.EventUserDisconnected,
		Data: stream.UserDisconnectedPayload{ConnectionID: "B"},
	}}, h.drain("A"))
	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A"}, memberIDs(s))
	_, registered := h.hub.User("B")
	req.False(registered)

	// And a repeated notification changes nothing
	h.disconnect("B")
	req.Empty(h.drain("A"))
	s, _ = h.hub.Lookup("r1")
	req.Equal([]string{"A"}, memberIDs(s))
}

func TestHub_Disconnect_UnregisteredConnection(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.connect("A", "B")
	h.started("A", "Alice", "r1")

	h.disconnect("B")

	req.Empty(h.drain("A"))
	s, _ := h.hub.Lookup("r1")
	req.Equal([]string{"A"}, memberIDs(s))
}

// Members must always equal the connections that joined since start and
// have not left or disconnected, in join order and without duplicates.
func TestHub_Membership_RandomSequences(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	rng := rand.New(rand.NewSource(42))

	h.connect("host")
	h.started("host", "Host", "r1")
	model := []string{"host"}

	const slots = 6
	ids := make([]string, slots)
	generation := make([]int, slots)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d-0", i)
		h.connect(ids[i])
	}

	for step := 0; step < 500; step++ {
		i := rng.Intn(slots)
		id := ids[i]
		switch rng.Intn(3) {
		case 0:
			h.join(id, id, "r1")
			if !lo.Contains(model, id) {
				model = append(model, id)
			}
		case 1:
			h.emit(id, stream.EventLeaveStream, stream.StreamCommand{StreamID: "r1"})
			model = lo.Without(model, id)
		case 2:
			h.disconnect(id)
			model = lo.Without(model, id)
			generation[i]++
			ids[i] = fmt.Sprintf("c%d-%d", i, generation[i])
			h.connect(ids[i])
		}

		s, ok := h.hub.Lookup("r1")
		req.True(ok)
		members := memberIDs(s)
		req.Equal(model, members, "step %d", step)
		req.Len(lo.Uniq(members), len(members), "step %d", step)
	}
}
