package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/stream_signal/client"
	"example.com/stream_signal/pkg/stream"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/mattn/go-shellwords"
	"github.com/olekukonko/tablewriter"
	"github.com/pion/webrtc/v4"
	"github.com/spf13/viper"
)

const connectTimeout = 10 * time.Second

var errQuit = errors.New("quit")

// controller is the part of client.Client the console drives.
type controller interface {
	StartStream(streamID string) error
	PauseStream(streamID string) error
	StopStream(streamID string) error
	LeaveStream(streamID string) error
	SendChatMessage(streamID, name, message string) error
}

// session is one console attached to one stream.
type session struct {
	streamID string
	name     string
	out      io.Writer
	colours  bool
	control  controller
	call     func(remoteID string) error
	done     <-chan struct{}

	client     *client.Client
	negotiator *client.Negotiator
	self       string

	mu      sync.Mutex
	members map[string]string
	outMu   sync.Mutex
}

func newSession(streamID, name string, out io.Writer, colours bool, control controller) *session {
	return &session{
		streamID: streamID,
		name:     name,
		out:      out,
		colours:  colours,
		control:  control,
		call:     func(string) error { return errors.New("calls are not available") },
		members:  make(map[string]string),
	}
}

// connect dials the configured server and wires every server event to the
// console.
func connect(ctx context.Context, streamID, name string, out io.Writer) (*session, error) {
	log := logs.GetLoggerFromString(viper.GetString(logLevelKey))
	c := client.NewClient(viper.GetString(serverURLKey), log)

	s := newSession(streamID, name, out, viper.GetBool(coloursKey), c)
	s.client = c
	s.done = c.Done()
	s.negotiator = client.NewNegotiator(c, client.DefaultConfiguration(), log)
	s.negotiator.OnPeer(func(remoteID string, pc *webrtc.PeerConnection) {
		pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
			s.notice("peer %s: %s", s.memberName(remoteID), state)
		})
	})
	s.call = func(remoteID string) error {
		_, err := s.negotiator.Call(remoteID)
		return err
	}
	s.watch(c)

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Connect(dialCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.ServerURL, err)
	}
	s.self = c.ID()
	s.notice("connected as %s", s.self)
	return s, nil
}

func (s *session) close() {
	if s.negotiator != nil {
		s.negotiator.Close()
	}
	if s.client != nil {
		_ = s.client.Disconnect()
	}
}

func (s *session) watch(c *client.Client) {
	for _, event := range []string{
		stream.EventStreamCreated,
		stream.EventStreamStarted,
		stream.EventStreamPaused,
		stream.EventStreamStopped,
		stream.EventStreamError,
		stream.EventJoinStreamResponse,
		stream.EventNewUserJoined,
		stream.EventNewChatMessage,
		stream.EventUserLeft,
		stream.EventUserDisconnected,
		stream.EventForceDisconnect,
		stream.EventOnOffer,
	} {
		c.On(event, func(data json.RawMessage) { s.handle(event, data) })
	}
}

// handle prints one server event and keeps the member list current.
func (s *session) handle(event string, data json.RawMessage) {
	switch event {
	case stream.EventStreamCreated, stream.EventStreamStarted, stream.EventStreamPaused, stream.EventStreamStopped:
		var p stream.StatusPayload
		if json.Unmarshal(data, &p) != nil {
			return
		}
		if event == stream.EventStreamCreated && s.self != "" {
			s.mu.Lock()
			s.members[s.self] = s.name
			s.mu.Unlock()
		}
		s.notice("stream %s is %s", p.StreamID, p.Status)
	case stream.EventStreamError:
		var p stream.ErrorPayload
		if json.Unmarshal(data, &p) == nil {
			s.errorf("%s", p.Message)
		}
	case stream.EventJoinStreamResponse:
		var snap stream.JoinSnapshot
		if json.Unmarshal(data, &snap) != nil {
			return
		}
		if snap.Status != stream.StatusStarted {
			s.errorf("cannot join %s: stream is %s", snap.StreamID, snap.Status)
			return
		}
		s.mu.Lock()
		s.members = make(map[string]string, len(snap.Members))
		for _, m := range snap.Members {
			s.members[m.ConnectionID] = m.Name
		}
		s.mu.Unlock()
		s.notice("joined %s with %d member(s)", snap.StreamID, len(snap.Members))
		for _, msg := range snap.Messages {
			s.chat(msg)
		}
	case stream.EventNewUserJoined:
		var p stream.UserJoinedPayload
		if json.Unmarshal(data, &p) == nil {
			s.mu.Lock()
			s.members[p.ConnectionID] = p.Name
			s.mu.Unlock()
			s.notice("%s joined", s.memberName(p.ConnectionID))
		}
	case stream.EventNewChatMessage:
		var msg stream.ChatMessage
		if json.Unmarshal(data, &msg) == nil {
			s.chat(msg)
		}
	case stream.EventUserLeft:
		var p stream.UserLeftPayload
		if json.Unmarshal(data, &p) == nil {
			s.notice("%s left", s.forget(p.UserID))
		}
	case stream.EventUserDisconnected:
		var p stream.UserDisconnectedPayload
		if json.Unmarshal(data, &p) == nil {
			s.notice("%s disconnected", s.forget(p.ConnectionID))
		}
	case stream.EventForceDisconnect:
		s.errorf("the host ended the stream")
	case stream.EventOnOffer:
		var p struct {
			From string `json:"from"`
		}
		if json.Unmarshal(data, &p) == nil {
			s.notice("incoming call from %s", s.memberName(p.From))
		}
	}
}

func (s *session) memberName(connectionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.members[connectionID]; ok && name != "" {
		return name
	}
	return connectionID
}

// forget removes a member and returns how to refer to it.
func (s *session) forget(connectionID string) string {
	name := s.memberName(connectionID)
	s.mu.Lock()
	delete(s.members, connectionID)
	s.mu.Unlock()
	return name
}

// repl reads commands and chat lines until /quit, end of input, the
// connection closing or ctx being cancelled.
func (s *session) repl(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := s.execute(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				s.errorf("%v", err)
			}
		}
	}
}

// execute runs a /command or sends line as a chat message.
func (s *session) execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return s.control.SendChatMessage(s.streamID, s.name, line)
	}

	args, err := shellwords.Parse(line[1:])
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "quit", "exit":
		return errQuit
	case "members":
		s.printMembers()
		return nil
	case "start":
		return s.control.StartStream(s.streamID)
	case "pause":
		return s.control.PauseStream(s.streamID)
	case "stop":
		return s.control.StopStream(s.streamID)
	case "leave":
		s.mu.Lock()
		s.members = make(map[string]string)
		s.mu.Unlock()
		return s.control.LeaveStream(s.streamID)
	case "call":
		if len(args) != 2 {
			return errors.New("usage: /call <connection-id>")
		}
		return s.call(args[1])
	default:
		return fmt.Errorf("unknown command /%s", args[0])
	}
}

func (s *session) printMembers() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	names := make(map[string]string, len(s.members))
	for id, name := range s.members {
		names[id] = name
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		s.notice("no members")
		return
	}
	sort.Slice(ids, func(i, j int) bool {
		if names[ids[i]] != names[ids[j]] {
			return names[ids[i]] < names[ids[j]]
		}
		return ids[i] < ids[j]
	})

	s.outMu.Lock()
	defer s.outMu.Unlock()
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Name", "Connection"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, id := range ids {
		table.Append([]string{names[id], id})
	}
	table.Render()
}

func (s *session) chat(msg stream.ChatMessage) {
	stamp := msg.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, msg.Timestamp); err == nil {
		stamp = t.Local().Format("15:04:05")
	}
	sender := msg.Sender
	if s.colours {
		sender = color.New(color.FgCyan, color.OpBold).Render(sender)
	}
	s.println(fmt.Sprintf("[%s] %s: %s", stamp, sender, msg.Message))
}

func (s *session) notice(format string, args ...any) {
	line := "* " + fmt.Sprintf(format, args...)
	if s.colours {
		line = color.New(color.FgGreen).Render(line)
	}
	s.println(line)
}

func (s *session) errorf(format string, args ...any) {
	line := "! " + fmt.Sprintf(format, args...)
	if s.colours {
		line = color.New(color.FgRed).Render(line)
	}
	s.println(line)
}

func (s *session) println(line string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, line)
}
