package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"example.com/stream_signal/pkg/stream"
	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
)

// SignalMessage is the envelope of every websocket frame.
type SignalMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Handler receives the raw data of one server event.
type Handler func(data json.RawMessage)

// Client is a connection to the signaling server. A Client connects once;
// create a new one to reconnect.
type Client struct {
	ServerURL string

	log      *slog.Logger
	conn     *websocket.Conn
	id       string
	handlers map[string][]Handler
	mu       sync.Mutex
	writeMu  sync.Mutex // separate mutex for WebSocket writes
	ready    chan struct{}
	readyOne sync.Once
	done     chan struct{}
}

// NewClient creates a client for a ws:// or wss:// endpoint.
func NewClient(serverURL string, log *slog.Logger) *Client {
	return &Client{
		ServerURL: serverURL,
		log:       log,
		handlers:  make(map[string][]Handler),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// On registers a handler for a server event. Handlers run on the read
// goroutine, in arrival order.
func (c *Client) On(event string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

// Connect dials the server and waits until it has assigned a connection id.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.ServerURL, nil)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	c.conn = conn
	c.mu.Unlock()

	go c.handleMessages()

	select {
	case <-c.ready:
		c.log.Info("Connected", "connection_id", c.ID())
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed before handshake: %w", ErrNotConnected)
	case <-ctx.Done():
		_ = c.Disconnect()
		return ctx.Err()
	}
}

// ID returns the connection id assigned by the server, or "" before the
// handshake.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) handleMessages() {
	defer c.shutdown()

	for {
		var msg SignalMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Read error", "error", err)
			}
			return
		}

		if msg.Event == stream.EventConnected {
			var p stream.ConnectedPayload
			if err := json.Unmarshal(msg.Data, &p); err == nil {
				c.mu.Lock()
				c.id = p.ConnectionID
				c.mu.Unlock()
				c.readyOne.Do(func() { close(c.ready) })
			}
		}

		c.mu.Lock()
		handlers := append([]Handler(nil), c.handlers[msg.Event]...)
		c.mu.Unlock()
		for _, h := range handlers {
			h(msg.Data)
		}

		if msg.Event == stream.EventForceDisconnect {
			c.log.Info("Disconnected by host")
			return
		}
	}
}

// Emit sends one event to the server.
func (c *Client) Emit(event string, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(outboundMessage{Event: event, Data: data})
}

func (c *Client) CreateStream(streamID, name string) error {
	return c.Emit(stream.EventCreateStream, stream.CreateStreamCommand{StreamID: streamID, Name: name})
}

func (c *Client) StartStream(streamID string) error {
	return c.Emit(stream.EventStartStream, stream.StreamCommand{StreamID: streamID})
}

func (c *Client) PauseStream(streamID string) error {
	return c.Emit(stream.EventPauseStream, stream.StreamCommand{StreamID: streamID})
}

func (c *Client) StopStream(streamID string) error {
	return c.Emit(stream.EventStopStream, stream.StreamCommand{StreamID: streamID})
}

func (c *Client) JoinStream(streamID, name string) error {
	return c.Emit(stream.EventJoinStream, stream.JoinStreamCommand{StreamID: streamID, Name: name})
}

func (c *Client) LeaveStream(streamID string) error {
	return c.Emit(stream.EventLeaveStream, stream.StreamCommand{StreamID: streamID})
}

func (c *Client) SendChatMessage(streamID, name, message string) error {
	return c.Emit(stream.EventSendChatMessage, stream.ChatCommand{StreamID: streamID, Name: name, Message: message})
}

// Disconnect closes the connection
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *Client) shutdown() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	_ = conn.Close()
	close(c.done)
}
