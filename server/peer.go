package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errSendQueueFull = errors.New("send queue full")

// Peer represents a connected client
type Peer struct {
	ID   string
	Conn *websocket.Conn

	log       *slog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(id string, conn *websocket.Conn, queueSize int, log *slog.Logger) *Peer {
	return &Peer{
		ID:   id,
		Conn: conn,
		log:  log.With("connection_id", id),
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// SendMessage encodes msg and queues it for the write pump.
func (p *Peer) SendMessage(event string, data any) error {
	payload, err := json.Marshal(outboundMessage{Event: event, Data: data})
	if err != nil {
		return err
	}
	return p.enqueue(payload)
}

// enqueue never blocks: a full queue drops the frame.
func (p *Peer) enqueue(payload []byte) error {
	select {
	case <-p.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case p.send <- payload:
		return nil
	default:
		return errSendQueueFull
	}
}

// writePump is the only writer on Conn and the one that closes it. It exits
// when the peer is closed or a write fails.
func (p *Peer) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		p.close()
		_ = p.Conn.Close()
	}()

	for {
		select {
		case payload := <-p.send:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				p.log.Warn("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := p.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				p.log.Warn("Ping failed", "error", err)
				return
			}
		case <-p.done:
			_ = p.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

// close stops the write pump. Safe to call more than once and from any
// goroutine.
func (p *Peer) close() {
	p.closeOnce.Do(func() { close(p.done) })
}
