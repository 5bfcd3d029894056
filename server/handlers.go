package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"example.com/stream_signal/pkg/stream"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server wires websocket connections to the hub.
type Server struct {
	ctx      context.Context
	cfg      Config
	log      *slog.Logger
	hub      *stream.Hub
	rooms    *RoomManager
	upgrader websocket.Upgrader
}

// NewServer returns a Server whose connections submit to hub until ctx is
// done.
func NewServer(ctx context.Context, cfg Config, log *slog.Logger, hub *stream.Hub, rooms *RoomManager) *Server {
	return &Server{
		ctx:   ctx,
		cfg:   cfg,
		log:   log,
		hub:   hub,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.hub.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"streams":  stats.Streams,
		"users":    stats.Users,
		"messages": stats.Messages,
	})
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	peer := newPeer(uuid.NewString(), conn, s.cfg.SendQueueSize, s.log)
	s.rooms.Register(peer)
	go peer.writePump(s.cfg.WriteTimeout, s.cfg.PingInterval)

	defer func() {
		s.rooms.Unregister(peer.ID)
		peer.close()
		if err := s.hub.Disconnect(s.ctx, peer.ID); err != nil {
			s.log.Debug("Disconnect not delivered", "connection_id", peer.ID, "error", err)
		}
	}()

	if err := s.hub.Connect(s.ctx, peer.ID); err != nil {
		s.log.Warn("Connection refused", "connection_id", peer.ID, "error", err)
		return
	}

	conn.SetReadLimit(s.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("WebSocket read error", "connection_id", peer.ID, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.reject(peer, "Expected a text message")
			continue
		}

		var msg SignalMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
			s.reject(peer, "Invalid message")
			continue
		}

		if err := s.hub.Message(s.ctx, peer.ID, msg.Event, msg.Data); err != nil {
			if !errors.Is(err, stream.ErrHubClosed) && !errors.Is(err, context.Canceled) {
				s.log.Warn("Event not delivered to hub", "connection_id", peer.ID, "event", msg.Event, "error", err)
			}
			return
		}
	}
}

// reject answers a frame the hub never sees.
func (s *Server) reject(peer *Peer, message string) {
	if err := peer.SendMessage(stream.EventStreamError, stream.ErrorPayload{Message: message}); err != nil {
		s.log.Debug("Dropping rejection", "connection_id", peer.ID, "error", err)
	}
}
