package main

import (
	"encoding/json"
	"log/slog"
	"sync"

	"example.com/stream_signal/pkg/stream"
)

// Room is the broadcast group of a stream: the peers that receive its
// group events.
type Room struct {
	ID    string
	Peers map[string]*Peer
	mu    sync.RWMutex
}

// AddPeer adds a peer to the room
func (r *Room) AddPeer(peer *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Peers[peer.ID] = peer
}

// RemovePeer removes a peer from the room and reports how many remain.
func (r *Room) RemovePeer(peerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Peers, peerID)
	return len(r.Peers)
}

// GetOtherPeers returns all peers except the one with excludeID
func (r *Room) GetOtherPeers(excludeID string) []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]*Peer, 0, len(r.Peers))
	for id, peer := range r.Peers {
		if id != excludeID {
			peers = append(peers, peer)
		}
	}
	return peers
}

// RoomManager tracks live peers and the rooms they belong to. It is the
// websocket implementation of stream.Transport.
type RoomManager struct {
	Rooms map[string]*Room
	peers map[string]*Peer
	log   *slog.Logger
	mu    sync.RWMutex
}

var _ stream.Transport = (*RoomManager)(nil)

func NewRoomManager(log *slog.Logger) *RoomManager {
	return &RoomManager{
		Rooms: make(map[string]*Room),
		peers: make(map[string]*Peer),
		log:   log,
	}
}

// Register makes a peer addressable by its connection id.
func (rm *RoomManager) Register(peer *Peer) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.peers[peer.ID] = peer
}

// Unregister forgets a peer and removes it from every room.
func (rm *RoomManager) Unregister(peerID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.peers, peerID)
	for id, room := range rm.Rooms {
		if room.RemovePeer(peerID) == 0 {
			delete(rm.Rooms, id)
		}
	}
}

// GetPeer returns a registered peer, or nil.
func (rm *RoomManager) GetPeer(peerID string) *Peer {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.peers[peerID]
}

// GetRoom returns a room, or nil if nobody is in it.
func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.Rooms[roomID]
}

// Send queues event for one peer. Unknown peers are skipped.
func (rm *RoomManager) Send(connectionID string, event stream.Event) {
	peer := rm.GetPeer(connectionID)
	if peer == nil {
		rm.log.Debug("Dropping event for unknown connection", "connection_id", connectionID, "event", event.Name)
		return
	}
	if err := peer.SendMessage(event.Name, event.Data); err != nil {
		rm.log.Warn("Dropping event", "connection_id", connectionID, "event", event.Name, "error", err)
	}
}

// Broadcast encodes event once and queues it for every peer of the room
// except excludeID.
func (rm *RoomManager) Broadcast(roomID string, event stream.Event, excludeID string) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return
	}

	payload, err := json.Marshal(outboundMessage{Event: event.Name, Data: event.Data})
	if err != nil {
		rm.log.Warn("Failed to encode broadcast", "room", roomID, "event", event.Name, "error", err)
		return
	}

	for _, peer := range room.GetOtherPeers(excludeID) {
		if err := peer.enqueue(payload); err != nil {
			rm.log.Warn("Dropping broadcast", "connection_id", peer.ID, "room", roomID, "event", event.Name, "error", err)
		}
	}
}

// JoinGroup adds a registered peer to a room, creating the room on first use.
func (rm *RoomManager) JoinGroup(roomID, connectionID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	peer, ok := rm.peers[connectionID]
	if !ok {
		return
	}
	room, exists := rm.Rooms[roomID]
	if !exists {
		room = &Room{
			ID:    roomID,
			Peers: make(map[string]*Peer),
		}
		rm.Rooms[roomID] = room
	}
	room.AddPeer(peer)
}

func (rm *RoomManager) LeaveGroup(roomID, connectionID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.Rooms[roomID]
	if !exists {
		return
	}
	if room.RemovePeer(connectionID) == 0 {
		delete(rm.Rooms, roomID)
	}
}

func (rm *RoomManager) DissolveGroup(roomID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.Rooms, roomID)
}
