package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"example.com/stream_signal/pkg/stream"
	"github.com/pion/webrtc/v4"
)

// SessionSignal is the payload this client sends for offers and answers.
type SessionSignal struct {
	To  string                    `json:"to"`
	SDP webrtc.SessionDescription `json:"sdp"`
}

// CandidateSignal is the payload this client sends for ICE candidates.
type CandidateSignal struct {
	To        string                  `json:"to"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// PeerCallback is called for every new peer connection, before any
// description is applied, so tracks and data channels can be added.
type PeerCallback func(remoteID string, pc *webrtc.PeerConnection)

// DefaultConfiguration uses a public STUN server.
func DefaultConfiguration() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

type remotePeer struct {
	pc      *webrtc.PeerConnection
	pending []webrtc.ICECandidateInit
}

// Negotiator establishes direct peer connections with other clients, using
// the server only to relay offers, answers and ICE candidates.
type Negotiator struct {
	client *Client
	config webrtc.Configuration
	log    *slog.Logger

	mu     sync.Mutex
	peers  map[string]*remotePeer
	onPeer PeerCallback
}

// NewNegotiator hooks into c's relay events. Peers that leave or disconnect
// from the stream are hung up.
func NewNegotiator(c *Client, config webrtc.Configuration, log *slog.Logger) *Negotiator {
	n := &Negotiator{
		client: c,
		config: config,
		log:    log,
		peers:  make(map[string]*remotePeer),
	}
	c.On(stream.EventOnOffer, n.handleOffer)
	c.On(stream.EventOnAccepted, n.handleAnswer)
	c.On(stream.EventOnIceCandidate, n.handleCandidate)
	c.On(stream.EventUserLeft, func(data json.RawMessage) {
		var p stream.UserLeftPayload
		if json.Unmarshal(data, &p) == nil {
			n.Hangup(p.UserID)
		}
	})
	c.On(stream.EventUserDisconnected, func(data json.RawMessage) {
		var p stream.UserDisconnectedPayload
		if json.Unmarshal(data, &p) == nil {
			n.Hangup(p.ConnectionID)
		}
	})
	return n
}

func (n *Negotiator) OnPeer(callback PeerCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onPeer = callback
}

// Call opens a peer connection to remoteID and sends it an offer.
func (n *Negotiator) Call(remoteID string) (*webrtc.PeerConnection, error) {
	rp, err := n.peerFor(remoteID)
	if err != nil {
		return nil, err
	}
	pc := rp.pc

	if _, err := pc.CreateDataChannel("chat", nil); err != nil {
		return nil, fmt.Errorf("failed to create data channel: %w", err)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}

	if err := n.client.Emit(stream.EventOffer, SessionSignal{To: remoteID, SDP: offer}); err != nil {
		return nil, fmt.Errorf("failed to send offer: %w", err)
	}
	return pc, nil
}

// Peer returns the connection to remoteID, if one exists.
func (n *Negotiator) Peer(remoteID string) (*webrtc.PeerConnection, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	rp, ok := n.peers[remoteID]
	if !ok {
		return nil, false
	}
	return rp.pc, true
}

// Hangup closes the connection to remoteID.
func (n *Negotiator) Hangup(remoteID string) {
	n.mu.Lock()
	rp, ok := n.peers[remoteID]
	delete(n.peers, remoteID)
	n.mu.Unlock()

	if ok {
		if err := rp.pc.Close(); err != nil {
			n.log.Warn("Failed to close peer connection", "remote_id", remoteID, "error", err)
		}
	}
}

// Close hangs up every peer.
func (n *Negotiator) Close() {
	n.mu.Lock()
	ids := make([]string, 0, len(n.peers))
	for id := range n.peers {
		ids = append(ids, id)
	}
	n.mu.Unlock()

	for _, id := range ids {
		n.Hangup(id)
	}
}

func (n *Negotiator) peerFor(remoteID string) (*remotePeer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if rp, ok := n.peers[remoteID]; ok {
		return rp, nil
	}

	pc, err := webrtc.NewPeerConnection(n.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		if err := n.client.Emit(stream.EventIceCandidate, CandidateSignal{
			To:        remoteID,
			Candidate: candidate.ToJSON(),
		}); err != nil {
			n.log.Debug("Failed to send ICE candidate", "remote_id", remoteID, "error", err)
		}
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		n.log.Debug("Peer connection state", "remote_id", remoteID, "state", state.String())
	})

	if n.onPeer != nil {
		n.onPeer(remoteID, pc)
	}

	rp := &remotePeer{pc: pc}
	n.peers[remoteID] = rp
	return rp, nil
}

// relayed decodes the field of a relayed signal into v and returns the
// sender the server stamped on it.
func relayed(data json.RawMessage, field string, v any) (string, error) {
	var sig stream.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return "", err
	}
	from := sig.From()
	if from == "" {
		return "", errors.New("relayed signal has no sender")
	}
	raw, ok := sig[field]
	if !ok {
		return from, fmt.Errorf("relayed signal has no %q", field)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return from, fmt.Errorf("invalid %q: %w", field, err)
	}
	return from, nil
}

// handleOffer answers an offer relayed from another client.
func (n *Negotiator) handleOffer(data json.RawMessage) {
	var offer webrtc.SessionDescription
	from, err := relayed(data, "sdp", &offer)
	if err != nil {
		n.log.Warn("Invalid offer", "remote_id", from, "error", err)
		return
	}

	rp, err := n.peerFor(from)
	if err != nil {
		n.log.Warn("Failed to accept offer", "remote_id", from, "error", err)
		return
	}
	if err := n.applyRemote(from, rp, offer); err != nil {
		n.log.Warn("Failed to set remote description", "remote_id", from, "error", err)
		return
	}

	answer, err := rp.pc.CreateAnswer(nil)
	if err != nil {
		n.log.Warn("Failed to create answer", "remote_id", from, "error", err)
		return
	}
	if err := rp.pc.SetLocalDescription(answer); err != nil {
		n.log.Warn("Failed to set local description", "remote_id", from, "error", err)
		return
	}

	if err := n.client.Emit(stream.EventAnswer, SessionSignal{To: from, SDP: answer}); err != nil {
		n.log.Warn("Failed to send answer", "remote_id", from, "error", err)
	}
}

func (n *Negotiator) handleAnswer(data json.RawMessage) {
	var answer webrtc.SessionDescription
	from, err := relayed(data, "sdp", &answer)
	if err != nil {
		n.log.Warn("Invalid answer", "remote_id", from, "error", err)
		return
	}

	n.mu.Lock()
	rp, ok := n.peers[from]
	n.mu.Unlock()
	if !ok {
		n.log.Debug("Answer from unknown peer", "remote_id", from)
		return
	}
	if err := n.applyRemote(from, rp, answer); err != nil {
		n.log.Warn("Failed to set remote description", "remote_id", from, "error", err)
	}
}

// handleCandidate adds a candidate, holding it back until the remote
// description is known.
func (n *Negotiator) handleCandidate(data json.RawMessage) {
	var candidate webrtc.ICECandidateInit
	from, err := relayed(data, "candidate", &candidate)
	if err != nil {
		n.log.Warn("Invalid ICE candidate", "remote_id", from, "error", err)
		return
	}

	rp, err := n.peerFor(from)
	if err != nil {
		n.log.Warn("Failed to accept ICE candidate", "remote_id", from, "error", err)
		return
	}

	n.mu.Lock()
	if rp.pc.RemoteDescription() == nil {
		rp.pending = append(rp.pending, candidate)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()

	if err := rp.pc.AddICECandidate(candidate); err != nil {
		n.log.Warn("Failed to add ICE candidate", "remote_id", from, "error", err)
	}
}

func (n *Negotiator) applyRemote(remoteID string, rp *remotePeer, desc webrtc.SessionDescription) error {
	if err := rp.pc.SetRemoteDescription(desc); err != nil {
		return err
	}

	n.mu.Lock()
	pending := rp.pending
	rp.pending = nil
	n.mu.Unlock()

	for _, candidate := range pending {
		if err := rp.pc.AddICECandidate(candidate); err != nil {
			n.log.Warn("Failed to add ICE candidate", "remote_id", remoteID, "error", err)
		}
	}
	return nil
}
