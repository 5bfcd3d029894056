//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../../mocks/mock_transport.go -package=mocks
package stream

// Transport delivers outbound events. Every method must return without
// waiting on the network; undeliverable events are dropped.
type Transport interface {
	// Send delivers to a single connection.
	Send(connectionID string, event Event)
	// Broadcast delivers to every connection in group except the one named by
	// except, which may be empty.
	Broadcast(group string, event Event, except string)
	JoinGroup(group, connectionID string)
	LeaveGroup(group, connectionID string)
	// DissolveGroup removes every connection from group.
	DissolveGroup(group string)
}
