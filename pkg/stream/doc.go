// Package stream holds the signaling core: the stream lifecycle state
// machine, membership, signal relay and chat log.
//
// A Hub owns every registry and processes inbound events one at a time on a
// single goroutine, so handlers never need locks. Outbound delivery goes
// through a Transport, which the Hub treats as fire-and-forget.
package stream
