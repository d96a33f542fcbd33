// Package state tracks the three Eth3r state machines: the handshake with the
// server, knocks exchanged with peers and the rooms opened by the server.
//
// Trackers are not safe for concurrent use; the engine owns them and
// serializes every access.
package state

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// ConnState is the handshake progress with the server.
type ConnState int

const (
	Disconnected ConnState = iota
	VersionSent
	KeySent
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case VersionSent:
		return "version sent"
	case KeySent:
		return "key sent"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// Connection is the handshake state machine:
//
//	Disconnected -> VersionSent -> KeySent -> Connected
//
// Only forward single steps are allowed.
type Connection struct {
	state ConnState
}

// State returns the current handshake state.
func (c *Connection) State() ConnState {
	return c.state
}

// Advance moves to the given state, which must directly follow the current
// one.
func (c *Connection) Advance(to ConnState) error {
	if to != c.state+1 || to > Connected {
		return fmt.Errorf("%w: connection %s -> %s", ErrInvalidTransition, c.state, to)
	}
	c.state = to
	return nil
}
