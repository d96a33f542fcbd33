package state

import (
	"errors"
	"fmt"

	"github.com/1ureka/dioxane/internal/identity"
)

var (
	ErrNoKnock            = errors.New("no knock with this peer")
	ErrUnexpectedResponse = errors.New("knock response in unexpected state")
)

// KnockState is the progress of a knock with one peer.
type KnockState int

const (
	Requesting KnockState = iota
	RequestAckedByServer
	ReceivedFromPeer
	Accepted
	Refused
)

func (s KnockState) String() string {
	switch s {
	case Requesting:
		return "requesting"
	case RequestAckedByServer:
		return "acked by server"
	case ReceivedFromPeer:
		return "received from peer"
	case Accepted:
		return "accepted"
	case Refused:
		return "refused"
	}
	return fmt.Sprintf("KnockState(%d)", int(s))
}

// Knock is a pending or settled request to open a room with Peer.
type Knock struct {
	Peer  *identity.Identity
	State KnockState
}

// Knocks holds at most one knock per peer.
type Knocks struct {
	order  []*Knock
	byPeer map[string]*Knock
}

// NewKnocks creates an empty tracker.
func NewKnocks() *Knocks {
	return &Knocks{byPeer: make(map[string]*Knock)}
}

func peerKey(peer *identity.Identity) string {
	return peer.Hex()
}

func (k *Knocks) put(peer *identity.Identity, s KnockState) *Knock {
	knock := &Knock{Peer: peer, State: s}
	key := peerKey(peer)
	if old, ok := k.byPeer[key]; ok {
		for i, o := range k.order {
			if o == old {
				k.order[i] = knock
				break
			}
		}
	} else {
		k.order = append(k.order, knock)
	}
	k.byPeer[key] = knock
	return knock
}

// Request starts a local knock towards peer, replacing any previous one.
func (k *Knocks) Request(peer *identity.Identity) *Knock {
	return k.put(peer, Requesting)
}

// Receive records a knock sent to us by peer, replacing any previous one.
func (k *Knocks) Receive(peer *identity.Identity) *Knock {
	return k.put(peer, ReceivedFromPeer)
}

// Get returns the knock with peer.
func (k *Knocks) Get(peer *identity.Identity) (*Knock, bool) {
	knock, ok := k.byPeer[peerKey(peer)]
	return knock, ok
}

// MarkAcked records the server's acknowledgement of a Requesting knock.
func (k *Knocks) MarkAcked(knock *Knock) error {
	if knock.State != Requesting {
		return fmt.Errorf("%w: knock with %s is %s", ErrInvalidTransition, knock.Peer, knock.State)
	}
	knock.State = RequestAckedByServer
	return nil
}

// Respond applies the peer's answer to our knock. A knock still Requesting is
// treated as acknowledged first and recovered is set. In any other state
// than RequestAckedByServer the knock is left unchanged and
// ErrUnexpectedResponse is returned.
func (k *Knocks) Respond(peer *identity.Identity, accepted bool) (knock *Knock, recovered bool, err error) {
	knock, ok := k.Get(peer)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrNoKnock, peer)
	}
	if knock.State == Requesting {
		knock.State = RequestAckedByServer
		recovered = true
	}
	if knock.State != RequestAckedByServer {
		return knock, false, fmt.Errorf("%w: knock with %s is %s", ErrUnexpectedResponse, peer, knock.State)
	}
	knock.State = settle(accepted)
	return knock, recovered, nil
}

// Answer settles a knock we received from peer.
func (k *Knocks) Answer(peer *identity.Identity, accept bool) (*Knock, error) {
	knock, ok := k.Get(peer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoKnock, peer)
	}
	if knock.State != ReceivedFromPeer {
		return knock, fmt.Errorf("%w: knock with %s is %s", ErrInvalidTransition, peer, knock.State)
	}
	knock.State = settle(accept)
	return knock, nil
}

func settle(accepted bool) KnockState {
	if accepted {
		return Accepted
	}
	return Refused
}

// All returns the knocks in the order their peers were first knocked.
func (k *Knocks) All() []*Knock {
	return append([]*Knock(nil), k.order...)
}
