package state

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/1ureka/dioxane/internal/identity"
)

var (
	ErrUnknownRoom       = errors.New("unknown room")
	ErrRoomAlreadyClosed = errors.New("room already closed")
	ErrRoomClosed        = errors.New("room is closed")
)

// Direction tells whether a message was sent or received locally.
type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Sent {
		return "sent"
	}
	return "received"
}

// Message is one entry of a room log. Only Acknowledged ever changes after
// the message is appended.
type Message struct {
	ID           uuid.UUID // local handle, never on the wire
	Payload      []byte
	Sender       *identity.Identity
	Recipient    *identity.Identity
	Direction    Direction
	Acknowledged bool
}

// NewSentMessage creates an unacknowledged outgoing message.
func NewSentMessage(sender, recipient *identity.Identity, payload []byte) *Message {
	return &Message{
		ID:        uuid.New(),
		Payload:   append([]byte{}, payload...),
		Sender:    sender,
		Recipient: recipient,
		Direction: Sent,
	}
}

// NewReceivedMessage creates an incoming message, acknowledged by definition.
func NewReceivedMessage(sender *identity.Identity, payload []byte) *Message {
	return &Message{
		ID:           uuid.New(),
		Payload:      append([]byte{}, payload...),
		Sender:       sender,
		Direction:    Received,
		Acknowledged: true,
	}
}

// Room is a channel with Peer, named on the wire by ID.
type Room struct {
	Peer     *identity.Identity
	ID       *identity.Identity
	Closed   bool
	Messages []*Message
}

// Append adds msg at the end of the room log.
func (r *Room) Append(msg *Message) {
	r.Messages = append(r.Messages, msg)
}

// Snapshot returns a copy of the room safe to read outside the engine.
func (r *Room) Snapshot() Room {
	cp := *r
	cp.Messages = make([]*Message, len(r.Messages))
	for i, m := range r.Messages {
		mc := *m
		cp.Messages[i] = &mc
	}
	return cp
}

// Rooms indexes rooms by peer and by room id. A room opened again for the
// same peer becomes that peer's current room; the previous one stays
// reachable by its id.
type Rooms struct {
	order  []*Room
	byID   map[string]*Room
	byPeer map[string]*Room
}

// NewRooms creates an empty tracker.
func NewRooms() *Rooms {
	return &Rooms{
		byID:   make(map[string]*Room),
		byPeer: make(map[string]*Room),
	}
}

// Open records a new room with peer.
func (r *Rooms) Open(peer *identity.Identity, roomID []byte) *Room {
	room := &Room{
		Peer: peer,
		ID:   identity.New(fmt.Sprintf("Room with %s", peer), roomID, nil),
	}
	r.order = append(r.order, room)
	r.byID[room.ID.Hex()] = room
	r.byPeer[peerKey(peer)] = room
	return room
}

// ByID returns the room with the given wire id.
func (r *Rooms) ByID(roomID []byte) (*Room, bool) {
	room, ok := r.byID[identity.FromKeyID(roomID).Hex()]
	return room, ok
}

// ByPeer returns the current room with peer.
func (r *Rooms) ByPeer(peer *identity.Identity) (*Room, bool) {
	room, ok := r.byPeer[peerKey(peer)]
	return room, ok
}

// Close marks the room with the given id closed.
func (r *Rooms) Close(roomID []byte) (*Room, error) {
	room, ok := r.ByID(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, identity.FromKeyID(roomID).Hex())
	}
	if room.Closed {
		return room, fmt.Errorf("%w: %s", ErrRoomAlreadyClosed, room.ID)
	}
	room.Closed = true
	return room, nil
}

// Deliver appends a received message to the room with the given id. Unknown
// rooms drop the message. A closed room still stores it and ErrRoomClosed is
// returned alongside.
func (r *Rooms) Deliver(roomID []byte, payload []byte) (*Room, *Message, error) {
	room, ok := r.ByID(roomID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRoom, identity.FromKeyID(roomID).Hex())
	}
	msg := NewReceivedMessage(room.Peer, payload)
	room.Messages = append(room.Messages, msg)
	if room.Closed {
		return room, msg, fmt.Errorf("%w: %s", ErrRoomClosed, room.ID)
	}
	return room, msg, nil
}

// FirstUnacked returns the oldest unacknowledged sent message, scanning rooms
// in opening order.
func (r *Rooms) FirstUnacked() (*Room, *Message, bool) {
	for _, room := range r.order {
		for _, msg := range room.Messages {
			if msg.Direction == Sent && !msg.Acknowledged {
				return room, msg, true
			}
		}
	}
	return nil, nil, false
}

// All returns the rooms in opening order.
func (r *Rooms) All() []*Room {
	return append([]*Room(nil), r.order...)
}
