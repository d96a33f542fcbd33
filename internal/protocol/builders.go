package protocol

import (
	"errors"
	"fmt"
)

// ErrFieldTooLarge is returned when a value does not fit its length prefix.
var ErrFieldTooLarge = errors.New("field too large")

// Knock response flags.
const (
	ResponseAccepted byte = 0x01
	ResponseRefused  byte = 0x00
)

// EncryptionNone is the only MESSAGE_SEND encryption flag this client emits.
const EncryptionNone byte = 0x00

// lengthPrefix returns the length bytes and a copy of value for a
// length-prefixed field of the given width.
func lengthPrefix(name string, value []byte, width int) ([]byte, []byte, error) {
	length, err := UintToBytes(uint64(len(value)), width)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return length, append([]byte{}, value...), nil
}

// NewHey builds the version announcement.
func NewHey(version uint16) *Packet {
	return &Packet{Code: CodeHey, Options: [][]byte{{byte(version >> 8), byte(version)}}}
}

// NewAck builds an acknowledgement with an optional trailing option.
func NewAck(trailing []byte) *Packet {
	return &Packet{Code: CodeAck, Options: [][]byte{append([]byte{}, trailing...)}}
}

// NewSendKey builds the key announcement of the handshake.
func NewSendKey(key []byte) (*Packet, error) {
	return newKeyPacket(CodeSendKey, key)
}

// NewKeyResponse builds a server key response.
func NewKeyResponse(key []byte) (*Packet, error) {
	return newKeyPacket(CodeKeyResponse, key)
}

func newKeyPacket(code Code, key []byte) (*Packet, error) {
	length, value, err := lengthPrefix("key", key, 2)
	if err != nil {
		return nil, err
	}
	return &Packet{Code: code, Options: [][]byte{length, value}}, nil
}

// NewKeyIDPacket builds any of the opcodes whose only field is a one-byte
// length-prefixed id: KNOCK_SEND, KNOCK_RECEIVE, ROOM_CLOSE, KEY_REQUEST and
// KEY_UNKNOWN.
func NewKeyIDPacket(code Code, id []byte) (*Packet, error) {
	length, value, err := lengthPrefix("id", id, 1)
	if err != nil {
		return nil, err
	}
	return &Packet{Code: code, Options: [][]byte{length, value}}, nil
}

// NewKnockResponse builds a knock answer for the peer with keyID.
func NewKnockResponse(accepted bool, keyID []byte) (*Packet, error) {
	length, value, err := lengthPrefix("key_id", keyID, 1)
	if err != nil {
		return nil, err
	}
	flag := ResponseRefused
	if accepted {
		flag = ResponseAccepted
	}
	return &Packet{Code: CodeKnockResponse, Options: [][]byte{{flag}, length, value}}, nil
}

// NewRoomNew builds the server's room announcement.
func NewRoomNew(roomID, keyID []byte) (*Packet, error) {
	roomLen, room, err := lengthPrefix("room_id", roomID, 1)
	if err != nil {
		return nil, err
	}
	keyLen, key, err := lengthPrefix("key_id", keyID, 1)
	if err != nil {
		return nil, err
	}
	return &Packet{Code: CodeRoomNew, Options: [][]byte{roomLen, room, keyLen, key}}, nil
}

// NewMessageSend builds a room message.
func NewMessageSend(roomID []byte, encryption byte, payload []byte) (*Packet, error) {
	roomLen, room, err := lengthPrefix("room_id", roomID, 1)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Code:    CodeMessageSend,
		Options: [][]byte{roomLen, room, {encryption}, append([]byte{}, payload...)},
	}, nil
}
