// Package protocol defines the Eth3r packet format: the opcode table, the
// per-opcode field schemas and the byte codec.
package protocol

import (
	"fmt"
	"strings"
)

// Code is an Eth3r opcode. Opcodes are variable-width on the wire.
type Code uint32

// Opcode table.
const (
	CodeHey     Code = 0x0531b00b // version announcement, first packet of the handshake
	CodeAck     Code = 0xa0
	CodeSendKey Code = 0x0e1f

	CodeKnockSend     Code = 0xee
	CodeKnockReceive  Code = 0xae
	CodeKnockResponse Code = 0xab
	CodeRoomNew       Code = 0xac
	CodeRoomClose     Code = 0xaf

	CodeKeyRequest  Code = 0xba
	CodeKeyResponse Code = 0xa0ba // shares its first byte with CodeAck
	CodeKeyUnknown  Code = 0xca

	CodeMessageSend Code = 0xda

	CodeErrWrongPacketLength  Code = 0xa1
	CodeErrWrongPacketID      Code = 0xa2
	CodeErrUnsupportedVersion Code = 0xa4
	CodeErrIncompleteKey      Code = 0xaa
	CodeErrOutOfPath          Code = 0xe0
	CodeErrUnknownPacketID    Code = 0xfd
	CodeErrNotImplemented     Code = 0xfe
	CodeErrFaultyReading      Code = 0xff

	// These error codes share their wire value with a regular opcode and are
	// always decoded as that opcode.
	CodeErrKeyMalformed        = CodeKnockResponse
	CodeErrKeyPayloadMalformed = CodeRoomNew
	CodeErrMalformation        = CodeKeyRequest
)

var codeNames = map[Code]string{
	CodeHey:                   "HEY",
	CodeAck:                   "ACK",
	CodeSendKey:               "SEND_KEY",
	CodeKnockSend:             "KNOCK_SEND",
	CodeKnockReceive:          "KNOCK_RECEIVE",
	CodeKnockResponse:         "KNOCK_RESPONSE",
	CodeRoomNew:               "ROOM_NEW",
	CodeRoomClose:             "ROOM_CLOSE",
	CodeKeyRequest:            "KEY_REQUEST",
	CodeKeyResponse:           "KEY_RESPONSE",
	CodeKeyUnknown:            "KEY_UNKNOWN",
	CodeMessageSend:           "MESSAGE_SEND",
	CodeErrWrongPacketLength:  "ERR_WRONG_PACKET_LENGTH",
	CodeErrWrongPacketID:      "ERR_WRONG_PACKET_ID",
	CodeErrUnsupportedVersion: "ERR_UNSUPPORTED_VERSION",
	CodeErrIncompleteKey:      "ERR_INCOMPLETE_KEY",
	CodeErrOutOfPath:          "ERR_OUT_OF_PATH",
	CodeErrUnknownPacketID:    "ERR_UNKNOWN_PACKET_ID",
	CodeErrNotImplemented:     "ERR_NOT_IMPLEMENTED",
	CodeErrFaultyReading:      "ERR_FAULTY_READING",
}

// maxCode bounds the opcode scan: once the accumulated value exceeds it no
// opcode can match any more.
const maxCode = uint64(CodeHey)

// Known reports whether c is part of the opcode table.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", uint32(c))
}

// Bytes returns the wire form of the opcode.
func (c Code) Bytes() []byte {
	return IntToBytes(uint64(c))
}

// Packet is one Eth3r message. Options hold the raw bytes of each schema
// field in order; a length-prefixed field contributes two options, the length
// bytes and the value bytes.
type Packet struct {
	Code    Code
	Options [][]byte
}

// NewPacket builds a packet from already-encoded options. The options are
// copied; no schema check is made.
func NewPacket(code Code, options ...[]byte) *Packet {
	pkt := &Packet{Code: code, Options: make([][]byte, len(options))}
	for i, opt := range options {
		pkt.Options[i] = append([]byte{}, opt...)
	}
	return pkt
}

// Option returns option i or nil when the packet has fewer options.
func (p *Packet) Option(i int) []byte {
	if i < 0 || i >= len(p.Options) {
		return nil
	}
	return p.Options[i]
}

func (p *Packet) String() string {
	var sb strings.Builder
	sb.WriteString("<Packet ")
	sb.WriteString(p.Code.String())
	for _, opt := range p.Options {
		sb.WriteByte(' ')
		sb.WriteString(BytesToHex(opt))
	}
	sb.WriteByte('>')
	return sb.String()
}
