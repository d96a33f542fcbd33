package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPacket returns a helper that unwraps a builder result, failing t on error.
func mustPacket(t *testing.T) func(*Packet, error) *Packet {
	return func(pkt *Packet, err error) *Packet {
		t.Helper()
		require.NoError(t, err)
		return pkt
	}
}

// schemaPackets returns one schema-conformant packet per opcode with a schema.
func schemaPackets(t *testing.T) map[string]*Packet {
	t.Helper()
	keyID := []byte{0x96, 0x4d}
	roomID := []byte{0x13, 0x12, 0xff}

	return map[string]*Packet{
		"hey":                  NewHey(0x0001),
		"ack empty":            NewAck(nil),
		"ack trailing":         NewAck([]byte{0xee, 0x02, 0x96, 0x4d}),
		"send key":             mustPacket(t)(NewSendKey([]byte{0x13, 0x12, 0xb0, 0x0b})),
		"send key empty":       mustPacket(t)(NewSendKey(nil)),
		"key response":         mustPacket(t)(NewKeyResponse(bytes.Repeat([]byte{0x42}, 300))),
		"knock send":           mustPacket(t)(NewKeyIDPacket(CodeKnockSend, keyID)),
		"knock receive":        mustPacket(t)(NewKeyIDPacket(CodeKnockReceive, keyID)),
		"room close":           mustPacket(t)(NewKeyIDPacket(CodeRoomClose, roomID)),
		"key request":          mustPacket(t)(NewKeyIDPacket(CodeKeyRequest, keyID)),
		"key unknown":          mustPacket(t)(NewKeyIDPacket(CodeKeyUnknown, keyID)),
		"knock accepted":       mustPacket(t)(NewKnockResponse(true, keyID)),
		"knock refused":        mustPacket(t)(NewKnockResponse(false, keyID)),
		"room new":             mustPacket(t)(NewRoomNew(roomID, keyID)),
		"message":              mustPacket(t)(NewMessageSend(roomID, EncryptionNone, []byte("hello"))),
		"message empty":        mustPacket(t)(NewMessageSend(roomID, EncryptionNone, nil)),
		"message empty roomid": mustPacket(t)(NewMessageSend(nil, 0x01, []byte{0x00, 0xa0})),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for name, pkt := range schemaPackets(t) {
		t.Run(name, func(t *testing.T) {
			fields, ok := Schema(pkt.Code)
			require.True(t, ok)
			require.Len(t, pkt.Options, OptionCount(fields))

			decoded, err := Decode(Encode(pkt))
			require.NoError(t, err)
			assert.Equal(t, pkt, decoded)
		})
	}
}

func TestEncodeWireBytes(t *testing.T) {
	testCases := []struct {
		name string
		pkt  *Packet
		want []byte
	}{
		{"hey", NewHey(1), []byte{0x05, 0x31, 0xb0, 0x0b, 0x00, 0x01}},
		{"ack", NewAck(nil), []byte{0xa0}},
		{"send key", mustPacket(t)(NewSendKey([]byte{0x13, 0x12, 0xb0, 0x0b})),
			[]byte{0x0e, 0x1f, 0x00, 0x04, 0x13, 0x12, 0xb0, 0x0b}},
		{"knock send", mustPacket(t)(NewKeyIDPacket(CodeKnockSend, []byte{0x96, 0x4d})),
			[]byte{0xee, 0x02, 0x96, 0x4d}},
		{"knock response", mustPacket(t)(NewKnockResponse(true, []byte{0x96, 0x4d})),
			[]byte{0xab, 0x01, 0x02, 0x96, 0x4d}},
		{"message", mustPacket(t)(NewMessageSend([]byte{0x77}, EncryptionNone, []byte("hi"))),
			[]byte{0xda, 0x01, 0x77, 0x00, 'h', 'i'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Encode(tc.pkt))
		})
	}
}

func TestDecodeAckPrefix(t *testing.T) {
	t.Run("lone ack byte", func(t *testing.T) {
		pkt, err := Decode([]byte{0xa0})
		require.NoError(t, err)
		assert.Equal(t, CodeAck, pkt.Code)
		require.Len(t, pkt.Options, 1)
		assert.Empty(t, pkt.Options[0])
	})

	t.Run("ack with trailing bytes", func(t *testing.T) {
		pkt, err := Decode([]byte{0xa0, 0xee, 0x02, 0x96, 0x4d})
		require.NoError(t, err)
		assert.Equal(t, CodeAck, pkt.Code)
		assert.Equal(t, [][]byte{{0xee, 0x02, 0x96, 0x4d}}, pkt.Options)
	})

	t.Run("key response", func(t *testing.T) {
		pkt, err := Decode([]byte{0xa0, 0xba, 0x00, 0x02, 0xbe, 0xef})
		require.NoError(t, err)
		assert.Equal(t, CodeKeyResponse, pkt.Code)
		assert.Equal(t, [][]byte{{0x00, 0x02}, {0xbe, 0xef}}, pkt.Options)
	})

	t.Run("key response with truncated key", func(t *testing.T) {
		_, err := Decode([]byte{0xa0, 0xba, 0x00, 0x02, 0xbe})
		assert.ErrorIs(t, err, ErrTruncatedPacket)
	})

	t.Run("key response without length", func(t *testing.T) {
		_, err := Decode([]byte{0xa0, 0xba})
		assert.ErrorIs(t, err, ErrTruncatedPacket)
	})
}

func TestDecodeTruncation(t *testing.T) {
	for name, pkt := range schemaPackets(t) {
		fields, _ := Schema(pkt.Code)
		wire := Encode(pkt)
		headerLen := len(wire)
		for _, opt := range pkt.Options {
			headerLen -= len(opt)
		}

		// Cut the buffer at every position that falls inside a fixed or
		// length-prefixed field.
		pos := headerLen
		optIdx := 0
		for _, f := range fields {
			var width int
			switch f.Kind {
			case FieldFixed:
				width = len(pkt.Options[optIdx])
				optIdx++
			case FieldLengthPrefixed:
				width = len(pkt.Options[optIdx]) + len(pkt.Options[optIdx+1])
				optIdx += 2
			case FieldRest:
				optIdx++
				continue
			}
			for cut := pos; cut < pos+width; cut++ {
				t.Run(name, func(t *testing.T) {
					_, err := Decode(wire[:cut])
					assert.ErrorIs(t, err, ErrTruncatedPacket, "cut at %d of %x", cut, wire)
				})
			}
			pos += width
		}
	}
}

func TestDecodeDropLastByte(t *testing.T) {
	keyID := []byte{0x96, 0x4d}
	packets := []*Packet{
		NewHey(0x0102),
		mustPacket(t)(NewSendKey([]byte{0x01, 0x02, 0x03})),
		mustPacket(t)(NewKeyIDPacket(CodeKnockSend, keyID)),
		mustPacket(t)(NewKnockResponse(false, keyID)),
		mustPacket(t)(NewRoomNew([]byte{0x42}, keyID)),
	}
	for _, pkt := range packets {
		t.Run(pkt.Code.String(), func(t *testing.T) {
			wire := Encode(pkt)
			_, err := Decode(wire[:len(wire)-1])
			assert.ErrorIs(t, err, ErrTruncatedPacket)
		})
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown single byte", []byte{0x01}},
		{"partial hey", []byte{0x05, 0x31, 0xb0}},
		{"partial send key", []byte{0x0e}},
		{"runaway prefix", []byte{0x05, 0x31, 0xb0, 0x0c, 0xa0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			assert.ErrorIs(t, err, ErrUnknownOpcode)
		})
	}
}

func TestDecodeLeadingZeroBytes(t *testing.T) {
	pkt, err := Decode([]byte{0x00, 0x00, 0xee, 0x01, 0x42})
	require.NoError(t, err)
	assert.Equal(t, CodeKnockSend, pkt.Code)
	assert.Equal(t, [][]byte{{0x01}, {0x42}}, pkt.Options)
}

func TestDecodeErrorOpcodes(t *testing.T) {
	codes := []Code{
		CodeErrWrongPacketLength, CodeErrWrongPacketID, CodeErrUnsupportedVersion,
		CodeErrIncompleteKey, CodeErrOutOfPath, CodeErrUnknownPacketID,
		CodeErrNotImplemented, CodeErrFaultyReading,
	}
	for _, code := range codes {
		t.Run(code.String(), func(t *testing.T) {
			_, err := Decode(append(code.Bytes(), 0x01, 0x02))
			assert.ErrorIs(t, err, ErrUnsupportedOpcodeBody)
		})
	}
}

func TestDecodeAliasedErrorCodes(t *testing.T) {
	pkt, err := Decode([]byte{byte(CodeErrKeyMalformed), 0x00, 0x01, 0x42})
	require.NoError(t, err)
	assert.Equal(t, CodeKnockResponse, pkt.Code)
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	data := []byte{0xee, 0x01, 0x42}
	pkt, err := Decode(data)
	require.NoError(t, err)

	data[2] = 0x00
	assert.Equal(t, []byte{0x42}, pkt.Options[1])
}

func TestPacketString(t *testing.T) {
	pkt := mustPacket(t)(NewKnockResponse(true, []byte{0x96, 0x4d}))
	assert.Equal(t, "<Packet KNOCK_RESPONSE 0x01 0x02 0x964d>", pkt.String())
	assert.Equal(t, "0x1234", Code(0x1234).String())
}

func TestBuildersRejectOversizedFields(t *testing.T) {
	_, err := NewKeyIDPacket(CodeKnockSend, make([]byte, 256))
	assert.ErrorIs(t, err, ErrFieldTooLarge)

	_, err = NewSendKey(make([]byte, 65536))
	assert.ErrorIs(t, err, ErrFieldTooLarge)

	_, err = NewRoomNew([]byte{0x01}, make([]byte, 300))
	assert.ErrorIs(t, err, ErrFieldTooLarge)

	_, err = NewSendKey(make([]byte, 65535))
	assert.NoError(t, err)
}
