package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode         = errors.New("unknown opcode")
	ErrTruncatedPacket       = errors.New("truncated packet")
	ErrUnsupportedOpcodeBody = errors.New("decoding this opcode is not implemented")
)

// Encode serializes a Packet: the opcode in its minimal width followed by the
// raw options. Options are not checked against the schema.
func Encode(pkt *Packet) []byte {
	buf := pkt.Code.Bytes()
	for _, opt := range pkt.Options {
		buf = append(buf, opt...)
	}
	return buf
}

// Decode parses exactly one framed packet. A packet whose fields cannot all be
// read is rejected as a whole.
func Decode(data []byte) (*Packet, error) {
	r := &reader{data: data}

	code, err := r.readCode()
	if err != nil {
		return nil, err
	}

	if code == CodeAck {
		// 0xa0 is also the first byte of KEY_RESPONSE.
		next, ok := r.peek()
		if !ok || uint64(CodeAck)<<8|uint64(next) != uint64(CodeKeyResponse) {
			return &Packet{Code: CodeAck, Options: [][]byte{r.rest()}}, nil
		}
		r.pos++
		code = CodeKeyResponse
	}

	fields, ok := Schema(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOpcodeBody, code)
	}

	pkt := &Packet{Code: code, Options: make([][]byte, 0, OptionCount(fields))}
	for _, f := range fields {
		switch f.Kind {
		case FieldFixed:
			b, ok := r.read(f.Width)
			if !ok {
				return nil, truncated(code, f, data)
			}
			pkt.Options = append(pkt.Options, b)

		case FieldLengthPrefixed:
			length, ok := r.read(f.Width)
			if !ok {
				return nil, truncated(code, f, data)
			}
			value, ok := r.read(int(BytesToInt(length)))
			if !ok {
				return nil, truncated(code, f, data)
			}
			pkt.Options = append(pkt.Options, length, value)

		case FieldRest:
			pkt.Options = append(pkt.Options, r.rest())
		}
	}
	return pkt, nil
}

func truncated(code Code, f Field, data []byte) error {
	return fmt.Errorf("%w: %s field %q does not fit in %s", ErrTruncatedPacket, code, f.Name, BytesToHex(data))
}

// reader walks a buffer without ever reading past its end.
type reader struct {
	data []byte
	pos  int
}

// readCode accumulates bytes until the value names a known opcode.
func (r *reader) readCode() (Code, error) {
	var v uint64
	for r.pos < len(r.data) {
		v = v<<8 | uint64(r.data[r.pos])
		r.pos++
		if v > maxCode {
			break
		}
		if Code(v).Known() {
			return Code(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownOpcode, BytesToHex(r.data[:r.pos]))
}

func (r *reader) peek() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	return r.data[r.pos], true
}

func (r *reader) read(n int) ([]byte, bool) {
	if n < 0 || len(r.data)-r.pos < n {
		return nil, false
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b, true
}

func (r *reader) rest() []byte {
	b := make([]byte, len(r.data)-r.pos)
	copy(b, r.data[r.pos:])
	r.pos = len(r.data)
	return b
}
