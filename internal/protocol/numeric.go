package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHex is returned when textual packet input is not hexadecimal.
var ErrInvalidHex = errors.New("invalid hex input")

// IntToBytes encodes v big-endian in the fewest bytes that hold it: the hex
// digit string is left-padded to an even length, so 0xa0 is one byte and
// 0x0531b00b four. Zero encodes as a single zero byte.
func IntToBytes(v uint64) []byte {
	n := 1
	for x := v >> 8; x > 0; x >>= 8 {
		n++
	}
	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// UintToBytes encodes v big-endian in exactly width bytes. It fails when v
// does not fit.
func UintToBytes(v uint64, width int) ([]byte, error) {
	if width < 8 && v>>(8*uint(width)) != 0 {
		return nil, fmt.Errorf("%w: %d does not fit in %d byte(s)", ErrFieldTooLarge, v, width)
	}
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf, nil
}

// BytesToInt decodes b as an unsigned big-endian integer.
func BytesToInt(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// BytesToHex renders b as 0x-prefixed lowercase hex, keeping leading zeros.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// ParseHex turns hex words ("0xa0", "ba", "0x0531b00b") into bytes. Each word
// with an odd digit count gets a leading zero, like IntToBytes.
func ParseHex(words ...string) ([]byte, error) {
	var out []byte
	for _, w := range words {
		digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(w), "0x"), "0X")
		if digits == "" {
			continue
		}
		if len(digits)%2 == 1 {
			digits = "0" + digits
		}
		b, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHex, w)
		}
		out = append(out, b...)
	}
	return out, nil
}

// IsGoodbye reports whether buf is the server's goodbye signal: a non-empty
// buffer made only of zero bytes.
func IsGoodbye(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
