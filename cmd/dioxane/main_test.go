package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/dioxane/internal/protocol"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecodeCommand(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"ack", []string{"decode", "a0"}, "<Packet ACK 0x>\n"},
		{"knock response", []string{"decode", "0xab", "01", "02", "964d"}, "<Packet KNOCK_RESPONSE 0x01 0x02 0x964d>\n"},
		{"goodbye", []string{"decode", "0x0000"}, "<Goodbye>\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	_, err := execute(t, "decode", "ae", "02", "96")
	assert.ErrorIs(t, err, protocol.ErrTruncatedPacket)

	_, err = execute(t, "decode", "zz")
	assert.ErrorIs(t, err, protocol.ErrInvalidHex)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dioxane dev (protocol version 0x0001)\n", out)
}
