package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/dioxane/internal/config"
)

// scriptedPrompter answers prompts from a fixed list and fails with io.EOF
// once the list runs out.
type scriptedPrompter struct {
	answers []string
	labels  []string
}

func (s *scriptedPrompter) next(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func (s *scriptedPrompter) Select(label string, _ []string) (string, error) {
	return s.next(label)
}

func (s *scriptedPrompter) Text(label string) (string, error) {
	return s.next(label)
}

func TestSetupConfig(t *testing.T) {
	testCases := []struct {
		name    string
		answers []string
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "tcp retries bad addresses",
			answers: []string{"tcp", "localhost", "localhost:99999", " 10.0.0.7:2142 ", "Baophes"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.TransportTCP, cfg.Server.Transport)
				assert.Equal(t, "10.0.0.7:2142", cfg.Server.Address)
				assert.Equal(t, "Baophes", cfg.Identity.Name)
			},
		},
		{
			name:    "ws adds the scheme",
			answers: []string{"ws", "http://chat.example:8080", "chat.example:8080/eth3r", "Cysalia"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.TransportWebSocket, cfg.Server.Transport)
				assert.Equal(t, "ws://chat.example:8080/eth3r", cfg.Server.URL)
				assert.Equal(t, "Cysalia", cfg.Identity.Name)
			},
		},
		{
			name:    "memory keeps the default name",
			answers: []string{"memory", "  "},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.TransportMemory, cfg.Server.Transport)
				assert.True(t, cfg.Server.EchoAck)
				assert.Equal(t, "Amus", cfg.Identity.Name)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dioxane.toml")
			p := &scriptedPrompter{answers: tc.answers}

			cfg := config.Default()
			require.NoError(t, setupConfig(p, cfg, path))
			assert.Empty(t, p.answers)
			tc.check(t, cfg)

			saved, err := config.LoadFrom(path)
			require.NoError(t, err)
			tc.check(t, saved)
			assert.False(t, needsSetup(path, false))
		})
	}
}

func TestSetupConfigAborted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dioxane.toml")
	p := &scriptedPrompter{answers: []string{"tcp", "nope"}}

	err := setupConfig(p, config.Default(), path)
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, p.labels, 3)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNeedsSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dioxane.toml")
	assert.True(t, needsSetup(path, false))
	assert.False(t, needsSetup(path, true))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.False(t, needsSetup(path, false))
}

func TestNormalizeWSURL(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "wss://chat.example/ws", want: "wss://chat.example/ws"},
		{in: " 127.0.0.1:2142 ", want: "ws://127.0.0.1:2142"},
		{in: "https://chat.example", wantErr: true},
		{in: "ws://", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := normalizeWSURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
