// Package config holds the client configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
)

// TransportKind selects how the client reaches the server.
type TransportKind string

const (
	TransportTCP       TransportKind = "tcp"
	TransportWebSocket TransportKind = "ws"
	TransportMemory    TransportKind = "memory"
)

var ErrInvalid = errors.New("invalid config")

// Config is the dioxane configuration file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Identity IdentityConfig `toml:"identity"`
	Protocol ProtocolConfig `toml:"protocol"`
	Contacts ContactsConfig `toml:"contacts"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig selects the transport and its endpoint.
type ServerConfig struct {
	Address   string        `toml:"address"`   // tcp host:port
	Transport TransportKind `toml:"transport"` // tcp, ws or memory
	URL       string        `toml:"url"`       // ws:// or wss:// endpoint
	EchoAck   bool          `toml:"echo_ack"`  // memory transport answers every packet with ACK
}

// IdentityConfig is the local identity. Key id and key are 0x-prefixed hex.
type IdentityConfig struct {
	Name  string `toml:"name"`
	KeyID string `toml:"key_id"`
	Key   string `toml:"key"`
}

type ProtocolConfig struct {
	Version     string `toml:"version"`
	AutoConnect bool   `toml:"auto_connect"`
}

// ContactsConfig locates the contact book. Seed entries are registered at
// every start.
type ContactsConfig struct {
	Path string    `toml:"path"`
	Seed []Contact `toml:"seed"`
}

type Contact struct {
	Name  string `toml:"name"`
	KeyID string `toml:"key_id"`
}

type LoggingConfig struct {
	Debug bool `toml:"debug"`
}

// Default returns a config for the local test server.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   "127.0.0.1:2142",
			Transport: TransportTCP,
		},
		Identity: IdentityConfig{
			Name:  "Amus",
			KeyID: "0x1312",
			Key:   "0x1312b00b",
		},
		Protocol: ProtocolConfig{
			Version: "0x0001",
		},
		Contacts: ContactsConfig{
			Seed: []Contact{
				{Name: "Baophes", KeyID: "0x964d"},
				{Name: "Cysalia", KeyID: "0xa156"},
			},
		},
	}
}

// LoadFrom reads the configuration at path on top of the defaults. A missing
// file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalid, undecoded)
	}

	return cfg, nil
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Validate checks every field the client depends on.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportTCP:
		if c.Server.Address == "" {
			return fmt.Errorf("%w: tcp transport needs server.address", ErrInvalid)
		}
	case TransportWebSocket:
		if c.Server.URL == "" {
			return fmt.Errorf("%w: ws transport needs server.url", ErrInvalid)
		}
	case TransportMemory:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, c.Server.Transport)
	}

	if _, err := c.Self(); err != nil {
		return err
	}
	if _, err := c.Version(); err != nil {
		return err
	}
	if _, err := c.Seeds(); err != nil {
		return err
	}
	return nil
}

// Self builds the local identity.
func (c *Config) Self() (*identity.Identity, error) {
	keyID, err := parseKeyID("identity.key_id", c.Identity.KeyID)
	if err != nil {
		return nil, err
	}
	key, err := protocol.ParseHex(c.Identity.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: identity.key: %v", ErrInvalid, err)
	}
	if len(key) > 0xffff {
		return nil, fmt.Errorf("%w: identity.key longer than 65535 bytes", ErrInvalid)
	}
	return identity.New(c.Identity.Name, keyID, key), nil
}

// Version returns the protocol version announced in HEY.
func (c *Config) Version() (uint16, error) {
	b, err := protocol.ParseHex(c.Protocol.Version)
	if err != nil || len(b) == 0 || len(b) > 2 {
		return 0, fmt.Errorf("%w: protocol.version %q", ErrInvalid, c.Protocol.Version)
	}
	return uint16(protocol.BytesToInt(b)), nil
}

// Seeds builds the seed contacts.
func (c *Config) Seeds() ([]*identity.Identity, error) {
	out := make([]*identity.Identity, 0, len(c.Contacts.Seed))
	for i, s := range c.Contacts.Seed {
		keyID, err := parseKeyID(fmt.Sprintf("contacts.seed[%d].key_id", i), s.KeyID)
		if err != nil {
			return nil, err
		}
		out = append(out, identity.New(s.Name, keyID, nil))
	}
	return out, nil
}

// parseKeyID decodes a key id, which must fit a one-byte length prefix.
func parseKeyID(field, s string) ([]byte, error) {
	keyID, err := protocol.ParseHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	if len(keyID) == 0 || len(keyID) > 0xff {
		return nil, fmt.Errorf("%w: %s must hold 1 to 255 bytes", ErrInvalid, field)
	}
	return keyID, nil
}
