// Package identity holds the parties of an Eth3r session and the directory
// used to resolve them from names or key ids.
package identity

import (
	"bytes"
	"encoding/hex"
)

// Identity is a registered party. Two identities are the same party when
// their key ids are equal; the key id never changes after construction.
type Identity struct {
	Name string
	Key  []byte // public key material, may be nil

	keyID []byte
}

// New creates an identity. An empty name defaults to the hex key id.
func New(name string, keyID, key []byte) *Identity {
	id := &Identity{
		keyID: append([]byte{}, keyID...),
	}
	if key != nil {
		id.Key = append([]byte{}, key...)
	}
	id.Name = name
	if id.Name == "" {
		id.Name = id.Hex()
	}
	return id
}

// FromKeyID creates an unnamed identity, as done for peers first seen on the
// wire.
func FromKeyID(keyID []byte) *Identity {
	return New("", keyID, nil)
}

// KeyID returns a copy of the key id.
func (i *Identity) KeyID() []byte {
	return append([]byte{}, i.keyID...)
}

// Hex renders the key id as 0x-prefixed hex.
func (i *Identity) Hex() string {
	return "0x" + hex.EncodeToString(i.keyID)
}

// Equal compares key ids.
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return bytes.Equal(i.keyID, other.keyID)
}

func (i *Identity) String() string {
	return i.Name
}

// mapKey is the directory key of a key id.
func mapKey(keyID []byte) string {
	return hex.EncodeToString(keyID)
}
