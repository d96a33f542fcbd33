package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned when no identity matches a lookup.
var ErrNotFound = errors.New("identity not found")

// Directory maps names and key ids to identities. It remembers the order in
// which identities were first registered.
type Directory struct {
	mu    sync.RWMutex
	order []*Identity
	byKey map[string]*Identity
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{byKey: make(map[string]*Identity)}
}

// Register inserts id. An identity already registered under the same key id
// is replaced in place and keeps its position.
func (d *Directory) Register(id *Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := mapKey(id.keyID)
	if old, ok := d.byKey[k]; ok {
		for i, o := range d.order {
			if o == old {
				d.order[i] = id
				break
			}
		}
	} else {
		d.order = append(d.order, id)
	}
	d.byKey[k] = id
}

// Lookup resolves a name or a 0x-prefixed key id. Names are tried first, an
// exact match before the first name containing query.
func (d *Directory) Lookup(query string) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, id := range d.order {
		if id.Name == query {
			return id, nil
		}
	}
	if query != "" {
		for _, id := range d.order {
			if strings.Contains(id.Name, query) {
				return id, nil
			}
		}
	}
	if hexID, ok := strings.CutPrefix(strings.ToLower(query), "0x"); ok {
		if len(hexID)%2 == 1 {
			hexID = "0" + hexID
		}
		if id, ok := d.byKey[hexID]; ok {
			return id, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
}

// LookupKeyID resolves a raw key id.
func (d *Directory) LookupKeyID(keyID []byte) (*Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id, ok := d.byKey[mapKey(keyID)]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("%w: 0x%s", ErrNotFound, mapKey(keyID))
}

// Rename changes the display name of a registered identity.
func (d *Directory) Rename(id *Identity, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	registered, ok := d.byKey[mapKey(id.keyID)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	registered.Name = name
	return nil
}

// All returns the registered identities in registration order.
func (d *Directory) All() []*Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Identity(nil), d.order...)
}

// Len returns the number of registered identities.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}
