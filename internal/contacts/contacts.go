// Package contacts persists the peers known to the client across sessions.
package contacts

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/1ureka/dioxane/internal/identity"
)

var bucketContacts = []byte("contacts")

// record is the stored form of a contact. Seq keeps insertion order.
type record struct {
	Seq   uint64 `json:"seq"`
	Name  string `json:"name"`
	KeyID string `json:"key_id"` // hex
	Key   string `json:"key,omitempty"`
}

// Store is a contact book backed by bbolt, keyed by key id.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the contact book at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open contacts %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketContacts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or updates a contact. An existing contact keeps its position.
func (s *Store) Save(id *identity.Identity) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketContacts)
		key := []byte(hex.EncodeToString(id.KeyID()))

		rec := record{
			Name:  id.Name,
			KeyID: string(key),
			Key:   hex.EncodeToString(id.Key),
		}
		if existing := bkt.Get(key); existing != nil {
			var old record
			if err := json.Unmarshal(existing, &old); err != nil {
				return fmt.Errorf("contact %s: %w", id.Hex(), err)
			}
			rec.Seq = old.Seq
		} else {
			seq, err := bkt.NextSequence()
			if err != nil {
				return err
			}
			rec.Seq = seq
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bkt.Put(key, data)
	})
}

// All returns every contact in the order it was first saved.
func (s *Store) All() ([]*identity.Identity, error) {
	var recs []record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContacts).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("contact %s: %w", k, err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	out := make([]*identity.Identity, 0, len(recs))
	for _, rec := range recs {
		keyID, err := hex.DecodeString(rec.KeyID)
		if err != nil {
			return nil, fmt.Errorf("contact %q: %w", rec.Name, err)
		}
		var key []byte
		if rec.Key != "" {
			if key, err = hex.DecodeString(rec.Key); err != nil {
				return nil, fmt.Errorf("contact %q: %w", rec.Name, err)
			}
		}
		out = append(out, identity.New(rec.Name, keyID, key))
	}
	return out, nil
}

// LoadInto registers every stored contact in dir and returns how many were
// loaded.
func (s *Store) LoadInto(dir *identity.Directory) (int, error) {
	all, err := s.All()
	if err != nil {
		return 0, err
	}
	for _, id := range all {
		dir.Register(id)
	}
	return len(all), nil
}
