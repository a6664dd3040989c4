// Package store is the key-value adapter: a thin façade over an embedded
// byte-addressable store, keyed by 16-byte identifiers. It is the only
// package that imports go.etcd.io/bbolt; every other package talks to a
// Store interface so the addressing, cache and namespace layers never see
// the backing engine directly.
package store

import (
	"go.etcd.io/bbolt"

	"github.com/StackCanary/os-filesystem/internal/fserr"
)

// Key is the 16-byte opaque identifier used for every value in the store.
// The all-zero Key names the root inode.
type Key [16]byte

// ZeroKey is the distinguished identifier reserved for the root FCB.
var ZeroKey = Key{}

// IsZero reports whether k is the reserved root key.
func (k Key) IsZero() bool {
	return k == ZeroKey
}

// Store exposes the four operations the core builds everything on top of:
// put, fetch, append and delete, each keyed by a 16-byte identifier.
type Store interface {
	// Put stores value under key, replacing any existing value.
	Put(key Key, value []byte) error
	// Get fetches the value stored under key. ok is false if no value
	// is stored there (this is not an error).
	Get(key Key) (value []byte, ok bool, err error)
	// Append concatenates value onto whatever is already stored under
	// key (treating an absent key as an empty value).
	Append(key Key, value []byte) error
	// Delete removes any value stored under key. Deleting an absent
	// key is not an error.
	Delete(key Key) error
	// Close releases the underlying engine.
	Close() error
}

var bucketName = []byte("blobs")

type boltStore struct {
	db *bbolt.DB
}

// Open opens (creating if absent) a bbolt-backed store at path.
func Open(path string) (Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fserr.Storage(err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fserr.Storage(err)
	}

	return &boltStore{db: db}, nil
}

func (s *boltStore) Put(key Key, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key[:], value)
	})
	return fserr.Storage(err)
}

func (s *boltStore) Get(key Key) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key[:])
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fserr.Storage(err)
	}
	return out, out != nil, nil
}

// Append is the one place this adapter does more than pass through:
// bbolt has no native append primitive, so it is implemented as a
// read-modify-write inside a single transaction.
func (s *boltStore) Append(key Key, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		existing := b.Get(key[:])
		combined := make([]byte, 0, len(existing)+len(value))
		combined = append(combined, existing...)
		combined = append(combined, value...)
		return b.Put(key[:], combined)
	})
	return fserr.Storage(err)
}

func (s *boltStore) Delete(key Key) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key[:])
	})
	return fserr.Storage(err)
}

func (s *boltStore) Close() error {
	return fserr.Storage(s.db.Close())
}
