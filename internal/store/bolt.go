package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltBucket is the bucket holding every item.
const BoltBucket = "annotator.readmill"

// BoltBackend persists items in a local bbolt file.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (or creates) the database at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BoltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BoltBucket)).Get([]byte(key))
		if v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	return value, found, err
}

func (b *BoltBackend) SetItem(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BoltBucket)).Put([]byte(key), []byte(value))
	})
}

func (b *BoltBackend) RemoveItem(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BoltBucket)).Delete([]byte(key))
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
