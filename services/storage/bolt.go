package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/km-arc/iothub-manager/services/runtime"
)

const (
	DevicesBucket = "devices"
	TwinsBucket   = "twins"
)

var ErrNotFound = errors.New("storage: key not found")

// KV is one stored entry.
type KV struct {
	Key   string
	Value []byte
}

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store. Returning an error aborts the update.
type UpdateFunc func(current []byte) ([]byte, error)

// Tx reads and writes several buckets inside one Atomic call.
type Tx interface {
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket string, keys ...string) error
}

// Store is a bucketed key/value store.
type Store interface {
	Get(bucket, key string) ([]byte, error)
	Update(bucket, key string, fn UpdateFunc) error
	Delete(bucket string, keys ...string) error
	// Atomic runs fn in a single read-write transaction. Nothing fn wrote is
	// kept when it returns an error.
	Atomic(fn func(Tx) error) error
	List(bucket, after string, limit int) ([]KV, error)
	Ping(ctx context.Context) error
	Close() error
}

// BoltStore is a Store on a single bbolt file. bbolt holds an exclusive file
// lock, so one process opens it once.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database at cfg.StorePath().
func NewBoltStore(cfg runtime.ServicesConfig) (*BoltStore, error) {
	db, err := bbolt.Open(cfg.StorePath(), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.StorePath(), err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{DevicesBucket, TwinsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(bucket, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		out, err = boltTx{tx: tx}.Get(bucket, key)
		return err
	})
	return out, err
}

func (s *BoltStore) Update(bucket, key string, fn UpdateFunc) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		next, err := fn(bytes.Clone(b.Get([]byte(key))))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), next)
	})
}

// Delete removes keys from bucket. Deleting a missing key is not an error.
func (s *BoltStore) Delete(bucket string, keys ...string) error {
	return s.Atomic(func(tx Tx) error {
		return tx.Delete(bucket, keys...)
	})
}

func (s *BoltStore) Atomic(fn func(Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(boltTx{tx: tx})
	})
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t boltTx) Get(bucket, key string) ([]byte, error) {
	b, err := bucketOf(t.tx, bucket)
	if err != nil {
		return nil, err
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (t boltTx) Put(bucket, key string, value []byte) error {
	b, err := bucketOf(t.tx, bucket)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), value)
}

func (t boltTx) Delete(bucket string, keys ...string) error {
	b, err := bucketOf(t.tx, bucket)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

// List returns up to limit entries with keys strictly greater than after,
// in key order. A limit <= 0 returns everything.
func (s *BoltStore) List(bucket, after string, limit int) ([]KV, error) {
	var out []KV
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		c := b.Cursor()
		k, v := c.First()
		if after != "" {
			k, v = c.Seek([]byte(after))
			if k != nil && string(k) == after {
				k, v = c.Next()
			}
		}
		for ; k != nil; k, v = c.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			out = append(out, KV{Key: string(k), Value: bytes.Clone(v)})
		}
		return nil
	})
	return out, err
}

// Ping checks the database is open and readable.
func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		_, err := bucketOf(tx, DevicesBucket)
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func bucketOf(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("storage: unknown bucket %q", name)
	}
	return b, nil
}
