package kv

import "context"

// DB is a transactional key value database
type DB interface {
	// Tx runs fn inside a transaction. If isUpdate is false the transaction is read-only.
	// The transaction commits if fn returns nil and is discarded otherwise.
	Tx(ctx context.Context, isUpdate bool, fn func(Tx) error) error
	// Close closes the database
	Close() error
}

// IterOpts configures an iterator
type IterOpts struct {
	Prefix  []byte `json:"prefix"`
	Seek    []byte `json:"seek"`
	Reverse bool   `json:"reverse"`
}

// Tx is a key value transaction
type Tx interface {
	// Get returns the value of the key or nil if it doesn't exist
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	NewIterator(opts IterOpts) Iterator
}

// Iterator iterates over the keys of a transaction
type Iterator interface {
	Seek(key []byte)
	Close()
	Valid() bool
	Item() Item
	Next()
}

// Item is a single key value pair
type Item interface {
	Key() []byte
	Value() ([]byte, error)
}
