package casewatch

import (
	"context"
	"fmt"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/kv"
)

// SnapshotStore keeps the latest snapshot of every document so that a stream of plain document writes can be
// turned into before/after pairs. It emulates the write trigger locally.
type SnapshotStore struct {
	db kv.DB
}

// NewSnapshotStore creates a snapshot store on top of the key value database
func NewSnapshotStore(db kv.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func snapshotKey(collection, documentID string) []byte {
	return []byte(fmt.Sprintf("snapshot.%s.%s", collection, documentID))
}

func snapshotPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("snapshot.%s.", collection))
}

// Get returns the latest snapshot of the document, or nil if it doesn't exist
func (s *SnapshotStore) Get(ctx context.Context, collection, documentID string) (*Document, error) {
	var doc *Document
	err := s.db.Tx(ctx, false, func(tx kv.Tx) error {
		var err error
		doc, err = getSnapshot(ctx, tx, collection, documentID)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to get snapshot %s/%s", collection, documentID)
	}
	return doc, nil
}

// Swap stores after as the latest snapshot of the document and returns the previous one (nil if none).
// A nil after deletes the snapshot.
func (s *SnapshotStore) Swap(ctx context.Context, collection, documentID string, after *Document) (*Document, error) {
	var before *Document
	err := s.db.Tx(ctx, true, func(tx kv.Tx) error {
		var err error
		before, err = getSnapshot(ctx, tx, collection, documentID)
		if err != nil {
			return err
		}
		if after == nil {
			return tx.Delete(ctx, snapshotKey(collection, documentID))
		}
		return tx.Set(ctx, snapshotKey(collection, documentID), after.Bytes())
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to swap snapshot %s/%s", collection, documentID)
	}
	return before, nil
}

// Range iterates over the latest snapshot of every document in the collection until fn returns false
func (s *SnapshotStore) Range(ctx context.Context, collection string, fn func(documentID string, doc *Document) bool) error {
	prefix := snapshotPrefix(collection)
	err := s.db.Tx(ctx, false, func(tx kv.Tx) error {
		iter := tx.NewIterator(kv.IterOpts{Prefix: prefix})
		defer iter.Close()
		for ; iter.Valid(); iter.Next() {
			item := iter.Item()
			bits, err := item.Value()
			if err != nil {
				return err
			}
			doc, err := NewDocumentFromBytes(bits)
			if err != nil {
				return err
			}
			if !fn(string(item.Key()[len(prefix):]), doc) {
				return nil
			}
		}
		return nil
	})
	return errors.Wrap(err, errors.Internal, "failed to range snapshots of %s", collection)
}

func getSnapshot(ctx context.Context, tx kv.Tx, collection, documentID string) (*Document, error) {
	bits, err := tx.Get(ctx, snapshotKey(collection, documentID))
	if err != nil {
		return nil, err
	}
	if bits == nil {
		return nil, nil
	}
	return NewDocumentFromBytes(bits)
}
