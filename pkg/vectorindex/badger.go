package vectorindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
)

var vectorPrefix = []byte("vec:")

// BadgerIndex is a durable brute-force cosine index on Badger. Vectors are
// stored as little-endian float32 sequences; queries scan the keyspace.
// Durability across restarts comes from Badger, not from this type.
type BadgerIndex struct {
	db *badger.DB
}

// OpenBadgerIndex opens (or creates) an index at the given path.
func OpenBadgerIndex(path string) (*BadgerIndex, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index at %s: %w", path, err)
	}
	return &BadgerIndex{db: db}, nil
}

// Insert stores or replaces the vector for an ID.
func (b *BadgerIndex) Insert(ctx context.Context, id string, vector []float32) error {
	if id == "" {
		return fmt.Errorf("vector id must not be empty")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector must not be empty")
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vectorKey(id), encodeVector(vector))
	})
}

// Search returns the k nearest vectors by cosine similarity.
func (b *BadgerIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := validateQuery(vector, k); err != nil {
		return nil, err
	}

	var hits []Hit
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = vectorPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(vectorPrefix); it.ValidForPrefix(vectorPrefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(vectorPrefix):])
			err := item.Value(func(val []byte) error {
				hits = append(hits, Hit{ID: id, Score: Cosine(vector, decodeVector(val))})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vector index scan failed: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes an ID from the index.
func (b *BadgerIndex) Delete(ctx context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(vectorKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Count returns the number of stored vectors.
func (b *BadgerIndex) Count(ctx context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = vectorPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(vectorPrefix); it.ValidForPrefix(vectorPrefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close closes the underlying Badger database.
func (b *BadgerIndex) Close() error {
	return b.db.Close()
}

func vectorKey(id string) []byte {
	return append(append([]byte{}, vectorPrefix...), id...)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
