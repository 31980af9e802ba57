package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// QueryLogRepository implements storage.QueryLogRepository for BadgerDB.
type QueryLogRepository struct {
	backend *Backend
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) *QueryLogRepository {
	return &QueryLogRepository{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (r *QueryLogRepository) Close() error {
	return nil
}

// SaveEntries atomically replaces the persisted log with the given entries.
// Stale keys from earlier saves are removed so the persisted log mirrors the
// in-memory state exactly.
func (r *QueryLogRepository) SaveEntries(ctx context.Context, entries map[string]*core.QueryLogEntry) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryLogPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		prefixLen := len(queryLogPrefix) + 1
		var stale [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if len(key) < prefixLen {
				continue
			}
			if _, ok := entries[string(key[prefixLen:])]; !ok {
				stale = append(stale, key)
			}
		}
		iter.Close()

		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		for normalized, entry := range entries {
			key := makeQueryLogKey(normalized)
			if err := tx.Set(key, storage.MarshalQueryLogEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// LoadEntries loads all persisted log entries.
func (r *QueryLogRepository) LoadEntries(ctx context.Context) (map[string]*core.QueryLogEntry, error) {
	entries := make(map[string]*core.QueryLogEntry)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryLogPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(queryLogPrefix + ":")
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := item.Key()
			if !bytes.HasPrefix(key, prefix) {
				continue
			}
			normalized := string(key[len(prefix):])

			err := item.Value(func(val []byte) error {
				entry, err := storage.UnmarshalQueryLogEntry(val)
				if err != nil {
					return err
				}
				entries[normalized] = entry
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return entries, nil
}
