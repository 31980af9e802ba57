package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) *PassageRepository {
	return &PassageRepository{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (r *PassageRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *PassageRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, space string) ([]*core.VectorMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit, space)
}

// AddPassages adds or replaces passages in storage.
func (r *PassageRepository) AddPassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if len(record.Vector) == 0 {
				return storage.ErrMissingVector
			}
			if record.Key == "" {
				record.Key = record.Payload.PageID
			}
			if record.Id == 0 {
				record.Id = core.IDFromContent(record.Key)
			}
			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}

			key := makePassageKey(record.Key)
			value := storage.MarshalPassageRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetPassage retrieves a single passage by key.
func (r *PassageRepository) GetPassage(ctx context.Context, key string) (*core.PassageRecord, error) {
	var record *core.PassageRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePassageKey(key))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalPassageRecord(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// CountPassages returns the number of stored passages.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(passagePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
