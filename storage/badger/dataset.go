package badger

import (
	"context"
	"slices"
	"time"

	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
	"github.com/dgraph-io/badger/v4"
)

// DatasetRepository implements storage.DatasetRepository for BadgerDB.
type DatasetRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(backend *Backend) (*DatasetRepository, error) {
	idSeq, err := backend.GetSequence(datasetIDSeq)
	if err != nil {
		return nil, err
	}

	return &DatasetRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DatasetRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DatasetRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDatasets adds one or more datasets to storage.
func (r *DatasetRepository) AddDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, dataset := range datasets {
			if dataset.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				dataset.Id = core.ID(nextID)
			}

			dataset.InsertedAt = time.Now().UTC()
			dataset.UpdatedAt = dataset.InsertedAt

			key := makeDatasetKey(dataset.Id)
			value := storage.MarshalDataset(dataset)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			vendorKey := makeDatasetVendorKey(dataset.VendorId, dataset.Id)
			if err := tx.Set(vendorKey, storage.MarshalID(dataset.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return datasets, err
}

// UpdateDatasets updates existing datasets.
func (r *DatasetRepository) UpdateDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, dataset := range datasets {
			key := makeDatasetKey(dataset.Id)

			old, err := r.readDataset(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			dataset.InsertedAt = old.InsertedAt
			dataset.UpdatedAt = time.Now().UTC()

			value := storage.MarshalDataset(dataset)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update vendor index if ownership changed
			if old.VendorId != dataset.VendorId {
				oldVendorKey := makeDatasetVendorKey(old.VendorId, old.Id)
				if err := tx.Delete(oldVendorKey); err != nil {
					return err
				}
				newVendorKey := makeDatasetVendorKey(dataset.VendorId, dataset.Id)
				if err := tx.Set(newVendorKey, storage.MarshalID(dataset.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return datasets, err
}

// GetDataset retrieves a single dataset by ID.
func (r *DatasetRepository) GetDataset(ctx context.Context, id core.ID) (*core.Dataset, error) {
	var result *core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDatasetKey(id)
		var err error
		result, err = r.readDataset(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDatasets retrieves multiple datasets by their IDs.
func (r *DatasetRepository) GetDatasets(ctx context.Context, ids ...core.ID) ([]*core.Dataset, error) {
	var result []*core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDatasetKey(id)
			dataset, err := r.readDataset(tx, key)
			if err != nil {
				return err
			}
			if dataset != nil {
				result = append(result, dataset)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDatasets retrieves every stored dataset, ordered by ID.
func (r *DatasetRepository) ListDatasets(ctx context.Context) ([]*core.Dataset, error) {
	var results []*core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(datasetPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var dataset *core.Dataset
			err := iter.Item().Value(func(val []byte) error {
				var err error
				dataset, err = storage.UnmarshalDataset(val)
				return err
			})
			if err != nil {
				return err
			}
			if dataset != nil {
				results = append(results, dataset)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys sort lexicographically, not numerically
	slices.SortFunc(results, func(a, b *core.Dataset) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	return results, nil
}

// ListDatasetsByVendor retrieves all datasets owned by a vendor.
func (r *DatasetRepository) ListDatasetsByVendor(ctx context.Context, vendorID core.ID) ([]*core.Dataset, error) {
	var results []*core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDatasetVendorKey(vendorID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) {
				break
			}
			if slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var datasetID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				datasetID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			dataset, err := r.readDataset(tx, makeDatasetKey(datasetID))
			if err != nil {
				return err
			}
			if dataset != nil {
				results = append(results, dataset)
			}
		}
		return nil
	}, false)
	return results, err
}

// readDataset reads a dataset from the transaction.
func (r *DatasetRepository) readDataset(tx *badger.Txn, key []byte) (*core.Dataset, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var dataset *core.Dataset
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		dataset, unmarshalErr = storage.UnmarshalDataset(val)
		return unmarshalErr
	})
	return dataset, err
}
