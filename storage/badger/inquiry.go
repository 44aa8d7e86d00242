package badger

import (
	"context"
	"slices"
	"time"

	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
	"github.com/dgraph-io/badger/v4"
)

// InquiryRepository implements storage.InquiryRepository for BadgerDB.
type InquiryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.InquiryRepository = (*InquiryRepository)(nil)

// NewInquiryRepository creates a new InquiryRepository.
func NewInquiryRepository(backend *Backend) (*InquiryRepository, error) {
	idSeq, err := backend.GetSequence(inquiryIDSeq)
	if err != nil {
		return nil, err
	}

	return &InquiryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *InquiryRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *InquiryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddInquiry adds an inquiry to storage.
func (r *InquiryRepository) AddInquiry(ctx context.Context, inquiry *core.Inquiry) (*core.Inquiry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if inquiry.Id == 0 {
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
			inquiry.Id = core.ID(nextID)
		}

		inquiry.InsertedAt = time.Now().UTC()
		inquiry.UpdatedAt = inquiry.InsertedAt

		key := makeInquiryKey(inquiry.Id)
		if err := tx.Set(key, storage.MarshalInquiry(inquiry)); err != nil {
			return err
		}

		idValue := storage.MarshalID(inquiry.Id)
		vendorKey := makeInquiryVendorKey(inquiry.VendorId, inquiry.Id)
		if err := tx.Set(vendorKey, idValue); err != nil {
			return err
		}
		buyerKey := makeInquiryBuyerKey(inquiry.BuyerId, inquiry.Id)
		if err := tx.Set(buyerKey, idValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return inquiry, err
}

// GetInquiry retrieves an inquiry by ID.
func (r *InquiryRepository) GetInquiry(ctx context.Context, id core.ID) (*core.Inquiry, error) {
	var result *core.Inquiry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readInquiry(tx, makeInquiryKey(id))
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

// UpdateInquiry overwrites an inquiry record.
func (r *InquiryRepository) UpdateInquiry(ctx context.Context, inquiry *core.Inquiry) (*core.Inquiry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeInquiryKey(inquiry.Id)
		old, err := r.readInquiry(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		inquiry.InsertedAt = old.InsertedAt
		inquiry.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalInquiry(inquiry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return inquiry, err
}

// ListInquiriesByVendor retrieves inquiries addressed to a vendor.
func (r *InquiryRepository) ListInquiriesByVendor(ctx context.Context, vendorID core.ID, statuses ...core.InquiryStatus) ([]*core.Inquiry, error) {
	inquiries, err := r.listByIndex(makePartialInquiryVendorKey(vendorID))
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return inquiries, nil
	}

	var filtered []*core.Inquiry
	for _, inquiry := range inquiries {
		if slices.Contains(statuses, inquiry.Status) {
			filtered = append(filtered, inquiry)
		}
	}
	return filtered, nil
}

// ListInquiriesByBuyer retrieves inquiries created by a buyer.
func (r *InquiryRepository) ListInquiriesByBuyer(ctx context.Context, buyerID core.ID) ([]*core.Inquiry, error) {
	return r.listByIndex(makePartialInquiryBuyerKey(buyerID))
}

// SoftDeleteInquiry marks an inquiry as deleted without removing it.
func (r *InquiryRepository) SoftDeleteInquiry(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeInquiryKey(id)
		inquiry, err := r.readInquiry(tx, key)
		if err != nil {
			return err
		}
		if inquiry == nil {
			return storage.ErrNotFound
		}

		inquiry.Deleted = true
		inquiry.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalInquiry(inquiry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// listByIndex scans a composite index and resolves the referenced
// inquiries, skipping soft-deleted records.
func (r *InquiryRepository) listByIndex(startKey []byte) ([]*core.Inquiry, error) {
	var results []*core.Inquiry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
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

			var inquiryID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				inquiryID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			inquiry, err := r.readInquiry(tx, makeInquiryKey(inquiryID))
			if err != nil {
				return err
			}
			if inquiry != nil && !inquiry.Deleted {
				results = append(results, inquiry)
			}
		}
		return nil
	}, false)
	return results, err
}

// readInquiry reads an inquiry from the transaction.
func (r *InquiryRepository) readInquiry(tx *badger.Txn, key []byte) (*core.Inquiry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var inquiry *core.Inquiry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		inquiry, unmarshalErr = storage.UnmarshalInquiry(val)
		return unmarshalErr
	})
	return inquiry, err
}
