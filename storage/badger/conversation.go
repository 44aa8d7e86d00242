package badger

import (
	"context"
	"time"

	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
	"github.com/dgraph-io/badger/v4"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ConversationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddConversation adds a conversation to storage.
func (r *ConversationRepository) AddConversation(ctx context.Context, conversation *core.Conversation) (*core.Conversation, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if conversation.Id == 0 {
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
			conversation.Id = core.ID(nextID)
		}

		conversation.InsertedAt = time.Now().UTC()
		conversation.UpdatedAt = conversation.InsertedAt

		key := makeConversationKey(conversation.Id)
		value := storage.MarshalConversation(conversation)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return conversation, err
}

// GetConversation retrieves a conversation by ID, including soft-deleted ones.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var result *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readConversation(tx, makeConversationKey(id))
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

// AppendMessages appends messages to a conversation.
// Existing messages stay untouched, appends only.
func (r *ConversationRepository) AppendMessages(ctx context.Context, id core.ID, messages ...core.Message) (*core.Conversation, error) {
	var result *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(id)
		conversation, err := r.readConversation(tx, key)
		if err != nil {
			return err
		}
		if conversation == nil {
			return storage.ErrNotFound
		}

		conversation.Messages = append(conversation.Messages, messages...)
		conversation.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		result = conversation
		return tx.Commit()
	}, true)
	return result, err
}

// SetEntityRefs replaces the entity references carried by the conversation.
func (r *ConversationRepository) SetEntityRefs(ctx context.Context, id core.ID, refs []core.EntityRef) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(id)
		conversation, err := r.readConversation(tx, key)
		if err != nil {
			return err
		}
		if conversation == nil {
			return storage.ErrNotFound
		}

		conversation.EntityRefs = refs
		conversation.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SoftDeleteConversation marks a conversation as deleted without removing it.
func (r *ConversationRepository) SoftDeleteConversation(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(id)
		conversation, err := r.readConversation(tx, key)
		if err != nil {
			return err
		}
		if conversation == nil {
			return storage.ErrNotFound
		}

		conversation.Deleted = true
		conversation.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalConversation(conversation)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readConversation reads a conversation from the transaction.
func (r *ConversationRepository) readConversation(tx *badger.Txn, key []byte) (*core.Conversation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var conversation *core.Conversation
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		conversation, unmarshalErr = storage.UnmarshalConversation(val)
		return unmarshalErr
	})
	return conversation, err
}
