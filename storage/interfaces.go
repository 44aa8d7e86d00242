package storage

import (
	"context"

	"github.com/agoradata/agora/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DatasetRepository provides operations for managing catalog datasets.
type DatasetRepository interface {
	Repository

	// AddDatasets adds one or more datasets to storage.
	// For datasets with ID=0, generates new IDs from sequence.
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the datasets with generated IDs and timestamps populated.
	AddDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error)

	// UpdateDatasets updates existing datasets.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any dataset doesn't exist.
	UpdateDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error)

	// GetDataset retrieves a single dataset by ID.
	// Returns ErrNotFound if the dataset doesn't exist.
	GetDataset(ctx context.Context, id core.ID) (*core.Dataset, error)

	// GetDatasets retrieves multiple datasets by their IDs.
	// Returns only the datasets that exist (no error for missing datasets).
	GetDatasets(ctx context.Context, ids ...core.ID) ([]*core.Dataset, error)

	// ListDatasets retrieves every stored dataset, ordered by ID.
	// Used to rebuild the embedding index at startup.
	ListDatasets(ctx context.Context) ([]*core.Dataset, error)

	// ListDatasetsByVendor retrieves all datasets owned by a vendor.
	ListDatasetsByVendor(ctx context.Context, vendorID core.ID) ([]*core.Dataset, error)
}

// ConversationRepository provides operations for managing conversations.
type ConversationRepository interface {
	Repository

	// AddConversation adds a conversation to storage.
	// For a conversation with ID=0, generates a new ID from sequence.
	// Returns the conversation with ID and timestamps populated.
	AddConversation(ctx context.Context, conversation *core.Conversation) (*core.Conversation, error)

	// GetConversation retrieves a conversation by ID, including soft-deleted ones.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// AppendMessages appends messages to a conversation.
	// Existing messages and their tool-call records are never rewritten.
	AppendMessages(ctx context.Context, id core.ID, messages ...core.Message) (*core.Conversation, error)

	// SetEntityRefs replaces the entity references carried by the conversation.
	SetEntityRefs(ctx context.Context, id core.ID, refs []core.EntityRef) error

	// SoftDeleteConversation marks a conversation as deleted without removing it.
	SoftDeleteConversation(ctx context.Context, id core.ID) error
}

// InquiryRepository provides operations for managing inquiries.
type InquiryRepository interface {
	Repository

	// AddInquiry adds an inquiry to storage.
	// For an inquiry with ID=0, generates a new ID from sequence.
	// Returns the inquiry with ID and timestamps populated.
	AddInquiry(ctx context.Context, inquiry *core.Inquiry) (*core.Inquiry, error)

	// GetInquiry retrieves an inquiry by ID.
	// Returns ErrNotFound if the inquiry doesn't exist.
	GetInquiry(ctx context.Context, id core.ID) (*core.Inquiry, error)

	// UpdateInquiry overwrites an inquiry record.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the inquiry doesn't exist.
	UpdateInquiry(ctx context.Context, inquiry *core.Inquiry) (*core.Inquiry, error)

	// ListInquiriesByVendor retrieves inquiries addressed to a vendor,
	// optionally filtered to the given statuses. Soft-deleted inquiries
	// are excluded.
	ListInquiriesByVendor(ctx context.Context, vendorID core.ID, statuses ...core.InquiryStatus) ([]*core.Inquiry, error)

	// ListInquiriesByBuyer retrieves inquiries created by a buyer.
	// Soft-deleted inquiries are excluded.
	ListInquiriesByBuyer(ctx context.Context, buyerID core.ID) ([]*core.Inquiry, error)

	// SoftDeleteInquiry marks an inquiry as deleted without removing it.
	SoftDeleteInquiry(ctx context.Context, id core.ID) error
}
