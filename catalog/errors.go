package catalog

import "errors"

var (
	// ErrDatasetRepositoryRequired is returned when a dataset repository is not provided.
	ErrDatasetRepositoryRequired = errors.New("dataset repository required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
