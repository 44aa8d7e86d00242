// Package catalog provides dataset registration and index upkeep.
//
// The Catalog type manages the write path for marketplace datasets:
//   - Validating and persisting dataset records
//   - Generating canonical-text embeddings asynchronously
//   - Keeping the in-memory vector index current
//
// Embedding runs on a worker pool so registration is never blocked by
// the model. A dataset whose embedding fails stays registered but is
// marked unavailable in the index, which excludes it from semantic
// search until a later embedding attempt succeeds.
package catalog
