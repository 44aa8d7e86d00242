package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/index"
	"github.com/agoradata/agora/storage"
	"github.com/panjf2000/ants/v2"
)

// Catalog manages dataset registration and keeps the vector index in
// step with storage. Embeddings are generated asynchronously on a
// worker pool; a dataset whose embedding fails stays registered but is
// marked unavailable in the index until a later attempt succeeds.
type Catalog struct {
	datasetRepository storage.DatasetRepository
	idx               *index.Index
	embedder          ai.Embedder
	embeddingPool     *ants.Pool
	pending           sync.WaitGroup
	logger            *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog) error

// WithPoolSize sets the worker pool size for embedding jobs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Catalog) error {
		if size < 1 {
			size = 1
		}

		if c.embeddingPool != nil {
			c.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCatalog creates a new catalog.
func NewCatalog(
	datasetRepository storage.DatasetRepository,
	idx *index.Index,
	provider ai.Provider,
	opts ...Option,
) (*Catalog, error) {
	if datasetRepository == nil {
		return nil, ErrDatasetRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		datasetRepository: datasetRepository,
		idx:               idx,
		embedder:          provider.Embedder(),
		embeddingPool:     pool,
		logger:            slog.Default().With("component", "catalog"),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Register validates and persists new datasets, then embeds their
// canonical text asynchronously. Embedding failures are logged and
// leave the dataset registered but unretrievable by search.
func (c *Catalog) Register(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error) {
	for _, dataset := range datasets {
		if err := core.ValidateDataset(dataset); err != nil {
			return nil, err
		}
	}

	added, err := c.datasetRepository.AddDatasets(ctx, datasets...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, dataset := range added {
		ids[i] = dataset.Id
	}
	c.submitEmbedding(ids)

	return added, nil
}

// Update persists changes to an existing dataset. The dataset is
// re-embedded only when its canonical text changed; pricing-only edits
// keep the existing vector.
func (c *Catalog) Update(ctx context.Context, dataset *core.Dataset) (*core.Dataset, error) {
	if err := core.ValidateDataset(dataset); err != nil {
		return nil, err
	}

	old, err := c.datasetRepository.GetDataset(ctx, dataset.Id)
	if err != nil {
		return nil, err
	}

	canonicalChanged := old.CanonicalText() != dataset.CanonicalText()
	if !canonicalChanged {
		dataset.Vector = old.Vector
	}

	updated, err := c.datasetRepository.UpdateDatasets(ctx, dataset)
	if err != nil {
		return nil, err
	}

	if canonicalChanged {
		c.submitEmbedding([]core.ID{dataset.Id})
	}

	return updated[0], nil
}

// Reindex rebuilds the vector index from storage. Datasets with a
// persisted vector are loaded directly; the rest are submitted for
// embedding. Called at startup before the index serves queries.
func (c *Catalog) Reindex(ctx context.Context) error {
	datasets, err := c.datasetRepository.ListDatasets(ctx)
	if err != nil {
		return err
	}

	var missing []core.ID
	for _, dataset := range datasets {
		if len(dataset.Vector) == c.idx.Dimension() {
			if err := c.idx.Upsert(dataset.Id, dataset.Vector); err != nil {
				c.logger.Warn("failed to index stored vector", "dataset", dataset.Id, "err", err)
				c.idx.MarkUnavailable(dataset.Id)
			}
			continue
		}
		c.idx.MarkUnavailable(dataset.Id)
		missing = append(missing, dataset.Id)
	}

	c.logger.Info("reindex complete",
		"datasets", len(datasets), "pending_embeddings", len(missing))

	if len(missing) > 0 {
		c.submitEmbedding(missing)
	}
	return nil
}

// Wait blocks until all submitted embedding jobs have finished.
func (c *Catalog) Wait() {
	c.pending.Wait()
}

// Release releases the worker pool.
// The catalog should not be used after calling Release.
func (c *Catalog) Release() {
	if c.embeddingPool != nil {
		c.embeddingPool.Release()
	}
}

// submitEmbedding queues an embedding job for the given dataset IDs.
func (c *Catalog) submitEmbedding(ids []core.ID) {
	c.pending.Add(1)
	err := c.embeddingPool.Submit(func() {
		defer c.pending.Done()
		if err := c.embed(context.Background(), ids); err != nil {
			c.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		c.pending.Done()
		c.logger.Error("failed to submit embedding job", "err", err)
		for _, id := range ids {
			c.idx.MarkUnavailable(id)
		}
	}
}

// embed generates and stores embeddings for the given datasets, then
// upserts them into the index. Failed datasets are marked unavailable.
func (c *Catalog) embed(ctx context.Context, ids []core.ID) error {
	datasets, err := c.datasetRepository.GetDatasets(ctx, ids...)
	if err != nil {
		return err
	}

	texts := make([]string, len(datasets))
	for i, dataset := range datasets {
		texts[i] = dataset.CanonicalText()
	}

	embeddings, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		for _, dataset := range datasets {
			c.idx.MarkUnavailable(dataset.Id)
		}
		return err
	}
	if len(embeddings) != len(datasets) {
		for _, dataset := range datasets {
			c.idx.MarkUnavailable(dataset.Id)
		}
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(datasets), len(embeddings))
	}

	for i, dataset := range datasets {
		if len(embeddings[i]) != c.idx.Dimension() {
			c.logger.Error("embedding has wrong dimension",
				"dataset", dataset.Id, "got", len(embeddings[i]), "want", c.idx.Dimension())
			c.idx.MarkUnavailable(dataset.Id)
			continue
		}
		dataset.Vector = embeddings[i]
	}

	if _, err := c.datasetRepository.UpdateDatasets(ctx, datasets...); err != nil {
		return err
	}

	for _, dataset := range datasets {
		if len(dataset.Vector) != c.idx.Dimension() {
			continue
		}
		if err := c.idx.Upsert(dataset.Id, dataset.Vector); err != nil {
			c.logger.Warn("failed to index embedding", "dataset", dataset.Id, "err", err)
			c.idx.MarkUnavailable(dataset.Id)
		}
	}

	c.logger.Debug("embeddings processed", "datasets", len(datasets))
	return nil
}
