package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/agoradata/agora/ai/mock"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/index"
	"github.com/agoradata/agora/storage"
	"github.com/agoradata/agora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, storage.DatasetRepository, *index.Index, *mock.MockEmbedder) {
	t.Helper()

	datasetRepo, conversationRepo, inquiryRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel())
	idx := index.New(384)

	c, err := NewCatalog(datasetRepo, idx, provider, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(c.Release)

	return c, datasetRepo, idx, embedder
}

func publicDataset(title string) *core.Dataset {
	return &core.Dataset{
		Title:       title,
		Description: "description for " + title,
		Domain:      "Finance",
		Visibility:  core.VisibilityPublic,
		VendorId:    core.ID(1),
	}
}

func TestNewCatalog(t *testing.T) {
	datasetRepo, conversationRepo, inquiryRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { inquiryRepo.Close(); conversationRepo.Close(); datasetRepo.Close(); backend.Close() }()

	provider := mock.NewMockProvider()
	idx := index.New(384)

	t.Run("valid configuration", func(t *testing.T) {
		c, err := NewCatalog(datasetRepo, idx, provider)
		require.NoError(t, err)
		defer c.Release()
		assert.NotNil(t, c)
	})

	t.Run("nil dataset repository", func(t *testing.T) {
		_, err := NewCatalog(nil, idx, provider)
		assert.Equal(t, ErrDatasetRepositoryRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewCatalog(datasetRepo, nil, provider)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewCatalog(datasetRepo, idx, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestRegisterEmbedsAndIndexes(t *testing.T) {
	c, datasetRepo, idx, _ := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.Register(ctx, publicDataset("Card Transactions"), publicDataset("Grid Load"))
	require.NoError(t, err)
	require.Len(t, added, 2)
	c.Wait()

	assert.Equal(t, 2, idx.Len())

	// Vectors are persisted so a restart can rebuild without re-embedding
	stored, err := datasetRepo.GetDataset(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Len(t, stored.Vector, 384)

	matches, err := idx.Query(stored.Vector, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, added[0].Id, matches[0].DatasetId)
}

func TestRegisterRejectsInvalidDataset(t *testing.T) {
	c, _, idx, _ := newTestCatalog(t)

	_, err := c.Register(context.Background(), &core.Dataset{Visibility: core.VisibilityPublic, VendorId: 1})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.Equal(t, 0, idx.Len())
}

func TestEmbeddingFailureMarksUnavailable(t *testing.T) {
	c, _, idx, embedder := newTestCatalog(t)
	ctx := context.Background()

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model offline")
	}

	added, err := c.Register(ctx, publicDataset("Unlucky"))
	require.NoError(t, err)
	c.Wait()

	// Registered but excluded from search
	assert.Equal(t, 1, idx.Len())
	probe, probeErr := embedder.EmbedText(ctx, "probe")
	embedder.EmbedTextsFunc = nil
	require.NoError(t, probeErr)
	matches, err := idx.Query(probe, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// A later reindex retries the embedding
	require.NoError(t, c.Reindex(ctx))
	c.Wait()

	matches, err = idx.Query(probe, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, added[0].Id, matches[0].DatasetId)
}

func TestUpdateReembedsOnlyOnCanonicalChange(t *testing.T) {
	c, datasetRepo, _, embedder := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.Register(ctx, publicDataset("Ship Movements"))
	require.NoError(t, err)
	c.Wait()

	baseline := embedder.CallCount()

	// Pricing-only edit keeps the existing vector
	priced := added[0].Clone()
	priced.Price = 900
	priced.PricingModel = "subscription"
	updated, err := c.Update(ctx, priced)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, baseline, embedder.CallCount())
	assert.Len(t, updated.Vector, 384)

	// Description edit changes the canonical text and re-embeds
	reworded := updated.Clone()
	reworded.Description = "AIS vessel positions at 5 minute resolution"
	_, err = c.Update(ctx, reworded)
	require.NoError(t, err)
	c.Wait()

	assert.Greater(t, embedder.CallCount(), baseline)

	stored, err := datasetRepo.GetDataset(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Len(t, stored.Vector, 384)
}

func TestReindexUsesStoredVectors(t *testing.T) {
	c, datasetRepo, _, embedder := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.Register(ctx, publicDataset("Solar Output"), publicDataset("Wind Output"))
	require.NoError(t, err)
	c.Wait()

	// Fresh index simulating a restart
	freshIdx := index.New(384)
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel())
	restarted, err := NewCatalog(datasetRepo, freshIdx, provider, WithPoolSize(1))
	require.NoError(t, err)
	defer restarted.Release()

	baseline := embedder.CallCount()
	require.NoError(t, restarted.Reindex(ctx))
	restarted.Wait()

	// Stored vectors were reused, not regenerated
	assert.Equal(t, baseline, embedder.CallCount())
	assert.Equal(t, 2, freshIdx.Len())

	stored, err := datasetRepo.GetDataset(ctx, added[0].Id)
	require.NoError(t, err)
	matches, err := freshIdx.Query(stored.Vector, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, added[0].Id, matches[0].DatasetId)
}
