package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBatcher satisfies embeddings.Embedder with canned responses.
type scriptedBatcher struct {
	vectors [][]float32
	err     error
}

func (s *scriptedBatcher) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *scriptedBatcher) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if len(s.vectors) == 0 {
		return nil, s.err
	}
	return s.vectors[0], s.err
}

func newTestEmbedder(batcher *scriptedBatcher, dimension int) *Embedder {
	return &Embedder{
		batcher:   batcher,
		dimension: dimension,
		logger:    slog.Default(),
	}
}

func TestEmbedder_BatchValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("well formed batch passes through", func(t *testing.T) {
		e := newTestEmbedder(&scriptedBatcher{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}}}, 3)

		vectors, err := e.EmbedTexts(ctx, []string{"a", "b"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0, 1, 0}, vectors[1])
	})

	t.Run("wrong dimension rejected", func(t *testing.T) {
		e := newTestEmbedder(&scriptedBatcher{vectors: [][]float32{{1, 0}}}, 3)

		_, err := e.EmbedTexts(ctx, []string{"a"})
		assert.ErrorIs(t, err, ErrMalformedEmbedding)
	})

	t.Run("short batch rejected", func(t *testing.T) {
		e := newTestEmbedder(&scriptedBatcher{vectors: [][]float32{{1, 0, 0}}}, 3)

		_, err := e.EmbedTexts(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, ErrMalformedEmbedding)
	})

	t.Run("empty input short circuits", func(t *testing.T) {
		e := newTestEmbedder(&scriptedBatcher{}, 3)

		vectors, err := e.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})

	t.Run("single text uses the batch path", func(t *testing.T) {
		e := newTestEmbedder(&scriptedBatcher{vectors: [][]float32{{0.5, 0.5, 0}}}, 3)

		vector, err := e.EmbedText(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.5, 0}, vector)
	})
}
