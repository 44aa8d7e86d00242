package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agoradata/agora/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrMalformedEmbedding indicates the embedding service returned a
// batch that does not line up with the request.
var ErrMalformedEmbedding = errors.New("malformed embedding response")

// Embedder produces dataset and query embeddings through an
// OpenAI-compatible endpoint. Every batch is validated against the
// configured vector dimension before it is handed to callers, so a
// misconfigured model can never feed the index mismatched vectors.
type Embedder struct {
	batcher   embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	batcher, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		batcher:   batcher,
		dimension: config.EmbeddingDimensions,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for a batch of texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts))

	vectors, err := e.batcher.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if err := checkEmbeddings(vectors, len(texts), e.dimension); err != nil {
		e.logger.Error("embedding service returned a bad batch", "err", err)
		return nil, err
	}
	return vectors, nil
}

// checkEmbeddings verifies that a returned batch carries one vector per
// requested text and that every vector has the expected dimension.
func checkEmbeddings(vectors [][]float32, count, dimension int) error {
	if len(vectors) != count {
		return fmt.Errorf("%w: got %d vectors, want %d", ErrMalformedEmbedding, len(vectors), count)
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrMalformedEmbedding, i, len(v), dimension)
		}
	}
	return nil
}
