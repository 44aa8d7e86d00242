package match

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/index"
	"github.com/agoradata/agora/storage"
)

// Filters narrows matcher results by catalog metadata.
// Zero-valued fields are ignored.
type Filters struct {
	// Visibility restricts results to datasets with this visibility.
	Visibility core.Visibility

	// Domain restricts results to an exact domain match.
	Domain string

	// PricingModel restricts results to an exact pricing model match.
	PricingModel string

	// MaxPrice excludes datasets priced above this value.
	MaxPrice float64

	// VendorId restricts results to a single vendor.
	VendorId core.ID

	// Requester identifies the searching user. Datasets owned by the
	// requester pass the Visibility filter regardless of their own
	// visibility.
	Requester core.ID
}

// matches reports whether a dataset passes every set filter field.
func (f Filters) matches(d *core.Dataset) bool {
	if f.Visibility != 0 && d.Visibility != f.Visibility {
		if f.Requester == 0 || d.VendorId != f.Requester {
			return false
		}
	}
	if f.Domain != "" && d.Domain != f.Domain {
		return false
	}
	if f.PricingModel != "" && d.PricingModel != f.PricingModel {
		return false
	}
	if f.MaxPrice != 0 && d.Price > f.MaxPrice {
		return false
	}
	if f.VendorId != 0 && d.VendorId != f.VendorId {
		return false
	}
	return true
}

// Matcher provides semantic dataset search over the vector index.
// Query text is embedded with the same embedder that produced the
// dataset vectors, so scores are comparable.
type Matcher struct {
	datasetRepository storage.DatasetRepository
	idx               *index.Index
	embedder          ai.Embedder
	minScore          float32
	hasMinScore       bool
	logger            *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithMinScore sets a minimum similarity score; results below it are
// dropped. No threshold applies by default, so scores anywhere in
// [-1, 1] are returned.
func WithMinScore(minScore float32) Option {
	return func(m *Matcher) error {
		m.minScore = minScore
		m.hasMinScore = true
		return nil
	}
}

// NewMatcher creates a new matcher.
func NewMatcher(
	datasetRepository storage.DatasetRepository,
	idx *index.Index,
	provider ai.Provider,
	opts ...Option,
) (*Matcher, error) {
	if datasetRepository == nil {
		return nil, ErrDatasetRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	m := &Matcher{
		datasetRepository: datasetRepository,
		idx:               idx,
		embedder:          provider.Embedder(),
		logger:            slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Search returns up to topK datasets semantically similar to the query,
// ordered by score descending. Ties are broken by UpdatedAt descending,
// then by ascending ID. An empty result is not an error.
func (m *Matcher) Search(ctx context.Context, query string, topK int, filters Filters) ([]core.DatasetMatch, error) {
	if topK <= 0 {
		return []core.DatasetMatch{}, nil
	}

	embedding, err := m.embedder.EmbedText(ctx, query)
	if err != nil {
		m.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbeddingFailed, err)
	}

	// The full index is scanned so that filters and the recency
	// tie-break apply before truncation, not after the index has
	// already cut tied candidates on ID order.
	vectorMatches, err := m.idx.Query(embedding, m.idx.Len())
	if err != nil {
		m.logger.Error("error querying vector index", "err", err)
		return nil, err
	}
	if len(vectorMatches) == 0 {
		return []core.DatasetMatch{}, nil
	}

	ids := make([]core.ID, 0, len(vectorMatches))
	scores := make(map[core.ID]float32, len(vectorMatches))
	for _, vm := range vectorMatches {
		ids = append(ids, vm.DatasetId)
		scores[vm.DatasetId] = vm.Score
	}

	datasets, err := m.datasetRepository.GetDatasets(ctx, ids...)
	if err != nil {
		m.logger.Error("error retrieving datasets", "count", len(ids), "err", err)
		return nil, err
	}

	results := make([]core.DatasetMatch, 0, len(datasets))
	for _, dataset := range datasets {
		if dataset == nil {
			continue
		}
		score := scores[dataset.Id]
		if m.hasMinScore && score < m.minScore {
			continue
		}
		if !filters.matches(dataset) {
			continue
		}
		results = append(results, core.DatasetMatch{
			Dataset: dataset,
			Score:   score,
		})
	}

	slices.SortFunc(results, func(a, b core.DatasetMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Dataset.UpdatedAt.After(b.Dataset.UpdatedAt) {
			return -1
		}
		if a.Dataset.UpdatedAt.Before(b.Dataset.UpdatedAt) {
			return 1
		}
		if a.Dataset.Id < b.Dataset.Id {
			return -1
		}
		if a.Dataset.Id > b.Dataset.Id {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}

	m.logger.Debug("search complete", "query", query, "hits", len(results))
	return results, nil
}
