// Copyright 2025 Agora Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package index provides an in-memory vector index over catalog datasets.
// Vectors are L2-normalized on insert so cosine similarity reduces to a
// dot product at query time. The index is rebuilt from storage at startup
// and kept current by the catalog pipeline.
package index

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/agoradata/agora/core"
)

var (
	// ErrDimensionMismatch indicates a vector whose length does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyVector indicates a zero-length or zero-magnitude vector.
	ErrEmptyVector = errors.New("empty vector")
)

// entry is a single indexed dataset. A nil vector marks a dataset whose
// embedding is unavailable; it occupies its slot but never matches.
type entry struct {
	id     core.ID
	vector []float32
}

// Index is a flat in-memory vector index keyed by dataset ID.
// All methods are safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   map[core.ID]*entry
}

// New creates an index for vectors of the given dimension.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		entries:   make(map[core.ID]*entry),
	}
}

// Dimension returns the fixed vector dimension of the index.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Upsert inserts or replaces the vector for a dataset. The vector is
// L2-normalized before storage. Concurrent upserts for the same ID are
// last-write-wins.
func (ix *Index) Upsert(id core.ID, vector []float32) error {
	if len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}

	normalized, err := normalize(vector)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[id] = &entry{id: id, vector: normalized}
	return nil
}

// MarkUnavailable records a dataset whose embedding could not be
// produced. The dataset is excluded from query results until a later
// Upsert supplies a vector.
func (ix *Index) MarkUnavailable(id core.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[id] = &entry{id: id}
}

// Remove drops a dataset from the index. Removing an absent ID is a no-op.
func (ix *Index) Remove(id core.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, id)
}

// Len returns the number of indexed datasets, including unavailable ones.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Query returns up to k datasets most similar to the query vector,
// ordered by score descending with ties broken by ascending ID.
// Datasets with unavailable embeddings are never returned.
func (ix *Index) Query(vector []float32, k int) ([]core.VectorMatch, error) {
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	query, err := normalize(vector)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	matches := make([]core.VectorMatch, 0, len(ix.entries))
	for _, e := range ix.entries {
		if e.vector == nil {
			continue
		}
		matches = append(matches, core.VectorMatch{
			DatasetId: e.id,
			Score:     dotProduct(query, e.vector),
		})
	}
	ix.mu.RUnlock()

	slices.SortFunc(matches, func(a, b core.VectorMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.DatasetId < b.DatasetId {
			return -1
		}
		if a.DatasetId > b.DatasetId {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// normalize returns an L2-normalized copy of the vector.
func normalize(vector []float32) ([]float32, error) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, ErrEmptyVector
	}
	magnitude := float32(math.Sqrt(sum))

	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = v / magnitude
	}
	return normalized, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
