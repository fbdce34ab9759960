// Package index provides exact top-K similarity search over precomputed
// candidate vectors. Brute force is adequate at catalog scale (tens of
// thousands of items); an approximate structure can replace it behind the
// same Build/Search contract.
package index

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/attire/internal/domain"
)

// Candidate pairs an item id with its precomputed embedding.
type Candidate struct {
	ID     string
	Vector domain.Vector
}

// BruteForce scores a query against every candidate vector.
// Immutable after Build; catalog changes require a full rebuild.
type BruteForce struct {
	ids  []string
	vecs []domain.Vector
	dim  int
}

// Build creates an index from all catalog candidates. One-time, O(N).
func Build(candidates []Candidate) (*BruteForce, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("build index: %w", domain.ErrEmptyCatalog)
	}

	dim := len(candidates[0].Vector)
	idx := &BruteForce{
		ids:  make([]string, len(candidates)),
		vecs: make([]domain.Vector, len(candidates)),
		dim:  dim,
	}
	for i, c := range candidates {
		if len(c.Vector) != dim {
			return nil, fmt.Errorf("build index: candidate %q has dimension %d, want %d",
				c.ID, len(c.Vector), dim)
		}
		idx.ids[i] = c.ID
		idx.vecs[i] = c.Vector
	}
	return idx, nil
}

// Len returns the number of indexed candidates.
func (b *BruteForce) Len() int { return len(b.ids) }

// Search returns up to k hits ordered by descending dot-product similarity.
// Vectors are unit norm, so the score is cosine similarity. Equal scores tie
// break on insertion order to keep results deterministic.
func (b *BruteForce) Search(query domain.Vector, k int) []domain.Hit {
	if k <= 0 || len(query) != b.dim {
		return nil
	}

	order := make([]int, len(b.ids))
	scores := make([]float32, len(b.ids))
	for i, v := range b.vecs {
		order[i] = i
		scores[i] = domain.Dot(query, v)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if k > len(order) {
		k = len(order)
	}
	hits := make([]domain.Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.Hit{ID: b.ids[order[i]], Score: scores[order[i]]}
	}
	return hits
}
