package recommend

import (
	"github.com/kailas-cloud/attire/internal/domain"
)

// Catalog is the metadata store contract: id lookup during reranking and
// full iteration for index construction.
type Catalog interface {
	Lookup(id string) (domain.CatalogItem, error)
	Items() []domain.CatalogItem
}

// Encoders is the two-tower model contract. Both encoders are deterministic
// and pure given fixed weights; internals are a replaceable strategy.
type Encoders interface {
	EncodeQuery(intent domain.Intent) domain.Vector
	EncodeCandidate(item domain.CatalogItem) domain.Vector
}

// Index is the top-K similarity search contract over precomputed candidate
// vectors. Scores are descending and monotonic in true similarity.
type Index interface {
	Search(query domain.Vector, k int) []domain.Hit
}
