package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/attire/internal/domain"
)

// scoreEpsilon guards min-max normalization when all raw scores are equal.
const scoreEpsilon = 1e-8

// FusionWeights blends normalized embedding similarity with categorical
// match indicators. Usage dominates; embedding similarity acts as a
// tiebreaker and diversity signal.
type FusionWeights struct {
	Embedding float64
	Usage     float64
	Season    float64
}

// DefaultFusionWeights returns the shipped model weights (sum to 1).
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Embedding: 0.25, Usage: 0.55, Season: 0.20}
}

// exclusions is the static per-usage article type blocklist applied before
// scoring. The formal list is wider than the casual one.
var exclusions = map[domain.Usage]map[string]struct{}{
	domain.UsageFormal: {
		"Bra": {}, "Briefs": {}, "Innerwear": {}, "Lingerie": {},
		"Socks": {}, "Caps": {}, "Flip Flops": {},
	},
	domain.UsageCasual: {
		"Bra": {}, "Briefs": {}, "Innerwear": {},
	},
}

func excluded(usage domain.Usage, articleType string) bool {
	_, ok := exclusions[usage][articleType]
	return ok
}

type tier int

const (
	tierPrimary   tier = iota // usage match, season match or year-round
	tierSecondary             // usage match, season mismatch
	tierFallback              // similarity-only match
)

// rerank filters, scores, tiers and selects the final top-k.
// Fallback items only fill remaining slots; they never displace a
// usage-matched item. Ties on the fused score keep retrieval order
// (stable sort), so output is fully deterministic.
func (e *Engine) rerank(hits []domain.Hit, intent domain.Intent, k int) ([]domain.ScoredItem, error) {
	type survivor struct {
		meta domain.CatalogItem
		raw  float32
	}

	survivors := make([]survivor, 0, len(hits))
	for _, hit := range hits {
		meta, err := e.catalog.Lookup(hit.ID)
		if err != nil {
			// Retrieved id missing from metadata: index/catalog desync.
			return nil, fmt.Errorf("rerank: %w", domain.NewDesync(hit.ID))
		}
		if excluded(intent.Usage, meta.ArticleType) {
			continue
		}
		survivors = append(survivors, survivor{meta: meta, raw: hit.Score})
	}
	if len(survivors) == 0 {
		return []domain.ScoredItem{}, nil
	}

	rawMin, rawMax := survivors[0].raw, survivors[0].raw
	for _, s := range survivors[1:] {
		if s.raw < rawMin {
			rawMin = s.raw
		}
		if s.raw > rawMax {
			rawMax = s.raw
		}
	}

	var primary, secondary, fallback []domain.ScoredItem
	for _, s := range survivors {
		embScore := float64(s.raw-rawMin) / (float64(rawMax-rawMin) + scoreEpsilon)

		usageMatch := 0
		if s.meta.Usage == intent.Usage {
			usageMatch = 1
		}
		seasonMatch := 0
		if s.meta.Season == intent.Season {
			seasonMatch = 1
		}

		fused := e.weights.Embedding*embScore +
			e.weights.Usage*float64(usageMatch) +
			e.weights.Season*float64(seasonMatch)

		item := domain.ScoredItem{
			ID:          s.meta.ID,
			ArticleType: s.meta.ArticleType,
			Gender:      s.meta.Gender,
			Season:      s.meta.Season,
			Usage:       s.meta.Usage,
			ImageURL:    e.imageURL(s.meta.ID),
			Score:       round4(fused),
			Debug: domain.ScoreDebug{
				EmbeddingScore: round4(embScore),
				UsageMatch:     usageMatch,
				SeasonMatch:    seasonMatch,
			},
		}

		switch classify(s.meta, intent) {
		case tierPrimary:
			primary = append(primary, item)
		case tierSecondary:
			secondary = append(secondary, item)
		default:
			fallback = append(fallback, item)
		}
	}

	pool := make([]domain.ScoredItem, 0, len(primary)+len(secondary)+len(fallback))
	pool = append(pool, primary...)
	pool = append(pool, secondary...)
	if len(pool) < k {
		pool = append(pool, fallback...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})

	if len(pool) > k {
		pool = pool[:k]
	}
	return pool, nil
}

// classify buckets an item by categorical correctness. Tiering takes
// precedence over raw score: a wrong-usage item never outranks a
// usage-matched one regardless of embedding similarity.
func classify(meta domain.CatalogItem, intent domain.Intent) tier {
	if meta.Usage != intent.Usage {
		return tierFallback
	}
	if meta.Season == intent.Season || meta.Season == domain.SeasonAll {
		return tierPrimary
	}
	return tierSecondary
}

// round4 rounds to 4 decimal places for display determinism.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
