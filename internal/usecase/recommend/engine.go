// Package recommend implements the recommendation engine: query encoding,
// over-fetched candidate retrieval and multi-tier reranking.
package recommend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/domain"
	"github.com/kailas-cloud/attire/internal/index"
	logpkg "github.com/kailas-cloud/attire/internal/logger"
	"github.com/kailas-cloud/attire/internal/metrics"
)

// State is the engine lifecycle state. Loading happens once at startup;
// there is no hot reload.
type State int32

// Lifecycle states.
const (
	StateUnloaded State = iota
	StateLoading
	StateReady
)

// ArticleTypeStrategy selects how the query-side article type is shaped
// before encoding. Both are valid encoder-input shaping variants, not
// independent intent features.
type ArticleTypeStrategy string

const (
	// ArticleTypeDerived maps the usage to a preferred top-wear type
	// (Shirts for formal, Tshirts otherwise).
	ArticleTypeDerived ArticleTypeStrategy = "derived"
	// ArticleTypeUnknown pins the query article type to the OOV token.
	ArticleTypeUnknown ArticleTypeStrategy = "unknown"
)

// Retrieval over-fetch defaults: retrieve max(k*factor, min) candidates so
// enough survive filtering and tiering to fill k final slots.
const (
	DefaultRetrieveFactor = 10
	DefaultRetrieveMin    = 50
)

// DefaultImageBaseURL prefixes item image paths.
const DefaultImageBaseURL = "/static/images"

// Options tune the engine. Zero values fall back to the built-in defaults.
type Options struct {
	Weights        FusionWeights
	RetrieveFactor int
	RetrieveMin    int
	ImageBaseURL   string
	ArticleType    ArticleTypeStrategy
}

// Engine owns the loaded catalog, model and index, and exposes the single
// Recommend entry point. All shared state is immutable after Load, so
// concurrent requests need no locking.
type Engine struct {
	state atomic.Int32

	catalog Catalog
	model   Encoders
	index   Index

	weights        FusionWeights
	retrieveFactor int
	retrieveMin    int
	imageBase      string
	strategy       ArticleTypeStrategy

	logger *zap.Logger
}

// New creates an unloaded engine.
func New(logger *zap.Logger, opts Options) *Engine {
	if opts.Weights == (FusionWeights{}) {
		opts.Weights = DefaultFusionWeights()
	}
	if opts.RetrieveFactor <= 0 {
		opts.RetrieveFactor = DefaultRetrieveFactor
	}
	if opts.RetrieveMin <= 0 {
		opts.RetrieveMin = DefaultRetrieveMin
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.ArticleType == "" {
		opts.ArticleType = ArticleTypeDerived
	}
	return &Engine{
		weights:        opts.Weights,
		retrieveFactor: opts.RetrieveFactor,
		retrieveMin:    opts.RetrieveMin,
		imageBase:      opts.ImageBaseURL,
		strategy:       opts.ArticleType,
		logger:         logger,
	}
}

// Load precomputes all candidate embeddings and builds the similarity index
// from the same filtered catalog that serves metadata lookups. Startup only;
// a failure leaves the engine unloaded and is fatal to the caller.
func (e *Engine) Load(catalog Catalog, model Encoders) error {
	if !e.state.CompareAndSwap(int32(StateUnloaded), int32(StateLoading)) {
		return fmt.Errorf("engine load: already loading or loaded")
	}

	start := time.Now()
	items := catalog.Items()
	if len(items) == 0 {
		e.state.Store(int32(StateUnloaded))
		return fmt.Errorf("engine load: %w", domain.ErrEmptyCatalog)
	}

	candidates := make([]index.Candidate, len(items))
	for i, item := range items {
		candidates[i] = index.Candidate{ID: item.ID, Vector: model.EncodeCandidate(item)}
	}

	idx, err := index.Build(candidates)
	if err != nil {
		e.state.Store(int32(StateUnloaded))
		return fmt.Errorf("engine load: %w", err)
	}

	e.catalog = catalog
	e.model = model
	e.index = idx
	e.state.Store(int32(StateReady))

	e.logger.Info("Recommendation index built",
		zap.Int("candidates", len(candidates)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready reports whether the engine can serve requests.
func (e *Engine) Ready() bool {
	return e.State() == StateReady
}

// Recommend returns the top-k reranked recommendations for the intent.
// Fails with domain.ErrNotReady before Load completes. An empty result is a
// valid non-error outcome.
func (e *Engine) Recommend(ctx context.Context, intent domain.Intent, k int) ([]domain.ScoredItem, error) {
	if !e.Ready() {
		return nil, domain.ErrNotReady
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrValidation, k)
	}

	start := time.Now()
	intent = e.shapeIntent(intent)

	queryVec := e.model.EncodeQuery(intent)

	hits := e.index.Search(queryVec, e.retrieveSize(k))

	results, err := e.rerank(hits, intent, k)
	if err != nil {
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues(string(intent.Usage)).Inc()
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievedCandidates.Observe(float64(len(hits)))

	logpkg.FromContext(ctx).Debug("recommendation served",
		zap.String("usage", string(intent.Usage)),
		zap.String("season", string(intent.Season)),
		zap.Int("k", k),
		zap.Int("retrieved", len(hits)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// retrieveSize is the over-fetch size: max(k*factor, min).
func (e *Engine) retrieveSize(k int) int {
	n := k * e.retrieveFactor
	if n < e.retrieveMin {
		n = e.retrieveMin
	}
	return n
}

// shapeIntent applies the active query-side article type strategy.
// Any caller-supplied article type is overridden: the field is encoder
// input shaping, not a user preference.
func (e *Engine) shapeIntent(intent domain.Intent) domain.Intent {
	switch e.strategy {
	case ArticleTypeUnknown:
		intent.ArticleType = domain.UnknownArticleType
	default:
		if intent.Usage == domain.UsageFormal {
			intent.ArticleType = "Shirts"
		} else {
			intent.ArticleType = "Tshirts"
		}
	}
	return intent
}

func (e *Engine) imageURL(id string) string {
	return e.imageBase + "/" + id + ".jpg"
}
