package domain

// Hit is a single similarity index result: candidate id plus raw score,
// as produced by the index (not renormalized at this stage).
type Hit struct {
	ID    string
	Score float32
}

// ScoreDebug exposes the components of the fused score.
type ScoreDebug struct {
	EmbeddingScore float64 `json:"embedding"`
	UsageMatch     int     `json:"usage_match"`
	SeasonMatch    int     `json:"season_match"`
}

// ScoredItem is a reranked recommendation. Constructed per request,
// never persisted.
type ScoredItem struct {
	ID          string     `json:"id"`
	ArticleType string     `json:"type"`
	Gender      string     `json:"gender"`
	Season      Season     `json:"season"`
	Usage       Usage      `json:"usage"`
	ImageURL    string     `json:"image"`
	Score       float64    `json:"score"`
	Debug       ScoreDebug `json:"debug"`
}
