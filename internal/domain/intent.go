package domain

// Intent is the query-side input to the recommendation engine, derived from
// the user request. ArticleType is encoder-input shaping, not a user feature:
// it is either derived from usage or pinned to the unknown token depending on
// the active model variant.
type Intent struct {
	Gender      string
	ArticleType string
	Season      Season
	Usage       Usage
}

// UnknownArticleType is the out-of-vocabulary article type token shared by
// both towers. One model variant pins the query article type to it.
const UnknownArticleType = "Unknown"
