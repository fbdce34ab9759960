package domain

// Season is a catalog season label.
type Season string

// Season constants. SeasonAll marks items wearable year-round.
const (
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonAutumn Season = "Autumn"
	SeasonAll    Season = "All"
)

// IsValid checks if the season is one of the supported values.
func (s Season) IsValid() bool {
	switch s {
	case SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn, SeasonAll:
		return true
	}
	return false
}

// Usage is an occasion label for a catalog item or a query.
type Usage string

// Usage constants observed in the shipped catalog.
const (
	UsageCasual      Usage = "Casual"
	UsageFormal      Usage = "Formal"
	UsageSports      Usage = "Sports"
	UsageEthnic      Usage = "Ethnic"
	UsageParty       Usage = "Party"
	UsageTravel      Usage = "Travel"
	UsageSmartCasual Usage = "Smart Casual"
)

// CatalogItem is a single clothing item from the metadata store.
// Immutable after load; looked up by ID during reranking.
type CatalogItem struct {
	ID          string
	Gender      string
	ArticleType string
	Season      Season
	Usage       Usage
}
