// Package model defines the domain types shared across the mini-grid
// analysis pipeline.
package model

// SiteRecord is a raw candidate settlement as read from the input file.
// Records are treated as immutable once loaded.
type SiteRecord struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Population            float64  `json:"population"`
	EconomicActivityIndex float64  `json:"economic_activity_index"`
	GridDistanceKM        float64  `json:"grid_distance_km"`
	MarketSizeIndicator   float64  `json:"market_size_indicator"`
	Lon                   *float64 `json:"lon,omitempty"`
	Lat                   *float64 `json:"lat,omitempty"`
}

// Tier buckets a viability score for business decision making.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// TierForScore maps a 0-100 viability score to a tier.
// Bins: [0,40] Low, (40,70] Medium, (70,100] High.
func TierForScore(score float64) Tier {
	switch {
	case score > 70:
		return TierHigh
	case score > 40:
		return TierMedium
	default:
		return TierLow
	}
}

// ScoredSite is a SiteRecord with its normalized sub-scores and composite
// viability score. Recomputed whenever weights or inputs change.
type ScoredSite struct {
	SiteRecord
	SubScores      map[string]float64 `json:"sub_scores"`
	ViabilityScore float64            `json:"viability_score"`
	Rank           int                `json:"rank"`
	Tier           Tier               `json:"tier"`
}
