// Package scoring ranks candidate settlements by mini-grid viability.
package scoring

import (
	"math"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

// Criterion keys used for sub-scores and log-scale selection.
const (
	CriterionMarket           = "market"
	CriterionEconomicActivity = "economic_activity"
	CriterionGridDistance     = "grid_distance"
	CriterionPopulation       = "population"
)

// SkippedSite records a site excluded from a batch and why. Invalid records
// are flagged and skipped; they never abort the whole batch.
type SkippedSite struct {
	Site model.SiteRecord
	Err  error
}

// criterion binds a weight and transform to a raw attribute of a site.
type criterion struct {
	key      string
	weight   float64
	logScale bool
	value    func(model.SiteRecord) float64
}

// Score normalizes each criterion to [0,1] across the batch (min-max, with a
// log(1+x) pre-transform for criteria configured as log-scale), combines them
// with the configured weights into a 0-100 composite, and returns sites in
// descending score order with ranks assigned. Ties keep input order.
//
// Weights that do not sum to 1 (within config.WeightTolerance) fail with a
// ConfigError before any site is scored.
func Score(sites []model.SiteRecord, cfg config.ScoringConfig) ([]model.ScoredSite, []SkippedSite, error) {
	if err := validateWeights(cfg); err != nil {
		return nil, nil, err
	}

	criteria := []criterion{
		{CriterionMarket, cfg.MarketWeight, logScaleFor(cfg, CriterionMarket),
			func(s model.SiteRecord) float64 { return s.MarketSizeIndicator }},
		{CriterionEconomicActivity, cfg.EconomicActivityWeight, logScaleFor(cfg, CriterionEconomicActivity),
			func(s model.SiteRecord) float64 { return s.EconomicActivityIndex }},
		{CriterionGridDistance, cfg.GridDistanceWeight, logScaleFor(cfg, CriterionGridDistance),
			func(s model.SiteRecord) float64 { return s.GridDistanceKM }},
		{CriterionPopulation, cfg.PopulationWeight, logScaleFor(cfg, CriterionPopulation),
			func(s model.SiteRecord) float64 { return s.Population }},
	}

	valid, skipped := partitionValid(sites)
	if len(valid) == 0 {
		return nil, skipped, nil
	}

	// Per-criterion normalized values across the batch.
	normalized := make([]map[string]float64, len(valid))
	for i := range normalized {
		normalized[i] = make(map[string]float64, len(criteria))
	}
	for _, c := range criteria {
		values := make([]float64, len(valid))
		for i, s := range valid {
			v := c.value(s)
			if c.logScale {
				v = math.Log1p(v)
			}
			values[i] = v
		}
		for i, n := range minMax(values) {
			normalized[i][c.key] = n
		}
	}

	scored := make([]model.ScoredSite, len(valid))
	for i, s := range valid {
		var composite float64
		for _, c := range criteria {
			composite += c.weight * normalized[i][c.key]
		}
		scored[i] = model.ScoredSite{
			SiteRecord:     s,
			SubScores:      normalized[i],
			ViabilityScore: 100 * composite,
		}
	}

	// Descending by score, stable so ties keep input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ViabilityScore > scored[j].ViabilityScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
		scored[i].Tier = model.TierForScore(scored[i].ViabilityScore)
	}

	zap.L().Info("scoring: batch complete",
		zap.Int("sites_scored", len(scored)),
		zap.Int("sites_skipped", len(skipped)),
	)

	return scored, skipped, nil
}

// validateWeights enforces non-negative weights summing to 1.
func validateWeights(cfg config.ScoringConfig) error {
	weights := map[string]float64{
		"market_weight":            cfg.MarketWeight,
		"economic_activity_weight": cfg.EconomicActivityWeight,
		"grid_distance_weight":     cfg.GridDistanceWeight,
		"population_weight":        cfg.PopulationWeight,
	}
	for name, w := range weights {
		if w < 0 {
			return model.NewConfigError(name, w, "weight must be >= 0")
		}
	}
	if sum := cfg.WeightSum(); math.Abs(sum-1.0) > config.WeightTolerance {
		return model.NewConfigError("weights", sum, "criterion weights must sum to 1")
	}
	return nil
}

// partitionValid splits a batch into scoreable sites and skipped records.
func partitionValid(sites []model.SiteRecord) ([]model.SiteRecord, []SkippedSite) {
	var valid []model.SiteRecord
	var skipped []SkippedSite
	for _, s := range sites {
		if err := ValidateRecord(s); err != nil {
			zap.L().Warn("scoring: skipping invalid site record",
				zap.String("site_id", s.ID),
				zap.Error(err),
			)
			skipped = append(skipped, SkippedSite{Site: s, Err: err})
			continue
		}
		valid = append(valid, s)
	}
	return valid, skipped
}

// ValidateRecord checks a single site record's raw attributes.
func ValidateRecord(s model.SiteRecord) error {
	if s.ID == "" {
		return model.NewValidationError("id", s.ID, "site id is required")
	}
	if s.Population < 0 {
		return model.NewValidationError("population", s.Population, "population must be >= 0")
	}
	if s.GridDistanceKM < 0 {
		return model.NewValidationError("grid_distance_km", s.GridDistanceKM, "grid distance must be >= 0")
	}
	if s.EconomicActivityIndex < 0 {
		return model.NewValidationError("economic_activity_index", s.EconomicActivityIndex, "index must be >= 0")
	}
	if s.MarketSizeIndicator < 0 {
		return model.NewValidationError("market_size_indicator", s.MarketSizeIndicator, "indicator must be >= 0")
	}
	return nil
}

// minMax scales values to [0,1]. A degenerate batch (max == min, including a
// single-site batch) normalizes every value to 1.0 rather than dividing by
// zero.
func minMax(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]float64, len(values))
	if hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

func logScaleFor(cfg config.ScoringConfig, key string) bool {
	return slices.Contains(cfg.LogScaleCriteria, key)
}
