// Package config loads application configuration from file, environment,
// and defaults, and owns global logger setup.
package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// WeightTolerance is the allowed deviation of the criterion weight sum from 1.
const WeightTolerance = 1e-6

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig               `yaml:"store" mapstructure:"store"`
	Log       LogConfig                 `yaml:"log" mapstructure:"log"`
	Scoring   ScoringConfig             `yaml:"scoring" mapstructure:"scoring"`
	Demand    DemandConfig              `yaml:"demand" mapstructure:"demand"`
	Sizing    SizingConfig              `yaml:"sizing" mapstructure:"sizing"`
	Costs     CostConfig                `yaml:"costs" mapstructure:"costs"`
	Finance   FinanceConfig             `yaml:"finance" mapstructure:"finance"`
	Scenarios []model.FinancingScenario `yaml:"scenarios" mapstructure:"scenarios"`
	Pipeline  PipelineConfig            `yaml:"pipeline" mapstructure:"pipeline"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScoringConfig holds the site-scoring criterion weights. Weights must sum
// to 1 within WeightTolerance.
type ScoringConfig struct {
	MarketWeight           float64 `yaml:"market_weight" mapstructure:"market_weight"`
	EconomicActivityWeight float64 `yaml:"economic_activity_weight" mapstructure:"economic_activity_weight"`
	GridDistanceWeight     float64 `yaml:"grid_distance_weight" mapstructure:"grid_distance_weight"`
	PopulationWeight       float64 `yaml:"population_weight" mapstructure:"population_weight"`

	// LogScaleCriteria lists criteria that get a log(1+x) transform before
	// min-max normalization, to keep a few very large settlements from
	// dominating the ranking. Population-like criteria by default.
	LogScaleCriteria []string `yaml:"log_scale_criteria" mapstructure:"log_scale_criteria"`
}

// WeightSum returns the sum of all criterion weights.
func (c ScoringConfig) WeightSum() float64 {
	return c.MarketWeight + c.EconomicActivityWeight + c.GridDistanceWeight + c.PopulationWeight
}

// DemandConfig derives a default per-site load profile from population.
type DemandConfig struct {
	AvgHouseholdSize    float64 `yaml:"avg_household_size" mapstructure:"avg_household_size"`
	CustomerPenetration float64 `yaml:"customer_penetration" mapstructure:"customer_penetration"`
	ProductiveShare     float64 `yaml:"productive_share" mapstructure:"productive_share"`
	HouseholdDailyKWh   float64 `yaml:"household_daily_kwh" mapstructure:"household_daily_kwh"`
	ProductiveDailyKWh  float64 `yaml:"productive_daily_kwh" mapstructure:"productive_daily_kwh"`
}

// SizingConfig holds engineering sizing assumptions.
type SizingConfig struct {
	PeakSunHours  float64 `yaml:"peak_sun_hours" mapstructure:"peak_sun_hours"`
	ReserveMargin float64 `yaml:"reserve_margin" mapstructure:"reserve_margin"`
	AutonomyDays  float64 `yaml:"autonomy_days" mapstructure:"autonomy_days"`
}

// CostConfig holds hardware and operating cost assumptions (USD).
type CostConfig struct {
	CapexPerKW          float64 `yaml:"capex_per_kw" mapstructure:"capex_per_kw"`
	BatteryCostPerKWh   float64 `yaml:"battery_cost_per_kwh" mapstructure:"battery_cost_per_kwh"`
	BatteryLifeYears    float64 `yaml:"battery_life_years" mapstructure:"battery_life_years"`
	MaintenanceFraction float64 `yaml:"maintenance_fraction" mapstructure:"maintenance_fraction"`
	// RemoteSurcharge adds this fraction of hardware cost per 100 km of
	// grid distance (logistics penalty for remote sites).
	RemoteSurcharge float64 `yaml:"remote_surcharge" mapstructure:"remote_surcharge"`
}

// FinanceConfig holds revenue and return assumptions.
type FinanceConfig struct {
	TariffPerKWh float64 `yaml:"tariff_per_kwh" mapstructure:"tariff_per_kwh"`
	Utilization  float64 `yaml:"utilization" mapstructure:"utilization"`
	DiscountRate float64 `yaml:"discount_rate" mapstructure:"discount_rate"`
	HurdleRate   float64 `yaml:"hurdle_rate" mapstructure:"hurdle_rate"`
	MinDSCR      float64 `yaml:"min_dscr" mapstructure:"min_dscr"`
	HorizonYears int     `yaml:"horizon_years" mapstructure:"horizon_years"`
	// ROEBasis selects how return on equity is reported: "cumulative" or
	// "annualized" (cumulative divided by horizon years).
	ROEBasis string `yaml:"roe_basis" mapstructure:"roe_basis"`
}

// PipelineConfig configures the full scoring-to-report run.
type PipelineConfig struct {
	MinScore float64 `yaml:"min_score" mapstructure:"min_score"`
	TopN     int     `yaml:"top_n" mapstructure:"top_n"`
	Scenario string  `yaml:"scenario" mapstructure:"scenario"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MINIGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = DefaultScenarios()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "minigrid.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scoring.market_weight", 0.25)
	v.SetDefault("scoring.economic_activity_weight", 0.25)
	v.SetDefault("scoring.grid_distance_weight", 0.20)
	v.SetDefault("scoring.population_weight", 0.30)
	v.SetDefault("scoring.log_scale_criteria", []string{"population", "market"})

	v.SetDefault("demand.avg_household_size", 5.0)
	v.SetDefault("demand.customer_penetration", 0.30)
	v.SetDefault("demand.productive_share", 0.10)
	v.SetDefault("demand.household_daily_kwh", 0.5)
	v.SetDefault("demand.productive_daily_kwh", 2.0)

	v.SetDefault("sizing.peak_sun_hours", 5.0)
	v.SetDefault("sizing.reserve_margin", 0.20)
	v.SetDefault("sizing.autonomy_days", 1.0)

	v.SetDefault("costs.capex_per_kw", 3000.0)
	v.SetDefault("costs.battery_cost_per_kwh", 250.0)
	v.SetDefault("costs.battery_life_years", 8.0)
	v.SetDefault("costs.maintenance_fraction", 0.04)
	v.SetDefault("costs.remote_surcharge", 0.10)

	v.SetDefault("finance.tariff_per_kwh", 0.60)
	v.SetDefault("finance.utilization", 0.85)
	v.SetDefault("finance.discount_rate", 0.12)
	v.SetDefault("finance.hurdle_rate", 0.12)
	v.SetDefault("finance.min_dscr", 1.2)
	v.SetDefault("finance.horizon_years", 10)
	v.SetDefault("finance.roe_basis", "cumulative")

	v.SetDefault("pipeline.min_score", 40.0)
	v.SetDefault("pipeline.top_n", 0)
	v.SetDefault("pipeline.scenario", "Commercial Debt")
}

// DefaultScenarios returns the built-in named financing scenarios.
func DefaultScenarios() []model.FinancingScenario {
	return []model.FinancingScenario{
		{
			Name:           "Commercial Debt",
			GrantFraction:  0.0,
			InterestRate:   0.10,
			TermYears:      7,
			EquityFraction: 0.30,
		},
		{
			Name:           "Blended Finance",
			GrantFraction:  0.40,
			InterestRate:   0.055,
			TermYears:      10,
			EquityFraction: 0.20,
		},
	}
}

// ScenarioByName looks up a financing scenario by its configured name.
func (c *Config) ScenarioByName(name string) (model.FinancingScenario, error) {
	for _, s := range c.Scenarios {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	var known []string
	for _, s := range c.Scenarios {
		known = append(known, s.Name)
	}
	return model.FinancingScenario{}, model.NewConfigError("scenario", name,
		"unknown scenario (configured: "+strings.Join(known, ", ")+")")
}

// Validate checks the configuration sections needed by the given area
// ("scoring", "finance", "store"). Config errors invalidate every downstream
// computation, so callers abort the run on failure.
func (c *Config) Validate(area string) error {
	switch area {
	case "scoring":
		return c.validateScoring()
	case "finance":
		return c.validateFinance()
	case "store":
		return c.validateStore()
	default:
		return eris.Errorf("config: unknown validation area %q", area)
	}
}

func (c *Config) validateScoring() error {
	weights := map[string]float64{
		"scoring.market_weight":            c.Scoring.MarketWeight,
		"scoring.economic_activity_weight": c.Scoring.EconomicActivityWeight,
		"scoring.grid_distance_weight":     c.Scoring.GridDistanceWeight,
		"scoring.population_weight":        c.Scoring.PopulationWeight,
	}
	for name, w := range weights {
		if w < 0 {
			return model.NewConfigError(name, w, "weight must be >= 0")
		}
	}
	if sum := c.Scoring.WeightSum(); math.Abs(sum-1.0) > WeightTolerance {
		return model.NewConfigError("scoring", sum, "criterion weights must sum to 1")
	}
	return nil
}

func (c *Config) validateFinance() error {
	if c.Finance.TariffPerKWh <= 0 {
		return model.NewConfigError("finance.tariff_per_kwh", c.Finance.TariffPerKWh, "tariff must be > 0")
	}
	if c.Finance.Utilization <= 0 || c.Finance.Utilization > 1 {
		return model.NewConfigError("finance.utilization", c.Finance.Utilization, "utilization must be in (0,1]")
	}
	if c.Finance.HorizonYears < 1 {
		return model.NewConfigError("finance.horizon_years", c.Finance.HorizonYears, "horizon must be >= 1")
	}
	if c.Finance.MinDSCR < 0 {
		return model.NewConfigError("finance.min_dscr", c.Finance.MinDSCR, "minimum DSCR must be >= 0")
	}
	if c.Finance.ROEBasis != "cumulative" && c.Finance.ROEBasis != "annualized" {
		return model.NewConfigError("finance.roe_basis", c.Finance.ROEBasis, `must be "cumulative" or "annualized"`)
	}
	for _, s := range c.Scenarios {
		if s.GrantFraction < 0 || s.GrantFraction > 1 {
			return model.NewConfigError("scenario "+s.Name+": grant_fraction", s.GrantFraction, "must be in [0,1]")
		}
		if s.EquityFraction < 0 || s.EquityFraction > 1 {
			return model.NewConfigError("scenario "+s.Name+": equity_fraction", s.EquityFraction, "must be in [0,1]")
		}
		if s.InterestRate < 0 {
			return model.NewConfigError("scenario "+s.Name+": interest_rate", s.InterestRate, "must be >= 0")
		}
		if s.TermYears < 0 {
			return model.NewConfigError("scenario "+s.Name+": term_years", s.TermYears, "must be >= 0")
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return model.NewConfigError("store.path", nil, "sqlite path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return model.NewConfigError("store.database_url", nil, "postgres URL is required")
		}
	default:
		return model.NewConfigError("store.driver", c.Store.Driver, `must be "sqlite" or "postgres"`)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
