package finance

import (
	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/sizing"
)

// Sweepable parameters for RunSensitivity.
const (
	ParamTariff        = "tariff"
	ParamGrantFraction = "grant_fraction"
	ParamBatteryCost   = "battery_cost"
)

// BaseCase holds everything needed to evaluate one site under one scenario.
// All fields are value types, so each sweep run works on an isolated copy.
type BaseCase struct {
	Site     model.SiteRecord
	Profile  model.LoadProfile
	Scenario model.FinancingScenario
	Sizing   config.SizingConfig
	Costs    config.CostConfig
	Finance  config.FinanceConfig
}

// SweepPoint pairs a swept parameter value with the KPIs it produces.
type SweepPoint struct {
	Value float64          `json:"value"`
	KPI   model.KPISummary `json:"kpi"`
}

// Evaluate runs sizing, projection, and KPI summary for a base case.
func Evaluate(base BaseCase) (model.SystemSizing, model.Financing, []model.CashFlowYear, model.KPISummary, error) {
	sz, err := sizing.SizeSystem(base.Profile, base.Sizing)
	if err != nil {
		return model.SystemSizing{}, model.Financing{}, nil, model.KPISummary{}, err
	}
	financing, flows, err := Project(sz, base.Site, base.Scenario, base.Costs, base.Finance)
	if err != nil {
		return model.SystemSizing{}, model.Financing{}, nil, model.KPISummary{}, err
	}
	kpi, err := Summarize(flows, financing, base.Finance)
	if err != nil {
		return model.SystemSizing{}, model.Financing{}, nil, model.KPISummary{}, err
	}
	return sz, financing, flows, kpi, nil
}

// RunSensitivity re-evaluates the base case once per value, sweeping a single
// parameter and holding everything else fixed. The runner is a pure function
// of its inputs: runs share no state, so callers may evaluate points in
// parallel without coordination.
func RunSensitivity(base BaseCase, parameter string, values []float64) ([]SweepPoint, error) {
	if len(values) == 0 {
		return nil, model.NewValidationError("values", 0, "sweep needs at least one value")
	}

	points := make([]SweepPoint, 0, len(values))
	for _, v := range values {
		c := base
		switch parameter {
		case ParamTariff:
			c.Finance.TariffPerKWh = v
		case ParamGrantFraction:
			c.Scenario.GrantFraction = v
		case ParamBatteryCost:
			c.Costs.BatteryCostPerKWh = v
		default:
			return nil, model.NewConfigError("parameter", parameter,
				"sweepable parameters: tariff, grant_fraction, battery_cost")
		}

		_, _, _, kpi, err := Evaluate(c)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{Value: v, KPI: kpi})
	}
	return points, nil
}
