// Package finance projects mini-grid cash flows and computes bankability
// metrics.
package finance

import (
	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

// Project builds the year-0..N cash-flow waterfall for a sized site under a
// financing scenario.
//
// Year 0 is the CAPEX outlay: hardware cost times the remote-site logistics
// multiplier, reduced by the grant fraction; the remainder splits into debt
// and equity per the scenario. Operating years earn a constant tariff revenue
// on energy sold, pay maintenance plus a battery replacement reserve, and
// service the debt with a fixed amortizing payment until the loan term
// elapses.
func Project(sizing model.SystemSizing, site model.SiteRecord, scenario model.FinancingScenario,
	costs config.CostConfig, fin config.FinanceConfig) (model.Financing, []model.CashFlowYear, error) {

	if fin.HorizonYears < 1 {
		return model.Financing{}, nil, model.NewValidationError("horizon_years", fin.HorizonYears, "horizon must be >= 1")
	}
	if fin.TariffPerKWh <= 0 {
		return model.Financing{}, nil, model.NewValidationError("tariff_per_kwh", fin.TariffPerKWh, "tariff must be > 0")
	}
	if fin.Utilization <= 0 || fin.Utilization > 1 {
		return model.Financing{}, nil, model.NewValidationError("utilization", fin.Utilization, "utilization must be in (0,1]")
	}
	if scenario.GrantFraction < 0 || scenario.GrantFraction > 1 {
		return model.Financing{}, nil, model.NewValidationError("grant_fraction", scenario.GrantFraction, "grant fraction must be in [0,1]")
	}
	if scenario.EquityFraction < 0 || scenario.EquityFraction > 1 {
		return model.Financing{}, nil, model.NewValidationError("equity_fraction", scenario.EquityFraction, "equity fraction must be in [0,1]")
	}
	if scenario.InterestRate < 0 {
		return model.Financing{}, nil, model.NewValidationError("interest_rate", scenario.InterestRate, "interest rate must be >= 0")
	}
	if scenario.TermYears < 0 {
		return model.Financing{}, nil, model.NewValidationError("term_years", scenario.TermYears, "loan term must be >= 0")
	}

	financing := capitalize(sizing, site, scenario, costs)

	revenue := sizing.DailyEnergyKWh * 365 * fin.Utilization * fin.TariffPerKWh
	opex := financing.CAPEX * costs.MaintenanceFraction
	if costs.BatteryLifeYears > 0 {
		// Replacement reserve: battery cost accrued evenly over its life.
		opex += sizing.BatteryCapacityKWh * costs.BatteryCostPerKWh / costs.BatteryLifeYears
	}

	schedule := amortize(financing.Debt, scenario.InterestRate, scenario.TermYears, fin.HorizonYears)

	flows := make([]model.CashFlowYear, 0, fin.HorizonYears+1)
	flows = append(flows, model.CashFlowYear{
		Year:            0,
		NetCashFlow:     -financing.NetCAPEX,
		DebtOutstanding: financing.Debt,
	})

	for year := 1; year <= fin.HorizonYears; year++ {
		p := schedule[year-1]
		ebitda := revenue - opex
		flows = append(flows, model.CashFlowYear{
			Year:            year,
			Revenue:         revenue,
			OPEX:            opex,
			EBITDA:          ebitda,
			DebtService:     p.payment,
			NetCashFlow:     ebitda - p.payment,
			DebtOutstanding: p.outstanding,
		})
	}

	return financing, flows, nil
}

// capitalize computes the year-0 capital breakdown.
func capitalize(sizing model.SystemSizing, site model.SiteRecord, scenario model.FinancingScenario, costs config.CostConfig) model.Financing {
	hardware := sizing.PVCapacityKW*costs.CapexPerKW + sizing.BatteryCapacityKWh*costs.BatteryCostPerKWh
	logistics := 1 + site.GridDistanceKM/100*costs.RemoteSurcharge
	capex := hardware * logistics

	grant := capex * scenario.GrantFraction
	net := capex - grant

	return model.Financing{
		CAPEX:    capex,
		Grant:    grant,
		NetCAPEX: net,
		Debt:     net * (1 - scenario.EquityFraction),
		Equity:   net * scenario.EquityFraction,
	}
}

// yearPayment is one year of an amortization schedule.
type yearPayment struct {
	payment     float64
	outstanding float64 // balance after this year's payment
}

// amortize builds a fixed-payment schedule for the given principal, annual
// rate, and term, padded with zero payments out to the horizon. A zero-rate
// loan amortizes linearly.
func amortize(principal, rate float64, termYears, horizonYears int) []yearPayment {
	schedule := make([]yearPayment, horizonYears)
	if principal <= 0 || termYears == 0 {
		return schedule
	}

	var payment float64
	if rate == 0 {
		payment = principal / float64(termYears)
	} else {
		// Standard annuity payment covering principal plus interest.
		factor := pow1p(rate, termYears)
		payment = principal * rate * factor / (factor - 1)
	}

	outstanding := principal
	for year := 0; year < horizonYears; year++ {
		if year >= termYears {
			// Term elapsed: no further debt service.
			schedule[year] = yearPayment{payment: 0, outstanding: 0}
			continue
		}
		interest := outstanding * rate
		outstanding -= payment - interest
		if outstanding < 1e-9 || year == termYears-1 {
			outstanding = 0
		}
		schedule[year] = yearPayment{payment: payment, outstanding: outstanding}
	}
	return schedule
}

// pow1p returns (1+rate)^n.
func pow1p(rate float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 1 + rate
	}
	return out
}
