package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

func testCosts() config.CostConfig {
	return config.CostConfig{
		CapexPerKW:          3000,
		BatteryCostPerKWh:   250,
		BatteryLifeYears:    8,
		MaintenanceFraction: 0.04,
		RemoteSurcharge:     0.10,
	}
}

func testFinance() config.FinanceConfig {
	return config.FinanceConfig{
		TariffPerKWh: 0.60,
		Utilization:  0.85,
		DiscountRate: 0.12,
		HurdleRate:   0.12,
		MinDSCR:      1.2,
		HorizonYears: 10,
		ROEBasis:     "cumulative",
	}
}

func testSizing() model.SystemSizing {
	return model.SystemSizing{
		DailyEnergyKWh:     90,
		PVCapacityKW:       21.6,
		BatteryCapacityKWh: 90,
	}
}

func commercialDebt() model.FinancingScenario {
	return model.FinancingScenario{
		Name: "Commercial Debt", GrantFraction: 0, InterestRate: 0.10, TermYears: 7, EquityFraction: 0.30,
	}
}

func TestProject_YearZeroCarriesNetCAPEX(t *testing.T) {
	t.Parallel()

	site := model.SiteRecord{ID: "S-001", GridDistanceKM: 45}
	financing, flows, err := Project(testSizing(), site, commercialDebt(), testCosts(), testFinance())
	require.NoError(t, err)
	require.Len(t, flows, 11)

	y0 := flows[0]
	assert.Equal(t, 0, y0.Year)
	assert.InDelta(t, -financing.NetCAPEX, y0.NetCashFlow, 1e-9)
	assert.InDelta(t, financing.Debt, y0.DebtOutstanding, 1e-9)
	assert.Zero(t, y0.Revenue)
	assert.Zero(t, y0.OPEX)
}

func TestProject_ConstantRevenueAndOPEX(t *testing.T) {
	t.Parallel()

	site := model.SiteRecord{ID: "S-001"}
	financing, flows, err := Project(testSizing(), site, commercialDebt(), testCosts(), testFinance())
	require.NoError(t, err)

	// 90 kWh * 365 * 0.85 utilization * 0.60 tariff
	wantRevenue := 90.0 * 365 * 0.85 * 0.60
	// maintenance plus battery replacement reserve
	wantOPEX := financing.CAPEX*0.04 + 90*250/8.0

	for _, y := range flows[1:] {
		assert.InDelta(t, wantRevenue, y.Revenue, 1e-6)
		assert.InDelta(t, wantOPEX, y.OPEX, 1e-6)
		assert.InDelta(t, y.Revenue-y.OPEX, y.EBITDA, 1e-9)
		assert.InDelta(t, y.EBITDA-y.DebtService, y.NetCashFlow, 1e-9)
	}
}

func TestProject_DebtServiceStopsAfterTerm(t *testing.T) {
	t.Parallel()

	scenario := commercialDebt()
	scenario.TermYears = 3

	site := model.SiteRecord{ID: "S-001"}
	_, flows, err := Project(testSizing(), site, scenario, testCosts(), testFinance())
	require.NoError(t, err)

	for _, y := range flows[1:] {
		if y.Year <= 3 {
			assert.Greater(t, y.DebtService, 0.0, "year %d", y.Year)
		} else {
			assert.Zero(t, y.DebtService, "year %d", y.Year)
			assert.Zero(t, y.DebtOutstanding, "year %d", y.Year)
		}
	}
	assert.Zero(t, flows[3].DebtOutstanding, "loan fully repaid at end of term")
}

func TestProject_ZeroRateAmortizesLinearly(t *testing.T) {
	t.Parallel()

	scenario := commercialDebt()
	scenario.InterestRate = 0
	scenario.TermYears = 5

	site := model.SiteRecord{ID: "S-001"}
	financing, flows, err := Project(testSizing(), site, scenario, testCosts(), testFinance())
	require.NoError(t, err)

	want := financing.Debt / 5
	for _, y := range flows[1:6] {
		assert.InDelta(t, want, y.DebtService, 1e-9, "year %d", y.Year)
	}
}

func TestProject_GrantReducesDebt(t *testing.T) {
	t.Parallel()

	site := model.SiteRecord{ID: "S-001", GridDistanceKM: 45}
	var prevDebt, prevNPV float64
	for i, grant := range []float64{0, 0.2, 0.4} {
		scenario := commercialDebt()
		scenario.GrantFraction = grant

		financing, flows, err := Project(testSizing(), site, scenario, testCosts(), testFinance())
		require.NoError(t, err)

		kpi, err := Summarize(flows, financing, testFinance())
		require.NoError(t, err)

		if i > 0 {
			assert.Less(t, financing.Debt, prevDebt, "grant %.1f", grant)
			assert.Greater(t, kpi.NPV, prevNPV, "grant %.1f", grant)
		}
		prevDebt, prevNPV = financing.Debt, kpi.NPV
	}
}

func TestCapitalize_RemoteSurcharge(t *testing.T) {
	t.Parallel()

	near := model.SiteRecord{ID: "A", GridDistanceKM: 0}
	far := model.SiteRecord{ID: "B", GridDistanceKM: 100}

	fNear := capitalize(testSizing(), near, commercialDebt(), testCosts())
	fFar := capitalize(testSizing(), far, commercialDebt(), testCosts())

	// 100 km at a 10% surcharge per 100 km: CAPEX up by exactly 10%.
	assert.InDelta(t, fNear.CAPEX*1.10, fFar.CAPEX, 1e-6)

	hardware := 21.6*3000 + 90*250
	assert.InDelta(t, hardware, fNear.CAPEX, 1e-9)
}

func TestCapitalize_SplitsNetCAPEX(t *testing.T) {
	t.Parallel()

	scenario := model.FinancingScenario{GrantFraction: 0.40, EquityFraction: 0.20}
	f := capitalize(testSizing(), model.SiteRecord{ID: "S-001"}, scenario, testCosts())

	assert.InDelta(t, f.CAPEX*0.40, f.Grant, 1e-9)
	assert.InDelta(t, f.CAPEX-f.Grant, f.NetCAPEX, 1e-9)
	assert.InDelta(t, f.NetCAPEX*0.80, f.Debt, 1e-9)
	assert.InDelta(t, f.NetCAPEX*0.20, f.Equity, 1e-9)
	assert.InDelta(t, f.NetCAPEX, f.Debt+f.Equity, 1e-9)
}

func TestProject_Validation(t *testing.T) {
	t.Parallel()

	site := model.SiteRecord{ID: "S-001"}

	tests := []struct {
		name     string
		scenario model.FinancingScenario
		fin      config.FinanceConfig
	}{
		{"zero horizon", commercialDebt(), config.FinanceConfig{HorizonYears: 0, TariffPerKWh: 0.6, Utilization: 0.85}},
		{"zero tariff", commercialDebt(), config.FinanceConfig{HorizonYears: 10, TariffPerKWh: 0, Utilization: 0.85}},
		{"utilization above one", commercialDebt(), config.FinanceConfig{HorizonYears: 10, TariffPerKWh: 0.6, Utilization: 1.5}},
		{"grant above one", model.FinancingScenario{GrantFraction: 1.2}, testFinance()},
		{"negative equity", model.FinancingScenario{EquityFraction: -0.1}, testFinance()},
		{"negative rate", model.FinancingScenario{InterestRate: -0.05}, testFinance()},
		{"negative term", model.FinancingScenario{TermYears: -1}, testFinance()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Project(testSizing(), site, tt.scenario, testCosts(), tt.fin)
			var vErr *model.ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestAmortize_FullRepaymentWithinTerm(t *testing.T) {
	t.Parallel()

	schedule := amortize(10000, 0.10, 7, 10)
	require.Len(t, schedule, 10)

	var totalPrincipal float64
	outstanding := 10000.0
	for year := 0; year < 7; year++ {
		interest := outstanding * 0.10
		totalPrincipal += schedule[year].payment - interest
		outstanding = schedule[year].outstanding
	}
	assert.InDelta(t, 10000, totalPrincipal, 1e-6)
	assert.Zero(t, schedule[6].outstanding)
}
