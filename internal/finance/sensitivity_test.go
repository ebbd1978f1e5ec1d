package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

func testBaseCase() BaseCase {
	return BaseCase{
		Site: model.SiteRecord{ID: "S-001", Name: "Kandiga", Population: 3200, GridDistanceKM: 45},
		Profile: model.LoadProfile{
			SiteID: "S-001",
			Segments: []model.CustomerSegment{
				{Name: model.SegmentHousehold, Count: 160, DailyKWh: 0.5},
				{Name: model.SegmentProductiveUse, Count: 16, DailyKWh: 2.0},
			},
		},
		Scenario: commercialDebt(),
		Sizing:   config.SizingConfig{PeakSunHours: 5, ReserveMargin: 0.2, AutonomyDays: 1},
		Costs:    testCosts(),
		Finance:  testFinance(),
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	sz, financing, flows, kpi, err := Evaluate(testBaseCase())
	require.NoError(t, err)

	assert.InDelta(t, 112.0, sz.DailyEnergyKWh, 1e-9)
	assert.Greater(t, financing.CAPEX, 0.0)
	assert.Len(t, flows, 11)
	assert.NotZero(t, kpi.NPV)
}

func TestRunSensitivity_TariffMonotonic(t *testing.T) {
	t.Parallel()

	points, err := RunSensitivity(testBaseCase(), ParamTariff, []float64{0.40, 0.60, 0.80})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].KPI.NPV, points[i-1].KPI.NPV,
			"NPV must rise with tariff")
	}
}

func TestRunSensitivity_GrantFractionMonotonic(t *testing.T) {
	t.Parallel()

	points, err := RunSensitivity(testBaseCase(), ParamGrantFraction, []float64{0, 0.2, 0.4})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].KPI.NPV, points[i-1].KPI.NPV,
			"NPV must rise with grant share")
	}
}

func TestRunSensitivity_BatteryCost(t *testing.T) {
	t.Parallel()

	points, err := RunSensitivity(testBaseCase(), ParamBatteryCost, []float64{150, 250, 350})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i].KPI.NPV, points[i-1].KPI.NPV,
			"NPV must fall with battery cost")
	}
}

func TestRunSensitivity_DoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := testBaseCase()
	_, err := RunSensitivity(base, ParamTariff, []float64{0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.60, base.Finance.TariffPerKWh, 1e-9)
}

func TestRunSensitivity_UnknownParameter(t *testing.T) {
	t.Parallel()

	_, err := RunSensitivity(testBaseCase(), "discount_rate", []float64{0.1})
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunSensitivity_NoValues(t *testing.T) {
	t.Parallel()

	_, err := RunSensitivity(testBaseCase(), ParamTariff, nil)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
}
