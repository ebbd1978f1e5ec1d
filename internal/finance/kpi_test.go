package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// flowsFromNet builds a minimal sequence from net cash flows indexed by year.
func flowsFromNet(nets ...float64) []model.CashFlowYear {
	flows := make([]model.CashFlowYear, len(nets))
	for i, n := range nets {
		flows[i] = model.CashFlowYear{Year: i, NetCashFlow: n}
		if i > 0 {
			flows[i].EBITDA = n
		}
	}
	return flows
}

func TestSummarize_KnownIRR(t *testing.T) {
	t.Parallel()

	// -1000 now, +1100 in one year: IRR is exactly 10%.
	flows := flowsFromNet(-1000, 1100)

	fin := testFinance()
	fin.HurdleRate = 0.10

	kpi, err := Summarize(flows, model.Financing{Equity: 1000}, fin)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, kpi.IRR, 1e-4)
	assert.True(t, kpi.IRRPass)
}

func TestSummarize_IRRBelowHurdleFails(t *testing.T) {
	t.Parallel()

	flows := flowsFromNet(-1000, 1050) // 5% IRR
	fin := testFinance()
	fin.HurdleRate = 0.12

	kpi, err := Summarize(flows, model.Financing{Equity: 1000}, fin)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, kpi.IRR, 1e-4)
	assert.False(t, kpi.IRRPass)
}

func TestSummarize_NoIRRRoot(t *testing.T) {
	t.Parallel()

	// All-positive flows: NPV never crosses zero in the search interval.
	flows := flowsFromNet(100, 100, 100)

	_, err := Summarize(flows, model.Financing{}, testFinance())
	var cErr *model.ComputationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "irr", cErr.Op)
}

func TestSummarize_Payback(t *testing.T) {
	t.Parallel()

	t.Run("achieved", func(t *testing.T) {
		t.Parallel()
		flows := flowsFromNet(-1000, 400, 400, 400)
		kpi, err := Summarize(flows, model.Financing{}, testFinance())
		require.NoError(t, err)
		assert.True(t, kpi.PaybackAchieved)
		assert.Equal(t, 3, kpi.PaybackYear)
	})

	t.Run("not achieved within horizon", func(t *testing.T) {
		t.Parallel()
		flows := flowsFromNet(-1000, 100, 100)
		kpi, err := Summarize(flows, model.Financing{}, testFinance())
		require.NoError(t, err)
		assert.False(t, kpi.PaybackAchieved)
		assert.Zero(t, kpi.PaybackYear)
	})
}

func TestSummarize_DSCR(t *testing.T) {
	t.Parallel()

	t.Run("undefined without debt service", func(t *testing.T) {
		t.Parallel()
		flows := flowsFromNet(-1000, 600, 600)
		kpi, err := Summarize(flows, model.Financing{}, testFinance())
		require.NoError(t, err)
		assert.Nil(t, kpi.AvgDSCR)
		assert.True(t, kpi.DSCRPass, "coverage check passes vacuously")
	})

	t.Run("averaged over debt-service years only", func(t *testing.T) {
		t.Parallel()
		flows := []model.CashFlowYear{
			{Year: 0, NetCashFlow: -1000},
			{Year: 1, EBITDA: 300, DebtService: 200, NetCashFlow: 100},
			{Year: 2, EBITDA: 300, DebtService: 100, NetCashFlow: 200},
			{Year: 3, EBITDA: 300, NetCashFlow: 300}, // post-term, no debt service
		}
		kpi, err := Summarize(flows, model.Financing{}, testFinance())
		require.NoError(t, err)
		require.NotNil(t, kpi.AvgDSCR)
		// (300/200 + 300/100) / 2 = 2.25
		assert.InDelta(t, 2.25, *kpi.AvgDSCR, 1e-9)
		assert.True(t, kpi.DSCRPass)
	})

	t.Run("below minimum fails", func(t *testing.T) {
		t.Parallel()
		flows := []model.CashFlowYear{
			{Year: 0, NetCashFlow: -1000},
			{Year: 1, EBITDA: 210, DebtService: 200, NetCashFlow: 10},
		}
		fin := testFinance()
		fin.MinDSCR = 1.2
		kpi, err := Summarize(flows, model.Financing{}, fin)
		require.NoError(t, err)
		require.NotNil(t, kpi.AvgDSCR)
		assert.InDelta(t, 1.05, *kpi.AvgDSCR, 1e-9)
		assert.False(t, kpi.DSCRPass)
	})
}

func TestSummarize_ROE(t *testing.T) {
	t.Parallel()

	flows := flowsFromNet(-1000, 300, 300)

	t.Run("cumulative", func(t *testing.T) {
		t.Parallel()
		fin := testFinance()
		kpi, err := Summarize(flows, model.Financing{Equity: 400}, fin)
		require.NoError(t, err)
		assert.InDelta(t, 600.0/400.0, kpi.ROE, 1e-9)
	})

	t.Run("annualized", func(t *testing.T) {
		t.Parallel()
		fin := testFinance()
		fin.ROEBasis = "annualized"
		kpi, err := Summarize(flows, model.Financing{Equity: 400}, fin)
		require.NoError(t, err)
		assert.InDelta(t, 600.0/400.0/2, kpi.ROE, 1e-9)
	})

	t.Run("zero equity reports zero", func(t *testing.T) {
		t.Parallel()
		kpi, err := Summarize(flows, model.Financing{Equity: 0}, testFinance())
		require.NoError(t, err)
		assert.Zero(t, kpi.ROE)
	})
}

func TestSummarize_SequenceValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flows []model.CashFlowYear
	}{
		{"too short", []model.CashFlowYear{{Year: 0}}},
		{"gap in years", []model.CashFlowYear{{Year: 0}, {Year: 2}}},
		{"does not start at zero", []model.CashFlowYear{{Year: 1}, {Year: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Summarize(tt.flows, model.Financing{}, testFinance())
			var vErr *model.ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestNPV(t *testing.T) {
	t.Parallel()

	flows := flowsFromNet(-1000, 1100)
	// At a 10% discount rate the projection breaks exactly even.
	assert.InDelta(t, 0.0, npv(flows, 0.10), 1e-9)
	assert.Greater(t, npv(flows, 0.05), 0.0)
	assert.Less(t, npv(flows, 0.15), 0.0)
}
