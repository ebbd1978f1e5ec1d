package finance

import (
	"fmt"
	"math"

	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

// IRR root search interval. A cash-flow sequence whose NPV has no sign change
// across this range has no reportable IRR.
const (
	IRRSearchLo = -0.5
	IRRSearchHi = 2.0
)

const (
	irrMaxIterations = 200
	irrTolerance     = 1e-9
)

// Summarize derives the bankability KPIs from a full cash-flow sequence.
//
// NPV discounts years 1..N at the configured discount rate; year 0 enters
// undiscounted as the negative outlay. IRR is solved by bisection over
// [IRRSearchLo, IRRSearchHi] and fails with a ComputationError when the NPV
// has no sign change there. DSCR is only defined for years with debt service;
// with no such years AvgDSCR is nil and the coverage check passes vacuously.
func Summarize(flows []model.CashFlowYear, financing model.Financing, fin config.FinanceConfig) (model.KPISummary, error) {
	if err := checkSequence(flows); err != nil {
		return model.KPISummary{}, err
	}

	summary := model.KPISummary{
		NPV: npv(flows, fin.DiscountRate),
	}

	irr, err := solveIRR(flows)
	if err != nil {
		return model.KPISummary{}, err
	}
	summary.IRR = irr
	summary.IRRPass = irr >= fin.HurdleRate

	summary.PaybackYear, summary.PaybackAchieved = payback(flows)

	summary.AvgDSCR = avgDSCR(flows)
	if summary.AvgDSCR == nil {
		// No debt service anywhere: nothing to cover.
		summary.DSCRPass = true
	} else {
		summary.DSCRPass = *summary.AvgDSCR >= fin.MinDSCR
	}

	summary.ROE = roe(flows, financing, fin)

	return summary, nil
}

// checkSequence requires a contiguous year sequence starting at 0.
func checkSequence(flows []model.CashFlowYear) error {
	if len(flows) < 2 {
		return model.NewValidationError("cashflows", len(flows), "sequence needs year 0 plus at least one operating year")
	}
	for i, f := range flows {
		if f.Year != i {
			return model.NewValidationError("cashflows", f.Year, fmt.Sprintf("year %d out of sequence at index %d", f.Year, i))
		}
	}
	return nil
}

// npv sums discounted net cash flows; year 0 is undiscounted.
func npv(flows []model.CashFlowYear, rate float64) float64 {
	var sum float64
	for _, f := range flows {
		sum += f.NetCashFlow / math.Pow(1+rate, float64(f.Year))
	}
	return sum
}

// solveIRR finds the discount rate where NPV crosses zero, by bisection.
func solveIRR(flows []model.CashFlowYear) (float64, error) {
	lo, hi := IRRSearchLo, IRRSearchHi
	fLo, fHi := npv(flows, lo), npv(flows, hi)

	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	if fLo*fHi > 0 {
		return 0, model.NewComputationError("irr",
			fmt.Sprintf("no root in search interval [%.2f, %.2f]", lo, hi))
	}

	for i := 0; i < irrMaxIterations && hi-lo > irrTolerance; i++ {
		mid := (lo + hi) / 2
		fMid := npv(flows, mid)
		if fMid == 0 {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2, nil
}

// payback returns the first year where cumulative net cash flow reaches zero.
func payback(flows []model.CashFlowYear) (int, bool) {
	var cumulative float64
	for _, f := range flows {
		cumulative += f.NetCashFlow
		if cumulative >= 0 {
			return f.Year, true
		}
	}
	return 0, false
}

// avgDSCR averages EBITDA over debt service across years where debt service
// is positive. Returns nil when no year has debt service: DSCR is undefined
// there, never zero and never a division.
func avgDSCR(flows []model.CashFlowYear) *float64 {
	var sum float64
	var n int
	for _, f := range flows {
		if f.DebtService > 0 {
			sum += f.EBITDA / f.DebtService
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// roe reports cumulative (or annualized) equity-holder net cash flow over the
// initial equity contribution. Zero equity reports zero.
func roe(flows []model.CashFlowYear, financing model.Financing, fin config.FinanceConfig) float64 {
	if financing.Equity <= 0 {
		return 0
	}
	var cumulative float64
	for _, f := range flows {
		if f.Year == 0 {
			continue
		}
		cumulative += f.NetCashFlow
	}
	r := cumulative / financing.Equity
	if fin.ROEBasis == "annualized" {
		r /= float64(len(flows) - 1)
	}
	return r
}
