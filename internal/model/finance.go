package model

// Segment names used in load profiles. Additional segments may appear in
// per-site override files; these two are always recognized.
const (
	SegmentHousehold     = "household"
	SegmentProductiveUse = "productive_use"
)

// CustomerSegment is a group of connections with a shared daily consumption.
type CustomerSegment struct {
	Name     string  `json:"name" yaml:"name" mapstructure:"name"`
	Count    int     `json:"count" yaml:"count" mapstructure:"count"`
	DailyKWh float64 `json:"daily_kwh" yaml:"daily_kwh" mapstructure:"daily_kwh"`
}

// LoadProfile is the demand side of one site: a set of customer segments.
type LoadProfile struct {
	SiteID   string            `json:"site_id,omitempty"`
	Segments []CustomerSegment `json:"segments"`
}

// Connections returns the total number of connected customers.
func (p LoadProfile) Connections() int {
	var n int
	for _, s := range p.Segments {
		n += s.Count
	}
	return n
}

// DailyEnergyKWh returns the aggregate daily energy need across segments.
func (p LoadProfile) DailyEnergyKWh() float64 {
	var kwh float64
	for _, s := range p.Segments {
		kwh += float64(s.Count) * s.DailyKWh
	}
	return kwh
}

// SystemSizing is the derived generation and storage capacity for a site.
type SystemSizing struct {
	DailyEnergyKWh     float64 `json:"daily_energy_kwh"`
	PVCapacityKW       float64 `json:"pv_capacity_kw"`
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"`
}

// FinancingScenario is a named capital-structure configuration,
// e.g. "Commercial Debt" or "Blended Finance".
type FinancingScenario struct {
	Name           string  `json:"name" yaml:"name" mapstructure:"name"`
	GrantFraction  float64 `json:"grant_fraction" yaml:"grant_fraction" mapstructure:"grant_fraction"`
	InterestRate   float64 `json:"interest_rate" yaml:"interest_rate" mapstructure:"interest_rate"`
	TermYears      int     `json:"term_years" yaml:"term_years" mapstructure:"term_years"`
	EquityFraction float64 `json:"equity_fraction" yaml:"equity_fraction" mapstructure:"equity_fraction"`
}

// CashFlowYear is one row of the projection waterfall. Year 0 carries the
// net CAPEX outlay; operating years run 1..N with no gaps.
type CashFlowYear struct {
	Year            int     `json:"year"`
	Revenue         float64 `json:"revenue"`
	OPEX            float64 `json:"opex"`
	EBITDA          float64 `json:"ebitda"`
	DebtService     float64 `json:"debt_service"`
	NetCashFlow     float64 `json:"net_cash_flow"`
	DebtOutstanding float64 `json:"debt_outstanding"`
}

// Financing is the year-0 capital breakdown of a projection.
type Financing struct {
	CAPEX    float64 `json:"capex"`
	Grant    float64 `json:"grant"`
	NetCAPEX float64 `json:"net_capex"`
	Debt     float64 `json:"debt"`
	Equity   float64 `json:"equity"`
}

// KPISummary holds the bankability metrics derived from a full cash-flow
// sequence. AvgDSCR is nil when no year has debt service (DSCR undefined).
// IRRPass and DSCRPass are independent checks, never collapsed into one flag.
type KPISummary struct {
	NPV             float64  `json:"npv"`
	IRR             float64  `json:"irr"`
	PaybackYear     int      `json:"payback_year"`
	PaybackAchieved bool     `json:"payback_achieved"`
	AvgDSCR         *float64 `json:"avg_dscr,omitempty"`
	ROE             float64  `json:"roe"`
	IRRPass         bool     `json:"irr_pass"`
	DSCRPass        bool     `json:"dscr_pass"`
}

// PipelineRow is one site's line in the Viable Pipeline report.
type PipelineRow struct {
	SiteID          string   `json:"site_id"`
	Name            string   `json:"name"`
	ViabilityScore  float64  `json:"viability_score"`
	Rank            int      `json:"rank"`
	Tier            Tier     `json:"tier"`
	PVCapacityKW    float64  `json:"pv_capacity_kw"`
	BatteryKWh      float64  `json:"battery_kwh"`
	CAPEX           float64  `json:"capex"`
	NPV             float64  `json:"npv"`
	IRR             float64  `json:"irr"`
	PaybackYear     int      `json:"payback_year"`
	PaybackAchieved bool     `json:"payback_achieved"`
	AvgDSCR         *float64 `json:"avg_dscr,omitempty"`
	IRRPass         bool     `json:"irr_pass"`
	DSCRPass        bool     `json:"dscr_pass"`
}
