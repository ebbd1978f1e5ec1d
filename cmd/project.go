package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridfin/minigrid-cli/internal/finance"
	"github.com/gridfin/minigrid-cli/internal/loader"
	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/report"
	"github.com/gridfin/minigrid-cli/internal/sizing"
)

var (
	projectInput    string
	projectSite     string
	projectScenario string
	projectSegments string
	projectFormat   string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project cash flows and KPIs for a single site",
	Long: `Sizes the PV and battery system for one site, projects the cash-flow
waterfall under a financing scenario, and prints the bankability KPIs.

Examples:
  # Project site S-001 under the default scenario
  minigrid project --input sites.csv --site S-001

  # Blended finance with a measured load profile
  minigrid project --input sites.csv --site S-001 --scenario "Blended Finance" --segments segments.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("finance"); err != nil {
			return err
		}

		site, err := resolveSite(projectInput, projectSite)
		if err != nil {
			return err
		}

		scenarioName := projectScenario
		if scenarioName == "" {
			scenarioName = cfg.Pipeline.Scenario
		}
		scenario, err := cfg.ScenarioByName(scenarioName)
		if err != nil {
			return err
		}

		profile, err := resolveProfile(site, projectSegments)
		if err != nil {
			return err
		}

		base := finance.BaseCase{
			Site:     site,
			Profile:  profile,
			Scenario: scenario,
			Sizing:   cfg.Sizing,
			Costs:    cfg.Costs,
			Finance:  cfg.Finance,
		}
		sz, financing, flows, kpi, err := finance.Evaluate(base)
		if err != nil {
			return eris.Wrapf(err, "project: evaluate site %s", site.ID)
		}

		if projectFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(projectResult{
				Site: site, Scenario: scenario, Sizing: sz,
				Financing: financing, CashFlows: flows, KPI: kpi,
			})
		}

		formatProjection(os.Stdout, site, scenario, sz, financing, flows, kpi)
		return nil
	},
}

func init() {
	projectCmd.Flags().StringVar(&projectInput, "input", "", "path to site batch (required)")
	projectCmd.Flags().StringVar(&projectSite, "site", "", "site ID to project (defaults to the only site in a single-site batch)")
	projectCmd.Flags().StringVar(&projectScenario, "scenario", "", "financing scenario name (default: pipeline.scenario)")
	projectCmd.Flags().StringVar(&projectSegments, "segments", "", "path to customer segments CSV (default: derive from population)")
	projectCmd.Flags().StringVar(&projectFormat, "format", "table", "output format: table or json")
	_ = projectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(projectCmd)
}

type projectResult struct {
	Site      model.SiteRecord        `json:"site"`
	Scenario  model.FinancingScenario `json:"scenario"`
	Sizing    model.SystemSizing      `json:"sizing"`
	Financing model.Financing         `json:"financing"`
	CashFlows []model.CashFlowYear    `json:"cash_flows"`
	KPI       model.KPISummary        `json:"kpi"`
}

// resolveSite loads the input batch and picks the requested site. When no ID
// is given a single-site batch resolves to that site.
func resolveSite(input, siteID string) (model.SiteRecord, error) {
	sites, err := loader.LoadSites(input)
	if err != nil {
		return model.SiteRecord{}, eris.Wrap(err, "project: load sites")
	}
	if siteID == "" {
		if len(sites) == 1 {
			return sites[0], nil
		}
		return model.SiteRecord{}, eris.Errorf("project: batch has %d sites, pick one with --site", len(sites))
	}
	for _, s := range sites {
		if s.ID == siteID {
			return s, nil
		}
	}
	return model.SiteRecord{}, eris.Errorf("project: site %q not found in %s", siteID, input)
}

// resolveProfile returns the measured load profile for a site when a segments
// file carries one, otherwise derives a default profile from population.
func resolveProfile(site model.SiteRecord, segmentsPath string) (model.LoadProfile, error) {
	if segmentsPath != "" {
		segments, err := loader.ReadSegmentsCSV(segmentsPath)
		if err != nil {
			return model.LoadProfile{}, eris.Wrap(err, "load segments")
		}
		if profile, ok := segments.ProfileFor(site.ID); ok {
			return profile, nil
		}
		zap.L().Warn("no segments for site, deriving from population",
			zap.String("site", site.ID))
	}
	return sizing.DeriveProfile(site, cfg.Demand), nil
}

// formatProjection writes the sizing, capital stack, waterfall, and KPI
// summary as human-readable tables.
func formatProjection(out io.Writer, site model.SiteRecord, scenario model.FinancingScenario,
	sz model.SystemSizing, financing model.Financing, flows []model.CashFlowYear, kpi model.KPISummary,
) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Site:\t%s (%s)\n", site.Name, site.ID)
	_, _ = fmt.Fprintf(w, "Scenario:\t%s\n", scenario.Name)
	_, _ = fmt.Fprintf(w, "Daily energy:\t%.1f kWh\n", sz.DailyEnergyKWh)
	_, _ = fmt.Fprintf(w, "PV capacity:\t%.1f kW\n", sz.PVCapacityKW)
	_, _ = fmt.Fprintf(w, "Battery:\t%.1f kWh\n", sz.BatteryCapacityKWh)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "CAPEX:\t%.0f\n", financing.CAPEX)
	_, _ = fmt.Fprintf(w, "Grant:\t%.0f\n", financing.Grant)
	_, _ = fmt.Fprintf(w, "Debt:\t%.0f\n", financing.Debt)
	_, _ = fmt.Fprintf(w, "Equity:\t%.0f\n", financing.Equity)
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "YEAR\tREVENUE\tOPEX\tEBITDA\tDEBT_SVC\tNET_CF\tDEBT_OUT")
	for _, y := range flows {
		_, _ = fmt.Fprintf(w, "%d\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			y.Year, y.Revenue, y.OPEX, y.EBITDA, y.DebtService, y.NetCashFlow, y.DebtOutstanding)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "NPV:\t%.0f\n", kpi.NPV)
	_, _ = fmt.Fprintf(w, "IRR:\t%.2f%%\n", kpi.IRR*100)
	_, _ = fmt.Fprintf(w, "Payback:\t%s\n", report.FormatPayback(model.PipelineRow{
		PaybackYear: kpi.PaybackYear, PaybackAchieved: kpi.PaybackAchieved,
	}))
	_, _ = fmt.Fprintf(w, "Avg DSCR:\t%s\n", report.FormatDSCR(kpi.AvgDSCR))
	_, _ = fmt.Fprintf(w, "ROE:\t%.2f%%\n", kpi.ROE*100)
	_, _ = fmt.Fprintf(w, "IRR pass:\t%t\n", kpi.IRRPass)
	_, _ = fmt.Fprintf(w, "DSCR pass:\t%t\n", kpi.DSCRPass)
	_ = w.Flush()
}
