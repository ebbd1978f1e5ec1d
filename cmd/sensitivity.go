package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridfin/minigrid-cli/internal/finance"
	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/report"
)

var (
	sensitivityInput    string
	sensitivitySite     string
	sensitivityScenario string
	sensitivitySegments string
	sensitivityParam    string
	sensitivityFrom     float64
	sensitivityTo       float64
	sensitivitySteps    int
	sensitivityValues   []float64
	sensitivityFormat   string
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Sweep one assumption and report the KPI response",
	Long: `Re-evaluates a single site across a range of values for one parameter,
holding everything else fixed. Sweepable parameters: tariff, grant_fraction,
battery_cost.

Examples:
  # Tariff sweep from 0.40 to 0.80 in 9 steps
  minigrid sensitivity --input sites.csv --site S-001 --param tariff --from 0.40 --to 0.80 --steps 9

  # Explicit grant fractions
  minigrid sensitivity --input sites.csv --site S-001 --param grant_fraction --values 0,0.2,0.4,0.6`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("finance"); err != nil {
			return err
		}

		site, err := resolveSite(sensitivityInput, sensitivitySite)
		if err != nil {
			return err
		}

		scenarioName := sensitivityScenario
		if scenarioName == "" {
			scenarioName = cfg.Pipeline.Scenario
		}
		scenario, err := cfg.ScenarioByName(scenarioName)
		if err != nil {
			return err
		}

		profile, err := resolveProfile(site, sensitivitySegments)
		if err != nil {
			return err
		}

		values := sensitivityValues
		if len(values) == 0 {
			values, err = sweepRange(sensitivityFrom, sensitivityTo, sensitivitySteps)
			if err != nil {
				return err
			}
		}

		base := finance.BaseCase{
			Site:     site,
			Profile:  profile,
			Scenario: scenario,
			Sizing:   cfg.Sizing,
			Costs:    cfg.Costs,
			Finance:  cfg.Finance,
		}
		points, err := finance.RunSensitivity(base, sensitivityParam, values)
		if err != nil {
			return eris.Wrapf(err, "sensitivity: sweep %s for site %s", sensitivityParam, site.ID)
		}

		if sensitivityFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		}
		formatSweepTable(os.Stdout, sensitivityParam, points)
		return nil
	},
}

func init() {
	sensitivityCmd.Flags().StringVar(&sensitivityInput, "input", "", "path to site batch (required)")
	sensitivityCmd.Flags().StringVar(&sensitivitySite, "site", "", "site ID to sweep (defaults to the only site in a single-site batch)")
	sensitivityCmd.Flags().StringVar(&sensitivityScenario, "scenario", "", "financing scenario name (default: pipeline.scenario)")
	sensitivityCmd.Flags().StringVar(&sensitivitySegments, "segments", "", "path to customer segments CSV")
	sensitivityCmd.Flags().StringVar(&sensitivityParam, "param", "", "parameter to sweep: tariff, grant_fraction, or battery_cost (required)")
	sensitivityCmd.Flags().Float64Var(&sensitivityFrom, "from", 0, "sweep range start")
	sensitivityCmd.Flags().Float64Var(&sensitivityTo, "to", 0, "sweep range end")
	sensitivityCmd.Flags().IntVar(&sensitivitySteps, "steps", 5, "number of evenly spaced sweep points")
	sensitivityCmd.Flags().Float64SliceVar(&sensitivityValues, "values", nil, "explicit sweep values (overrides --from/--to/--steps)")
	sensitivityCmd.Flags().StringVar(&sensitivityFormat, "format", "table", "output format: table or json")
	_ = sensitivityCmd.MarkFlagRequired("input")
	_ = sensitivityCmd.MarkFlagRequired("param")
	rootCmd.AddCommand(sensitivityCmd)
}

// sweepRange builds n evenly spaced values across [from, to].
func sweepRange(from, to float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, eris.Errorf("sensitivity: steps must be >= 1, got %d", n)
	}
	if n == 1 {
		return []float64{from}, nil
	}
	values := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range values {
		values[i] = from + float64(i)*step
	}
	return values, nil
}

// formatSweepTable writes one row per sweep point.
func formatSweepTable(out io.Writer, param string, points []finance.SweepPoint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\tNPV\tIRR\tPAYBACK\tAVG_DSCR\tIRR_PASS\tDSCR_PASS\n", param)
	for _, p := range points {
		_, _ = fmt.Fprintf(w, "%.3f\t%.0f\t%.2f%%\t%s\t%s\t%t\t%t\n",
			p.Value, p.KPI.NPV, p.KPI.IRR*100,
			report.FormatPayback(model.PipelineRow{
				PaybackYear: p.KPI.PaybackYear, PaybackAchieved: p.KPI.PaybackAchieved,
			}),
			report.FormatDSCR(p.KPI.AvgDSCR),
			p.KPI.IRRPass, p.KPI.DSCRPass,
		)
	}
	_ = w.Flush()
}
