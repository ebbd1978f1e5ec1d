package main

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridfin/minigrid-cli/internal/finance"
	"github.com/gridfin/minigrid-cli/internal/loader"
	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/report"
	"github.com/gridfin/minigrid-cli/internal/scoring"
	"github.com/gridfin/minigrid-cli/internal/sizing"
)

var (
	pipelineInput       string
	pipelineSegments    string
	pipelineScenario    string
	pipelineOutput      string
	pipelineXLSX        string
	pipelineMinScore    float64
	pipelineTopN        int
	pipelineConcurrency int
	pipelineSave        bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full scoring-to-report pipeline on a site batch",
	Long: `Scores a site batch, keeps sites above the viability cutoff, sizes and
projects each one under a financing scenario, and writes the Viable Pipeline
report.

Examples:
  # Full run, CSV report to stdout
  minigrid pipeline --input sites.csv

  # Blended finance, top 20 sites, XLSX workbook, persist the run
  minigrid pipeline --input sites.csv --scenario "Blended Finance" --top-n 20 --xlsx pipeline.xlsx --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("scoring"); err != nil {
			return err
		}
		if err := cfg.Validate("finance"); err != nil {
			return err
		}

		scenarioName := pipelineScenario
		if scenarioName == "" {
			scenarioName = cfg.Pipeline.Scenario
		}
		scenario, err := cfg.ScenarioByName(scenarioName)
		if err != nil {
			return err
		}

		sites, err := loader.LoadSites(pipelineInput)
		if err != nil {
			return eris.Wrap(err, "pipeline: load sites")
		}
		zap.L().Info("loaded sites", zap.Int("count", len(sites)))

		var segments loader.Segments
		if pipelineSegments != "" {
			segments, err = loader.ReadSegmentsCSV(pipelineSegments)
			if err != nil {
				return eris.Wrap(err, "pipeline: load segments")
			}
		}

		scored, skipped, err := scoring.Score(sites, cfg.Scoring)
		if err != nil {
			return eris.Wrap(err, "pipeline: score sites")
		}

		// Viability cutoff and optional top-N cap, applied in rank order.
		minScore := pipelineMinScore
		if !cmd.Flags().Changed("min-score") {
			minScore = cfg.Pipeline.MinScore
		}
		topN := pipelineTopN
		if !cmd.Flags().Changed("top-n") {
			topN = cfg.Pipeline.TopN
		}
		var candidates []model.ScoredSite
		for _, s := range scored {
			if s.ViabilityScore < minScore {
				continue
			}
			candidates = append(candidates, s)
		}
		if topN > 0 && topN < len(candidates) {
			candidates = candidates[:topN]
		}
		zap.L().Info("candidates selected",
			zap.Int("scored", len(scored)),
			zap.Int("candidates", len(candidates)),
			zap.Float64("min_score", minScore),
		)

		// Project each candidate concurrently. A failed projection drops the
		// site from the report but never aborts the batch.
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(pipelineConcurrency)

		var mu sync.Mutex
		var rows []model.PipelineRow
		var failed atomic.Int64

		for _, s := range candidates {
			g.Go(func() error {
				profile := profileForSite(s.SiteRecord, segments)
				base := finance.BaseCase{
					Site:     s.SiteRecord,
					Profile:  profile,
					Scenario: scenario,
					Sizing:   cfg.Sizing,
					Costs:    cfg.Costs,
					Finance:  cfg.Finance,
				}
				sz, financing, _, kpi, evalErr := finance.Evaluate(base)
				if evalErr != nil {
					failed.Add(1)
					zap.L().Error("pipeline: site projection failed",
						zap.String("site", s.ID),
						zap.Error(evalErr),
					)
					return nil
				}

				mu.Lock()
				rows = append(rows, model.PipelineRow{
					SiteID:          s.ID,
					Name:            s.Name,
					ViabilityScore:  s.ViabilityScore,
					Rank:            s.Rank,
					Tier:            s.Tier,
					PVCapacityKW:    sz.PVCapacityKW,
					BatteryKWh:      sz.BatteryCapacityKWh,
					CAPEX:           financing.CAPEX,
					NPV:             kpi.NPV,
					IRR:             kpi.IRR,
					PaybackYear:     kpi.PaybackYear,
					PaybackAchieved: kpi.PaybackAchieved,
					AvgDSCR:         kpi.AvgDSCR,
					IRRPass:         kpi.IRRPass,
					DSCRPass:        kpi.DSCRPass,
				})
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })

		out := os.Stdout
		if pipelineOutput != "" {
			f, err := os.Create(pipelineOutput)
			if err != nil {
				return eris.Wrap(err, "pipeline: create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := report.WriteCSV(out, rows); err != nil {
			return err
		}
		if pipelineXLSX != "" {
			if err := report.WriteXLSX(pipelineXLSX, rows); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", pipelineXLSX))
		}

		if pipelineSave {
			st, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "pipeline: init store")
			}
			defer st.Close() //nolint:errcheck

			run, err := st.SaveRun(ctx, scenario.Name, rows)
			if err != nil {
				return eris.Wrap(err, "pipeline: save run")
			}
			fmt.Fprintf(os.Stderr, "Saved run %s\n", run.ID)
		}

		zap.L().Info("pipeline complete",
			zap.Int("sites", len(sites)),
			zap.Int("skipped", len(skipped)),
			zap.Int("reported", len(rows)),
			zap.Int64("failed", failed.Load()),
			zap.String("scenario", scenario.Name),
		)
		return nil
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineInput, "input", "", "path to site batch (.csv, .xlsx, .geojson, .shp) (required)")
	pipelineCmd.Flags().StringVar(&pipelineSegments, "segments", "", "path to customer segments CSV (default: derive from population)")
	pipelineCmd.Flags().StringVar(&pipelineScenario, "scenario", "", "financing scenario name (default: pipeline.scenario)")
	pipelineCmd.Flags().StringVar(&pipelineOutput, "output", "", "write CSV report to file (default: stdout)")
	pipelineCmd.Flags().StringVar(&pipelineXLSX, "xlsx", "", "also write an XLSX workbook to this path")
	pipelineCmd.Flags().Float64Var(&pipelineMinScore, "min-score", 40, "viability score cutoff")
	pipelineCmd.Flags().IntVar(&pipelineTopN, "top-n", 0, "cap the report at the N best-ranked sites (0 = all)")
	pipelineCmd.Flags().IntVar(&pipelineConcurrency, "concurrency", 4, "max sites to project concurrently")
	pipelineCmd.Flags().BoolVar(&pipelineSave, "save", false, "persist the run to the configured store")
	_ = pipelineCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(pipelineCmd)
}

// profileForSite prefers a measured segment profile, falling back to the
// population-derived default.
func profileForSite(site model.SiteRecord, segments loader.Segments) model.LoadProfile {
	if profile, ok := segments.ProfileFor(site.ID); ok {
		return profile
	}
	return sizing.DeriveProfile(site, cfg.Demand)
}
