package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridfin/minigrid-cli/internal/loader"
	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/scoring"
)

var (
	scoreInput  string
	scoreOutput string
	scoreFormat string
	scoreLimit  int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank candidate sites",
	Long: `Reads a site batch (CSV, XLSX, GeoJSON, or shapefile), normalizes each
criterion, and ranks sites by weighted composite viability score.

Examples:
  # Rank a CSV batch, print a table
  minigrid score --input sites.csv

  # Top 10 as CSV
  minigrid score --input sites.xlsx --limit 10 --format csv --output ranked.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("scoring"); err != nil {
			return err
		}

		sites, err := loader.LoadSites(scoreInput)
		if err != nil {
			return eris.Wrap(err, "score: load sites")
		}
		zap.L().Info("loaded sites", zap.Int("count", len(sites)))

		scored, skipped, err := scoring.Score(sites, cfg.Scoring)
		if err != nil {
			return eris.Wrap(err, "score: rank sites")
		}
		if len(skipped) > 0 {
			zap.L().Warn("skipped invalid sites", zap.Int("count", len(skipped)))
		}

		if scoreLimit > 0 && scoreLimit < len(scored) {
			scored = scored[:scoreLimit]
		}

		out := os.Stdout
		if scoreOutput != "" {
			f, err := os.Create(scoreOutput)
			if err != nil {
				return eris.Wrap(err, "score: create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		switch scoreFormat {
		case "table":
			formatScoreTable(out, scored)
		case "csv":
			if err := writeScoreCSV(out, scored); err != nil {
				return err
			}
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(scored); err != nil {
				return eris.Wrap(err, "score: encode json")
			}
		default:
			return eris.Errorf("score: unknown format %q (table, csv, json)", scoreFormat)
		}

		zap.L().Info("scoring complete",
			zap.Int("ranked", len(scored)),
			zap.Int("skipped", len(skipped)),
		)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "path to site batch (.csv, .xlsx, .geojson, .shp) (required)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "write output to file (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "table", "output format: table, csv, or json")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 0, "max sites to output (0 = all)")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}

// formatScoreTable writes a ranked site table to w.
func formatScoreTable(out io.Writer, scored []model.ScoredSite) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tID\tNAME\tSCORE\tTIER\tPOP\tGRID_KM")
	_, _ = fmt.Fprintln(w, "----\t--\t----\t-----\t----\t---\t-------")
	for _, s := range scored {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\t%.0f\t%.1f\n",
			s.Rank, s.ID, s.Name, s.ViabilityScore, s.Tier, s.Population, s.GridDistanceKM)
	}
	_ = w.Flush()
}

func writeScoreCSV(out io.Writer, scored []model.ScoredSite) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"rank", "site_id", "name", "viability_score", "tier"}); err != nil {
		return eris.Wrap(err, "score: write csv header")
	}
	for _, s := range scored {
		row := []string{
			strconv.Itoa(s.Rank), s.ID, s.Name,
			fmt.Sprintf("%.1f", s.ViabilityScore), string(s.Tier),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "score: write csv row for site %s", s.ID)
		}
	}
	return nil
}
