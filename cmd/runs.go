package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridfin/minigrid-cli/internal/model"
	"github.com/gridfin/minigrid-cli/internal/report"
	"github.com/gridfin/minigrid-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved pipeline runs",
	Long:  "Commands for listing saved runs and viewing their pipeline results.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the pipeline results of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := st.GetRunResults(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results for that run.")
			return nil
		}

		formatRunResults(os.Stdout, results)
		return nil
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSCENARIO\tSITES\tVIABLE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t--------\t-----\t------\t-------")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			truncateID(r.ID), r.Scenario, r.SiteCount, r.ViableCount,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// formatRunResults writes stored pipeline rows to w.
func formatRunResults(out io.Writer, rows []model.PipelineRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tID\tNAME\tSCORE\tTIER\tNPV\tIRR\tPAYBACK\tDSCR\tVIABLE")
	for _, r := range rows {
		viable := r.IRRPass && r.DSCRPass
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\t%.0f\t%.2f%%\t%s\t%s\t%t\n",
			r.Rank, r.SiteID, r.Name, r.ViabilityScore, r.Tier,
			r.NPV, r.IRR*100, report.FormatPayback(r), report.FormatDSCR(r.AvgDSCR), viable)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
