package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List configured financing scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("finance"); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tGRANT\tRATE\tTERM\tEQUITY")
		_, _ = fmt.Fprintln(w, "----\t-----\t----\t----\t------")
		for _, s := range cfg.Scenarios {
			_, _ = fmt.Fprintf(w, "%s\t%.0f%%\t%.2f%%\t%dy\t%.0f%%\n",
				s.Name, s.GrantFraction*100, s.InterestRate*100, s.TermYears, s.EquityFraction*100)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
