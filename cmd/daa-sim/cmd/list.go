package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/picogrid/daidalus-go/cmd/daa-sim/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundled example scenarios",
	RunE:  listScenarios,
}

func listScenarios(cmd *cobra.Command, args []string) error {
	scenarios, err := scenario.Bundled()
	if err != nil {
		return fmt.Errorf("discover bundled scenarios: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTRAFFIC\tDURATION\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------\t-----------")
	for _, s := range scenarios {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.0fs\t%s\n", s.Name, len(s.Traffic), s.DurationSec, s.Description)
	}
	return w.Flush()
}
