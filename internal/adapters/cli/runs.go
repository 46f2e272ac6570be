package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	simQueries "github.com/andrescamacho/factorysim-go/internal/application/simulation/queries"
)

// NewRunsCommand creates the runs command
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent simulation runs of the world",
		Long: `Print the run history recorded at the end of every run, newest first.

Examples:
  factorysim runs
  factorysim runs --world demo --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a, err := newApp(cfg, runOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(a.withLogger(cmd.Context()), &simQueries.ListRunsQuery{Limit: limit})
			if err != nil {
				return err
			}
			list := resp.(*simQueries.ListRunsResponse)
			if len(list.Runs) == 0 {
				fmt.Printf("No runs recorded for world %s\n", list.World)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tSTATUS\tTICKS\tRECIPES\tENERGY\tCHECKPOINT ERRORS\tERROR")
			for _, r := range list.Runs {
				duration := "-"
				if r.StoppedAt != nil {
					duration = r.StoppedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), duration, r.Status,
					r.Ticks, r.Completed, r.EnergyGenerated, r.SnapshotErrors, r.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", simQueries.DefaultRunLimit, "Maximum number of runs to show")

	return cmd
}
