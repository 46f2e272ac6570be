package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	simQueries "github.com/andrescamacho/factorysim-go/internal/application/simulation/queries"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "inspect [machine-id]",
		Short: "Show the checkpointed state of the world or one machine",
		Long: `Load the world's last checkpoint and print it without ticking.

Without an argument every machine is listed; with a machine id its full
state is printed as JSON.

Examples:
  factorysim inspect
  factorysim inspect --kind boiler
  factorysim inspect 0b9f3c2e-8d4f-4c84-9a7e-2f1f6b1f5c11`,
		Args: cobra.MaximumNArgs(1),
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

			ctx := a.withLogger(cmd.Context())
			if _, err := a.runner.Restore(ctx, a.factory); err != nil {
				return fmt.Errorf("failed to restore world: %w", err)
			}

			if len(args) == 1 {
				resp, err := a.mediator.Send(ctx, &simQueries.InspectMachineQuery{MachineID: args[0]})
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(resp.(*simQueries.InspectMachineResponse).Machine, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			resp, err := a.mediator.Send(ctx, &simQueries.ListMachinesQuery{Kind: kind})
			if err != nil {
				return err
			}
			list := resp.(*simQueries.ListMachinesResponse)
			fmt.Printf("World %s at tick %d (%d machines)\n\n", list.World, list.Tick, len(list.Machines))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tPOSITION\tFACING\tSTATUS")
			for _, m := range list.Machines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Kind, m.Pos, m.Facing, status(m))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list machines of this kind")

	return cmd
}

// status summarises the most telling component of a machine
func status(m *simQueries.MachineView) string {
	switch {
	case m.Structure != "" && m.Structure != string(structure.StateValid):
		return "structure " + m.Structure
	case m.Generator != nil:
		return fmt.Sprintf("%s %d/%d", m.Generator.Phase, m.Generator.BurnTime, m.Generator.MaxBurnTime)
	case m.Processing != nil:
		if m.Processing.Recipe != "" {
			return fmt.Sprintf("%s %s %d/%d", m.Processing.Phase, m.Processing.Recipe, m.Processing.Progress, m.Processing.Total)
		}
		return m.Processing.Phase
	case m.Energy != nil:
		return fmt.Sprintf("%.0f/%.0f FE", m.Energy.Stored, m.Energy.Capacity)
	}
	return "-"
}
