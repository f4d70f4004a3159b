package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show inventory totals and per-box counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Repo.InventoryStats(cmd.Context())
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(stats)
			}

			fmt.Fprintf(formatter.Writer, "Boxes: %d\n", stats.TotalBoxes)
			fmt.Fprintf(formatter.Writer, "Items: %d\n", stats.TotalItems)
			fmt.Fprintf(formatter.Writer, "Total quantity: %d\n", stats.TotalQuantity)

			if len(stats.PerBox) == 0 {
				return nil
			}
			fmt.Fprintln(formatter.Writer)
			w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BOX\tITEMS\tQUANTITY")
			for _, b := range stats.PerBox {
				fmt.Fprintf(w, "%s\t%d\t%d\n", b.BoxName, b.Items, b.Quantity)
			}
			w.Flush()
			return nil
		},
	}
}
