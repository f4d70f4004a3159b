package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/internal/audit"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the audit trail",
	}

	cmd.AddCommand(newHistoryListCommand(rootOpts))
	cmd.AddCommand(newHistoryStatsCommand(rootOpts))

	return cmd
}

func newHistoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var action, entity, name string
	var limit int

	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List audit entries, newest first",
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

			entries, err := a.Audit.Query(cmd.Context(), audit.Filter{
				Action:       audit.Action(action),
				EntityType:   audit.EntityType(entity),
				NameContains: name,
				Limit:        limit,
			})
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			printEntries(formatter, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "filter by action (CREATE, UPDATE, DELETE, ...)")
	cmd.Flags().StringVar(&entity, "entity", "", "filter by entity type (BOX, ITEM, ...)")
	cmd.Flags().StringVar(&name, "name", "", "filter by entity name substring")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("max entries (default %d)", audit.DefaultQueryLimit))
	return cmd
}

func newHistoryStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show entry counts per action",
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

			stats, err := a.Audit.Stats(cmd.Context())
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(stats)
			}

			actions := make([]string, 0, len(stats))
			for action := range stats {
				actions = append(actions, string(action))
			}
			sort.Strings(actions)
			for _, action := range actions {
				fmt.Fprintf(formatter.Writer, "%s\t%d\n", action, stats[audit.Action(action)])
			}
			return nil
		},
	}
}

func printEntries(formatter *OutputFormatter, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No audit entries")
		return
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tENTITY\tNAME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp, e.Action, e.EntityType, e.EntityName, e.Details)
	}
	w.Flush()
}
