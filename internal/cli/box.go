package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/internal/inventory"
)

// NewBoxCommand creates the box command group.
func NewBoxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "box",
		Short: "Manage boxes",
	}

	cmd.AddCommand(newBoxAddCommand(rootOpts))
	cmd.AddCommand(newBoxListCommand(rootOpts))
	cmd.AddCommand(newBoxUpdateCommand(rootOpts))
	cmd.AddCommand(newBoxRemoveCommand(rootOpts))

	return cmd
}

func newBoxAddCommand(rootOpts *RootOptions) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Create a new box",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Repo.CreateBox(cmd.Context(), args[0], location)
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Created box %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "where the box lives (optional)")
	return cmd
}

func newBoxListCommand(rootOpts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List boxes",
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

			boxes, err := a.Repo.ListBoxes(cmd.Context(), search)
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(boxes)
			}
			printBoxes(formatter, boxes)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by name or location substring")
	return cmd
}

func newBoxUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var name, location string

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Rename or relocate a box",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			box, err := a.Repo.GetBox(cmd.Context(), id)
			if err != nil {
				return failDomain(formatter, err)
			}

			// Unchanged flags keep the current values.
			if !cmd.Flags().Changed("name") {
				name = box.Name
			}
			if !cmd.Flags().Changed("location") {
				location = box.Location
			}

			if err := a.Repo.UpdateBox(cmd.Context(), id, name, location); err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Updated box %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&location, "location", "", "new location (empty clears it)")
	return cmd
}

func newBoxRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete a box and everything in it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			if !yes {
				return NewExitError(ExitCommandError,
					"deleting a box also deletes its items; pass --yes to confirm")
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Repo.DeleteBox(cmd.Context(), id); err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Deleted box %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func printBoxes(formatter *OutputFormatter, boxes []inventory.Box) {
	if len(boxes) == 0 {
		fmt.Fprintln(formatter.Writer, "No boxes")
		return
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION")
	for _, b := range boxes {
		fmt.Fprintf(w, "%d\t%s\t%s\n", b.ID, b.Name, b.Location)
	}
	w.Flush()
}

// parseID parses a positional numeric id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", arg))
	}
	return id, nil
}
