package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/internal/inventory"
)

// NewItemCommand creates the item command group.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items",
	}

	cmd.AddCommand(newItemAddCommand(rootOpts))
	cmd.AddCommand(newItemListCommand(rootOpts))
	cmd.AddCommand(newItemUpdateCommand(rootOpts))
	cmd.AddCommand(newItemRemoveCommand(rootOpts))

	return cmd
}

func newItemAddCommand(rootOpts *RootOptions) *cobra.Command {
	var boxID int64
	var quantity int

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add an item to a box",
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

			id, err := a.Repo.CreateItem(cmd.Context(), args[0], boxID, quantity)
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Created item %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&boxID, "box", 0, "id of the box the item goes into")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "number of units")
	cmd.MarkFlagRequired("box")
	return cmd
}

func newItemListCommand(rootOpts *RootOptions) *cobra.Command {
	var search string
	var boxID int64

	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List items with their boxes",
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

			var boxFilter *int64
			if cmd.Flags().Changed("box") {
				boxFilter = &boxID
			}

			items, err := a.Repo.ListItems(cmd.Context(), search, boxFilter)
			if err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(items)
			}
			printItems(formatter, items)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by item name substring")
	cmd.Flags().Int64Var(&boxID, "box", 0, "only items in this box")
	return cmd
}

func newItemUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var name string
	var boxID int64
	var quantity int

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Rename, move, or recount an item",
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

			item, err := a.Repo.GetItem(cmd.Context(), id)
			if err != nil {
				return failDomain(formatter, err)
			}

			// Unchanged flags keep the current values.
			if !cmd.Flags().Changed("name") {
				name = item.Name
			}
			if !cmd.Flags().Changed("box") {
				boxID = item.BoxID
			}
			if !cmd.Flags().Changed("quantity") {
				quantity = item.Quantity
			}

			if err := a.Repo.UpdateItem(cmd.Context(), id, name, boxID, quantity); err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Updated item %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().Int64Var(&boxID, "box", 0, "id of the destination box")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "new unit count")
	return cmd
}

func newItemRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete an item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			if !yes {
				return NewExitError(ExitCommandError, "pass --yes to confirm the deletion")
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

			if err := a.Repo.DeleteItem(cmd.Context(), id); err != nil {
				return failDomain(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"id": id})
			}
			fmt.Fprintf(formatter.Writer, "Deleted item %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func printItems(formatter *OutputFormatter, items []inventory.ItemView) {
	if len(items) == 0 {
		fmt.Fprintln(formatter.Writer, "No items")
		return
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBOX\tQUANTITY")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", it.ID, it.Name, it.BoxName, it.Quantity)
	}
	w.Flush()
}
