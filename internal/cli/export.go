package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command group.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data as CSV",
	}

	cmd.AddCommand(newExportInventoryCommand(rootOpts))
	cmd.AddCommand(newExportAuditCommand(rootOpts))

	return cmd
}

func newExportInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "inventory <file>",
		Short:         "Export all items with their boxes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, cmd, args[0], "items",
				func(a appServices, ctx context.Context, w io.Writer) (int, error) {
					return a.ExportInventory(ctx, w)
				})
		},
	}
}

func newExportAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "audit <file>",
		Short:         "Export the audit log",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, cmd, args[0], "audit entries",
				func(a appServices, ctx context.Context, w io.Writer) (int, error) {
					return a.ExportAudit(ctx, w)
				})
		},
	}
}

// appServices is the slice of the exporter the export commands need.
type appServices interface {
	ExportInventory(ctx context.Context, w io.Writer) (int, error)
	ExportAudit(ctx context.Context, w io.Writer) (int, error)
}

func runExport(rootOpts *RootOptions, cmd *cobra.Command, path, noun string,
	export func(appServices, context.Context, io.Writer) (int, error)) error {

	formatter := newFormatter(rootOpts, cmd)

	a, err := openApp(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "create export file", err)
	}

	count, exportErr := export(a.Exporter, cmd.Context(), f)
	closeErr := f.Close()
	if exportErr != nil {
		os.Remove(path)
		return failDomain(formatter, exportErr)
	}
	if closeErr != nil {
		os.Remove(path)
		return WrapExitError(ExitCommandError, "flush export file", closeErr)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]interface{}{"count": count, "file": path})
	}
	fmt.Fprintf(formatter.Writer, "Exported %d %s to %s\n", count, noun, path)
	return nil
}
