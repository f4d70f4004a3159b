package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/internal/app"
	"github.com/packrat-dev/packrat/internal/csvio"
)

// ImportReport is the JSON payload for import commands.
type ImportReport struct {
	Rows     int      `json:"rows"`
	Errors   []string `json:"errors,omitempty"`
	Imported int      `json:"imported,omitempty"`
	Failed   int      `json:"failed,omitempty"`
}

// NewImportCommand creates the import command group.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items from a CSV file",
		Long: `Import items from a CSV file with the header "Item Name,Box,Quantity".

"import validate" checks the file without writing anything; "import commit"
validates and then applies a fully clean file.`,
	}

	cmd.AddCommand(newImportValidateCommand(rootOpts))
	cmd.AddCommand(newImportCommitCommand(rootOpts))

	return cmd
}

func newImportValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <file>",
		Short:         "Check an import file without writing",
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

			preview, err := validateFile(a, cmd, args[0], formatter)
			if err != nil {
				return err
			}

			if len(preview.Errors) > 0 {
				return reportPreviewErrors(formatter, preview)
			}

			if formatter.Format == "json" {
				return formatter.Success(ImportReport{Rows: len(preview.Rows)})
			}
			fmt.Fprintf(formatter.Writer, "%d rows valid\n", len(preview.Rows))
			return nil
		},
	}
}

func newImportCommitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "commit <file>",
		Short:         "Validate and apply an import file",
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

			preview, err := validateFile(a, cmd, args[0], formatter)
			if err != nil {
				return err
			}
			if len(preview.Errors) > 0 {
				return reportPreviewErrors(formatter, preview)
			}

			result, err := a.Importer.Commit(cmd.Context(), preview)
			if err != nil {
				return failDomain(formatter, err)
			}

			a.Log.Info().
				Int("imported", result.Imported).
				Int("failed", result.Failed).
				Msg("CSV import committed")

			if formatter.Format == "json" {
				return formatter.Success(ImportReport{
					Rows:     len(preview.Rows),
					Imported: result.Imported,
					Failed:   result.Failed,
				})
			}
			fmt.Fprintf(formatter.Writer, "Imported %d items", result.Imported)
			if result.Failed > 0 {
				fmt.Fprintf(formatter.Writer, " (%d failed)", result.Failed)
			}
			fmt.Fprintln(formatter.Writer)
			return nil
		},
	}
}

func validateFile(a *app.App, cmd *cobra.Command, path string, formatter *OutputFormatter) (*csvio.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open import file", err)
	}
	defer f.Close()

	preview, err := a.Importer.Validate(cmd.Context(), f)
	if err != nil {
		return nil, failDomain(formatter, err)
	}
	return preview, nil
}

func reportPreviewErrors(formatter *OutputFormatter, preview *csvio.Preview) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ImportReport{
				Rows:   len(preview.Rows),
				Errors: preview.Errors,
			},
			Error: &CLIError{
				Code:    ErrCodeValidation,
				Message: preview.Errors[0],
			},
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(response)
	} else {
		invalid := 0
		for _, row := range preview.Rows {
			if len(row.Errs) > 0 {
				invalid++
			}
		}
		fmt.Fprintf(formatter.Writer, "%d of %d rows invalid:\n", invalid, len(preview.Rows))
		for _, msg := range preview.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
	}
	return NewExitError(ExitFailure,
		fmt.Sprintf("import validation failed with %d error(s)", len(preview.Errors)))
}
