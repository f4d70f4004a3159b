package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packrat-dev/packrat/internal/audit"
)

// BackupStatus is the JSON payload for "backup status".
type BackupStatus struct {
	Latest string `json:"latest,omitempty"`
	Stale  bool   `json:"stale"`
}

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and inspect database backups",
	}

	cmd.AddCommand(newBackupCreateCommand(rootOpts))
	cmd.AddCommand(newBackupStatusCommand(rootOpts))

	return cmd
}

func newBackupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create",
		Short:         "Copy the database into the backup directory",
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

			path, err := a.Backups.Create(cmd.Context())
			if err != nil {
				return failDomain(formatter, err)
			}

			a.Log.Info().Str("file", path).Msg("Database backed up")

			if formatter.Format == "json" {
				return formatter.Success(map[string]interface{}{"file": path})
			}
			fmt.Fprintf(formatter.Writer, "Backed up to %s\n", path)
			return nil
		},
	}
}

func newBackupStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Report the age of the newest backup",
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

			latest, found, err := a.Backups.LatestTimestamp()
			if err != nil {
				return failDomain(formatter, err)
			}
			stale, err := a.Backups.IsStale(a.BackupMaxAge())
			if err != nil {
				return failDomain(formatter, err)
			}

			status := BackupStatus{Stale: stale}
			if found {
				status.Latest = latest.Format(audit.TimeLayout)
			}

			if formatter.Format == "json" {
				return formatter.Success(status)
			}

			if !found {
				fmt.Fprintln(formatter.Writer, "No backups yet")
			} else {
				fmt.Fprintf(formatter.Writer, "Latest backup: %s\n", status.Latest)
			}
			if stale {
				fmt.Fprintf(formatter.Writer,
					"Warning: no backup within the last %d days\n", a.Config.BackupMaxAgeDays)
				return NewExitError(ExitFailure, "backup is stale")
			}
			return nil
		},
	}
}
