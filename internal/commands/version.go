package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/update"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "embrace-wizard %s\n", Version)
			if check, _ := cmd.Flags().GetBool("check"); !check {
				return nil
			}
			ui := newUI(cmd, false)
			r := update.NewChecker().Latest(cmd.Context(), Version)
			switch {
			case r == nil:
				ui.Warning("Could not check for updates")
			case r.NeedsUpdate():
				ui.Info(fmt.Sprintf("Version %s is available: %s", r.Latest, r.UpdateURL))
			default:
				ui.Success("Up to date")
			}
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "check GitHub for a newer release")
	return cmd
}
