package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent install and uninstall runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ui := newUI(cmd, cfg.Verbose)
			store := history.NewStore(cfg.StateDir)

			if clear, _ := cmd.Flags().GetBool("clear"); clear {
				if err := store.Clear(); err != nil {
					return err
				}
				ui.Success("History cleared")
				return nil
			}

			root := cfg.ProjectRoot
			if all, _ := cmd.Flags().GetBool("all"); all {
				root = ""
			}
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.Recent(root, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				ui.Info("No runs recorded")
				return nil
			}
			for _, r := range runs {
				line := fmt.Sprintf("%s %s %s (%d/%d steps)", r.FinishedAt.Local().Format("2006-01-02 15:04"),
					r.Command, r.ProjectRoot, len(r.Completed), len(r.Completed)+len(r.Incomplete))
				if r.DryRun {
					line += " [dry run]"
				}
				if r.Succeeded() {
					ui.Success(line)
				} else {
					ui.Error(line)
					if r.Error != "" {
						ui.Detail("error", r.Error)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "include runs for every project")
	cmd.Flags().Int("limit", 10, "number of runs to show")
	cmd.Flags().Bool("clear", false, "delete the run history")
	return cmd
}
