package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/setup"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which parts of the Embrace setup are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			ui := newUI(cmd, cfg.Verbose)
			if asJSON {
				// stdout carries only the report
				ui = terminal.New(cmd.ErrOrStderr(), terminal.WithVerbose(cfg.Verbose))
			}
			env := setup.Env{Config: cfg, Out: ui}

			var checks []setup.Check
			_ = ui.Step("Inspecting project...", func() error {
				checks = setup.Status(cmd.Context(), env)
				return nil
			})

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(checks)
			}

			ui.Header("Embrace setup in " + cfg.ProjectRoot)
			for _, c := range checks {
				switch {
				case c.Err != nil:
					ui.Error(c.Name + ": " + c.Error)
				case c.Installed:
					ui.Success(c.Name)
				default:
					ui.Warning(c.Name + " is not set up")
				}
				if c.Path != "" {
					ui.Detail("file", c.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}
