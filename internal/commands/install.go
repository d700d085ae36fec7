package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/config"
	"github.com/embrace-io/embrace-wizard/internal/history"
	"github.com/embrace-io/embrace-wizard/internal/setup"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

// errIncomplete is returned after the report has been printed.
var errIncomplete = errors.New("setup did not complete")

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Add Embrace to the native projects",
		Long:  "Adds the Swazzler plugin, embrace-config.json and the SDK start call on Android, and the SDK start call, source map export and dSYM upload phase on iOS.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd)
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove what install added",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, "uninstall", "Removing Embrace from", setup.Uninstall)
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runInstall(cmd *cobra.Command) error {
	return runFlow(cmd, "install", "Adding Embrace to", setup.Install)
}

func runFlow(cmd *cobra.Command, name, action string, build func(setup.Env) *wizard.Wizard) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ui := newUI(cmd, cfg.Verbose)
	ui.Banner(Version)

	env := setup.Env{Config: cfg, Out: ui, Secrets: openSecrets(cfg)}
	if ui.Interactive() {
		env.Prompt = ui
	}

	ui.Info(fmt.Sprintf("%s %s", action, cfg.ProjectRoot))
	if cfg.DryRun {
		ui.Info("Dry run: showing changes without writing them")
	} else if yes, _ := cmd.Flags().GetBool("yes"); !yes && ui.Interactive() {
		ok, err := ui.Confirm("Continue?", true)
		if err != nil {
			return err
		}
		if !ok {
			ui.Info("Nothing changed.")
			return nil
		}
	}

	ui.Divider()
	started := time.Now()
	r := build(env).RunSteps(cmd.Context())
	record(ui, cfg, history.Run{
		Command:     name,
		ProjectRoot: cfg.ProjectRoot,
		DryRun:      cfg.DryRun,
		Completed:   stepNames(r.Completed),
		Incomplete:  stepNames(r.Incomplete),
		StartedAt:   started,
	}, r.Err)
	if r.Err != nil {
		return fmt.Errorf("%w: %d step(s) left", errIncomplete, len(r.Incomplete))
	}
	return nil
}

func stepNames(steps []wizard.StepStatus) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

// record logs the run. A failure to write the log is not fatal.
func record(ui *terminal.UI, cfg *config.Config, run history.Run, err error) {
	if err != nil {
		run.Error = err.Error()
	}
	if _, err := history.NewStore(cfg.StateDir).Append(run); err != nil {
		ui.Debug("Could not record run: " + err.Error())
	}
}
