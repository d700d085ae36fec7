package commands

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/config"
	"github.com/embrace-io/embrace-wizard/internal/secrets"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
)

// Version is set at build time.
var Version = "0.1.0"

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"project-root":     "project_root",
	"project-name":     "project_name",
	"ios-app-id":       "ios_app_id",
	"android-app-id":   "android_app_id",
	"api-token":        "api_token",
	"swazzler-version": "swazzler_version",
	"skip-android":     "skip_android",
	"skip-ios":         "skip_ios",
	"dry-run":          "dry_run",
	"verbose":          "verbose",
	"docs-url":         "docs_url",
	"no-keychain":      "no_keychain",
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "embrace-wizard",
		Short: "Set up Embrace in a React Native app's native projects",
		Long: "embrace-wizard edits the Android and iOS projects of a React Native app so the Embrace SDK starts " +
			"with the app and uploads symbols. Running it twice changes nothing; uninstall removes what install added.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .embrace-wizard.yaml in the project or home directory)")
	pf.StringP("project-root", "p", ".", "React Native project root")
	pf.String("project-name", "", "Xcode project name when it differs from the app name")
	pf.String("ios-app-id", "", "Embrace app ID of the iOS app")
	pf.String("android-app-id", "", "Embrace app ID of the Android app")
	pf.String("api-token", "", "Embrace API token used to upload symbols")
	pf.String("swazzler-version", config.DefaultSwazzlerVersion, "Embrace Swazzler Gradle plugin version")
	pf.Bool("skip-android", false, "leave the Android project alone")
	pf.Bool("skip-ios", false, "leave the iOS project alone")
	pf.Bool("dry-run", false, "print diffs instead of writing files")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.String("docs-url", config.DefaultDocsURL, "documentation linked for manual steps")
	pf.Bool("no-keychain", false, "cache the API token in a file instead of the OS keychain")
	root.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	root.AddCommand(newInstallCmd())
	root.AddCommand(newUninstallCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newMCPCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

// Execute runs the root command until it finishes or the user interrupts.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig resolves configuration with flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	dir, _ := flags.GetString("project-root")
	cfgFile, _ := flags.GetString("config")
	v, err := config.New(dir, cfgFile)
	if err != nil {
		return nil, err
	}
	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return config.Load(v)
}

// newUI writes to the command's output, with terminal detection only when
// that output is stdout.
func newUI(cmd *cobra.Command, verbose bool) *terminal.UI {
	out := cmd.OutOrStdout()
	if out == io.Writer(os.Stdout) {
		return terminal.Stdio(terminal.WithVerbose(verbose))
	}
	return terminal.New(out, terminal.WithInput(cmd.InOrStdin()), terminal.WithVerbose(verbose))
}

func openSecrets(cfg *config.Config) *secrets.Tokens {
	return secrets.Open(cfg.StateDir, !cfg.NoKeychain)
}
