package commands

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/locate"
	"github.com/embrace-io/embrace-wizard/internal/project"
	"github.com/embrace-io/embrace-wizard/internal/secrets"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
)

// tool is an external program the app build needs after the wizard ran.
type tool struct {
	name    string
	command string
	args    []string
	install string
	ios     bool
}

var tools = []tool{
	{name: "Node.js", command: "node", args: []string{"--version"}, install: "https://nodejs.org"},
	{name: "CocoaPods", command: "pod", args: []string{"--version"}, install: "sudo gem install cocoapods", ios: true},
	{name: "Xcode", command: "xcodebuild", args: []string{"-version"}, install: "Install Xcode from the Mac App Store", ios: true},
}

// toolVersion returns the first line the tool prints, or ok=false when it
// is not on PATH or fails.
var toolVersion = func(t tool) (string, bool) {
	if _, err := exec.LookPath(t.command); err != nil {
		return "", false
	}
	out, err := exec.Command(t.command, t.args...).Output()
	if err != nil {
		return "", false
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, true
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project and the tools needed to build it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ui := newUI(cmd, cfg.Verbose)
			if !doctor(ui, cfg.ProjectRoot, cfg.ProjectName, cfg.SkipIOS || runtime.GOOS != "darwin", openSecrets(cfg)) {
				ui.Warning("Fix the items above, then run embrace-wizard install.")
			}
			return nil
		},
	}
}

// doctor prints one line per check and reports whether all passed.
func doctor(ui *terminal.UI, root, projectName string, skipIOS bool, tokens *secrets.Tokens) bool {
	ok := true
	ui.Header("Project")
	info, err := project.Load(root)
	if err != nil {
		ui.Error(err.Error())
		return false
	}
	if projectName != "" {
		info.Name = projectName
	}
	ui.Success("React Native app " + info.Name)
	switch {
	case info.SDKSpec == "":
		ui.Warning(project.SDKPackage + " is not in package.json")
		ok = false
	case info.SDKVersion == nil:
		ui.Detail("SDK", info.SDKSpec+" (version unknown, current SDK assumed)")
	default:
		ui.Detail("SDK", info.SDKVersion.String())
	}

	if tokens != nil {
		if tokens.Token(info.Name) != "" {
			ui.Detail("API token", "saved in the "+tokens.Backend())
		} else {
			ui.Detail("API token", "not saved, install will ask for it")
		}
	}

	if !skipIOS {
		loc, err := locate.New(root)
		if err == nil {
			_, err = loc.XcodeProject(info.Name)
		}
		if err != nil {
			ui.Error(err.Error())
			ok = false
		} else {
			ui.Success("Xcode project found")
		}
	}

	ui.Header("Tools")
	for _, t := range tools {
		if t.ios && skipIOS {
			continue
		}
		if v, found := toolVersion(t); found {
			ui.Success(t.name + " " + v)
			continue
		}
		ui.Warning(t.name + " not found")
		ui.Detail("Install", t.install)
		ok = false
	}
	return ok
}
