// Package project reads the React Native metadata the wizard needs: the app
// name and the installed Embrace SDK version.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
)

// SDKPackage is the npm package whose version selects the native variants.
const SDKPackage = "@embrace-io/react-native"

// ErrNoPackageJSON is returned when the root has no package.json.
var ErrNoPackageJSON = errors.New("no package.json found")

// legacyBelow is the first SDK release built on the current native SDKs.
var legacyBelow = version.Must(version.NewVersion("6.0.0"))

// Info describes a React Native app.
type Info struct {
	Root string
	// Name is the app name from app.json, falling back to package.json.
	Name string
	// PackageName is the npm package name.
	PackageName string
	// SDKVersion is the declared SDK version, nil when not installed or
	// when the specifier names no version.
	SDKVersion *version.Version
	// SDKSpec is the dependency specifier as written in package.json.
	SDKSpec string
}

// Legacy reports whether the installed SDK predates 6.0.0. An unknown
// version counts as current.
func (i *Info) Legacy() bool {
	return i.SDKVersion != nil && i.SDKVersion.LessThan(legacyBelow)
}

type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

type appJSON struct {
	Name string `json:"name"`
	Expo struct {
		Name string `json:"name"`
	} `json:"expo"`
}

// Load reads package.json and, when present, app.json under root.
func Load(root string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s; run the wizard from your React Native project root", ErrNoPackageJSON, root)
	}
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	info := &Info{Root: root, Name: pkg.Name, PackageName: pkg.Name}
	if data, err := os.ReadFile(filepath.Join(root, "app.json")); err == nil {
		var app appJSON
		if err := json.Unmarshal(data, &app); err == nil {
			switch {
			case app.Name != "":
				info.Name = app.Name
			case app.Expo.Name != "":
				info.Name = app.Expo.Name
			}
		}
	}

	raw := pkg.Dependencies[SDKPackage]
	if raw == "" {
		raw = pkg.DevDependencies[SDKPackage]
	}
	info.SDKSpec = raw
	if raw != "" {
		// an unreadable specifier leaves the version unknown
		info.SDKVersion, _ = ParseRange(raw)
	}
	return info, nil
}

// SDKUnknown reports whether the SDK is declared with a specifier that
// names no version, such as a workspace or file dependency.
func (i *Info) SDKUnknown() bool {
	return i.SDKSpec != "" && i.SDKVersion == nil
}

// nonVersionProtocols name npm specifiers that point at code, not a release.
var nonVersionProtocols = []string{"file:", "link:", "portal:", "git:", "git+", "github:", "http:", "https:"}

// ParseRange extracts the base version from an npm range such as "^5.2.1"
// or ">=6.0.0 <7". Aliases ("npm:pkg@^6") and workspace ranges
// ("workspace:^6.1.0") are unwrapped. Tags like "latest", "workspace:*" and
// path or URL specifiers yield nil without error.
func ParseRange(r string) (*version.Version, error) {
	r = strings.TrimSpace(r)
	for _, p := range nonVersionProtocols {
		if strings.HasPrefix(r, p) {
			return nil, nil
		}
	}
	if alias, ok := strings.CutPrefix(r, "npm:"); ok {
		i := strings.LastIndex(alias, "@")
		if i <= 0 {
			return nil, nil
		}
		r = alias[i+1:]
	}
	r = strings.TrimPrefix(r, "workspace:")
	if fields := strings.Fields(r); len(fields) > 0 {
		r = fields[0]
	}
	r = strings.TrimLeft(r, "^~>=<v")
	if r == "" || r == "*" || r == "latest" || r == "next" {
		return nil, nil
	}
	r = strings.ReplaceAll(strings.ReplaceAll(r, ".x", ".0"), ".*", ".0")
	return version.NewVersion(r)
}
