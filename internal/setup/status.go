package setup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/embrace-io/embrace-wizard/internal/locate"
	"github.com/embrace-io/embrace-wizard/internal/patch"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

// Check is the install state of one part of the integration.
type Check struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Installed bool   `json:"installed"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}

// Status inspects the project without changing it or prompting.
func Status(ctx context.Context, env Env) []Check {
	env.Prompt = NoPrompt{}
	f := newFlow(env)

	var checks []Check
	add := func(name, path string, installed bool, err error) {
		c := Check{Name: name, Path: path, Installed: installed, Err: err}
		if path != "" {
			c.Path = f.rel(path)
		}
		if err != nil {
			c.Error = err.Error()
		}
		checks = append(checks, c)
	}

	if !f.Config.SkipAndroid {
		for _, t := range []struct {
			def  string
			find func(*locate.Locator) (string, error)
		}{
			{patch.RootGradle, (*locate.Locator).RootGradle},
			{patch.AppGradle, (*locate.Locator).AppGradle},
			{patch.MainApplication, (*locate.Locator).MainApplication},
		} {
			path, err := f.path(ctx, t.find)
			if err != nil {
				add(t.def, "", false, err)
				continue
			}
			ok, err := f.present(t.def, path, false, nil)
			add(t.def, path, ok, err)
		}
		path, ok, err := f.embraceConfigPresent(ctx)
		add("embrace-config", path, ok, err)
	}

	if !f.Config.SkipIOS {
		legacy, err := f.legacy(ctx)
		if err != nil {
			add(patch.AppDelegate, "", false, err)
			return checks
		}
		path, err := f.appDelegate(ctx)
		var vars patch.Vars
		if err == nil {
			vars, err = f.delegateVars(ctx)
		}
		if err == nil {
			var ok bool
			ok, err = f.present(patch.AppDelegate, path, legacy, vars)
			add(patch.AppDelegate, path, ok, err)
		} else {
			add(patch.AppDelegate, "", false, err)
		}
		if legacy {
			if path, err := f.path(ctx, (*locate.Locator).Podfile); err != nil {
				add(patch.Podfile, "", false, err)
			} else {
				ok, err := f.present(patch.Podfile, path, legacy, nil)
				add(patch.Podfile, path, ok, err)
			}
		}
		x, err := f.xcode(ctx)
		for _, name := range []string{patch.BundlePhase, patch.DSYMPhase} {
			if err != nil {
				add(name, "", false, err)
				continue
			}
			add(name, x.Path, patch.PhasePresent(x, f.Catalog.MustGet(name).Phase, nil), nil)
		}
		if err == nil && !legacy {
			rel := initializerPath(x.Name())
			_, statErr := os.Stat(filepath.Join(x.SourceRoot(), filepath.FromSlash(rel)))
			add("embrace-initializer", filepath.Join(x.SourceRoot(), rel), statErr == nil && x.HasFile(x.Name(), rel), nil)
		}
	}
	return checks
}

// present reports whether every intent of the file's variant is in place.
// Placeholders missing from vars match any value.
func (f *flow) present(name, path string, legacy bool, vars patch.Vars) (bool, error) {
	def, err := f.Catalog.Get(name)
	if err != nil {
		return false, err
	}
	v := patch.Default
	if _, err := def.Intents(v); err != nil {
		if v, err = patch.VariantForFile(path, legacy); err != nil {
			return false, err
		}
	}
	intents, err := def.Intents(v)
	if err != nil {
		return false, err
	}
	file, err := textpatch.Open(path)
	if err != nil {
		return false, err
	}
	for i := range intents {
		if !intents[i].Present(file, vars) {
			return false, nil
		}
	}
	return true, nil
}

func (f *flow) embraceConfigPresent(ctx context.Context) (string, bool, error) {
	loc, err := value[*locate.Locator](ctx, f.w, FieldLocator)
	if err != nil {
		return "", false, err
	}
	path := loc.EmbraceConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return path, false, nil
	}
	if err != nil {
		return path, false, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return path, false, fmt.Errorf("parse %s: %w", f.rel(path), err)
	}
	return path, cfg["app_id"] != nil && cfg["api_token"] != nil, nil
}
