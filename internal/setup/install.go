package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/embrace-io/embrace-wizard/internal/locate"
	"github.com/embrace-io/embrace-wizard/internal/patch"
	"github.com/embrace-io/embrace-wizard/internal/pbxproj"
	"github.com/embrace-io/embrace-wizard/internal/project"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

// Install returns a wizard whose steps add Embrace to the app's native
// projects. Nothing runs until RunSteps.
func Install(env Env) *wizard.Wizard {
	f := newFlow(env)
	if !f.Config.SkipAndroid {
		f.step("Add the Swazzler classpath to android/build.gradle", f.docURL(patch.RootGradle), f.installRootGradle)
		f.step("Apply the Swazzler plugin in android/app/build.gradle", f.docURL(patch.AppGradle), f.installAppGradle)
		f.step("Create embrace-config.json", f.docURL(patch.RootGradle), f.createEmbraceConfig)
		f.step("Add the app ID and API token to embrace-config.json", f.docURL(patch.RootGradle), f.writeEmbraceConfig)
		f.step("Start Embrace in MainApplication", f.docURL(patch.MainApplication), f.installMainApplication)
	}
	if !f.Config.SkipIOS {
		f.step("Add EmbraceIO to the Podfile", f.docURL(patch.Podfile), f.installPodfile)
		f.step("Add EmbraceInitializer.swift", f.docURL(patch.AppDelegate), f.installInitializer)
		f.step("Add a bridging header", f.docURL(patch.AppDelegate), f.installBridgingHeader)
		f.step("Start Embrace in AppDelegate", f.docURL(patch.AppDelegate), f.installAppDelegate)
		f.step("Export source maps from the bundle phase", f.docURL(patch.BundlePhase), f.installBundlePhase)
		f.step("Add the dSYM upload phase", f.docURL(patch.DSYMPhase), f.installDSYMPhase)
	}
	return f.w
}

func (f *flow) step(name, docURL string, run func(ctx context.Context) error) {
	f.w.RegisterStep(wizard.Step{
		Name:   name,
		DocURL: docURL,
		Run:    func(ctx context.Context, _ *wizard.Wizard) error { return run(ctx) },
	})
}

// path runs a locator lookup.
func (f *flow) path(ctx context.Context, find func(*locate.Locator) (string, error)) (string, error) {
	loc, err := value[*locate.Locator](ctx, f.w, FieldLocator)
	if err != nil {
		return "", err
	}
	return find(loc)
}

func (f *flow) appDelegate(ctx context.Context) (string, error) {
	info, err := value[*project.Info](ctx, f.w, FieldProject)
	if err != nil {
		return "", err
	}
	return f.path(ctx, func(l *locate.Locator) (string, error) { return l.AppDelegate(info.Name) })
}

func (f *flow) legacy(ctx context.Context) (bool, error) {
	info, err := value[*project.Info](ctx, f.w, FieldProject)
	if err != nil {
		return false, err
	}
	return info.Legacy(), nil
}

func (f *flow) xcode(ctx context.Context) (*pbxproj.Project, error) {
	return value[*pbxproj.Project](ctx, f.w, FieldXcodeProject)
}

// appDelegateVariant picks the definition variant for the app delegate.
func (f *flow) appDelegateVariant(ctx context.Context) (string, patch.Variant, error) {
	path, err := f.appDelegate(ctx)
	if err != nil {
		return "", "", err
	}
	legacy, err := f.legacy(ctx)
	if err != nil {
		return "", "", err
	}
	v, err := patch.VariantForFile(path, legacy)
	return path, v, err
}

// applyDefinition patches path with one variant of a definition. Nothing
// is written unless every anchor was found.
func (f *flow) applyDefinition(name, path string, v patch.Variant, vars patch.Vars) error {
	def, err := f.Catalog.Get(name)
	if err != nil {
		return err
	}
	intents, err := def.Intents(v)
	if err != nil {
		return err
	}
	file, err := textpatch.Open(path)
	if err != nil {
		return err
	}
	r := patch.Apply(file, intents, vars)
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s: %w", f.rel(path), err)
	}
	if !r.Changed {
		f.Out.Info(f.rel(path) + " is already set up")
		return nil
	}
	return f.persist.file(file)
}

func (f *flow) applyPhase(ctx context.Context, name string, vars patch.Vars) error {
	x, err := f.xcode(ctx)
	if err != nil {
		return err
	}
	legacy, err := f.legacy(ctx)
	if err != nil {
		return err
	}
	def, err := f.Catalog.Get(name)
	if err != nil {
		return err
	}
	r, err := patch.ApplyPhase(x, x.Name(), def.Phase, vars, legacy)
	if err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s: %w", f.rel(x.Path), err)
	}
	if !r.Changed {
		f.Out.Info(f.rel(x.Path) + " is already set up")
		return nil
	}
	return f.persist.project(x)
}

func (f *flow) installRootGradle(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).RootGradle)
	if err != nil {
		return err
	}
	vars, err := f.vars(ctx, "swazzler_version", FieldSwazzlerVersion)
	if err != nil {
		return err
	}
	return f.applyDefinition(patch.RootGradle, path, patch.Default, vars)
}

func (f *flow) installAppGradle(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).AppGradle)
	if err != nil {
		return err
	}
	return f.applyDefinition(patch.AppGradle, path, patch.Default, nil)
}

func (f *flow) createEmbraceConfig(ctx context.Context) error {
	file, err := value[*textpatch.File](ctx, f.w, FieldEmbraceConfig)
	if err != nil {
		return err
	}
	if !file.Modified() {
		f.Out.Info(f.rel(file.Path) + " already exists")
		return nil
	}
	return f.persist.file(file)
}

// writeEmbraceConfig merges the credentials into embrace-config.json,
// keeping any other keys the file has.
func (f *flow) writeEmbraceConfig(ctx context.Context) error {
	file, err := value[*textpatch.File](ctx, f.w, FieldEmbraceConfig)
	if err != nil {
		return err
	}
	vars, err := f.vars(ctx, "app_id", FieldAndroidAppID, "api_token", FieldAPIToken)
	if err != nil {
		return err
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(file.Contents()), &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", f.rel(file.Path), err)
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	if cfg["app_id"] == vars["app_id"] && cfg["api_token"] == vars["api_token"] {
		f.Out.Info(f.rel(file.Path) + " is already set up")
		return nil
	}
	cfg["app_id"] = vars["app_id"]
	cfg["api_token"] = vars["api_token"]
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	file.SetContents(string(out) + "\n")
	return f.persist.file(file)
}

func (f *flow) installMainApplication(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).MainApplication)
	if err != nil {
		return err
	}
	v, err := patch.VariantForFile(path, false)
	if err != nil {
		return err
	}
	return f.applyDefinition(patch.MainApplication, path, v, nil)
}

func (f *flow) installPodfile(ctx context.Context) error {
	legacy, err := f.legacy(ctx)
	if err != nil {
		return err
	}
	if !legacy {
		f.Out.Info("The Podfile needs no changes for this SDK version")
		return nil
	}
	path, err := f.path(ctx, (*locate.Locator).Podfile)
	if err != nil {
		return err
	}
	return f.applyDefinition(patch.Podfile, path, patch.Default, nil)
}

func (f *flow) installInitializer(ctx context.Context) error {
	legacy, err := f.legacy(ctx)
	if err != nil {
		return err
	}
	if legacy {
		f.Out.Info(initializerFile + " is not used by this SDK version")
		return nil
	}
	x, err := f.xcode(ctx)
	if err != nil {
		return err
	}
	appID, err := f.w.FieldString(ctx, FieldIOSAppID)
	if err != nil {
		return err
	}

	target := x.Name()
	rel := initializerPath(target)
	abs := filepath.Join(x.SourceRoot(), filepath.FromSlash(rel))
	file, err := textpatch.Open(abs)
	if errors.Is(err, textpatch.ErrFileNotFound) {
		file = textpatch.Create(abs, initializerSource(appID))
	} else if err != nil {
		return err
	}
	if err := f.persist.file(file); err != nil {
		return err
	}

	if x.HasFile(target, rel) {
		f.Out.Info(rel + " is already part of " + target)
		return nil
	}
	if !x.AddFile(target, rel, pbxproj.Source) {
		return fmt.Errorf("%w: %s", pbxproj.ErrTargetNotFound, target)
	}
	return f.persist.project(x)
}

func (f *flow) installBridgingHeader(ctx context.Context) error {
	path, v, err := f.appDelegateVariant(ctx)
	if err != nil {
		return err
	}
	if v != patch.ObjectiveC {
		f.Out.Info(filepath.Base(path) + " needs no bridging header")
		return nil
	}
	x, err := f.xcode(ctx)
	if err != nil {
		return err
	}
	header, added, err := x.PrepareBridgingHeader(x.Name())
	if err != nil {
		return err
	}
	if !added {
		f.Out.Info(x.Name() + " already has a bridging header")
		return nil
	}
	if header != nil {
		if err := f.persist.file(header); err != nil {
			return err
		}
	}
	return f.persist.project(x)
}

func (f *flow) installAppDelegate(ctx context.Context) error {
	path, v, err := f.appDelegateVariant(ctx)
	if err != nil {
		return err
	}
	var vars patch.Vars
	if v == patch.ObjectiveC {
		x, err := f.xcode(ctx)
		if err != nil {
			return err
		}
		vars = patch.Vars{"project_name": x.Name()}
	}
	return f.applyDefinition(patch.AppDelegate, path, v, vars)
}

// delegateVars fills the app delegate placeholders for checks and removal.
// The Xcode project name is preferred; the app name stands in when the
// project cannot be opened.
func (f *flow) delegateVars(ctx context.Context) (patch.Vars, error) {
	if x, err := f.xcode(ctx); err == nil {
		return patch.Vars{"project_name": x.Name()}, nil
	}
	info, err := value[*project.Info](ctx, f.w, FieldProject)
	if err != nil {
		return nil, err
	}
	return patch.Vars{"project_name": info.Name}, nil
}

func (f *flow) installBundlePhase(ctx context.Context) error {
	return f.applyPhase(ctx, patch.BundlePhase, nil)
}

func (f *flow) installDSYMPhase(ctx context.Context) error {
	vars, err := f.vars(ctx, "app_id", FieldIOSAppID, "api_token", FieldAPIToken)
	if err != nil {
		return err
	}
	return f.applyPhase(ctx, patch.DSYMPhase, vars)
}
