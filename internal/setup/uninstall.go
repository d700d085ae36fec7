package setup

import (
	"context"
	"errors"
	"path/filepath"
	"slices"

	"github.com/embrace-io/embrace-wizard/internal/locate"
	"github.com/embrace-io/embrace-wizard/internal/patch"
	"github.com/embrace-io/embrace-wizard/internal/pbxproj"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

// Uninstall returns a wizard whose steps remove what Install added. Blocks
// and files that are already gone are skipped. A bridging header added by
// Install is kept, since app code may have started using it.
func Uninstall(env Env) *wizard.Wizard {
	f := newFlow(env)
	if !f.Config.SkipAndroid {
		f.step("Remove the Swazzler classpath from android/build.gradle", f.docURL(patch.RootGradle), f.uninstallRootGradle)
		f.step("Remove the Swazzler plugin from android/app/build.gradle", f.docURL(patch.AppGradle), f.uninstallAppGradle)
		f.step("Delete embrace-config.json", f.docURL(patch.RootGradle), f.deleteEmbraceConfig)
		f.step("Stop starting Embrace in MainApplication", f.docURL(patch.MainApplication), f.uninstallMainApplication)
	}
	if !f.Config.SkipIOS {
		f.step("Stop starting Embrace in AppDelegate", f.docURL(patch.AppDelegate), f.uninstallAppDelegate)
		f.step("Remove EmbraceInitializer.swift", f.docURL(patch.AppDelegate), f.uninstallInitializer)
		f.step("Remove EmbraceIO from the Podfile", f.docURL(patch.Podfile), f.uninstallPodfile)
		f.step("Remove the source map export from the bundle phase", f.docURL(patch.BundlePhase), f.uninstallBundlePhase)
		f.step("Remove the dSYM upload phase", f.docURL(patch.DSYMPhase), f.uninstallDSYMPhase)
	}
	return f.w
}

// skipAbsent turns a not-found error into a skip.
func (f *flow) skipAbsent(err error) error {
	if errors.Is(err, locate.ErrNotFound) || errors.Is(err, textpatch.ErrFileNotFound) || errors.Is(err, pbxproj.ErrProjectNotFound) {
		f.Out.Info("Nothing to remove: " + err.Error())
		return nil
	}
	return err
}

// unapplyDefinition removes every listed variant of a definition from path.
// Placeholders missing from vars match any value.
func (f *flow) unapplyDefinition(name, path string, vars patch.Vars, variants ...patch.Variant) error {
	def, err := f.Catalog.Get(name)
	if err != nil {
		return err
	}
	file, err := textpatch.Open(path)
	if err != nil {
		return f.skipAbsent(err)
	}
	var changed bool
	for _, v := range variants {
		intents, err := def.Intents(v)
		if err != nil {
			return err
		}
		changed = patch.Unapply(file, intents, vars).Changed || changed
	}
	if !changed {
		f.Out.Info("Nothing to remove from " + f.rel(path))
		return nil
	}
	return f.persist.file(file)
}

func (f *flow) unapplyPhase(ctx context.Context, name string) error {
	x, err := f.xcode(ctx)
	if err != nil {
		return f.skipAbsent(err)
	}
	def, err := f.Catalog.Get(name)
	if err != nil {
		return err
	}
	if !patch.UnapplyPhase(x, def.Phase, nil).Changed {
		f.Out.Info("Nothing to remove from " + f.rel(x.Path))
		return nil
	}
	return f.persist.project(x)
}

func (f *flow) uninstallRootGradle(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).RootGradle)
	if err != nil {
		return f.skipAbsent(err)
	}
	return f.unapplyDefinition(patch.RootGradle, path, nil, patch.Default)
}

func (f *flow) uninstallAppGradle(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).AppGradle)
	if err != nil {
		return f.skipAbsent(err)
	}
	return f.unapplyDefinition(patch.AppGradle, path, nil, patch.Default)
}

func (f *flow) deleteEmbraceConfig(ctx context.Context) error {
	loc, err := value[*locate.Locator](ctx, f.w, FieldLocator)
	if err != nil {
		return err
	}
	path := loc.EmbraceConfig()
	removed, err := f.persist.remove(path)
	if err != nil {
		return err
	}
	if !removed {
		f.Out.Info(f.rel(path) + " does not exist")
	}
	return nil
}

func (f *flow) uninstallMainApplication(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).MainApplication)
	if err != nil {
		return f.skipAbsent(err)
	}
	v, err := patch.VariantForFile(path, false)
	if err != nil {
		return err
	}
	return f.unapplyDefinition(patch.MainApplication, path, nil, v)
}

// uninstallAppDelegate removes both SDK generations' edits, so an app that
// upgraded the SDK since installing is still cleaned up.
func (f *flow) uninstallAppDelegate(ctx context.Context) error {
	path, err := f.appDelegate(ctx)
	if err != nil {
		return f.skipAbsent(err)
	}
	var variants []patch.Variant
	for _, legacy := range []bool{false, true} {
		v, err := patch.VariantForFile(path, legacy)
		if err != nil {
			return err
		}
		if !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}
	vars, err := f.delegateVars(ctx)
	if err != nil {
		return err
	}
	return f.unapplyDefinition(patch.AppDelegate, path, vars, variants...)
}

func (f *flow) uninstallInitializer(ctx context.Context) error {
	x, err := f.xcode(ctx)
	if err != nil {
		return f.skipAbsent(err)
	}
	target := x.Name()
	rel := initializerPath(target)
	if x.RemoveFile(target, rel) {
		if err := f.persist.project(x); err != nil {
			return err
		}
	}
	removed, err := f.persist.remove(filepath.Join(x.SourceRoot(), filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	if !removed {
		f.Out.Info(rel + " does not exist")
	}
	return nil
}

func (f *flow) uninstallPodfile(ctx context.Context) error {
	path, err := f.path(ctx, (*locate.Locator).Podfile)
	if err != nil {
		return f.skipAbsent(err)
	}
	return f.unapplyDefinition(patch.Podfile, path, nil, patch.Default)
}

func (f *flow) uninstallBundlePhase(ctx context.Context) error {
	return f.unapplyPhase(ctx, patch.BundlePhase)
}

func (f *flow) uninstallDSYMPhase(ctx context.Context) error {
	return f.unapplyPhase(ctx, patch.DSYMPhase)
}
