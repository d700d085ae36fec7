package setup

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/embrace-io/embrace-wizard/internal/locate"
	"github.com/embrace-io/embrace-wizard/internal/pbxproj"
	"github.com/embrace-io/embrace-wizard/internal/project"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

// Field names.
const (
	FieldProject         = "project"
	FieldLocator         = "locator"
	FieldIOSAppID        = "ios_app_id"
	FieldAndroidAppID    = "android_app_id"
	FieldAPIToken        = "api_token"
	FieldSwazzlerVersion = "swazzler_version"
	FieldXcodeProject    = "xcode_project"
	FieldEmbraceConfig   = "embrace_config"
)

// ErrInvalidAppID is returned for app IDs that are not five alphanumerics.
var ErrInvalidAppID = errors.New("app ID must be 5 letters or digits")

var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{5}$`)

func (f *flow) registerFields() {
	f.w.RegisterField(wizard.Field{Name: FieldProject, Fetch: f.fetchProject})
	f.w.RegisterField(wizard.Field{Name: FieldLocator, Fetch: func(context.Context) (any, error) {
		return locate.New(f.Config.ProjectRoot)
	}})
	f.w.RegisterField(wizard.Field{Name: FieldIOSAppID, Fetch: f.appID(f.Config.IOSAppID, "iOS app ID")})
	f.w.RegisterField(wizard.Field{Name: FieldAndroidAppID, Fetch: f.appID(f.Config.AndroidAppID, "Android app ID")})
	f.w.RegisterField(wizard.Field{Name: FieldAPIToken, Fetch: f.fetchToken})
	f.w.RegisterField(wizard.Field{Name: FieldSwazzlerVersion, Fetch: func(context.Context) (any, error) {
		return f.Config.SwazzlerVersion, nil
	}})
	f.w.RegisterField(wizard.Field{Name: FieldXcodeProject, Fetch: f.fetchXcodeProject})
	f.w.RegisterField(wizard.Field{Name: FieldEmbraceConfig, Fetch: f.fetchEmbraceConfig})
}

func (f *flow) fetchProject(context.Context) (any, error) {
	info, err := project.Load(f.Config.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if f.Config.ProjectName != "" {
		info.Name = f.Config.ProjectName
	}
	if info.SDKUnknown() {
		f.Out.Debug(fmt.Sprintf("No version in %s %q; assuming the current SDK", project.SDKPackage, info.SDKSpec))
	}
	return info, nil
}

func (f *flow) appID(configured, label string) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		id := configured
		if id == "" {
			var err error
			if id, err = f.Prompt.AskRequired(label); err != nil {
				return nil, err
			}
		}
		if !appIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidAppID, label, id)
		}
		return id, nil
	}
}

// fetchToken prefers configuration, then the token cached for the app, and
// finally prompts and caches the answer.
func (f *flow) fetchToken(ctx context.Context) (any, error) {
	if f.Config.APIToken != "" {
		return f.Config.APIToken, nil
	}
	info, err := value[*project.Info](ctx, f.w, FieldProject)
	if err != nil {
		return nil, err
	}
	if tok := f.Secrets.Token(info.Name); tok != "" {
		f.Out.Info("Using the saved API token for " + info.Name)
		return tok, nil
	}
	tok, err := f.Prompt.AskSecret("Embrace API token")
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, fmt.Errorf("%w: API token", ErrMissingValue)
	}
	if f.Secrets != nil {
		if err := f.Secrets.SaveToken(info.Name, tok); err != nil {
			f.Out.Warning("Could not save the API token: " + err.Error())
		}
	}
	return tok, nil
}

// fetchXcodeProject parses the app's project once; every iOS step edits the
// same graph.
func (f *flow) fetchXcodeProject(ctx context.Context) (any, error) {
	loc, err := value[*locate.Locator](ctx, f.w, FieldLocator)
	if err != nil {
		return nil, err
	}
	info, err := value[*project.Info](ctx, f.w, FieldProject)
	if err != nil {
		return nil, err
	}
	path, err := loc.XcodeProject(info.Name)
	if err != nil {
		return nil, err
	}
	return pbxproj.Open(path)
}

// fetchEmbraceConfig returns android's embrace-config.json, or an empty
// object to be created when it does not exist yet.
func (f *flow) fetchEmbraceConfig(ctx context.Context) (any, error) {
	loc, err := value[*locate.Locator](ctx, f.w, FieldLocator)
	if err != nil {
		return nil, err
	}
	path := loc.EmbraceConfig()
	file, err := textpatch.Open(path)
	if errors.Is(err, textpatch.ErrFileNotFound) {
		return textpatch.Create(path, "{}\n"), nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}
