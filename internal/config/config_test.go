package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SwazzlerVersion != DefaultSwazzlerVersion {
		t.Errorf("SwazzlerVersion = %q", cfg.SwazzlerVersion)
	}
	if cfg.DocsURL != DefaultDocsURL {
		t.Errorf("DocsURL = %q", cfg.DocsURL)
	}
	if !filepath.IsAbs(cfg.ProjectRoot) {
		t.Errorf("ProjectRoot %q is not absolute", cfg.ProjectRoot)
	}
	if cfg.DryRun || cfg.SkipIOS || cfg.SkipAndroid {
		t.Error("boolean defaults should be false")
	}
	if filepath.Base(cfg.StateDir) != ".embrace-wizard" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	yaml := "ios_app_id: abc12\napi_token: from-file\nskip_android: true\n"
	if err := os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EMBRACE_WIZARD_API_TOKEN", "from-env")
	t.Setenv("EMBRACE_WIZARD_DRY_RUN", "true")

	v, err := New(dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"IOSAppID", cfg.IOSAppID, "abc12"},
		{"APIToken", cfg.APIToken, "from-env"},
		{"SkipAndroid", cfg.SkipAndroid, true},
		{"DryRun", cfg.DryRun, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	if _, err := New(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
