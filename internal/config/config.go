// Package config resolves wizard settings from .embrace-wizard.yaml,
// EMBRACE_WIZARD_* environment variables and command flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "EMBRACE_WIZARD"
	// FileName is the config file name without extension.
	FileName = ".embrace-wizard"
	// DefaultDocsURL is where users are sent for manual setup.
	DefaultDocsURL = "https://embrace.io/docs/react-native/integration/"
	// DefaultSwazzlerVersion is the Gradle plugin version written by install.
	DefaultSwazzlerVersion = "6.13.0"
)

// Config holds the resolved settings for one run.
type Config struct {
	ProjectRoot     string `mapstructure:"project_root"`
	ProjectName     string `mapstructure:"project_name"`
	IOSAppID        string `mapstructure:"ios_app_id"`
	AndroidAppID    string `mapstructure:"android_app_id"`
	APIToken        string `mapstructure:"api_token"`
	SwazzlerVersion string `mapstructure:"swazzler_version"`
	SkipAndroid     bool   `mapstructure:"skip_android"`
	SkipIOS         bool   `mapstructure:"skip_ios"`
	DryRun          bool   `mapstructure:"dry_run"`
	Verbose         bool   `mapstructure:"verbose"`
	DocsURL         string `mapstructure:"docs_url"`
	NoKeychain      bool   `mapstructure:"no_keychain"`

	// StateDir holds the secrets fallback file and the run history. Not
	// configurable.
	StateDir string `mapstructure:"-"`
}

// New returns a viper instance with defaults, env binding and, when found,
// the config file from dir or the home directory. cfgFile overrides the
// search.
func New(dir, cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("project_root", ".")
	v.SetDefault("swazzler_version", DefaultSwazzlerVersion)
	v.SetDefault("docs_url", DefaultDocsURL)
	for _, k := range []string{"project_name", "ios_app_id", "android_app_id", "api_token"} {
		v.SetDefault(k, "")
	}
	for _, k := range []string{"skip_android", "skip_ios", "dry_run", "verbose", "no_keychain"} {
		v.SetDefault(k, false)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and resolves the project root to an absolute
// path.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	cfg.ProjectRoot = root

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	cfg.StateDir = filepath.Join(home, ".embrace-wizard")
	return &cfg, nil
}
