// Package config loads installer settings. Precedence, highest first:
// flags, TOOLCHAIN_* environment variables, config.yaml, built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// EnvPrefix prefixes every environment override, e.g. TOOLCHAIN_MIRROR.
const EnvPrefix = "TOOLCHAIN"

type Config struct {
	InstallRoot     string            `mapstructure:"install_root" yaml:"install_root" json:"install_root"`
	MSYS2Dir        string            `mapstructure:"msys2_dir" yaml:"msys2_dir" json:"msys2_dir,omitempty"`
	MSYS2Candidates []string          `mapstructure:"msys2_candidates" yaml:"msys2_candidates" json:"msys2_candidates"`
	CacheDir        string            `mapstructure:"cache_dir" yaml:"cache_dir" json:"cache_dir"`
	Mirror          string            `mapstructure:"mirror" yaml:"mirror" json:"mirror" jsonschema:"enum=official,enum=tsinghua,enum=ustc"`
	ExtraPaths      []string          `mapstructure:"extra_paths" yaml:"extra_paths" json:"extra_paths,omitempty"`
	Packages        map[string]string `mapstructure:"packages" yaml:"packages" json:"packages"`
	Winget          Winget            `mapstructure:"winget" yaml:"winget" json:"winget"`
	Release         Release           `mapstructure:"release" yaml:"release" json:"release"`
	Timeouts        Timeouts          `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
}

type Winget struct {
	Source    string `mapstructure:"source" yaml:"source" json:"source"`
	Location  string `mapstructure:"location" yaml:"location" json:"location,omitempty"`
	PackageID string `mapstructure:"package_id" yaml:"package_id" json:"package_id"`
}

type Release struct {
	Owner       string   `mapstructure:"owner" yaml:"owner" json:"owner"`
	Repo        string   `mapstructure:"repo" yaml:"repo" json:"repo"`
	AssetMatch  []string `mapstructure:"asset_match" yaml:"asset_match" json:"asset_match"`
	FallbackURL string   `mapstructure:"fallback_url" yaml:"fallback_url" json:"fallback_url"`
}

type Timeouts struct {
	Query       time.Duration `mapstructure:"query" yaml:"query" json:"query"`
	Install     time.Duration `mapstructure:"install" yaml:"install" json:"install"`
	BaseRuntime time.Duration `mapstructure:"base_runtime" yaml:"base_runtime" json:"base_runtime"`
	RuntimeInit time.Duration `mapstructure:"runtime_init" yaml:"runtime_init" json:"runtime_init"`
	Download    time.Duration `mapstructure:"download" yaml:"download" json:"download"`
}

// MarshalYAML writes durations as "10m0s" rather than nanoseconds.
func (t Timeouts) MarshalYAML() (any, error) {
	return map[string]string{
		"query":        t.Query.String(),
		"install":      t.Install.String(),
		"base_runtime": t.BaseRuntime.String(),
		"runtime_init": t.RuntimeInit.String(),
		"download":     t.Download.String(),
	}, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	pkgs := map[string]string{}
	for _, s := range mustRegistry().All() {
		if s.Package != "" && s.Manager == tools.ManagerPacman {
			pkgs[string(s.Key)] = s.Package
		}
	}
	return Config{
		InstallRoot:     `D:\CodeTools`,
		MSYS2Candidates: []string{`D:\CodeTools\msys64`, `D:\CodeTools`, `C:\msys64`, `C:\msys32`},
		CacheDir:        filepath.Join(os.TempDir(), AppName),
		Mirror:          msys2.MirrorTsinghua,
		Packages:        pkgs,
		Winget:          Winget{Source: "winget", PackageID: msys2.DefaultPackageID},
		Release: Release{
			Owner:       msys2.DefaultReleaseOwner,
			Repo:        msys2.DefaultReleaseRepo,
			AssetMatch:  msys2.DefaultAssetMatch,
			FallbackURL: msys2.DefaultFallbackURL,
		},
		Timeouts: Timeouts{
			Query:       30 * time.Second,
			Install:     10 * time.Minute,
			BaseRuntime: 10 * time.Minute,
			RuntimeInit: 5 * time.Minute,
			Download:    30 * time.Minute,
		},
	}
}

func mustRegistry() *tools.Registry {
	reg, err := tools.Default(nil)
	if err != nil {
		panic(err)
	}
	return reg
}

// Load reads configuration. An explicit path must exist; without one the
// default file is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, errors.WithHint(errors.Wrapf(err, "config file %s", path), "run `toolchain-install config init` to create one")
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("install_root", d.InstallRoot)
	v.SetDefault("msys2_dir", d.MSYS2Dir)
	v.SetDefault("msys2_candidates", d.MSYS2Candidates)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("mirror", d.Mirror)
	v.SetDefault("extra_paths", d.ExtraPaths)
	for k, p := range d.Packages {
		v.SetDefault("packages."+k, p)
	}
	v.SetDefault("winget.source", d.Winget.Source)
	v.SetDefault("winget.location", d.Winget.Location)
	v.SetDefault("winget.package_id", d.Winget.PackageID)
	v.SetDefault("release.owner", d.Release.Owner)
	v.SetDefault("release.repo", d.Release.Repo)
	v.SetDefault("release.asset_match", d.Release.AssetMatch)
	v.SetDefault("release.fallback_url", d.Release.FallbackURL)
	v.SetDefault("timeouts.query", d.Timeouts.Query)
	v.SetDefault("timeouts.install", d.Timeouts.Install)
	v.SetDefault("timeouts.base_runtime", d.Timeouts.BaseRuntime)
	v.SetDefault("timeouts.runtime_init", d.Timeouts.RuntimeInit)
	v.SetDefault("timeouts.download", d.Timeouts.Download)
}

// Validate rejects unknown mirrors, unknown package keys and non-positive
// timeouts.
func (c *Config) Validate() error {
	if c.Mirror != "" && !slices.Contains(msys2.MirrorNames(), c.Mirror) {
		return errors.WithHintf(errors.Newf("unknown mirror %q", c.Mirror), "choose one of %v", msys2.MirrorNames())
	}
	if _, err := tools.Default(c.Packages); err != nil {
		return errors.Wrap(err, "packages")
	}
	for name, d := range map[string]time.Duration{
		"query":        c.Timeouts.Query,
		"install":      c.Timeouts.Install,
		"base_runtime": c.Timeouts.BaseRuntime,
		"runtime_init": c.Timeouts.RuntimeInit,
		"download":     c.Timeouts.Download,
	} {
		if d <= 0 {
			return errors.Newf("timeouts.%s must be positive, got %s", name, d)
		}
	}
	if strings.TrimSpace(c.InstallRoot) == "" && strings.TrimSpace(c.MSYS2Dir) == "" {
		return errors.New("install_root or msys2_dir must be set")
	}
	return nil
}

// RuntimeDir resolves where the MSYS2 runtime lives or should be installed:
// msys2_dir when set, else the first candidate holding a runtime, else
// winget.location, else <install_root>/msys64.
func (c *Config) RuntimeDir() string {
	if c.MSYS2Dir != "" {
		return c.MSYS2Dir
	}
	if dir, ok := msys2.Locate(c.MSYS2Candidates); ok {
		return dir
	}
	if c.Winget.Location != "" {
		return c.Winget.Location
	}
	return filepath.Join(c.InstallRoot, "msys64")
}
