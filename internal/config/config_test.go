package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/config"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/msys2"
	tu "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/testutil"
)

// isolate points the user config dir at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Cleanup(tu.WithEnv(t, "XDG_CONFIG_HOME", dir))
	t.Cleanup(tu.WithEnv(t, "HOME", dir))
	t.Cleanup(tu.WithEnv(t, "AppData", dir))
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mirror != msys2.MirrorTsinghua || cfg.Timeouts.Query != 30*time.Second || cfg.Timeouts.Install != 10*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Packages["arm_gcc"] != "mingw-w64-x86_64-arm-none-eabi-gcc" {
		t.Fatalf("missing package default: %v", cfg.Packages)
	}
	if cfg.Winget.PackageID != "MSYS2.MSYS2" {
		t.Fatalf("unexpected winget id %q", cfg.Winget.PackageID)
	}
}

func TestLoad_FileValues(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
mirror: official
extra_paths:
  - D:\Tools\bin
packages:
  cmake: mingw-w64-x86_64-cmake
timeouts:
  query: 45s
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mirror != msys2.MirrorOfficial || cfg.Timeouts.Query != 45*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Packages["cmake"] != "mingw-w64-x86_64-cmake" || cfg.Packages["make"] != "make" {
		t.Fatalf("packages = %v", cfg.Packages)
	}
	if len(cfg.ExtraPaths) != 1 || cfg.ExtraPaths[0] != `D:\Tools\bin` {
		t.Fatalf("extra_paths = %v", cfg.ExtraPaths)
	}
	if cfg.Timeouts.Install != 10*time.Minute {
		t.Fatalf("unset timeout should keep its default")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "mirror: tsinghua\n")
	t.Cleanup(tu.WithEnv(t, "TOOLCHAIN_MIRROR", "ustc"))
	t.Cleanup(tu.WithEnv(t, "TOOLCHAIN_TIMEOUTS_DOWNLOAD", "5m"))

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mirror != "ustc" || cfg.Timeouts.Download != 5*time.Minute {
		t.Fatalf("env overrides not applied: mirror=%q download=%s", cfg.Mirror, cfg.Timeouts.Download)
	}
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cases := map[string]string{
		"mirror":  "mirror: nowhere\n",
		"timeout": "timeouts:\n  query: 0s\n",
		"package": "packages:\n  ninja: ninja\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		writeFile(t, path, body)
		if _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if _, err := config.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("explicit missing file must fail")
	}
}

func TestMarshalYAML_LoadsBack(t *testing.T) {
	isolate(t)
	def := config.Defaults()
	def.Mirror = "ustc"
	b, err := config.MarshalYAML(def)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	if !strings.Contains(string(b), "query: 30s") {
		t.Fatalf("durations should be human readable:\n%s", b)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, string(b))
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mirror != "ustc" || cfg.Timeouts.RuntimeInit != 5*time.Minute {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestRuntimeDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Defaults()
	cfg.InstallRoot = base
	cfg.MSYS2Candidates = []string{filepath.Join(base, "nope")}
	if got := cfg.RuntimeDir(); got != filepath.Join(base, "msys64") {
		t.Fatalf("default runtime dir = %q", got)
	}

	found := filepath.Join(base, "tools")
	tu.Touch(t, msys2.BashPath(filepath.Join(found, "msys64")))
	cfg.MSYS2Candidates = []string{found}
	if got := cfg.RuntimeDir(); got != filepath.Join(found, "msys64") {
		t.Fatalf("located runtime dir = %q", got)
	}

	cfg.MSYS2Dir = `E:\msys64`
	if got := cfg.RuntimeDir(); got != `E:\msys64` {
		t.Fatalf("explicit runtime dir = %q", got)
	}
}

func TestSchema(t *testing.T) {
	sch := config.Schema()
	mirror, ok := sch.Properties.Get("mirror")
	if !ok || len(mirror.Enum) != 3 {
		t.Fatalf("mirror property missing enum: %+v", mirror)
	}
	timeouts, ok := sch.Properties.Get("timeouts")
	if !ok || timeouts == nil {
		t.Fatalf("timeouts property missing")
	}
	b, err := config.MarshalSchema(sch)
	if err != nil || !strings.Contains(string(b), "install_root") {
		t.Fatalf("schema JSON: %v", err)
	}
}
