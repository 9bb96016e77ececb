package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/system"
	tu "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/testutil"
	appver "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, configInitForce, checkJSON = "", false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || out != appver.AppVersion+"\n" {
		t.Fatalf("version: %q %v", out, err)
	}
}

func TestConfigInitShowSchema(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(tu.WithEnv(t, "TOOLCHAIN_MIRROR", ""))
	path := filepath.Join(dir, "config.yaml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Fatalf("second init without --force should fail")
	}
	out, err := execute(t, "--config", path, "config", "show")
	if err != nil || !strings.Contains(out, "mirror: tsinghua") || !strings.Contains(out, "query: 30s") {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	out, err = execute(t, "config", "schema")
	if err != nil || !strings.Contains(out, `"msys2_candidates"`) {
		t.Fatalf("config schema: %v\n%s", err, out)
	}
}

func TestCheckUnknownToolSuggests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	_, err := execute(t, "--config", path, "check", "cmak")
	if !errors.Is(err, errs.ErrNotFound) || errs.ExitCode(err) != errs.ExitFatal {
		t.Fatalf("expected not-found with fatal exit, got %v", err)
	}
	hints := strings.Join(errors.GetAllHints(err), " ")
	if !strings.Contains(hints, `"cmake"`) {
		t.Fatalf("expected a suggestion, got %q", hints)
	}
}

func TestMirrorRejectsUnknownName(t *testing.T) {
	if _, err := execute(t, "mirror", "nowhere"); err == nil {
		t.Fatalf("unknown mirror should be rejected")
	}
}

const (
	msys2List         = "winget list --id MSYS2.MSYS2 --exact --accept-source-agreements"
	msys2Uninstall    = "winget uninstall --id MSYS2.MSYS2 --exact --silent --accept-source-agreements --disable-interactivity"
	msys2UninstallOne = "winget uninstall --id MSYS2.MSYS2 --exact --version 20240727 --silent --accept-source-agreements --disable-interactivity"
)

func TestUninstall_UnparsedListStillUninstalls(t *testing.T) {
	run := tu.NewFakeRunner().
		On(msys2List, tu.OK("something winget printed that has no header\n")).
		On(msys2Uninstall, tu.OK("Successfully uninstalled"))
	var out bytes.Buffer
	err := uninstallPackage(context.Background(), &pkgmgr.Winget{Runner: run}, system.NewConsole(&out), "MSYS2.MSYS2", false, true)
	if err != nil {
		t.Fatalf("uninstall: %v (calls %v)", err, run.Lines())
	}
	if run.Count(msys2Uninstall) != 1 || !strings.Contains(out.String(), "uninstalled") {
		t.Fatalf("expected a direct uninstall, got %v\n%s", run.Lines(), out.String())
	}
}

func TestUninstall_NothingToRemove(t *testing.T) {
	run := tu.NewFakeRunner().
		On(msys2List, tu.Fail(-1978335212, "No installed package found")).
		On(msys2Uninstall, tu.Fail(-1978335212, "No installed package found matching input criteria."))
	var out bytes.Buffer
	err := uninstallPackage(context.Background(), &pkgmgr.Winget{Runner: run}, system.NewConsole(&out), "MSYS2.MSYS2", false, true)
	if err != nil || !strings.Contains(out.String(), "not installed") {
		t.Fatalf("expected not installed, got %v\n%s", err, out.String())
	}
}

func TestUninstall_SingleVersion(t *testing.T) {
	run := tu.NewFakeRunner().
		On(msys2List, tu.OK("Name  Id          Version  Source\n------\nMSYS2 MSYS2.MSYS2 20240727 winget\n")).
		On(msys2UninstallOne, tu.OK(""))
	var out bytes.Buffer
	if err := uninstallPackage(context.Background(), &pkgmgr.Winget{Runner: run}, system.NewConsole(&out), "MSYS2.MSYS2", false, true); err != nil {
		t.Fatalf("uninstall: %v (calls %v)", err, run.Lines())
	}
}

func TestUninstall_SeveralVersionsNeedFlag(t *testing.T) {
	run := tu.NewFakeRunner().
		On(msys2List, tu.OK("Name  Id          Version  Source\n------\nMSYS2 MSYS2.MSYS2 20231026 winget\nMSYS2 MSYS2.MSYS2 20240727 winget\n"))
	var out bytes.Buffer
	err := uninstallPackage(context.Background(), &pkgmgr.Winget{Runner: run}, system.NewConsole(&out), "MSYS2.MSYS2", false, true)
	if err == nil || run.Count("winget uninstall") != 0 {
		t.Fatalf("expected refusal without --all-versions, got %v (calls %v)", err, run.Lines())
	}
}
