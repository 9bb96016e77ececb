package pkgmgr_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	tu "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/testutil"
)

const listEnglish = "\r   - \r   \\ \r   | \r" + `Name  Id          Version  Source
-----------------------------------
MSYS2 MSYS2.MSYS2 20240727 winget
`

const listChinese = `名称  ID          版本     可用     源
-------------------------------------------
MSYS2 MSYS2.MSYS2 20231026 20240727 winget
MSYS2 MSYS2.MSYS2 20240727          winget
MSYS2 MSYS2.MSYS2 20240727          winget
`

func TestParseList(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"english with spinner", listEnglish, []string{"20240727"}},
		{"chinese, dedupe", listChinese, []string{"20231026", "20240727"}},
		{"no header", "MSYS2 MSYS2.MSYS2 20240727 winget\n", nil},
		{"source is not a version", "Name Id Version Source\n----\nMSYS2 MSYS2.MSYS2 winget\n", nil},
		{"no match", "Name Id Version Source\n----\nGit Git.Git 2.45.0 winget\n", nil},
		{"nothing installed", "No installed package found matching input criteria.\n", nil},
	}
	for _, c := range cases {
		got := pkgmgr.ParseList(c.in, "MSYS2.MSYS2")
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestWingetInstall_AlreadyInstalledShortCircuits(t *testing.T) {
	run := tu.NewFakeRunner().On("winget list --id MSYS2.MSYS2 --exact --accept-source-agreements", tu.OK(listEnglish))
	w := &pkgmgr.Winget{Runner: run, Source: "winget"}

	already, err := w.Install(context.Background(), "MSYS2.MSYS2", false)
	if err != nil || !already {
		t.Fatalf("expected already installed, got %v %v", already, err)
	}
	if n := run.Count("winget install"); n != 0 {
		t.Fatalf("install must not run, got %v", run.Lines())
	}
}

func TestWingetInstall_RunsWithLocation(t *testing.T) {
	loc := t.TempDir()
	run := tu.NewFakeRunner().
		On("winget list --id MSYS2.MSYS2 --exact --accept-source-agreements", tu.Fail(-1978335212, "No installed package found"))
	w := &pkgmgr.Winget{Runner: run, Source: "winget", Location: loc}

	install := "winget install --id MSYS2.MSYS2 --exact --source winget --accept-source-agreements --accept-package-agreements --silent --disable-interactivity --location " + loc
	run.On(install, tu.OK("Successfully installed"))

	already, err := w.Install(context.Background(), "MSYS2.MSYS2", false)
	if err != nil || already {
		t.Fatalf("expected fresh install, got %v %v (calls %v)", already, err, run.Lines())
	}
}

func TestWingetInstall_ExitCodeAlreadyInstalled(t *testing.T) {
	run := tu.NewFakeRunner().
		On("winget install --id MSYS2.MSYS2 --exact --accept-source-agreements --accept-package-agreements --silent --disable-interactivity --force", tu.Fail(-1978335189, "No available upgrade found."))
	w := &pkgmgr.Winget{Runner: run}
	already, err := w.Install(context.Background(), "MSYS2.MSYS2", true)
	if err != nil || !already {
		t.Fatalf("expected already installed via exit code, got %v %v", already, err)
	}
}

func TestWingetInstall_Failure(t *testing.T) {
	run := tu.NewFakeRunner().
		On("winget install --id MSYS2.MSYS2 --exact --accept-source-agreements --accept-package-agreements --silent --disable-interactivity --force", tu.Fail(1, "Installer failed"))
	w := &pkgmgr.Winget{Runner: run}
	_, err := w.Install(context.Background(), "MSYS2.MSYS2", true)
	if !errors.Is(err, errs.ErrCommandFailed) || !strings.Contains(err.Error(), "Installer failed") {
		t.Fatalf("expected command failure with stderr, got %v", err)
	}
}

func TestWingetUninstall_Args(t *testing.T) {
	run := tu.NewFakeRunner().
		On("winget uninstall --id MSYS2.MSYS2 --exact --all-versions --silent --accept-source-agreements --disable-interactivity", tu.OK(""))
	w := &pkgmgr.Winget{Runner: run}
	if err := w.Uninstall(context.Background(), "MSYS2.MSYS2", pkgmgr.UninstallOptions{AllVersions: true, Silent: true}); err != nil {
		t.Fatalf("Uninstall: %v (calls %v)", err, run.Lines())
	}
}

func TestWingetAvailable(t *testing.T) {
	w := &pkgmgr.Winget{Runner: tu.NewFakeRunner()}
	if w.Available(context.Background()) {
		t.Fatalf("winget should be unavailable without a script")
	}
	w.Runner = tu.NewFakeRunner().On("winget --version", tu.OK("v1.8.1911\n"))
	if !w.Available(context.Background()) {
		t.Fatalf("winget should be available")
	}
}
