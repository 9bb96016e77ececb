package pkgmgr_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/pkgmgr"
	tu "github.com/SZPU-RoboMaster-Embedded-Team/install/internal/testutil"
)

func TestInstall_BatchSkipsPresent(t *testing.T) {
	rt := tu.NewFakeRuntime("/msys64").
		On("pacman -Q cmake", tu.OK("cmake 3.27.0-1\n")).
		On("pacman -Q make", tu.Fail(1, "error: package 'make' was not found")).
		On("pacman -S --noconfirm make", tu.OK("installing make...\n"))
	p := &pkgmgr.Pacman{Shell: rt}

	out, err := p.Install(context.Background(), []string{"cmake", "make"}, false)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(out.Present) != 1 || out.Present[0] != (pkgmgr.Package{Name: "cmake", Version: "3.27.0-1"}) {
		t.Fatalf("unexpected present: %+v", out.Present)
	}
	if len(out.Installed) != 1 || out.Installed[0] != "make" {
		t.Fatalf("unexpected installed: %v", out.Installed)
	}
	installs := 0
	for _, s := range rt.History() {
		if len(s) > 9 && s[:9] == "pacman -S" {
			installs++
			if s != "pacman -S --noconfirm make" {
				t.Fatalf("install should only name the missing package, got %q", s)
			}
		}
	}
	if installs != 1 {
		t.Fatalf("expected exactly one install invocation, got %d (%v)", installs, rt.History())
	}
}

func TestInstall_AllPresentIsNoop(t *testing.T) {
	rt := tu.NewFakeRuntime("/msys64").
		On("pacman -Q cmake", tu.OK("cmake 3.27.0-1\n")).
		On("pacman -Q make", tu.OK("make 4.4.1-1\n"))
	p := &pkgmgr.Pacman{Shell: rt}

	out, err := p.Install(context.Background(), []string{"cmake", "make", "cmake"}, false)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(out.Installed) != 0 || len(out.Present) != 2 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if h := rt.History(); len(h) != 2 {
		t.Fatalf("expected only queries, got %v", h)
	}
}

func TestInstall_ForceSkipsQuery(t *testing.T) {
	rt := tu.NewFakeRuntime("/msys64").On("pacman -S --noconfirm cmake make", tu.OK(""))
	p := &pkgmgr.Pacman{Shell: rt}

	out, err := p.Install(context.Background(), []string{"cmake", "make"}, true)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(out.Installed) != 2 {
		t.Fatalf("force should reinstall both: %+v", out)
	}
	if h := rt.History(); len(h) != 1 || h[0] != "pacman -S --noconfirm cmake make" {
		t.Fatalf("unexpected scripts: %v", h)
	}
}

func TestInstall_FailureCarriesStderr(t *testing.T) {
	rt := tu.NewFakeRuntime("/msys64").
		On("pacman -S --noconfirm mingw-w64-x86_64-openocd", tu.Fail(1, "error: failed retrieving file\nerror: failed to commit transaction"))
	p := &pkgmgr.Pacman{Shell: rt}

	_, err := p.Install(context.Background(), []string{"mingw-w64-x86_64-openocd"}, false)
	if !errors.Is(err, errs.ErrCommandFailed) {
		t.Fatalf("expected command failure, got %v", err)
	}
	var ce *errs.CommandError
	if !errors.As(err, &ce) || ce.Stderr == "" {
		t.Fatalf("stderr tail missing: %v", err)
	}
}

func TestInstall_NoRuntime(t *testing.T) {
	rt := tu.NewFakeRuntime("/msys64")
	rt.Present = false
	p := &pkgmgr.Pacman{Shell: rt}
	if _, err := p.Install(context.Background(), []string{"cmake"}, false); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParseQuery(t *testing.T) {
	if p, ok := pkgmgr.ParseQuery("mingw-w64-x86_64-openocd 0.12.0-3\n"); !ok || p.Name != "mingw-w64-x86_64-openocd" || p.Version != "0.12.0-3" {
		t.Fatalf("unexpected parse: %+v %v", p, ok)
	}
	if _, ok := pkgmgr.ParseQuery(""); ok {
		t.Fatalf("empty output should not parse")
	}
	if _, ok := pkgmgr.ParseQuery("cmake"); ok {
		t.Fatalf("line without version should not parse")
	}
}
