package pkgmgr

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/tools"
)

// winget HRESULTs that mean the package is already there. Depending on how
// the exit status is surfaced they arrive signed or unsigned.
var alreadyInstalledCodes = map[int64]bool{
	-1978335189: true, // 0x8A15002B no applicable upgrade
	0x8A15002B:  true,
	-1978335135: true, // 0x8A150061 package already installed
	0x8A150061:  true,
}

// Winget drives the Windows package manager.
type Winget struct {
	Runner         tools.Runner
	Bin            string // defaults to "winget"
	Source         string // restricts lookups to one source; empty searches all
	Location       string // install location passed with --location
	QueryTimeout   time.Duration
	InstallTimeout time.Duration
	Log            *log.Logger
}

// UninstallOptions select which installed versions to remove.
type UninstallOptions struct {
	Version     string
	AllVersions bool
	Silent      bool
}

// Available reports whether winget can be executed.
func (w *Winget) Available(ctx context.Context) bool {
	_, err := w.run(ctx, w.queryTimeout(), "--version")
	return err == nil
}

// InstalledVersions lists the installed versions of id. A non-zero exit from
// `winget list` means nothing matched and yields an empty list.
func (w *Winget) InstalledVersions(ctx context.Context, id string) ([]string, error) {
	res, err := w.run(ctx, w.queryTimeout(), "list", "--id", id, "--exact", "--accept-source-agreements")
	if err != nil {
		if errors.Is(err, errs.ErrCommandFailed) {
			return nil, nil
		}
		return nil, err
	}
	return ParseList(res.Stdout, id), nil
}

// Install installs id unless it is already present. It reports whether the
// package was already installed.
func (w *Winget) Install(ctx context.Context, id string, force bool) (bool, error) {
	if !force {
		if vs, err := w.InstalledVersions(ctx, id); err != nil {
			return false, err
		} else if len(vs) > 0 {
			w.info("already installed", "id", id, "versions", vs)
			return true, nil
		}
	}
	args := []string{"install", "--id", id, "--exact"}
	if w.Source != "" {
		args = append(args, "--source", w.Source)
	}
	args = append(args, "--accept-source-agreements", "--accept-package-agreements", "--silent", "--disable-interactivity")
	if force {
		args = append(args, "--force")
	}
	if w.Location != "" {
		if err := os.MkdirAll(w.Location, 0o755); err != nil {
			w.warn("cannot create install location", "dir", w.Location, "err", err)
		}
		args = append(args, "--location", w.Location)
	}
	w.info("installing", "id", id, "location", w.Location)
	_, err := w.run(ctx, w.installTimeout(), args...)
	if err == nil {
		return false, nil
	}
	var ce *errs.CommandError
	if errors.As(err, &ce) && alreadyInstalledCodes[int64(ce.ExitCode)] {
		return true, nil
	}
	return false, errors.Wrapf(err, "winget install %s", id)
}

// Uninstall removes id.
func (w *Winget) Uninstall(ctx context.Context, id string, opts UninstallOptions) error {
	args := []string{"uninstall", "--id", id, "--exact"}
	switch {
	case opts.Version != "":
		args = append(args, "--version", opts.Version)
	case opts.AllVersions:
		args = append(args, "--all-versions")
	}
	if opts.Silent {
		args = append(args, "--silent")
	}
	args = append(args, "--accept-source-agreements", "--disable-interactivity")
	_, err := w.run(ctx, w.installTimeout(), args...)
	return errors.Wrapf(err, "winget uninstall %s", id)
}

func (w *Winget) run(ctx context.Context, timeout time.Duration, args ...string) (tools.Result, error) {
	bin := w.Bin
	if bin == "" {
		bin = "winget"
	}
	return w.Runner.Run(ctx, tools.Command{Name: bin, Args: args, Timeout: timeout})
}

func (w *Winget) queryTimeout() time.Duration {
	if w.QueryTimeout > 0 {
		return w.QueryTimeout
	}
	return DefaultQueryTimeout
}

func (w *Winget) installTimeout() time.Duration {
	if w.InstallTimeout > 0 {
		return w.InstallTimeout
	}
	return DefaultInstallTimeout
}

func (w *Winget) info(msg string, kv ...any) {
	if w.Log != nil {
		w.Log.Info(msg, kv...)
	}
}

func (w *Winget) warn(msg string, kv ...any) {
	if w.Log != nil {
		w.Log.Warn(msg, kv...)
	}
}
